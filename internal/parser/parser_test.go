package parser

import (
	"testing"
)

func TestParse_FrontmatterAndBody(t *testing.T) {
	r := Parse([]byte("---\ntitle: Hello\n---\n# Other\nBody text.\n"))
	if r.Title != "Hello" {
		t.Errorf("title = %q, want %q", r.Title, "Hello")
	}
	if r.Body != "# Other\nBody text.\n" {
		t.Errorf("body = %q", r.Body)
	}
}

func TestParse_NoFrontmatter(t *testing.T) {
	r := Parse([]byte("# Just a heading\nSome text.\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter, got %v", r.Frontmatter)
	}
	if r.Title != "Just a heading" {
		t.Errorf("title = %q, want %q", r.Title, "Just a heading")
	}
}

func TestParse_InvalidYAMLFallback(t *testing.T) {
	r := Parse([]byte("---\n: invalid: yaml: {{{\n---\nBody\n"))
	if r.Frontmatter != nil {
		t.Errorf("expected nil frontmatter on invalid YAML")
	}
}

func TestParse_HorizontalRuleIsNotFrontmatter(t *testing.T) {
	r := Parse([]byte("---\n\nplain paragraph\n"))
	if r.Frontmatter != nil || r.Title != "" {
		t.Errorf("result = %+v", r)
	}
}

func TestDeriveTitle_SkipsFencedCode(t *testing.T) {
	title := deriveTitle(nil, "```sh\n# comment\n```\n# Real ##\n")
	if title != "Real" {
		t.Errorf("title = %q, want %q", title, "Real")
	}
}

func TestDeriveTitle_FrontmatterOverH1(t *testing.T) {
	title := deriveTitle(map[string]any{"title": "FM Title"}, "# H1 Title\ntext")
	if title != "FM Title" {
		t.Errorf("title = %q, want %q", title, "FM Title")
	}
}
