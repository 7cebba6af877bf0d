package render

import (
	"strings"
	"testing"

	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/style"
	"github.com/starford/mdview/internal/visual"
)

func render(t *testing.T, src string) *Document {
	t.Helper()
	return New().Render([]byte(src), nil)
}

func only(t *testing.T, root *visual.Element, k style.Kind) *visual.Element {
	t.Helper()
	found := root.Find(k.String())
	if len(found) != 1 {
		t.Fatalf("found %d %s elements, want 1 in %s", len(found), k, root.HTML())
	}
	return found[0]
}

func TestRender_Heading(t *testing.T) {
	doc := render(t, "# Hello")
	h := only(t, doc.Root, style.KindHeading)
	if h.Tag != "h1" || h.PlainText() != "Hello" {
		t.Errorf("heading = <%s> %q", h.Tag, h.PlainText())
	}
}

func TestRender_TableUsesMappedWrappers(t *testing.T) {
	doc := render(t, "| a | b |\n|---|---|\n| 1 | 2 |\n")
	tbl := style.Default()

	table := only(t, doc.Root, style.KindTable)
	want := tbl.Wrap(style.KindTable, style.Attributes{}, nil)
	if table.Class != want.Class {
		t.Errorf("table class = %q", table.Class)
	}
	rows := doc.Root.Find(style.KindTableRow.String())
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Class != "border-b" {
			t.Errorf("row class = %q", r.Class)
		}
	}
	headers := doc.Root.Find(style.KindTableHeaderCell.String())
	cells := doc.Root.Find(style.KindTableDataCell.String())
	if len(headers) != 2 || len(cells) != 2 {
		t.Fatalf("headers = %d cells = %d", len(headers), len(cells))
	}
	if headers[0].PlainText() != "a" || cells[1].PlainText() != "2" {
		t.Errorf("cell text = %q / %q", headers[0].PlainText(), cells[1].PlainText())
	}
	if !strings.Contains(doc.HTML(), `<th class="border border-gray-300 px-4 py-2 text-left bg-gray-100">a</th>`) {
		t.Errorf("html = %s", doc.HTML())
	}
}

func TestRender_TableAlignment(t *testing.T) {
	doc := render(t, "| l | c |\n|:--|:-:|\n| 1 | 2 |\n")
	cells := doc.Root.Find(style.KindTableDataCell.String())
	if v, _ := cells[1].Attr("style"); v != "text-align: center" {
		t.Errorf("style = %q", v)
	}
}

func TestRender_FencedCodeBlock(t *testing.T) {
	doc := render(t, "```js\nconst x = 1;\n```")
	if len(doc.Blocks) != 1 {
		t.Fatalf("blocks = %d", len(doc.Blocks))
	}
	b := doc.Blocks[0]
	if b.Language != "js" || b.Code != "const x = 1;" {
		t.Errorf("block = %+v", b)
	}
	e := only(t, doc.Root, style.KindCodeBlock)
	btn := e.Find("copy-button")
	if len(btn) != 1 || btn[0].Text != codeblock.LabelIdle {
		t.Errorf("button = %+v", btn)
	}
}

type fixedLabels map[int]string

func (f fixedLabels) Label(id int) string {
	if l, ok := f[id]; ok {
		return l
	}
	return codeblock.LabelIdle
}

func TestRender_LabelsComeFromState(t *testing.T) {
	src := []byte("```\na\n```\n\n```\nb\n```\n")
	r := New()
	first := r.Render(src, nil)
	labels := fixedLabels{first.Blocks[1].ID: codeblock.LabelCopied}

	doc := r.Render(src, labels)
	btns := doc.Root.Find("copy-button")
	if len(btns) != 2 {
		t.Fatalf("buttons = %d", len(btns))
	}
	if btns[0].Text != "Copy" || btns[1].Text != "Copied!" {
		t.Errorf("labels = %q, %q", btns[0].Text, btns[1].Text)
	}
}

func TestRender_InlineCodeIsPlain(t *testing.T) {
	doc := render(t, "use `go test` here")
	if len(doc.Blocks) != 0 {
		t.Errorf("inline code produced blocks: %+v", doc.Blocks)
	}
	code := only(t, doc.Root, style.KindInlineCode)
	if code.Tag != "code" || code.PlainText() != "go test" {
		t.Errorf("inline code = <%s> %q", code.Tag, code.PlainText())
	}
}

func TestRender_LinksUseExternalWrapper(t *testing.T) {
	doc := render(t, "[site](https://example.com \"T\") and https://auto.example.org")
	links := doc.Root.Find(style.KindLink.String())
	if len(links) != 2 {
		t.Fatalf("links = %d in %s", len(links), doc.HTML())
	}
	for _, l := range links {
		if l.Class != "text-blue-600 hover:underline" {
			t.Errorf("link class = %q", l.Class)
		}
	}
	if href, _ := links[0].Attr("href"); href != "https://example.com" {
		t.Errorf("href = %q", href)
	}
	if title, _ := links[0].Attr("title"); title != "T" {
		t.Errorf("title = %q", title)
	}
}

func TestRender_DangerousURLsDropped(t *testing.T) {
	src := "[x](javascript:alert(1)) <javascript:alert(2)> ![i](vbscript:msgbox)"
	for _, allow := range []bool{true, false} {
		doc := New(WithRawHTML(allow)).Render([]byte(src), nil)
		links := doc.Root.Find(style.KindLink.String())
		if len(links) != 2 {
			t.Fatalf("raw=%v: links = %d in %s", allow, len(links), doc.HTML())
		}
		for _, l := range links {
			if href, _ := l.Attr("href"); href != "" {
				t.Errorf("raw=%v: href = %q, want dropped", allow, href)
			}
		}
		img := only(t, doc.Root, style.KindImage)
		if src, _ := img.Attr("src"); src != "" {
			t.Errorf("raw=%v: src = %q, want dropped", allow, src)
		}
		if strings.Contains(doc.HTML(), `="javascript:`) {
			t.Errorf("raw=%v: dangerous attribute in %s", allow, doc.HTML())
		}
	}
}

func TestRender_ImageAlt(t *testing.T) {
	doc := render(t, "![a *cat*](cat.png) ![](dog.png)")
	imgs := doc.Root.Find(style.KindImage.String())
	if len(imgs) != 2 {
		t.Fatalf("images = %d", len(imgs))
	}
	if alt, _ := imgs[0].Attr("alt"); alt != "a cat" {
		t.Errorf("alt = %q", alt)
	}
	if alt, ok := imgs[1].Attr("alt"); !ok || alt != "" {
		t.Errorf("empty alt = %q, %v", alt, ok)
	}
}

func TestRender_InlineKinds(t *testing.T) {
	doc := render(t, "**b** *i* ~~s~~\n\n> q\n\n---\n\n- one\n- two\n\n1. x\n")
	for _, k := range []style.Kind{
		style.KindStrong, style.KindEmphasis, style.KindStrikethrough,
		style.KindBlockquote, style.KindHorizontalRule,
		style.KindUnorderedList, style.KindOrderedList,
	} {
		if len(doc.Root.Find(k.String())) == 0 {
			t.Errorf("missing %s in %s", k, doc.HTML())
		}
	}
	if n := len(doc.Root.Find(style.KindListItem.String())); n != 3 {
		t.Errorf("list items = %d, want 3", n)
	}
}

func TestRender_TaskList(t *testing.T) {
	doc := render(t, "- [x] done\n- [ ] todo\n")
	boxes := doc.Root.Find(style.KindTaskCheckbox.String())
	if len(boxes) != 2 {
		t.Fatalf("checkboxes = %d", len(boxes))
	}
	if _, ok := boxes[0].Attr("checked"); !ok {
		t.Error("first box should be checked")
	}
}

func TestRender_RawHTMLPassthrough(t *testing.T) {
	doc := render(t, "<div class=\"note\">hi</div>\n\ntext <kbd>K</kbd>")
	out := doc.HTML()
	if !strings.Contains(out, `<div class="note">hi</div>`) || !strings.Contains(out, "<kbd>K</kbd>") {
		t.Errorf("raw html not passed through: %s", out)
	}

	safe := New(WithRawHTML(false)).RenderHTML([]byte("<script>x</script>"), nil)
	if strings.Contains(safe, "<script>") {
		t.Errorf("raw html leaked with passthrough disabled: %s", safe)
	}
}

func TestRender_MalformedInputNeverFails(t *testing.T) {
	inputs := []string{
		"", "```", "| a |\n|--", "[unclosed](", "<div", "***", "\x00\xff", "> > > >",
	}
	for _, in := range inputs {
		doc := render(t, in)
		if doc == nil || doc.Root == nil {
			t.Fatalf("nil document for %q", in)
		}
		_ = doc.HTML()
	}
	if got := render(t, "[unclosed](").Root.PlainText(); got != "[unclosed](" {
		t.Errorf("malformed link text = %q", got)
	}
}

func TestRender_EscapesAndEntities(t *testing.T) {
	got := render(t, `\*not em\* &amp; 1 < 2`).Root.PlainText()
	if got != "*not em* & 1 < 2" {
		t.Errorf("text = %q", got)
	}
}

func TestRender_Idempotent(t *testing.T) {
	src := []byte("# T\n\n| a |\n|---|\n| 1 |\n\n```go\nx := 1\n```\n\n[l](u) ![i](s)\n")
	r := New()
	a := r.Render(src, nil)
	b := r.Render(src, nil)
	if a.HTML() != b.HTML() {
		t.Error("rendering the same document twice produced different output")
	}
	if len(a.Blocks) != len(b.Blocks) || a.Blocks[0] != b.Blocks[0] {
		t.Errorf("blocks differ: %+v vs %+v", a.Blocks, b.Blocks)
	}
}

func TestRender_UnknownLanguage(t *testing.T) {
	doc := render(t, "```klingon\nQapla'\n```\n")
	if doc.Blocks[0].Language != "klingon" {
		t.Errorf("language = %q", doc.Blocks[0].Language)
	}
	if !strings.Contains(doc.HTML(), "Qapla") {
		t.Errorf("code missing from output: %s", doc.HTML())
	}
}

func TestTerminal(t *testing.T) {
	out, err := Terminal([]byte("# Title\n\nbody"), "notty", 40)
	if err != nil {
		t.Fatalf("Terminal: %v", err)
	}
	if !strings.Contains(out, "Title") || !strings.Contains(out, "body") {
		t.Errorf("terminal output = %q", out)
	}
}
