package mcpserver

import (
	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/style"
)

// StyleMapURI is the resource describing how Markdown kinds are presented.
const StyleMapURI = "mdview://style-map"

// StyleMap renders the style table as a Markdown document.
func StyleMap(t *style.Table) string {
	return "# mdview style map\n\n" +
		"Every Markdown node kind is rendered through one wrapper. Kinds without\n" +
		"a dedicated wrapper pass their children through unchanged.\n\n" +
		t.Describe() +
		"\n## Code blocks\n\n" +
		"Fenced blocks carry a copy button labelled `" + codeblock.LabelIdle + "`. After a copy the\n" +
		"button reads `" + codeblock.LabelCopied + "` until the reset delay passes or another\n" +
		"block is copied. Blocks without a language are highlighted as `" + codeblock.DefaultLanguage + "`.\n"
}
