package codeblock

import (
	"bytes"
	"log/slog"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark/util"
)

// DefaultStyle is the chroma style used when none is configured.
const DefaultStyle = "onedark"

// Highlighter renders code blocks to coloured HTML.
type Highlighter struct {
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// NewHighlighter returns a highlighter using the named chroma style. Unknown
// style names fall back to chroma's default style.
func NewHighlighter(style string) *Highlighter {
	if style == "" {
		style = DefaultStyle
	}
	return &Highlighter{
		style: styles.Get(style),
		formatter: chromahtml.New(
			chromahtml.WithClasses(false),
			chromahtml.TabWidth(4),
		),
	}
}

// Highlight returns the HTML for b. It never fails: an unknown language is
// rendered with the plaintext lexer and a formatter error yields an
// undecorated monospace block.
func (h *Highlighter) Highlight(b Block) string {
	lexer := lexers.Get(b.Language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	it, err := lexer.Tokenise(nil, b.Code)
	if err != nil {
		slog.Debug("highlight: tokenise failed", slog.String("language", b.Language), slog.String("error", err.Error()))
		return plain(b.Code)
	}
	var buf bytes.Buffer
	if err := h.formatter.Format(&buf, h.style, it); err != nil {
		slog.Debug("highlight: format failed", slog.String("language", b.Language), slog.String("error", err.Error()))
		return plain(b.Code)
	}
	return buf.String()
}

func plain(code string) string {
	return `<pre class="rounded-md"><code>` + string(util.EscapeHTML([]byte(code))) + "</code></pre>"
}
