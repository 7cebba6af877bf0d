// Package render turns Markdown into a tree of presentation elements.
//
// Parsing is delegated to goldmark with the GitHub-flavoured extensions.
// Each parsed node is resolved to a style.Kind and substituted with the
// wrapper from the style table; fenced and indented code blocks go through
// the codeblock highlighter and carry a copy button whose label comes from
// the caller's codeblock.Labeler.
package render

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/style"
	"github.com/starford/mdview/internal/visual"
)

// Renderer converts Markdown documents. It is safe for concurrent use.
type Renderer struct {
	md        goldmark.Markdown
	styles    *style.Table
	highlight *codeblock.Highlighter
}

// Option configures a Renderer.
type Option func(*config)

type config struct {
	highlightStyle string
	allowRawHTML   bool
	styles         *style.Table
}

// WithHighlightStyle selects the chroma style for code blocks.
func WithHighlightStyle(name string) Option {
	return func(c *config) { c.highlightStyle = name }
}

// WithRawHTML controls whether raw HTML in the document is passed through.
func WithRawHTML(allow bool) Option {
	return func(c *config) { c.allowRawHTML = allow }
}

// WithStyles replaces the style table.
func WithStyles(t *style.Table) Option {
	return func(c *config) {
		if t != nil {
			c.styles = t
		}
	}
}

// New creates a Renderer. Raw HTML passthrough is enabled by default.
func New(opts ...Option) *Renderer {
	cfg := config{
		highlightStyle: codeblock.DefaultStyle,
		allowRawHTML:   true,
		styles:         style.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var rendererOpts []goldmark.Option
	if cfg.allowRawHTML {
		rendererOpts = append(rendererOpts, goldmark.WithRendererOptions(html.WithUnsafe()))
	}
	md := goldmark.New(append([]goldmark.Option{goldmark.WithExtensions(extension.GFM)}, rendererOpts...)...)

	return &Renderer{
		md:        md,
		styles:    cfg.styles,
		highlight: codeblock.NewHighlighter(cfg.highlightStyle),
	}
}

// Document is the result of a render pass.
type Document struct {
	Root   *visual.Element
	Blocks []codeblock.Block
}

// HTML serialises the document.
func (d *Document) HTML() string {
	return d.Root.HTML()
}

// Render parses source and builds its element tree. It never fails:
// unrecognised syntax comes out as literal text. labels may be nil, in
// which case every code block shows the idle label.
func (r *Renderer) Render(source []byte, labels codeblock.Labeler) *Document {
	root := r.md.Parser().Parse(text.NewReader(source))
	b := &builder{r: r, source: source, labels: labels}
	tree := r.styles.Wrap(style.KindDocument, style.Attributes{}, b.children(root))
	return &Document{Root: tree, Blocks: b.blocks}
}

// RenderHTML is a convenience wrapper returning the serialised document.
func (r *Renderer) RenderHTML(source []byte, labels codeblock.Labeler) string {
	return r.Render(source, labels).HTML()
}

type builder struct {
	r      *Renderer
	source []byte
	labels codeblock.Labeler
	blocks []codeblock.Block
}

func (b *builder) children(n ast.Node) []*visual.Element {
	var out []*visual.Element
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		out = append(out, b.node(c)...)
	}
	return out
}

func (b *builder) wrap(k style.Kind, a style.Attributes, n ast.Node) []*visual.Element {
	return []*visual.Element{b.r.styles.Wrap(k, a, b.children(n))}
}

func (b *builder) node(n ast.Node) []*visual.Element {
	tbl := b.r.styles
	switch n := n.(type) {
	case *ast.Paragraph:
		return b.wrap(style.KindParagraph, style.Attributes{}, n)
	case *ast.TextBlock:
		// Tight list items hold their inline content without a paragraph.
		return b.children(n)
	case *ast.Heading:
		return b.wrap(style.KindHeading, style.Attributes{Level: n.Level}, n)
	case *ast.Text:
		return b.text(n)
	case *ast.String:
		return []*visual.Element{tbl.Wrap(style.KindText, style.Attributes{Literal: string(n.Value)}, nil)}
	case *ast.Emphasis:
		if n.Level >= 2 {
			return b.wrap(style.KindStrong, style.Attributes{}, n)
		}
		return b.wrap(style.KindEmphasis, style.Attributes{}, n)
	case *ast.CodeSpan:
		code := strings.ReplaceAll(plainText(n, b.source), "\n", " ")
		lit := tbl.Wrap(style.KindText, style.Attributes{Literal: code}, nil)
		return []*visual.Element{tbl.Wrap(style.KindInlineCode, style.Attributes{}, []*visual.Element{lit})}
	case *ast.Link:
		return b.wrap(style.KindLink, style.Attributes{
			Href:  b.url(n.Destination),
			Title: string(n.Title),
		}, n)
	case *ast.AutoLink:
		href := string(n.URL(b.source))
		if n.AutoLinkType == ast.AutoLinkEmail && !strings.HasPrefix(strings.ToLower(href), "mailto:") {
			href = "mailto:" + href
		}
		label := tbl.Wrap(style.KindText, style.Attributes{Literal: string(n.Label(b.source))}, nil)
		return []*visual.Element{tbl.Wrap(style.KindLink, style.Attributes{Href: b.url([]byte(href))}, []*visual.Element{label})}
	case *ast.Image:
		return []*visual.Element{tbl.Wrap(style.KindImage, style.Attributes{
			Src:   b.url(n.Destination),
			Alt:   plainText(n, b.source),
			Title: string(n.Title),
		}, nil)}
	case *ast.Blockquote:
		return b.wrap(style.KindBlockquote, style.Attributes{}, n)
	case *ast.List:
		if n.IsOrdered() {
			return b.wrap(style.KindOrderedList, style.Attributes{Start: n.Start}, n)
		}
		return b.wrap(style.KindUnorderedList, style.Attributes{}, n)
	case *ast.ListItem:
		return b.wrap(style.KindListItem, style.Attributes{}, n)
	case *ast.ThematicBreak:
		return []*visual.Element{tbl.Wrap(style.KindHorizontalRule, style.Attributes{}, nil)}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return []*visual.Element{b.codeBlock(n)}
	case *ast.HTMLBlock, *ast.RawHTML:
		return []*visual.Element{tbl.Wrap(style.KindRaw, style.Attributes{Literal: b.passthrough(n)}, nil)}

	case *east.Table:
		return []*visual.Element{b.table(n)}
	case *east.Strikethrough:
		return b.wrap(style.KindStrikethrough, style.Attributes{}, n)
	case *east.TaskCheckBox:
		return []*visual.Element{tbl.Wrap(style.KindTaskCheckbox, style.Attributes{Checked: n.IsChecked}, nil)}
	}

	// Unknown node types keep the parser's own rendering.
	return []*visual.Element{tbl.Wrap(style.KindRaw, style.Attributes{Literal: b.passthrough(n)}, nil)}
}

func (b *builder) text(n *ast.Text) []*visual.Element {
	tbl := b.r.styles
	v := n.Segment.Value(b.source)
	if !n.IsRaw() {
		v = util.UnescapePunctuations(v)
		v = util.ResolveNumericReferences(v)
		v = util.ResolveEntityNames(v)
	}
	out := []*visual.Element{tbl.Wrap(style.KindText, style.Attributes{Literal: string(v)}, nil)}
	switch {
	case n.HardLineBreak():
		out = append(out, tbl.Wrap(style.KindLineBreak, style.Attributes{}, nil))
	case n.SoftLineBreak():
		out = append(out, tbl.Wrap(style.KindText, style.Attributes{Literal: "\n"}, nil))
	}
	return out
}

func (b *builder) table(n *east.Table) *visual.Element {
	tbl := b.r.styles
	var head, body []*visual.Element
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *east.TableHeader:
			row := tbl.Wrap(style.KindTableRow, style.Attributes{}, b.cells(c, style.KindTableHeaderCell))
			head = append(head, row)
		case *east.TableRow:
			body = append(body, tbl.Wrap(style.KindTableRow, style.Attributes{}, b.cells(c, style.KindTableDataCell)))
		default:
			body = append(body, b.node(c)...)
		}
	}
	var parts []*visual.Element
	if len(head) > 0 {
		parts = append(parts, tbl.Wrap(style.KindTableHead, style.Attributes{}, head))
	}
	if len(body) > 0 {
		parts = append(parts, tbl.Wrap(style.KindTableBody, style.Attributes{}, body))
	}
	return tbl.Wrap(style.KindTable, style.Attributes{}, parts)
}

func (b *builder) cells(row ast.Node, kind style.Kind) []*visual.Element {
	var out []*visual.Element
	for c := row.FirstChild(); c != nil; c = c.NextSibling() {
		cell, ok := c.(*east.TableCell)
		if !ok {
			out = append(out, b.node(c)...)
			continue
		}
		out = append(out, b.r.styles.Wrap(kind, style.Attributes{Align: alignment(cell.Alignment)}, b.children(cell)))
	}
	return out
}

func alignment(a east.Alignment) string {
	switch a {
	case east.AlignLeft:
		return "left"
	case east.AlignRight:
		return "right"
	case east.AlignCenter:
		return "center"
	}
	return ""
}

func (b *builder) codeBlock(n ast.Node) *visual.Element {
	blk := codeblock.FromNode(n, b.source, len(b.blocks))
	b.blocks = append(b.blocks, blk)

	label := codeblock.LabelIdle
	if b.labels != nil {
		label = b.labels.Label(blk.ID)
	}
	return b.r.styles.Wrap(style.KindCodeBlock, style.Attributes{
		Block:       blk.ID,
		Language:    blk.Language,
		Highlighted: b.r.highlight.Highlight(blk),
		Label:       label,
	}, nil)
}

// passthrough renders n with goldmark's default HTML renderer.
func (b *builder) passthrough(n ast.Node) string {
	var buf bytes.Buffer
	if err := b.r.md.Renderer().Render(&buf, b.source, n); err != nil {
		return string(util.EscapeHTML([]byte(plainText(n, b.source))))
	}
	return buf.String()
}

// url escapes dest and drops dangerous schemes regardless of the raw HTML
// setting.
func (b *builder) url(dest []byte) string {
	if html.IsDangerousURL(dest) {
		return ""
	}
	return string(util.URLEscape(dest, true))
}

// plainText collects the literal text below n.
func plainText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			sb.Write(c.Segment.Value(source))
		case *ast.String:
			sb.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
