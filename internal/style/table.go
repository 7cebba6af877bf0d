package style

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/starford/mdview/internal/visual"
)

// Attributes carries the kind-specific data a wrapper may need. Wrappers
// treat zero values as safe defaults.
type Attributes struct {
	Href    string
	Title   string
	Src     string
	Alt     string
	Level   int
	Start   int
	Align   string
	Checked bool

	// Code blocks.
	Block       int
	Language    string
	Highlighted string
	Label       string

	// Raw markup for passthrough kinds.
	Literal string
}

// Wrapper renders one node kind from its attributes and rendered children.
type Wrapper func(a Attributes, children []*visual.Element) *visual.Element

// Table is a fixed kind → wrapper mapping.
type Table struct {
	wrappers map[Kind]Wrapper
}

// Lookup returns the wrapper for k, or Passthrough when k is not mapped.
func (t *Table) Lookup(k Kind) Wrapper {
	if w, ok := t.wrappers[k]; ok {
		return w
	}
	return Passthrough(k)
}

// Has reports whether k has an explicit wrapper.
func (t *Table) Has(k Kind) bool {
	_, ok := t.wrappers[k]
	return ok
}

// Wrap is shorthand for t.Lookup(k)(a, children).
func (t *Table) Wrap(k Kind, a Attributes, children []*visual.Element) *visual.Element {
	return t.Lookup(k)(a, children)
}

// Passthrough keeps the children of an unmapped kind in a fragment so that
// no content is dropped.
func Passthrough(k Kind) Wrapper {
	return func(a Attributes, children []*visual.Element) *visual.Element {
		e := visual.Fragment(children...)
		e.Kind = k.String()
		e.Raw = a.Literal
		return e
	}
}

func element(k Kind, tag, class string) Wrapper {
	return func(_ Attributes, children []*visual.Element) *visual.Element {
		return &visual.Element{Kind: k.String(), Tag: tag, Class: class, Children: children}
	}
}

// Class names follow the Tailwind utility classes used by the page layout.
const (
	classTable        = "min-w-full border-collapse border border-gray-300 mt-4"
	classTableHeader  = "border border-gray-300 px-4 py-2 text-left bg-gray-100"
	classTableCell    = "border border-gray-300 px-4 py-2 text-left"
	classTableRow     = "border-b"
	classUnordered    = "list-disc list-inside my-2 pl-5 text-gray-800"
	classOrdered      = "list-decimal list-inside my-2 pl-5 text-gray-800"
	classListItem     = "my-1"
	classBlockquote   = "border-l-4 border-gray-300 pl-4 italic text-gray-600 my-2"
	classRule         = "border-t-2 border-gray-300 my-4"
	classStrong       = "font-bold text-gray-800"
	classEmphasis     = "italic text-gray-800"
	classStrike       = "line-through text-gray-800"
	classInlineCode   = "bg-gray-100 rounded px-1 font-mono text-sm text-gray-800"
	classImage        = "my-2 max-w-full h-auto"
	classLink         = "text-blue-600 hover:underline"
	classCodeWrapper  = "my-4 relative"
	classCopyButton   = "absolute top-2 right-2 bg-gray-700 text-white px-3 py-1 rounded hover:bg-gray-500 transition duration-200"
	classTaskCheckbox = "mr-2"
)

var defaultTable = &Table{wrappers: map[Kind]Wrapper{
	KindDocument:  element(KindDocument, "", ""),
	KindParagraph: element(KindParagraph, "p", ""),
	KindHeading:   heading,
	KindText: func(a Attributes, _ []*visual.Element) *visual.Element {
		return visual.TextNode(a.Literal)
	},
	KindLineBreak: func(Attributes, []*visual.Element) *visual.Element {
		return &visual.Element{Kind: KindLineBreak.String(), Tag: "br"}
	},

	KindTable:           element(KindTable, "table", classTable),
	KindTableHead:       element(KindTableHead, "thead", ""),
	KindTableBody:       element(KindTableBody, "tbody", ""),
	KindTableRow:        element(KindTableRow, "tr", classTableRow),
	KindTableHeaderCell: cell(KindTableHeaderCell, "th", classTableHeader),
	KindTableDataCell:   cell(KindTableDataCell, "td", classTableCell),

	KindUnorderedList: element(KindUnorderedList, "ul", classUnordered),
	KindOrderedList:   orderedList,
	KindListItem:      element(KindListItem, "li", classListItem),
	KindTaskCheckbox:  taskCheckbox,

	KindBlockquote: element(KindBlockquote, "blockquote", classBlockquote),
	KindHorizontalRule: func(Attributes, []*visual.Element) *visual.Element {
		return &visual.Element{Kind: KindHorizontalRule.String(), Tag: "hr", Class: classRule}
	},

	KindStrong:        element(KindStrong, "strong", classStrong),
	KindEmphasis:      element(KindEmphasis, "em", classEmphasis),
	KindStrikethrough: element(KindStrikethrough, "span", classStrike),

	KindCodeBlock:  codeBlock,
	KindInlineCode: element(KindInlineCode, "code", classInlineCode),

	KindImage: image,
	KindLink:  link,
	KindRaw: func(a Attributes, _ []*visual.Element) *visual.Element {
		return visual.RawNode(KindRaw.String(), a.Literal)
	},
}}

// Default returns the fixed mapping used by the renderer.
func Default() *Table {
	return defaultTable
}

func heading(a Attributes, children []*visual.Element) *visual.Element {
	level := a.Level
	if level < 1 {
		level = 1
	}
	if level > 6 {
		level = 6
	}
	return &visual.Element{Kind: KindHeading.String(), Tag: "h" + strconv.Itoa(level), Children: children}
}

func cell(k Kind, tag, class string) Wrapper {
	return func(a Attributes, children []*visual.Element) *visual.Element {
		e := &visual.Element{Kind: k.String(), Tag: tag, Class: class, Children: children}
		if a.Align != "" {
			e.Attrs = append(e.Attrs, visual.Attr{Key: "style", Val: "text-align: " + a.Align})
		}
		return e
	}
}

func orderedList(a Attributes, children []*visual.Element) *visual.Element {
	e := &visual.Element{Kind: KindOrderedList.String(), Tag: "ol", Class: classOrdered, Children: children}
	if a.Start > 1 {
		e.Attrs = append(e.Attrs, visual.Attr{Key: "start", Val: strconv.Itoa(a.Start)})
	}
	return e
}

func taskCheckbox(a Attributes, _ []*visual.Element) *visual.Element {
	e := &visual.Element{
		Kind:  KindTaskCheckbox.String(),
		Tag:   "input",
		Class: classTaskCheckbox,
		Attrs: []visual.Attr{{Key: "type", Val: "checkbox"}, {Key: "disabled", Val: "disabled"}},
	}
	if a.Checked {
		e.Attrs = append(e.Attrs, visual.Attr{Key: "checked", Val: "checked"})
	}
	return e
}

func image(a Attributes, _ []*visual.Element) *visual.Element {
	e := &visual.Element{
		Kind:  KindImage.String(),
		Tag:   "img",
		Class: classImage,
		Attrs: []visual.Attr{{Key: "src", Val: a.Src}, {Key: "alt", Val: a.Alt}},
	}
	if a.Title != "" {
		e.Attrs = append(e.Attrs, visual.Attr{Key: "title", Val: a.Title})
	}
	return e
}

// link always renders the external-link affordance regardless of what the
// parser would have produced.
func link(a Attributes, children []*visual.Element) *visual.Element {
	e := &visual.Element{
		Kind:     KindLink.String(),
		Tag:      "a",
		Class:    classLink,
		Attrs:    []visual.Attr{{Key: "href", Val: a.Href}},
		Children: children,
	}
	if a.Title != "" {
		e.Attrs = append(e.Attrs, visual.Attr{Key: "title", Val: a.Title})
	}
	return e
}

func codeBlock(a Attributes, _ []*visual.Element) *visual.Element {
	id := strconv.Itoa(a.Block)
	label := a.Label
	if label == "" {
		label = "Copy"
	}
	language := a.Language
	if language == "" {
		language = "text"
	}
	return &visual.Element{
		Kind:  KindCodeBlock.String(),
		Tag:   "div",
		Class: classCodeWrapper,
		Attrs: []visual.Attr{
			{Key: "data-code-block", Val: id},
			{Key: "data-language", Val: language},
		},
		Children: []*visual.Element{
			visual.RawNode("highlighted", a.Highlighted),
			{
				Kind:  "copy-button",
				Tag:   "button",
				Class: classCopyButton,
				Attrs: []visual.Attr{
					{Key: "type", Val: "button"},
					{Key: "data-copy-block", Val: id},
				},
				Text: label,
			},
		},
	}
}

// Describe renders the mapping as a Markdown table of kind, tag and class.
func (t *Table) Describe() string {
	var sb strings.Builder
	sb.WriteString("| kind | tag | class |\n|---|---|---|\n")
	for _, k := range Kinds() {
		e := t.Wrap(k, Attributes{Level: 1}, nil)
		tag := e.Tag
		if tag == "" {
			tag = "(fragment)"
		}
		fmt.Fprintf(&sb, "| %s | %s | %s |\n", k, tag, e.Class)
	}
	return sb.String()
}
