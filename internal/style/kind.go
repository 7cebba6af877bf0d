// Package style maps Markdown node kinds to presentation wrappers.
package style

// Kind enumerates the node kinds the renderer produces.
type Kind int

const (
	KindDocument Kind = iota
	KindParagraph
	KindHeading
	KindText
	KindLineBreak
	KindTable
	KindTableHead
	KindTableBody
	KindTableRow
	KindTableHeaderCell
	KindTableDataCell
	KindUnorderedList
	KindOrderedList
	KindListItem
	KindTaskCheckbox
	KindBlockquote
	KindHorizontalRule
	KindStrong
	KindEmphasis
	KindStrikethrough
	KindCodeBlock
	KindInlineCode
	KindImage
	KindLink
	KindRaw

	kindCount
)

var kindNames = [kindCount]string{
	KindDocument:        "document",
	KindParagraph:       "paragraph",
	KindHeading:         "heading",
	KindText:            "text",
	KindLineBreak:       "line-break",
	KindTable:           "table",
	KindTableHead:       "table-head",
	KindTableBody:       "table-body",
	KindTableRow:        "table-row",
	KindTableHeaderCell: "table-header-cell",
	KindTableDataCell:   "table-data-cell",
	KindUnorderedList:   "unordered-list",
	KindOrderedList:     "ordered-list",
	KindListItem:        "list-item",
	KindTaskCheckbox:    "task-checkbox",
	KindBlockquote:      "blockquote",
	KindHorizontalRule:  "horizontal-rule",
	KindStrong:          "strong",
	KindEmphasis:        "emphasis",
	KindStrikethrough:   "strikethrough",
	KindCodeBlock:       "code-block",
	KindInlineCode:      "inline-code",
	KindImage:           "image",
	KindLink:            "link",
	KindRaw:             "raw",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}
