// Package visual holds the presentation tree produced by the renderer and
// its HTML serialisation.
package visual

import (
	"bytes"
	"io"
	"strings"

	"github.com/yuin/goldmark/util"
)

// Attr is a single HTML attribute. Attributes keep insertion order so the
// output is byte-for-byte stable.
type Attr struct {
	Key string
	Val string
}

// Element is a renderable node. An element with an empty Tag is a fragment
// and only emits its children.
type Element struct {
	Kind     string
	Tag      string
	Class    string
	Attrs    []Attr
	Children []*Element
	// Text is escaped on output.
	Text string
	// Raw is emitted verbatim.
	Raw string
}

var voidTags = map[string]struct{}{
	"br": {}, "hr": {}, "img": {}, "input": {},
}

// Fragment groups children without a wrapping tag.
func Fragment(children ...*Element) *Element {
	return &Element{Children: children}
}

// TextNode returns a leaf holding literal text.
func TextNode(s string) *Element {
	return &Element{Kind: "text", Text: s}
}

// RawNode returns a leaf holding pre-rendered markup.
func RawNode(kind, markup string) *Element {
	return &Element{Kind: kind, Raw: markup}
}

// Attr returns the value of the named attribute.
func (e *Element) Attr(key string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Walk visits e and its descendants depth-first. Returning false from fn
// skips the children of the visited element.
func (e *Element) Walk(fn func(*Element) bool) {
	if e == nil {
		return
	}
	if !fn(e) {
		return
	}
	for _, c := range e.Children {
		c.Walk(fn)
	}
}

// Find returns every descendant (including e) with the given kind.
func (e *Element) Find(kind string) []*Element {
	var out []*Element
	e.Walk(func(n *Element) bool {
		if n.Kind == kind {
			out = append(out, n)
		}
		return true
	})
	return out
}

// PlainText concatenates the literal text below e.
func (e *Element) PlainText() string {
	var sb strings.Builder
	e.Walk(func(n *Element) bool {
		sb.WriteString(n.Text)
		return true
	})
	return sb.String()
}

// HTML serialises e.
func (e *Element) HTML() string {
	var buf bytes.Buffer
	_ = e.WriteHTML(&buf)
	return buf.String()
}

// WriteHTML serialises e to w.
func (e *Element) WriteHTML(w io.Writer) error {
	var buf bytes.Buffer
	e.write(&buf)
	_, err := w.Write(buf.Bytes())
	return err
}

func (e *Element) write(buf *bytes.Buffer) {
	if e == nil {
		return
	}
	if e.Tag == "" {
		buf.WriteString(e.Raw)
		buf.Write(util.EscapeHTML([]byte(e.Text)))
		for _, c := range e.Children {
			c.write(buf)
		}
		return
	}

	buf.WriteByte('<')
	buf.WriteString(e.Tag)
	if e.Class != "" {
		writeAttr(buf, "class", e.Class)
	}
	for _, a := range e.Attrs {
		writeAttr(buf, a.Key, a.Val)
	}
	if _, void := voidTags[e.Tag]; void {
		buf.WriteString(" />")
		return
	}
	buf.WriteByte('>')
	buf.WriteString(e.Raw)
	buf.Write(util.EscapeHTML([]byte(e.Text)))
	for _, c := range e.Children {
		c.write(buf)
	}
	buf.WriteString("</")
	buf.WriteString(e.Tag)
	buf.WriteByte('>')
}

func writeAttr(buf *bytes.Buffer, key, val string) {
	buf.WriteByte(' ')
	buf.WriteString(key)
	buf.WriteString(`="`)
	buf.Write(util.EscapeHTML([]byte(val)))
	buf.WriteByte('"')
}
