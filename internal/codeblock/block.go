// Package codeblock extracts, highlights and tracks copy state for fenced
// code blocks.
package codeblock

import (
	"bytes"
	"regexp"
	"strings"

	"github.com/yuin/goldmark/ast"
)

// DefaultLanguage is used when a fence declares no language.
const DefaultLanguage = "text"

var languageRe = regexp.MustCompile(`^\w+`)

// Block is a code block of a rendered document.
type Block struct {
	// ID is the byte offset of the opening fence line in the source.
	ID int `json:"id"`
	// Ordinal is the 0-based position of the block in the document.
	Ordinal  int    `json:"ordinal"`
	Language string `json:"language"`
	// Code is the literal block content without its trailing newline.
	Code string `json:"code"`
}

// Language derives the language token from a fence info string.
func Language(info string) string {
	fields := strings.Fields(info)
	if len(fields) == 0 {
		return DefaultLanguage
	}
	lang := languageRe.FindString(fields[0])
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}

// FromNode builds a Block from a fenced or indented code block node.
// Ordinal is the block's position among the code blocks of the document.
func FromNode(n ast.Node, source []byte, ordinal int) Block {
	b := Block{Ordinal: ordinal, Language: DefaultLanguage, ID: -(ordinal + 1)}

	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	b.Code = trimEOL(buf.String())

	switch n := n.(type) {
	case *ast.FencedCodeBlock:
		if n.Info != nil {
			b.Language = Language(string(n.Info.Segment.Value(source)))
			b.ID = lineStart(source, n.Info.Segment.Start)
		} else if lines.Len() > 0 {
			first := lineStart(source, lines.At(0).Start)
			if first > 0 {
				b.ID = lineStart(source, first-1)
			}
		}
	case *ast.CodeBlock:
		if lines.Len() > 0 {
			b.ID = lineStart(source, lines.At(0).Start)
		}
	}
	return b
}

// trimEOL removes one trailing line ending: \r\n, \n or \r.
func trimEOL(s string) string {
	if t, ok := strings.CutSuffix(s, "\r\n"); ok {
		return t
	}
	if t, ok := strings.CutSuffix(s, "\n"); ok {
		return t
	}
	return strings.TrimSuffix(s, "\r")
}

// lineStart returns the offset of the first byte of the line holding pos.
func lineStart(source []byte, pos int) int {
	if pos > len(source) {
		pos = len(source)
	}
	for pos > 0 && source[pos-1] != '\n' {
		pos--
	}
	return pos
}
