package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Terminal renders source for an ANSI terminal using a glamour standard
// style ("dark", "light", "dracula", "notty", ...).
func Terminal(source []byte, styleName string, width int) (string, error) {
	if styleName == "" {
		styleName = "dark"
	}
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styleName),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("render: terminal renderer: %w", err)
	}
	out, err := tr.RenderBytes(source)
	if err != nil {
		return "", fmt.Errorf("render: terminal: %w", err)
	}
	return string(out), nil
}
