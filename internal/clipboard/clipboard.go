// Package clipboard provides codeblock.Clipboard implementations.
package clipboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
)

// Host writes to the system clipboard of the machine running mdview.
// It needs xclip, xsel or wl-copy on Linux.
type Host struct{}

// WriteText implements codeblock.Clipboard.
func (Host) WriteText(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if clipboard.Unsupported {
		return fmt.Errorf("clipboard: no clipboard utility available")
	}
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard: write: %w", err)
	}
	return nil
}

// Discard accepts every write. Browser sessions use it: the page script
// performs the actual clipboard write.
type Discard struct{}

// WriteText implements codeblock.Clipboard.
func (Discard) WriteText(context.Context, string) error { return nil }

// Memory keeps the most recent write.
type Memory struct {
	mu   sync.Mutex
	text string
	n    int
}

// WriteText implements codeblock.Clipboard.
func (m *Memory) WriteText(_ context.Context, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	m.n++
	return nil
}

// Text returns the last written text.
func (m *Memory) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// Writes returns how many writes happened.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}
