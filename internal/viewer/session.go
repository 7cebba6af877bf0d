// Package viewer holds the live state of open viewer and editor pages.
//
// Each page owns one Session. A session keeps the Markdown source it shows,
// the last render of that source, and the code block controller whose copy
// acknowledgment feeds the button labels of the next render.
package viewer

import (
	"context"
	"sync"
	"time"

	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/render"
)

// Session is the state of one open page.
type Session struct {
	ID   string
	Name string

	renderer *render.Renderer
	ctrl     *codeblock.Controller
	now      func() time.Time

	mu       sync.Mutex
	source   []byte
	doc      *render.Document
	attached int
	streamed bool
	lastSeen time.Time
}

// Update replaces the source and re-renders it. The copy acknowledgment is
// kept when its block survives the edit.
func (s *Session) Update(source []byte) *render.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = append(s.source[:0:0], source...)
	doc := s.renderer.Render(s.source, s.ctrl)
	s.ctrl.SetBlocks(doc.Blocks)
	s.doc = doc
	s.lastSeen = s.now()
	return doc
}

// Document re-renders the current source with the current button labels.
func (s *Session) Document() *render.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = s.now()
	s.doc = s.renderer.Render(s.source, s.ctrl)
	return s.doc
}

// Source returns the Markdown the session shows.
func (s *Session) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.source)
}

// Blocks returns the copyable blocks of the last render.
func (s *Session) Blocks() []codeblock.Block {
	return s.ctrl.Blocks()
}

// Snapshot returns the current copy acknowledgment.
func (s *Session) Snapshot() codeblock.Snapshot {
	return s.ctrl.Snapshot()
}

// Label returns the copy button label of block id.
func (s *Session) Label(id int) string {
	return s.ctrl.Label(id)
}

// Copy runs the copy action on block id.
func (s *Session) Copy(ctx context.Context, id int) (codeblock.Result, error) {
	s.touch()
	return s.ctrl.Copy(ctx, id)
}

// Attach registers a live subscriber; the session is not evicted while
// subscribers are attached.
func (s *Session) Attach() {
	s.mu.Lock()
	s.attached++
	s.streamed = true
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// Detach drops a subscriber registered with Attach.
func (s *Session) Detach() {
	s.mu.Lock()
	if s.attached > 0 {
		s.attached--
	}
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

// idleSince reports how long the session has had no subscriber and whether
// one was ever attached. ok is false while a subscriber is attached.
func (s *Session) idleSince(now time.Time) (idle time.Duration, streamed, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attached > 0 {
		return 0, true, false
	}
	return now.Sub(s.lastSeen), s.streamed, true
}

func (s *Session) close() {
	s.ctrl.Close()
}
