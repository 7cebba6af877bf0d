package viewer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/clipboard"
	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/render"
)

const twoBlocks = "# Doc\n\n```js\nconst x = 1;\n```\n\n```sh\necho hi\n```\n"

type snapLog struct {
	mu    sync.Mutex
	snaps map[string][]codeblock.Snapshot
}

func (l *snapLog) notify(id string, s codeblock.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.snaps == nil {
		l.snaps = make(map[string][]codeblock.Snapshot)
	}
	l.snaps[id] = append(l.snaps[id], s)
}

func (l *snapLog) get(id string) []codeblock.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]codeblock.Snapshot(nil), l.snaps[id]...)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newRegistry(t *testing.T, opts ...Option) (*Registry, *clipboard.Memory, *snapLog) {
	t.Helper()
	clip := &clipboard.Memory{}
	log := &snapLog{}
	r := NewRegistry(render.New(), clip, log.notify, opts...)
	t.Cleanup(r.CloseAll)
	return r, clip, log
}

func TestOpen_RendersIdle(t *testing.T) {
	r, _, _ := newRegistry(t)
	s := r.Open("doc.md", []byte(twoBlocks))

	if s.ID == "" || s.Name != "doc.md" {
		t.Fatalf("session = %+v", s)
	}
	if got, err := r.Get(s.ID); err != nil || got != s {
		t.Fatalf("Get = %v, %v", got, err)
	}
	blocks := s.Blocks()
	if len(blocks) != 2 {
		t.Fatalf("blocks = %d, want 2", len(blocks))
	}
	html := s.Document().HTML()
	if strings.Contains(html, codeblock.LabelCopied) {
		t.Errorf("fresh session shows copied label: %s", html)
	}
	if s.Snapshot().Active {
		t.Error("fresh session should be idle")
	}
}

func TestCopy_LabelsFlowIntoRender(t *testing.T) {
	r, clip, log := newRegistry(t)
	s := r.Open("doc.md", []byte(twoBlocks))
	first := s.Blocks()[0]

	res, err := s.Copy(context.Background(), first.ID)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if res.State != codeblock.Copied || clip.Text() != "const x = 1;" {
		t.Errorf("result = %+v, clipboard = %q", res, clip.Text())
	}
	if s.Label(first.ID) != codeblock.LabelCopied {
		t.Errorf("label = %q", s.Label(first.ID))
	}
	if n := strings.Count(s.Document().HTML(), codeblock.LabelCopied); n != 1 {
		t.Errorf("copied labels in html = %d, want 1", n)
	}
	snaps := log.get(s.ID)
	if len(snaps) != 1 || !snaps[0].Active || snaps[0].Block != first.ID {
		t.Errorf("notified = %+v", snaps)
	}
}

func TestUpdate_KeepsAcknowledgmentForSurvivingBlock(t *testing.T) {
	r, _, _ := newRegistry(t)
	s := r.Open("", []byte("```go\nx\n```\n"))
	id := s.Blocks()[0].ID
	if _, err := s.Copy(context.Background(), id); err != nil {
		t.Fatal(err)
	}

	// Appending text after the block keeps its offset.
	s.Update([]byte("```go\nx\n```\n\nmore text\n"))
	if s.Label(id) != codeblock.LabelCopied {
		t.Errorf("label after edit = %q", s.Label(id))
	}

	s.Update([]byte("no code now"))
	if s.Snapshot().Active {
		t.Error("acknowledgment should clear when its block disappears")
	}
}

func TestSessionsAreIndependent(t *testing.T) {
	r, _, _ := newRegistry(t)
	a := r.Open("doc.md", []byte(twoBlocks))
	b := r.Open("doc.md", []byte(twoBlocks))
	id := a.Blocks()[0].ID

	if _, err := a.Copy(context.Background(), id); err != nil {
		t.Fatal(err)
	}
	if b.Label(id) != codeblock.LabelIdle {
		t.Errorf("copy leaked across sessions: %q", b.Label(id))
	}
	if got := r.ByName("doc.md"); len(got) != 2 {
		t.Errorf("ByName = %d sessions", len(got))
	}
}

func TestClose(t *testing.T) {
	r, _, _ := newRegistry(t)
	s := r.Open("doc.md", []byte(twoBlocks))
	if err := r.Close(s.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := r.Get(s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Get after close = %v", err)
	}
	if err := r.Close(s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second close = %v", err)
	}
	if _, err := s.Copy(context.Background(), s.Blocks()[0].ID); !errors.Is(err, apperr.ErrClosed) {
		t.Errorf("copy on closed session = %v", err)
	}
}

func TestSweep_EvictsOnlyIdleDetached(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	r, _, _ := newRegistry(t, WithIdleTTL(time.Minute), WithClock(c.Now))

	idle := r.Open("a.md", []byte("# a"))
	live := r.Open("b.md", []byte("# b"))
	live.Attach()

	c.advance(30 * time.Second)
	if n := r.Sweep(c.Now()); n != 0 {
		t.Fatalf("swept %d before ttl", n)
	}

	c.advance(time.Minute)
	if n := r.Sweep(c.Now()); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, err := r.Get(idle.ID); err == nil {
		t.Error("idle session survived sweep")
	}
	if _, err := r.Get(live.ID); err != nil {
		t.Error("attached session was evicted")
	}

	live.Detach()
	c.advance(2 * time.Minute)
	r.Sweep(c.Now())
	if r.Len() != 0 {
		t.Errorf("len = %d after detach and ttl", r.Len())
	}
}

func TestSweep_NeverStreamedUsesPendingTTL(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	r, _, _ := newRegistry(t, WithIdleTTL(30*time.Minute), WithPendingTTL(time.Minute), WithClock(c.Now))

	prefetched := r.Open("a.md", []byte("# a"))
	viewed := r.Open("b.md", []byte("# b"))
	viewed.Attach()
	viewed.Detach()

	c.advance(2 * time.Minute)
	if n := r.Sweep(c.Now()); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
	if _, err := r.Get(prefetched.ID); err == nil {
		t.Error("session without an event stream outlived the pending ttl")
	}
	if _, err := r.Get(viewed.ID); err != nil {
		t.Error("streamed session evicted before the idle ttl")
	}
}

func TestPendingTTL_CappedByIdleTTL(t *testing.T) {
	c := &clock{now: time.Unix(1000, 0)}
	r, _, _ := newRegistry(t, WithIdleTTL(time.Minute), WithPendingTTL(time.Hour), WithClock(c.Now))
	r.Open("a.md", []byte("# a"))

	c.advance(90 * time.Second)
	if n := r.Sweep(c.Now()); n != 1 {
		t.Fatalf("swept %d, want 1", n)
	}
}

func TestRun_ClosesSessionsOnShutdown(t *testing.T) {
	r, _, _ := newRegistry(t)
	r.Open("a.md", []byte("# a"))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop")
	}
	if r.Len() != 0 {
		t.Errorf("len = %d after shutdown", r.Len())
	}
}

func TestCopy_ResetNotifies(t *testing.T) {
	r, _, log := newRegistry(t, WithResetDelay(20*time.Millisecond))
	s := r.Open("", []byte("```\nx\n```\n"))
	if _, err := s.Copy(context.Background(), s.Blocks()[0].ID); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if snaps := log.get(s.ID); len(snaps) == 2 && !snaps[1].Active {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Errorf("notified = %+v, want copied then idle", log.get(s.ID))
}

func TestReload_OnlyMatchingName(t *testing.T) {
	r, _, _ := newRegistry(t)
	a := r.Open("doc.md", []byte(twoBlocks))
	b := r.Open("doc.md", []byte(twoBlocks))
	other := r.Open("other.md", []byte(twoBlocks))

	got := r.Reload("doc.md", []byte("# Doc\n\n```go\nfunc main() {}\n```\n"))
	if len(got) != 2 {
		t.Fatalf("reloaded %d sessions, want 2", len(got))
	}
	for _, s := range []*Session{a, b} {
		if n := len(s.Blocks()); n != 1 {
			t.Fatalf("session %s has %d blocks after reload, want 1", s.ID, n)
		}
	}
	if n := len(other.Blocks()); n != 2 {
		t.Fatalf("unrelated session has %d blocks, want 2", n)
	}
	if got := r.Reload("missing.md", []byte("x")); len(got) != 0 {
		t.Fatalf("reload of unopened file touched %d sessions", len(got))
	}
}
