package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(kind, name string) {
	r.mu.Lock()
	r.events = append(r.events, kind+":"+name)
	r.mu.Unlock()
}

func (r *recorder) has(e string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, got := range r.events {
		if got == e {
			return true
		}
	}
	return false
}

func (r *recorder) count(e string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, got := range r.events {
		if got == e {
			n++
		}
	}
	return n
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func startWatch(t *testing.T, dir string) *recorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	rec := &recorder{}
	go Watch(ctx, dir, 20*time.Millisecond, quietLogger(), rec.add)
	time.Sleep(100 * time.Millisecond)
	return rec
}

func TestWatch_NewFile(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir)

	_ = os.WriteFile(filepath.Join(dir, "new.md"), []byte("# New"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:new.md")
	}, "expected created:new.md callback")
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	rec := startWatch(t, dir)

	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "seen.md"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("created:seen.md")
	}, "expected created:seen.md callback")
	if rec.has("created:notes.txt") {
		t.Error("non-markdown file reported")
	}
}

func TestWatch_BurstIsDebounced(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "burst.md")
	_ = os.WriteFile(path, []byte("0"), 0o644)
	rec := startWatch(t, dir)

	for i := 0; i < 5; i++ {
		_ = os.WriteFile(path, []byte{byte('a' + i)}, 0o644)
	}

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("updated:burst.md")
	}, "expected updated:burst.md callback")
	time.Sleep(100 * time.Millisecond)
	if n := rec.count("updated:burst.md"); n != 1 {
		t.Errorf("updated events = %d, want 1", n)
	}
}

func TestWatch_Delete(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "del.md"), []byte("# Delete Me"), 0o644)
	rec := startWatch(t, dir)

	_ = os.Remove(filepath.Join(dir, "del.md"))

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("deleted:del.md")
	}, "expected deleted:del.md callback")
}

func TestWatch_Rename(t *testing.T) {
	dir := t.TempDir()
	_ = os.WriteFile(filepath.Join(dir, "old.md"), []byte("# Rename"), 0o644)
	rec := startWatch(t, dir)

	_ = os.Rename(filepath.Join(dir, "old.md"), filepath.Join(dir, "renamed.md"))

	eventually(t, 5*time.Second, 20*time.Millisecond, func() bool {
		return rec.has("deleted:old.md") && rec.has("created:renamed.md")
	}, "rename should report the old name deleted and the new name created")
}

func TestWatch_MissingDir(t *testing.T) {
	err := Watch(context.Background(), filepath.Join(t.TempDir(), "nope"), 0, quietLogger(), nil)
	if err != nil {
		t.Fatalf("missing dir should not fail: %v", err)
	}
}
