package viewer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mdview/internal/apperr"
	"github.com/starford/mdview/internal/codeblock"
	"github.com/starford/mdview/internal/render"
)

// DefaultIdleTTL is how long a session without subscribers is kept.
const DefaultIdleTTL = 30 * time.Minute

// DefaultPendingTTL is how long a session that never attached an event
// stream is kept. Prefetched pages never attach one.
const DefaultPendingTTL = 2 * time.Minute

// Notifier receives the copy acknowledgment changes of a session.
type Notifier func(sessionID string, snap codeblock.Snapshot)

// Option configures a Registry.
type Option func(*Registry)

// WithResetDelay sets the Copied display time of new sessions.
func WithResetDelay(d time.Duration) Option {
	return func(r *Registry) { r.resetDelay = d }
}

// WithIdleTTL sets how long idle sessions survive.
func WithIdleTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.ttl = d
		}
	}
}

// WithPendingTTL sets how long sessions that never attached an event stream
// survive. It never exceeds the idle TTL.
func WithPendingTTL(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.pendingTTL = d
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) {
		if now != nil {
			r.now = now
		}
	}
}

// WithControllerOptions appends options to every session controller.
func WithControllerOptions(opts ...codeblock.Option) Option {
	return func(r *Registry) { r.ctrlOpts = append(r.ctrlOpts, opts...) }
}

// Registry tracks open sessions by id.
type Registry struct {
	renderer   *render.Renderer
	clip       codeblock.Clipboard
	notify     Notifier
	resetDelay time.Duration
	ttl        time.Duration
	pendingTTL time.Duration
	logger     *slog.Logger
	now        func() time.Time
	ctrlOpts   []codeblock.Option

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry. notify may be nil.
func NewRegistry(renderer *render.Renderer, clip codeblock.Clipboard, notify Notifier, opts ...Option) *Registry {
	r := &Registry{
		renderer:   renderer,
		clip:       clip,
		notify:     notify,
		resetDelay: codeblock.DefaultResetDelay,
		ttl:        DefaultIdleTTL,
		pendingTTL: DefaultPendingTTL,
		logger:     slog.Default(),
		now:        time.Now,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.pendingTTL > r.ttl {
		r.pendingTTL = r.ttl
	}
	return r
}

// Open starts a session showing source. name is the docs file behind it,
// empty for the editor.
func (r *Registry) Open(name string, source []byte) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:       id,
		Name:     name,
		renderer: r.renderer,
		now:      r.now,
	}
	opts := []codeblock.Option{
		codeblock.WithResetDelay(r.resetDelay),
		codeblock.WithLogger(r.logger.With(slog.String("session", id))),
	}
	if r.notify != nil {
		opts = append(opts, codeblock.WithNotify(func(snap codeblock.Snapshot) {
			r.notify(id, snap)
		}))
	}
	s.ctrl = codeblock.NewController(r.clip, append(opts, r.ctrlOpts...)...)
	s.Update(source)

	r.mu.Lock()
	r.sessions[id] = s
	r.mu.Unlock()

	r.logger.Debug("viewer: session opened", slog.String("session", id), slog.String("name", name))
	return s
}

// Get returns the session with the given id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// Close ends a session and cancels its pending reset.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %q: %w", id, apperr.ErrNotFound)
	}
	s.close()
	r.logger.Debug("viewer: session closed", slog.String("session", id))
	return nil
}

// ByName returns the open sessions showing the docs file name.
func (r *Registry) ByName(name string) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*Session
	for _, s := range r.sessions {
		if s.Name == name && name != "" {
			out = append(out, s)
		}
	}
	return out
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes sessions idle for longer than the TTL and returns how many
// were closed. Sessions that never attached an event stream use the pending
// TTL instead.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var expired []*Session
	for id, s := range r.sessions {
		idle, streamed, ok := s.idleSince(now)
		if !ok {
			continue
		}
		limit := r.ttl
		if !streamed {
			limit = r.pendingTTL
		}
		if idle > limit {
			expired = append(expired, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range expired {
		s.close()
	}
	if len(expired) > 0 {
		r.logger.Info("viewer: evicted idle sessions", slog.Int("count", len(expired)))
	}
	return len(expired)
}

// CloseAll ends every session.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

// Run sweeps periodically until ctx is cancelled, then closes every session.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.pendingTTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			r.CloseAll()
			return nil
		case <-t.C:
			r.Sweep(r.now())
		}
	}
}

// Topic is the event stream topic of session id.
func Topic(id string) string {
	return "session:" + id
}

// Reload re-renders every session showing the docs file name with source
// and returns them.
func (r *Registry) Reload(name string, source []byte) []*Session {
	sessions := r.ByName(name)
	for _, s := range sessions {
		s.Update(source)
	}
	return sessions
}
