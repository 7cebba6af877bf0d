package codeblock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/mdview/internal/apperr"
)

// DefaultResetDelay is how long a Copied acknowledgment stays visible.
const DefaultResetDelay = 2 * time.Second

// Button labels.
const (
	LabelIdle   = "Copy"
	LabelCopied = "Copied!"
)

// State is the display state of a single code block.
type State int

const (
	Idle State = iota
	Copied
)

func (s State) String() string {
	if s == Copied {
		return "copied"
	}
	return "idle"
}

// Label returns the copy button label for s.
func (s State) Label() string {
	if s == Copied {
		return LabelCopied
	}
	return LabelIdle
}

// Clipboard writes text to a clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Labeler resolves the copy button label of a block.
type Labeler interface {
	Label(id int) string
}

// Snapshot is the observable controller state. Block is meaningful only
// when Active is set.
type Snapshot struct {
	Active bool `json:"active"`
	Block  int  `json:"block"`
}

// Result describes a completed copy action.
type Result struct {
	Block Block
	State State
	// ClipboardErr is the clipboard write failure, if any. The state
	// transition happens regardless.
	ClipboardErr error
}

// Scheduler runs f after d and returns a function that cancels it,
// reporting whether the call stopped f from running.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func realScheduler(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// Option configures a Controller.
type Option func(*Controller)

// WithResetDelay sets how long the Copied state is shown.
func WithResetDelay(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.delay = d
		}
	}
}

// WithScheduler replaces the timer implementation.
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.schedule = s
		}
	}
}

// WithNotify registers a callback invoked after every state change.
func WithNotify(fn func(Snapshot)) Option {
	return func(c *Controller) {
		c.notify = fn
	}
}

// WithLogger sets the logger used for clipboard diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// Controller owns the copy acknowledgment of one viewer. At most one block
// shows Copied at a time; a newer copy supersedes an older one and cancels
// its pending reset.
type Controller struct {
	clip     Clipboard
	delay    time.Duration
	schedule Scheduler
	notify   func(Snapshot)
	logger   *slog.Logger

	mu     sync.Mutex
	blocks map[int]Block
	order  []int
	active bool
	copied int
	gen    uint64
	cancel func() bool
	closed bool
	seq    uint64

	// emitMu orders notifications; emitted is the last seq delivered.
	emitMu  sync.Mutex
	emitted uint64
}

// NewController creates a controller in the Idle state with no blocks.
func NewController(clip Clipboard, opts ...Option) *Controller {
	c := &Controller{
		clip:     clip,
		delay:    DefaultResetDelay,
		schedule: realScheduler,
		logger:   slog.Default(),
		blocks:   make(map[int]Block),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetBlocks replaces the set of copyable blocks. The current acknowledgment
// survives when its block is still present.
func (c *Controller) SetBlocks(blocks []Block) {
	c.mu.Lock()
	c.blocks = make(map[int]Block, len(blocks))
	c.order = c.order[:0]
	for _, b := range blocks {
		c.blocks[b.ID] = b
		c.order = append(c.order, b.ID)
	}
	changed := false
	if c.active {
		if _, ok := c.blocks[c.copied]; !ok {
			c.clearLocked()
			changed = true
		}
	}
	snap, seq := c.changeLocked()
	c.mu.Unlock()

	if changed {
		c.emit(snap, seq)
	}
}

// Blocks returns the known blocks in document order.
func (c *Controller) Blocks() []Block {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Block, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.blocks[id])
	}
	return out
}

// Block returns the block with the given id.
func (c *Controller) Block(id int) (Block, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.blocks[id]
	return b, ok
}

// State returns the display state of block id.
func (c *Controller) State(id int) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active && c.copied == id {
		return Copied
	}
	return Idle
}

// Label returns the copy button label of block id.
func (c *Controller) Label(id int) string {
	return c.State(id).Label()
}

// Snapshot returns the current acknowledgment.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Copy places the code of block id on the clipboard and shows Copied on it
// for the reset delay. The transition is optimistic: it is applied before
// the clipboard write, and a write failure is reported through
// Result.ClipboardErr only.
func (c *Controller) Copy(ctx context.Context, id int) (Result, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return Result{}, apperr.ErrClosed
	}
	b, ok := c.blocks[id]
	if !ok {
		c.mu.Unlock()
		return Result{}, fmt.Errorf("codeblock: block %d: %w", id, apperr.ErrNotFound)
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.gen++
	gen := c.gen
	c.active = true
	c.copied = id
	c.cancel = c.schedule(c.delay, func() { c.expire(id, gen) })
	snap, seq := c.changeLocked()
	c.mu.Unlock()

	c.emit(snap, seq)

	res := Result{Block: b, State: Copied}
	if c.clip != nil {
		if err := c.clip.WriteText(ctx, b.Code); err != nil {
			c.logger.Warn("clipboard write failed",
				slog.Int("block", id),
				slog.String("error", err.Error()))
			res.ClipboardErr = err
		}
	}
	return res, nil
}

// Close cancels any pending reset. Further copies fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.closed = true
	c.active = false
}

// expire clears the acknowledgment only if it still belongs to the copy
// that scheduled this reset.
func (c *Controller) expire(id int, gen uint64) {
	c.mu.Lock()
	if c.closed || !c.active || c.copied != id || c.gen != gen {
		c.mu.Unlock()
		return
	}
	c.active = false
	c.cancel = nil
	snap, seq := c.changeLocked()
	c.mu.Unlock()

	c.emit(snap, seq)
}

func (c *Controller) clearLocked() {
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.active = false
}

func (c *Controller) snapshotLocked() Snapshot {
	if !c.active {
		return Snapshot{}
	}
	return Snapshot{Active: true, Block: c.copied}
}

// changeLocked stamps the current acknowledgment with the next sequence
// number.
func (c *Controller) changeLocked() (Snapshot, uint64) {
	c.seq++
	return c.snapshotLocked(), c.seq
}

// emit delivers s unless a later change has already been delivered, so
// observers always end on the latest acknowledgment.
func (c *Controller) emit(s Snapshot, seq uint64) {
	if c.notify == nil {
		return
	}
	c.emitMu.Lock()
	defer c.emitMu.Unlock()
	if seq <= c.emitted {
		return
	}
	c.emitted = seq
	c.notify(s)
}
