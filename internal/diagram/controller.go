package diagram

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/facebookgo/clock"

	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type Options struct {
	Clock        clock.Clock
	PollInterval time.Duration
	MaxAttempts  int
	Log          *logger.Logger
}

// Controller drives one diagram slot through
// Idle -> AwaitingLibrary -> Rendering -> Rendered|Failed.
//
// Every scheduled callback captures the render cycle it belongs to and does
// nothing once the slot has moved to a newer cycle. SetSource and Close stop
// the pending poll and deferred render and cancel an in-flight Run.
type Controller struct {
	lib         Library
	clock       clock.Clock
	interval    time.Duration
	maxAttempts int
	log         *logger.Logger

	mu       sync.Mutex
	cycle    uint64
	source   string
	state    State
	status   string
	attempts int
	anchor   Anchor
	poll     *clock.Timer
	deferred *clock.Timer
	cancel   context.CancelFunc
	runCtx   context.Context
	settled  chan struct{}
	done     bool
	closed   bool
}

func NewController(anchorID string, lib Library, opts Options) *Controller {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	settled := make(chan struct{})
	close(settled)
	return &Controller{
		lib:         lib,
		clock:       opts.Clock,
		interval:    opts.PollInterval,
		maxAttempts: opts.MaxAttempts,
		log:         opts.Log.With("anchor", anchorID),
		anchor:      Anchor{ID: anchorID},
		settled:     settled,
		done:        true,
	}
}

// SetSource starts a new render cycle for source. It never blocks on the
// library: the first attempt is synchronous, later ones run on the clock.
func (c *Controller) SetSource(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.teardownLocked()
	cycle := c.cycle
	c.source = source
	c.attempts = 0
	c.status = ""
	c.settled = make(chan struct{})
	c.done = false
	c.runCtx, c.cancel = context.WithCancel(context.Background())

	if strings.TrimSpace(source) == "" {
		c.state = Idle
		c.anchor = Anchor{ID: c.anchor.ID}
		c.settleLocked()
		return
	}

	c.anchor = Anchor{ID: c.anchor.ID, Text: source}
	if !c.attemptLocked(cycle, false) {
		c.schedulePollLocked(cycle)
	}
}

// Close tears the slot down. Pending callbacks become no-ops.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.teardownLocked()
	c.closed = true
	c.state = Idle
}

func (c *Controller) teardownLocked() {
	c.cycle++
	if c.poll != nil {
		c.poll.Stop()
		c.poll = nil
	}
	if c.deferred != nil {
		c.deferred.Stop()
		c.deferred = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.settleLocked()
}

// attemptLocked tries to move into Rendering. It reports false while the
// library is not ready.
func (c *Controller) attemptLocked(cycle uint64, isRetry bool) bool {
	if !c.lib.Ready() {
		if !isRetry {
			c.state = AwaitingLibrary
			c.status = StatusLoading
			c.log.Debug("diagram library not ready; polling", "cycle", cycle)
		}
		return false
	}

	c.state = Rendering
	c.anchor = Anchor{ID: c.anchor.ID, Classes: []string{MermaidClass}, Text: c.source}
	// Run on the next tick so the anchor mutation above is observed first.
	c.deferred = c.clock.AfterFunc(0, func() { c.render(cycle) })
	return true
}

func (c *Controller) schedulePollLocked(cycle uint64) {
	c.poll = c.clock.AfterFunc(c.interval, func() { c.pollTick(cycle) })
}

func (c *Controller) pollTick(cycle uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cycle != cycle {
		return
	}
	c.poll = nil
	c.attempts++
	if c.attemptLocked(cycle, true) {
		return
	}
	if c.attempts >= c.maxAttempts {
		c.log.Warn("diagram library failed to load", "cycle", cycle, "attempts", c.attempts)
		c.failLocked(MessageLibraryFailed)
		return
	}
	c.schedulePollLocked(cycle)
}

func (c *Controller) render(cycle uint64) {
	c.mu.Lock()
	if c.cycle != cycle || c.state != Rendering {
		c.mu.Unlock()
		return
	}
	c.deferred = nil
	ctx, source := c.runCtx, c.source
	c.mu.Unlock()

	markup, err := c.lib.Run(ctx, source)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cycle != cycle {
		c.log.Debug("dropping stale diagram render", "cycle", cycle, "current", c.cycle)
		return
	}
	if err != nil {
		c.log.Warn("diagram render failed", "cycle", cycle, "error", err)
		c.failLocked(RunErrorPrefix + err.Error())
		return
	}
	c.anchor.SVG = markup
	c.state = Rendered
	c.status = ""
	c.settleLocked()
}

func (c *Controller) failLocked(msg string) {
	c.state = Failed
	c.status = msg
	c.anchor = Anchor{ID: c.anchor.ID, Text: c.source, Error: msg}
	c.settleLocked()
}

func (c *Controller) settleLocked() {
	if !c.done {
		c.done = true
		close(c.settled)
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller) Cycle() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycle
}

// Status is the latest status message. The loading message is internal
// until the retry budget runs out.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Attempts counts poll attempts in the current cycle; the synchronous first
// attempt is not included.
func (c *Controller) Attempts() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Controller) Anchor() Anchor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.anchor.clone()
}

// Err returns the render failure of the current cycle, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Failed {
		return nil
	}
	return &RenderError{Message: c.status}
}

// Settled is closed once the current cycle is Idle, Rendered or Failed, or
// has been superseded.
func (c *Controller) Settled() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settled
}

// Wait blocks until the current cycle settles or ctx ends.
func (c *Controller) Wait(ctx context.Context) error {
	select {
	case <-c.Settled():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
