// Package engine runs the clipboard history on a single owner goroutine.
//
// Run multiplexes two sources of work: the polling timer of the change
// detector and the operation queue fed by the public methods. The history
// Store is only ever touched from that goroutine, so callers on other
// goroutines (IPC handlers, a UI) marshal their operations through the queue
// and wait for the result.
//
// The poll timer is re-armed only after a tick has been fully handled, so
// pasteboard checks never overlap.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/clipstash/internal/clip"
	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/history"
	"go.klb.dev/clipstash/internal/monitor"
)

// DefaultWriteTimeout bounds each persistence write so it completes before
// the next poll tick.
const DefaultWriteTimeout = 400 * time.Millisecond

// ErrStopped is returned by operations issued after Run has returned.
var ErrStopped = errors.New("engine: stopped")

type config struct {
	interval     time.Duration
	writeTimeout time.Duration
	monitor      bool
}

// Option customises New.
type Option func(*config)

// WithInterval sets the polling period. Default: monitor.DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithWriteTimeout bounds persistence writes. Default: DefaultWriteTimeout.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithoutMonitoring makes Run start with the poll timer stopped.
func WithoutMonitoring() Option { return func(c *config) { c.monitor = false } }

// Status describes the running engine.
type Status struct {
	Backend       string
	Monitoring    bool
	Interval      time.Duration
	Items         int
	Pinned        int
	Capacity      int
	Tags          int
	Recorded      int
	WriteFailures int
	StartedAt     time.Time
	LastChange    time.Time
}

// Engine owns a history.Store, a pasteboard and the change detector.
type Engine struct {
	cfg      config
	store    *history.Store
	pb       clip.Pasteboard
	detector *monitor.Detector

	ops  chan func()
	done chan struct{}

	// Owner-goroutine state.
	timer      *time.Timer
	tick       <-chan time.Time
	subs       map[int]chan history.Event
	nextSub    int
	startedAt  time.Time
	lastChange time.Time
	recorded   int
}

// New returns an Engine. Call Run to start it.
func New(store *history.Store, pb clip.Pasteboard, opts ...Option) *Engine {
	cfg := config{
		interval:     monitor.DefaultInterval,
		writeTimeout: DefaultWriteTimeout,
		monitor:      true,
	}
	for _, o := range opts {
		o(&cfg)
	}
	return &Engine{
		cfg:      cfg,
		store:    store,
		pb:       pb,
		detector: monitor.NewDetector(pb),
		ops:      make(chan func()),
		done:     make(chan struct{}),
		subs:     make(map[int]chan history.Event),
	}
}

// Run loads the persisted history and serves operations and poll ticks until
// ctx is cancelled. It must be called exactly once.
func (e *Engine) Run(ctx context.Context) error {
	defer close(e.done)

	e.startedAt = time.Now()
	e.store.Load(ctx)
	cancel := e.store.Subscribe(e.fanout)
	defer cancel()
	defer e.closeSubscribers()

	if e.cfg.monitor {
		e.startMonitoring()
	}
	defer e.stopMonitoring()

	slog.Info("history engine started",
		"backend", e.pb.Name(),
		"interval", e.cfg.interval,
		"capacity", e.store.Capacity(),
		"items", e.store.Len(),
	)

	for {
		select {
		case <-ctx.Done():
			slog.Info("history engine stopped")
			return nil
		case op := <-e.ops:
			op()
		case <-e.tick:
			e.poll(ctx)
			if e.tick != nil {
				e.timer.Reset(e.cfg.interval)
			}
		}
	}
}

// Done is closed when Run returns.
func (e *Engine) Done() <-chan struct{} { return e.done }

func (e *Engine) poll(ctx context.Context) {
	c, err := e.detector.Poll()
	if err != nil {
		slog.Warn("clipboard change skipped", "err", err)
		return
	}
	if c == nil {
		return
	}
	e.insert(ctx, c)
}

func (e *Engine) insert(ctx context.Context, c content.Content) history.Item {
	wctx, cancel := context.WithTimeout(ctx, e.cfg.writeTimeout)
	defer cancel()
	it := e.store.Insert(wctx, c)
	e.recorded++
	e.lastChange = it.Timestamp
	return it
}

func (e *Engine) startMonitoring() {
	if e.tick != nil {
		return
	}
	if e.timer == nil {
		e.timer = time.NewTimer(e.cfg.interval)
	} else {
		e.timer.Reset(e.cfg.interval)
	}
	e.tick = e.timer.C
	slog.Debug("clipboard monitoring started")
}

func (e *Engine) stopMonitoring() {
	if e.tick == nil {
		return
	}
	e.timer.Stop()
	e.tick = nil
	slog.Debug("clipboard monitoring stopped")
}

// do runs fn on the owner goroutine and waits for it to return.
func (e *Engine) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(finished) }:
	case <-e.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	<-finished
	return nil
}

// StartMonitoring (re)starts the poll timer. It is a no-op when monitoring is
// already running or the engine has stopped.
func (e *Engine) StartMonitoring() {
	_ = e.do(context.Background(), e.startMonitoring)
}

// StopMonitoring stops the poll timer. It is safe to call any number of
// times, including after the engine has stopped.
func (e *Engine) StopMonitoring() {
	_ = e.do(context.Background(), e.stopMonitoring)
}

// Record inserts c as if it had been copied to the pasteboard.
func (e *Engine) Record(ctx context.Context, c content.Content) (history.Item, error) {
	var it history.Item
	err := e.do(ctx, func() { it = e.insert(ctx, c) })
	return it, err
}

// Query returns the items matching search and tagFilter in store order.
func (e *Engine) Query(ctx context.Context, search string, tagFilter []string) ([]history.Item, error) {
	var items []history.Item
	err := e.do(ctx, func() { items = e.store.Query(search, tagFilter) })
	return items, err
}

// Get returns the item with id.
func (e *Engine) Get(ctx context.Context, id string) (history.Item, bool, error) {
	var (
		it history.Item
		ok bool
	)
	err := e.do(ctx, func() { it, ok = e.store.Get(id) })
	return it, ok, err
}

// Tags returns the tags in use.
func (e *Engine) Tags(ctx context.Context) ([]string, error) {
	var tags []string
	err := e.do(ctx, func() { tags = e.store.Tags() })
	return tags, err
}

// TogglePin flips the pin flag of the item with id. Unknown ids are ignored.
func (e *Engine) TogglePin(ctx context.Context, id string) error {
	return e.do(ctx, func() {
		wctx, cancel := context.WithTimeout(ctx, e.cfg.writeTimeout)
		defer cancel()
		e.store.TogglePin(wctx, id)
	})
}

// AddTag tags the item with id. Invalid tags return history.ErrInvalidTag.
func (e *Engine) AddTag(ctx context.Context, id, tag string) error {
	var tagErr error
	err := e.do(ctx, func() {
		wctx, cancel := context.WithTimeout(ctx, e.cfg.writeTimeout)
		defer cancel()
		tagErr = e.store.AddTag(wctx, id, tag)
	})
	return errors.Join(err, tagErr)
}

// RemoveTag untags the item with id. Invalid tags return history.ErrInvalidTag.
func (e *Engine) RemoveTag(ctx context.Context, id, tag string) error {
	var tagErr error
	err := e.do(ctx, func() {
		wctx, cancel := context.WithTimeout(ctx, e.cfg.writeTimeout)
		defer cancel()
		tagErr = e.store.RemoveTag(wctx, id, tag)
	})
	return errors.Join(err, tagErr)
}

// ClearAll empties the history, pinned items included.
func (e *Engine) ClearAll(ctx context.Context) error {
	return e.do(ctx, func() {
		wctx, cancel := context.WithTimeout(ctx, e.cfg.writeTimeout)
		defer cancel()
		e.store.ClearAll(wctx)
	})
}

// CopyOut writes the content of the item with id back to the pasteboard.
// Unknown ids are ignored. The write is not recorded as a new item.
func (e *Engine) CopyOut(ctx context.Context, id string) error {
	var writeErr error
	err := e.do(ctx, func() {
		it, ok := e.store.Get(id)
		if !ok {
			slog.Debug("copy out: unknown item", "id", id)
			return
		}
		if werr := clip.Write(e.pb, it.Content); werr != nil {
			writeErr = fmt.Errorf("copy out %s: %w", id, werr)
			return
		}
		e.detector.Observe()
		slog.Info("clipboard item restored", "id", id, "kind", it.Content.Kind())
	})
	return errors.Join(err, writeErr)
}

// Status reports counters and settings.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.do(ctx, func() {
		st = Status{
			Backend:       e.pb.Name(),
			Monitoring:    e.tick != nil,
			Interval:      e.cfg.interval,
			Items:         e.store.Len(),
			Pinned:        e.store.Pinned(),
			Capacity:      e.store.Capacity(),
			Tags:          len(e.store.Tags()),
			Recorded:      e.recorded,
			WriteFailures: e.store.WriteFailures(),
			StartedAt:     e.startedAt,
			LastChange:    e.lastChange,
		}
	})
	return st, err
}
