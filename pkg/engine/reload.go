package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resource"
)

// DefaultDebounce merges bursts of change notifications into one rebuild.
const DefaultDebounce = 100 * time.Millisecond

// ReloadState is what the Reloader is doing.
type ReloadState int32

// Reloader states.
const (
	StateIdle ReloadState = iota
	StateRebuilding
)

func (s ReloadState) String() string {
	if s == StateRebuilding {
		return "rebuilding"
	}
	return "idle"
}

// ReloadStats counts rebuild outcomes since the Reloader was created.
type ReloadStats struct {
	Reloads  int64
	Failures int64
}

// ReloaderOption configures a Reloader.
type ReloaderOption func(*Reloader)

// WithDebounce sets how long Run waits after a notification before
// rebuilding. Zero rebuilds immediately.
func WithDebounce(d time.Duration) ReloaderOption {
	return func(r *Reloader) {
		if d >= 0 {
			r.debounce = d
		}
	}
}

// WithReloadLogger sets the logger.
func WithReloadLogger(logger *slog.Logger) ReloaderOption {
	return func(r *Reloader) {
		if logger != nil {
			r.log = logger
		}
	}
}

// Reloader rebuilds the resource tree and publishes it. Readers call
// Current and never block; rebuilds run one at a time.
type Reloader struct {
	load     LoadFunc
	debounce time.Duration
	log      *slog.Logger

	current atomic.Pointer[resource.Tree]
	state   atomic.Int32
	notify  chan struct{}

	reloads  atomic.Int64
	failures atomic.Int64

	mu      sync.Mutex // serializes rebuilds
	errMu   sync.RWMutex
	lastErr error
}

// NewReloader creates a Reloader. Nothing is loaded until Reload or Run.
func NewReloader(load LoadFunc, opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		load:     load,
		debounce: DefaultDebounce,
		log:      logging.Nop(),
		notify:   make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Current returns the published tree, nil before the first successful load.
func (r *Reloader) Current() *resource.Tree {
	return r.current.Load()
}

// State reports whether a rebuild is in progress.
func (r *Reloader) State() ReloadState {
	return ReloadState(r.state.Load())
}

// LastError returns the error of the most recent rebuild, nil when it
// succeeded.
func (r *Reloader) LastError() error {
	r.errMu.RLock()
	defer r.errMu.RUnlock()
	return r.lastErr
}

// Stats returns the rebuild counters.
func (r *Reloader) Stats() ReloadStats {
	return ReloadStats{Reloads: r.reloads.Load(), Failures: r.failures.Load()}
}

// Reload rebuilds the tree now. On failure the previous tree stays
// published and the error is returned and remembered.
func (r *Reloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state.Store(int32(StateRebuilding))
	defer r.state.Store(int32(StateIdle))

	start := time.Now()
	tree, err := r.load(ctx)
	if err == nil && tree == nil {
		err = errors.New("loader returned no tree")
	}
	r.errMu.Lock()
	r.lastErr = err
	r.errMu.Unlock()

	if err != nil {
		r.failures.Add(1)
		if r.Current() != nil {
			r.log.Error("reload failed, still serving previous description", "error", err)
		}
		return err
	}

	r.current.Store(tree)
	r.reloads.Add(1)
	r.log.Info("description loaded",
		"title", tree.Info().Title,
		"routes", len(tree.Routes()),
		"duration", time.Since(start).Round(time.Millisecond),
	)
	return nil
}

// Notify requests a rebuild from Run without blocking. Notifications that
// arrive before Run picks up the pending one are merged with it.
func (r *Reloader) Notify() {
	select {
	case r.notify <- struct{}{}:
	default:
	}
}

// Run rebuilds once per pending notification until ctx is done. Rebuild
// errors are logged, not returned.
func (r *Reloader) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-r.notify:
		}

		if r.debounce > 0 {
			t := time.NewTimer(r.debounce)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil
			case <-t.C:
			}
		}
		// Anything that arrived during the debounce window is covered by
		// this rebuild.
		select {
		case <-r.notify:
		default:
		}

		_ = r.Reload(ctx)
	}
}
