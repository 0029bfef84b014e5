package swr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"

	"github.com/dshills/folio/internal/envelope"
	"github.com/dshills/folio/internal/folioerr"
	"github.com/dshills/folio/internal/merge"
	"github.com/dshills/folio/internal/store"
	"github.com/dshills/folio/internal/task"
)

// State is the controller's view of its cache.
type State int

const (
	// StateCold means no usable envelope was found.
	StateCold State = iota
	// StateStale means an envelope was found but is old or incomplete.
	StateStale
	// StateWarm means the displayed list is fresh.
	StateWarm
)

func (s State) String() string {
	switch s {
	case StateCold:
		return "cold"
	case StateStale:
		return "stale"
	case StateWarm:
		return "warm"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

const defaultConcurrency = 8

// Config wires a controller to its collaborators.
type Config[T any, K comparable] struct {
	Store    store.Store
	Key      string
	TTL      time.Duration
	Baseline []T
	KeyOf    func(T) K
	Overlay  func(base, in T) T
	Enrich   func(ctx context.Context, item T) (T, error)

	// Complete probes a decoded payload for structural completeness. When nil
	// the payload must have at least as many entities as the baseline.
	Complete func(payload []T) bool
	// NeedsEnrich selects the entities refreshed. When nil every entity is.
	NeedsEnrich func(T) bool
	// OnUpdate is called with the new display list after a refresh lands.
	OnUpdate func(items []T)

	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

// Report summarizes one refresh.
type Report struct {
	Attempted int
	Failed    int
	Persisted bool
	Discarded bool
	// Err aggregates per-entity fetch failures. It is informational only.
	Err error
}

// Controller serves a keyed entity list from baseline, cache and refresh.
type Controller[T any, K comparable] struct {
	cfg        Config[T, K]
	guard      *task.Guard
	refreshing atomic.Bool

	mu    sync.Mutex
	state State
	items []T
}

// New validates cfg and returns a controller in the cold state showing the baseline.
func New[T any, K comparable](cfg Config[T, K]) (*Controller[T, K], error) {
	if cfg.Store == nil {
		return nil, errors.New("swr: store is required")
	}
	if cfg.Key == "" {
		return nil, errors.New("swr: storage key is required")
	}
	if cfg.KeyOf == nil || cfg.Overlay == nil || cfg.Enrich == nil {
		return nil, errors.New("swr: KeyOf, Overlay and Enrich are required")
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("swr: ttl must be positive")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Complete == nil {
		n := len(cfg.Baseline)
		cfg.Complete = func(payload []T) bool { return len(payload) >= n }
	}
	c := &Controller[T, K]{
		cfg:   cfg,
		guard: task.NewGuard(context.Background()),
		state: StateCold,
	}
	c.items = c.baseline()
	return c, nil
}

// Init reads the stored envelope and decides what to display.
func (c *Controller[T, K]) Init() State {
	state, items := c.load()

	c.mu.Lock()
	c.state = state
	c.items = items
	c.mu.Unlock()

	c.cfg.Logger.Debug("Cache initialized",
		slog.String("key", c.cfg.Key),
		slog.String("state", state.String()),
		slog.Int("items", len(items)))
	return state
}

func (c *Controller[T, K]) load() (State, []T) {
	raw, ok := c.cfg.Store.Get(c.cfg.Key)
	if !ok {
		return StateCold, c.baseline()
	}
	env, ok := envelope.Decode[T](raw)
	if !ok {
		c.cfg.Logger.Debug("Treating cache entry as miss",
			slog.String("key", c.cfg.Key),
			slog.Any("error", folioerr.ErrDecode))
		return StateCold, c.baseline()
	}
	items := merge.ByKey(c.cfg.Baseline, env.Payload, c.cfg.KeyOf, c.cfg.Overlay)
	if env.Fresh(c.cfg.Now(), c.cfg.TTL) && c.cfg.Complete(env.Payload) {
		return StateWarm, items
	}
	return StateStale, items
}

// Start launches a background refresh unless the cache is warm. It reports
// whether a refresh was started. At most one background refresh runs at a
// time. Cancelling ctx tears the controller down.
func (c *Controller[T, K]) Start(ctx context.Context) bool {
	if c.State() == StateWarm || c.guard.Cancelled() {
		return false
	}
	if !c.refreshing.CompareAndSwap(false, true) {
		return false
	}
	stop := context.AfterFunc(ctx, c.Close)
	c.guard.Go(func(context.Context) {
		defer c.refreshing.Store(false)
		defer stop()
		rep := c.Refresh(ctx)
		if rep.Err != nil {
			c.cfg.Logger.Debug("Refresh completed with fetch failures",
				slog.String("key", c.cfg.Key),
				slog.Int("failed", rep.Failed),
				slog.Any("error", rep.Err))
		}
	})
	return true
}

// Refresh enriches every entity that needs it, waits for all fetches to
// settle, merges the successes into the display list and persists a new
// envelope. It blocks until done; use Start for the background form.
func (c *Controller[T, K]) Refresh(ctx context.Context) Report {
	var rep Report
	current := c.Items()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.guard.Context(), cancel)
	defer stop()

	var (
		mu      sync.Mutex
		results []T
		errs    *multierror.Error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.Concurrency)
	for _, item := range current {
		if c.cfg.NeedsEnrich != nil && !c.cfg.NeedsEnrich(item) {
			continue
		}
		rep.Attempted++
		g.Go(func() error {
			enriched, err := c.cfg.Enrich(gctx, item)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, &folioerr.FetchError{
					Key: fmt.Sprint(c.cfg.KeyOf(item)),
					Err: err,
				})
				return nil
			}
			results = append(results, enriched)
			return nil
		})
	}
	_ = g.Wait()

	rep.Err = errs.ErrorOrNil()
	if errs != nil {
		rep.Failed = len(errs.Errors)
	}
	if c.guard.Cancelled() || ctx.Err() != nil {
		rep.Discarded = true
		return rep
	}

	merged := merge.ByKey(current, results, c.cfg.KeyOf, c.cfg.Overlay)
	raw, err := envelope.Encode(envelope.New(merged, c.cfg.Now()))
	if err != nil {
		c.cfg.Logger.Warn("Skipping cache persistence",
			slog.String("key", c.cfg.Key),
			slog.Any("error", err))
	}

	c.mu.Lock()
	if c.guard.Cancelled() {
		c.mu.Unlock()
		rep.Discarded = true
		return rep
	}
	if err == nil {
		rep.Persisted = store.SetBestEffort(c.cfg.Store, c.cfg.Logger, c.cfg.Key, raw)
	}
	c.items = merged
	c.state = StateWarm
	c.mu.Unlock()

	if c.cfg.OnUpdate != nil {
		c.cfg.OnUpdate(clone(merged))
	}
	return rep
}

// Close tears the controller down. Refreshes still in flight are discarded.
func (c *Controller[T, K]) Close() {
	c.guard.Stop()
}

// Wait blocks until background refreshes started by Start have returned.
func (c *Controller[T, K]) Wait() {
	c.guard.Wait()
}

// Items returns a copy of the display list.
func (c *Controller[T, K]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.items)
}

// State returns the current cache state.
func (c *Controller[T, K]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Controller[T, K]) baseline() []T {
	return clone(c.cfg.Baseline)
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}
