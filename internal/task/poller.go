package task

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Poller runs fn every interval until stopped. A tick that arrives while the
// previous run is still in flight is skipped.
type Poller struct {
	interval time.Duration
	fn       func(ctx context.Context) error
	logger   *slog.Logger

	guard    *Guard
	inFlight atomic.Bool
	runs     atomic.Int64
	skipped  atomic.Int64
}

// NewPoller creates a poller. It does nothing until Start.
func NewPoller(interval time.Duration, fn func(ctx context.Context) error, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{interval: interval, fn: fn, logger: logger}
}

// Start runs fn once immediately and then on every tick.
func (p *Poller) Start(ctx context.Context) {
	p.guard = NewGuard(ctx)
	p.guard.Go(func(ctx context.Context) {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		p.tick(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	})
}

// tick launches one run unless another is outstanding.
func (p *Poller) tick(ctx context.Context) {
	if !p.inFlight.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		return
	}
	p.guard.Go(func(ctx context.Context) {
		defer p.inFlight.Store(false)
		if p.guard.Cancelled() {
			return
		}
		p.runs.Add(1)
		if err := p.fn(ctx); err != nil && !p.guard.Cancelled() {
			p.logger.Debug("Poll failed", slog.Any("error", err))
		}
	})
}

// Stop cancels the poller and waits for the in-flight run to return.
func (p *Poller) Stop() {
	if p.guard == nil {
		return
	}
	p.guard.Stop()
	p.guard.Wait()
}

// Cancelled reports whether results produced now should be discarded.
func (p *Poller) Cancelled() bool {
	return p.guard == nil || p.guard.Cancelled()
}

// Runs returns how many times fn has been started.
func (p *Poller) Runs() int64 { return p.runs.Load() }

// Skipped returns how many ticks were dropped because a run was in flight.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }
