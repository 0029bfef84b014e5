package task

import (
	"context"
	"sync"
	"sync/atomic"
)

// Guard tracks teardown of a component that runs background work.
type Guard struct {
	cancelled atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewGuard derives a guard from parent. Cancelling parent also cancels the guard.
func NewGuard(parent context.Context) *Guard {
	ctx, cancel := context.WithCancel(parent)
	return &Guard{ctx: ctx, cancel: cancel}
}

// Context is cancelled when the guard is stopped.
func (g *Guard) Context() context.Context { return g.ctx }

// Cancelled reports whether Stop was called or the parent context ended.
func (g *Guard) Cancelled() bool {
	return g.cancelled.Load() || g.ctx.Err() != nil
}

// Go runs fn in a goroutine tracked by Wait.
func (g *Guard) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
}

// Stop marks the guard cancelled and cancels its context. It does not wait.
func (g *Guard) Stop() {
	g.cancelled.Store(true)
	g.cancel()
}

// Wait blocks until every function started with Go has returned.
func (g *Guard) Wait() {
	g.wg.Wait()
}
