package task

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_StopCancels(t *testing.T) {
	g := NewGuard(context.Background())
	assert.False(t, g.Cancelled())

	started := make(chan struct{})
	var sawDone atomic.Bool
	g.Go(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
		sawDone.Store(true)
	})
	<-started
	g.Stop()
	g.Wait()

	assert.True(t, g.Cancelled())
	assert.True(t, sawDone.Load())
}

func TestGuard_ParentCancel(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := NewGuard(parent)
	cancel()
	assert.True(t, g.Cancelled())
}

func TestPoller_RunsRepeatedly(t *testing.T) {
	var calls atomic.Int64
	p := NewPoller(5*time.Millisecond, func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}, nil)
	p.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, time.Millisecond)
	p.Stop()

	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, after, calls.Load(), "no runs after Stop")
	assert.True(t, p.Cancelled())
}

func TestPoller_NeverOverlaps(t *testing.T) {
	var active, maxActive atomic.Int64
	release := make(chan struct{})
	p := NewPoller(2*time.Millisecond, func(ctx context.Context) error {
		n := active.Add(1)
		defer active.Add(-1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}, nil)
	p.Start(context.Background())

	require.Eventually(t, func() bool { return p.Skipped() >= 3 }, time.Second, time.Millisecond)
	assert.Equal(t, int64(1), p.Runs())
	assert.Equal(t, int64(1), maxActive.Load())

	close(release)
	p.Stop()
	assert.Equal(t, int64(0), active.Load())
}

func TestPoller_StopBeforeStart(t *testing.T) {
	p := NewPoller(time.Second, func(context.Context) error { return nil }, nil)
	p.Stop()
	assert.True(t, p.Cancelled())
}
