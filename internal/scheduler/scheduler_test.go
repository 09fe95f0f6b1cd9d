package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock releases the loop's wait only when the test ticks it and
// records every requested wait duration
type manualClock struct {
	mu    sync.Mutex
	waits []time.Duration
	ch    chan time.Time
}

func newManualClock() *manualClock {
	return &manualClock{ch: make(chan time.Time)}
}

func (c *manualClock) Now() time.Time { return time.Now() }

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	return c.ch
}

func (c *manualClock) tick() {
	c.ch <- time.Now()
}

func (c *manualClock) lastWait() (time.Duration, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.waits) == 0 {
		return 0, false
	}
	return c.waits[len(c.waits)-1], true
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoopRunsProcessorEachTick(t *testing.T) {
	clock := newManualClock()
	calls := make(chan struct{}, 8)

	loop := New("test", ProcessorFunc(func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	}), time.Minute, discardLogger(), WithClock(clock))

	loop.Start(context.Background())
	defer loop.Stop()

	// First iteration runs immediately on start
	require.Eventually(t, func() bool { return len(calls) >= 1 }, time.Second, time.Millisecond)
	<-calls

	clock.tick()
	require.Eventually(t, func() bool { return len(calls) >= 1 }, time.Second, time.Millisecond)
	<-calls

	wait, ok := clock.lastWait()
	require.True(t, ok)
	assert.Equal(t, time.Minute, wait)
}

func TestLoopBacksOffAfterFailure(t *testing.T) {
	clock := newManualClock()
	calls := make(chan error, 8)
	fail := true
	var mu sync.Mutex

	loop := New("test", ProcessorFunc(func(ctx context.Context) error {
		mu.Lock()
		f := fail
		fail = false
		mu.Unlock()
		if f {
			calls <- errors.New("boom")
			return errors.New("boom")
		}
		calls <- nil
		return nil
	}), time.Minute, discardLogger(), WithClock(clock), WithBackoff(5*time.Minute))

	loop.Start(context.Background())
	defer loop.Stop()

	require.Error(t, <-calls)

	// After the failed iteration the loop waits the backoff, not the
	// interval, and then resumes
	require.Eventually(t, func() bool {
		wait, ok := clock.lastWait()
		return ok && wait == 5*time.Minute
	}, time.Second, time.Millisecond)

	clock.tick()
	require.NoError(t, <-calls)
}

func TestLoopStop(t *testing.T) {
	clock := newManualClock()
	calls := make(chan struct{}, 8)

	loop := New("test", ProcessorFunc(func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	}), time.Minute, discardLogger(), WithClock(clock))

	loop.Start(context.Background())
	<-calls

	// Stop returns once the loop goroutine has exited; a second Stop is
	// a no-op
	done := make(chan struct{})
	go func() {
		loop.Stop()
		loop.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}

	assert.Empty(t, calls)
}

func TestLoopStopsOnContextCancel(t *testing.T) {
	clock := newManualClock()
	calls := make(chan struct{}, 8)

	loop := New("test", ProcessorFunc(func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	}), time.Minute, discardLogger(), WithClock(clock))

	ctx, cancel := context.WithCancel(context.Background())
	loop.Start(ctx)
	<-calls

	cancel()

	// The goroutine exits between iterations without Stop being called
	assert.Eventually(t, func() bool {
		select {
		case clock.ch <- time.Now():
			// The loop had not observed cancellation yet and consumed
			// the tick; drain the resulting iteration
			<-calls
			return false
		default:
			return true
		}
	}, time.Second, 10*time.Millisecond)
}

func TestStartTwiceIsNoOp(t *testing.T) {
	clock := newManualClock()
	calls := make(chan struct{}, 8)

	loop := New("test", ProcessorFunc(func(ctx context.Context) error {
		calls <- struct{}{}
		return nil
	}), time.Minute, discardLogger(), WithClock(clock))

	loop.Start(context.Background())
	loop.Start(context.Background())
	defer loop.Stop()

	<-calls

	// Only one goroutine is draining ticks
	select {
	case <-calls:
		t.Fatal("second goroutine ran the processor")
	case <-time.After(50 * time.Millisecond):
	}
}
