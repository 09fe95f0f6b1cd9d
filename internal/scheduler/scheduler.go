package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Processor is one iteration of periodic work driven by a Loop.
type Processor interface {
	Process(ctx context.Context) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context) error

// Process calls f(ctx).
func (f ProcessorFunc) Process(ctx context.Context) error {
	return f(ctx)
}

// Clock abstracts wall-clock time so loops can be driven by a fake
// clock in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

// DefaultBackoff is the pause after a failed iteration before the loop
// is resumed.
const DefaultBackoff = 60 * time.Second

// Loop runs a Processor on a fixed cadence until stopped. A failed
// iteration is logged and followed by a backoff; the loop itself never
// terminates on a processor error.
type Loop struct {
	name      string
	processor Processor
	interval  time.Duration
	backoff   time.Duration
	clock     Clock
	logger    *slog.Logger

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	mu      sync.Mutex
}

// Option configures a Loop.
type Option func(*Loop)

// WithClock sets the clock driving the loop.
func WithClock(c Clock) Option {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithBackoff sets the pause after a failed iteration.
func WithBackoff(d time.Duration) Option {
	return func(l *Loop) {
		l.backoff = d
	}
}

// New creates a new loop
func New(name string, processor Processor, interval time.Duration, logger *slog.Logger, opts ...Option) *Loop {
	l := &Loop{
		name:      name,
		processor: processor,
		interval:  interval,
		backoff:   DefaultBackoff,
		clock:     SystemClock(),
		logger:    logger,
		stopCh:    make(chan struct{}),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Start starts the loop
func (l *Loop) Start(ctx context.Context) {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.mu.Unlock()

	l.logger.Info("loop started", "loop", l.name, "interval", l.interval)

	l.wg.Add(1)
	go l.run(ctx)
}

// Stop stops the loop and waits for the in-flight iteration to finish.
// The stop signal is observed between iterations, not inside one.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	l.mu.Unlock()

	close(l.stopCh)
	l.wg.Wait()
	l.logger.Info("loop stopped", "loop", l.name)
}

// run is the main loop
func (l *Loop) run(ctx context.Context) {
	defer l.wg.Done()

	for {
		wait := l.interval
		if err := l.processor.Process(ctx); err != nil {
			l.logger.Error("loop iteration failed", "loop", l.name, "error", err)
			wait = l.backoff
		}

		select {
		case <-l.clock.After(wait):
		case <-l.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}
