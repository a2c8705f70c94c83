package memhost

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wippyai/napi-host/host"
)

// DefaultWorkers bounds concurrent off-thread work when no limit is given.
const DefaultWorkers = 4

// Loop is a script-thread event loop. Whichever goroutine calls Drain or
// Run acts as the script thread; InvokeAsync work runs on pool goroutines
// bounded by a weighted semaphore.
type Loop struct {
	sem    *semaphore.Weighted
	logger *zap.Logger
	wake   chan struct{}

	mu      sync.Mutex
	queue   []func()
	pending int
	closed  bool
}

// NewLoop creates a loop running at most workers tasks concurrently.
func NewLoop(workers int64, logger *zap.Logger) *Loop {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		sem:    semaphore.NewWeighted(workers),
		logger: logger,
		wake:   make(chan struct{}, 1),
	}
}

// Post queues fn to run on the script thread.
func (l *Loop) Post(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return host.ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	l.signal()
	return nil
}

// InvokeAsync runs work on a pool goroutine and then posts done.
func (l *Loop) InvokeAsync(work func(), done func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return host.ErrClosed
	}
	l.pending++
	l.mu.Unlock()

	go func() {
		if err := l.sem.Acquire(context.Background(), 1); err != nil {
			l.logger.Error("worker acquire failed", zap.Error(err))
		} else {
			if work != nil {
				work()
			}
			l.sem.Release(1)
		}

		l.mu.Lock()
		l.pending--
		if done != nil && !l.closed {
			l.queue = append(l.queue, done)
		}
		l.mu.Unlock()
		l.signal()
	}()
	return nil
}

// Pending returns queued callbacks plus in-flight work items.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue) + l.pending
}

// RunOnce runs one queued callback, if any, and reports whether it did.
func (l *Loop) RunOnce() bool {
	l.mu.Lock()
	if len(l.queue) == 0 {
		l.mu.Unlock()
		return false
	}
	fn := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	l.mu.Unlock()
	fn()
	return true
}

// Drain runs callbacks until no work is queued or in flight.
func (l *Loop) Drain(ctx context.Context) error {
	for {
		if l.RunOnce() {
			continue
		}
		l.mu.Lock()
		idle := l.pending == 0 && len(l.queue) == 0
		l.mu.Unlock()
		if idle {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Run runs callbacks until ctx is done or the loop is closed.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for l.RunOnce() {
		}
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil
		}
		select {
		case <-l.wake:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close stops accepting work. Queued callbacks are dropped; in-flight work
// finishes but its completion is discarded.
func (l *Loop) Close() error {
	l.mu.Lock()
	l.closed = true
	dropped := len(l.queue)
	l.queue = nil
	l.mu.Unlock()
	if dropped > 0 {
		l.logger.Debug("loop closed with queued callbacks", zap.Int("dropped", dropped))
	}
	l.signal()
	return nil
}

func (l *Loop) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}
