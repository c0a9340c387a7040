// Package bridge gives I/O workers a blocking "run this on the DAW main
// thread and give me the result" call.
//
// A [Bridge] submits closures through a [sched.Scheduler], parks the calling
// worker on a one-shot rendezvous, and enforces a fixed timeout. Handler code
// stays free of any concurrency primitive: it is plain synchronous code that
// happens to execute on the main thread.
//
// A timed-out submission is NOT rolled back: the closure may still run
// later and its result is dropped. Callers see a [ErrTimeout] and must treat
// the DAW state as unknown.
package bridge

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/soundctl/livebridge/internal/sched"
)

// ErrTimeout is returned when the main thread did not deliver a result
// within the configured budget. Its text is the exact wire message clients
// expect.
var ErrTimeout = errors.New("Timeout waiting for operation to complete")

// ErrShuttingDown wakes pending waiters when the surface disconnects.
var ErrShuttingDown = errors.New("bridge is shutting down")

// Option is a functional option for [New].
type Option func(*Bridge)

// WithTimeout sets the per-call main-thread budget. The default is 10s.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// Bridge schedules closures onto the main thread and returns their results
// to the submitting goroutine. Safe for concurrent use.
type Bridge struct {
	sched   sched.Scheduler
	timeout time.Duration

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// New creates a Bridge over the given scheduler.
func New(s sched.Scheduler, opts ...Option) *Bridge {
	b := &Bridge{
		sched:   s,
		timeout: 10 * time.Second,
		done:    make(chan struct{}),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Timeout returns the configured per-call budget.
func (b *Bridge) Timeout() time.Duration { return b.timeout }

// result is what a scheduled closure delivers through the rendezvous.
type result struct {
	value any
	err   error
}

// RunOnMain executes fn on the DAW main thread and returns its result.
//
// When the caller is already on the main thread, fn runs inline. Otherwise
// fn is scheduled and the caller blocks until the result arrives, the
// timeout elapses ([ErrTimeout]), or the bridge closes ([ErrShuttingDown]).
// A panic inside fn is captured and returned as an error rather than
// unwinding into the host's tick loop.
func (b *Bridge) RunOnMain(fn func() (any, error)) (any, error) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrShuttingDown
	}
	b.mu.Unlock()

	if b.sched.IsMainThread() {
		return runGuarded(fn)
	}

	// Buffered so a late fulfil after timeout never blocks the main thread.
	ch := make(chan result, 1)
	err := b.sched.Schedule(func() {
		v, err := runGuarded(fn)
		ch <- result{value: v, err: err}
	})
	if err != nil {
		// Host refused the callback; surface as a timeout-class failure.
		return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		return r.value, r.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-b.done:
		return nil, ErrShuttingDown
	}
}

// Close wakes every pending RunOnMain with [ErrShuttingDown]. Idempotent.
func (b *Bridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
}

func runGuarded(fn func() (any, error)) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return fn()
}
