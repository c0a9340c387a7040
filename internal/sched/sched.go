// Package sched adapts the host's "run this callback on the next tick"
// primitive into the narrow [Scheduler] interface the thread bridge consumes.
//
// Handlers never touch this package; only the thread bridge does. The
// [Manual] double gives tests full control over when (and whether) the main
// thread runs.
package sched

import (
	"errors"
	"sync"

	"github.com/soundctl/livebridge/pkg/live"
)

// Scheduler hands closures to the DAW main thread.
type Scheduler interface {
	// Schedule enqueues fn for execution on the main thread at the next
	// available tick. Callbacks from the same submitter run in submission
	// order. Fails synchronously if the host refuses (e.g. teardown).
	Schedule(fn func()) error

	// IsMainThread reports whether the caller is already on the main
	// thread. Introspection used only by the thread bridge.
	IsMainThread() bool
}

// Tick is the shipped [Scheduler]: a thin wrapper over the host's tick hook.
type Tick struct {
	host live.Host
}

// NewTick creates a Tick scheduler over the given host.
func NewTick(host live.Host) *Tick { return &Tick{host: host} }

func (t *Tick) Schedule(fn func()) error { return t.host.ScheduleTick(fn) }
func (t *Tick) IsMainThread() bool       { return t.host.IsMainThread() }

// ErrRefused is returned by [Manual.Schedule] while the double is refusing.
var ErrRefused = errors.New("sched: scheduling refused")

// Manual is the test double. Scheduled callbacks queue up until the test
// runs them explicitly; nothing runs on its own.
type Manual struct {
	mu     sync.Mutex
	queue  []func()
	refuse bool
	onMain bool
}

var (
	_ Scheduler = (*Tick)(nil)
	_ Scheduler = (*Manual)(nil)
)

// NewManual creates an empty Manual scheduler.
func NewManual() *Manual { return &Manual{} }

func (m *Manual) Schedule(fn func()) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.refuse {
		return ErrRefused
	}
	m.queue = append(m.queue, fn)
	return nil
}

func (m *Manual) IsMainThread() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.onMain
}

// SetMainThread makes IsMainThread answer v, simulating a caller already on
// the main thread.
func (m *Manual) SetMainThread(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMain = v
}

// SetRefuse makes Schedule fail synchronously, simulating host teardown.
func (m *Manual) SetRefuse(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refuse = v
}

// RunNext runs the oldest queued callback on the calling goroutine.
// Returns false when the queue is empty.
func (m *Manual) RunNext() bool {
	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return false
	}
	fn := m.queue[0]
	m.queue = m.queue[1:]
	m.mu.Unlock()
	fn()
	return true
}

// Drain runs queued callbacks until the queue is empty and returns the
// number executed.
func (m *Manual) Drain() int {
	n := 0
	for m.RunNext() {
		n++
	}
	return n
}

// Pending returns the number of queued callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}
