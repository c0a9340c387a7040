package bridge

import (
	"errors"
	"testing"
	"time"

	"github.com/soundctl/livebridge/internal/sched"
)

func TestRunOnMainInlineWhenAlreadyOnMain(t *testing.T) {
	t.Parallel()
	m := sched.NewManual()
	m.SetMainThread(true)
	b := New(m)

	v, err := b.RunOnMain(func() (any, error) { return 42, nil })
	if err != nil {
		t.Fatalf("RunOnMain: %v", err)
	}
	if v != 42 {
		t.Fatalf("result = %v, want 42", v)
	}
	if m.Pending() != 0 {
		t.Fatalf("inline execution still scheduled %d callbacks", m.Pending())
	}
}

func TestRunOnMainDeliversScheduledResult(t *testing.T) {
	t.Parallel()
	m := sched.NewManual()
	b := New(m)

	done := make(chan struct{})
	var v any
	var err error
	go func() {
		defer close(done)
		v, err = b.RunOnMain(func() (any, error) { return "ok", nil })
	}()

	// Wait for the submission to land, then act as the main thread.
	for m.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}
	m.Drain()
	<-done

	if err != nil {
		t.Fatalf("RunOnMain: %v", err)
	}
	if v != "ok" {
		t.Fatalf("result = %v, want ok", v)
	}
}

func TestRunOnMainTimesOutWhenMainThreadStalls(t *testing.T) {
	t.Parallel()
	m := sched.NewManual() // never drained: simulates a stalled main thread
	b := New(m, WithTimeout(20*time.Millisecond))

	start := time.Now()
	_, err := b.RunOnMain(func() (any, error) { return nil, nil })
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Fatal("returned before the timeout elapsed")
	}
	if got := err.Error(); got != "Timeout waiting for operation to complete" {
		t.Fatalf("timeout text = %q", got)
	}
}

func TestRunOnMainRefusedScheduleIsTimeoutClass(t *testing.T) {
	t.Parallel()
	m := sched.NewManual()
	m.SetRefuse(true)
	b := New(m)

	_, err := b.RunOnMain(func() (any, error) { return nil, nil })
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout class", err)
	}
}

func TestCloseWakesPendingWaiters(t *testing.T) {
	t.Parallel()
	m := sched.NewManual()
	b := New(m, WithTimeout(time.Minute))

	errs := make(chan error, 1)
	go func() {
		_, err := b.RunOnMain(func() (any, error) { return nil, nil })
		errs <- err
	}()
	for m.Pending() == 0 {
		time.Sleep(time.Millisecond)
	}

	b.Close()
	select {
	case err := <-errs:
		if !errors.Is(err, ErrShuttingDown) {
			t.Fatalf("err = %v, want ErrShuttingDown", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waiter not woken by Close")
	}

	// After close, new submissions fail fast.
	if _, err := b.RunOnMain(func() (any, error) { return nil, nil }); !errors.Is(err, ErrShuttingDown) {
		t.Fatalf("post-close err = %v, want ErrShuttingDown", err)
	}
	b.Close() // idempotent
}

func TestRunOnMainCapturesPanic(t *testing.T) {
	t.Parallel()
	m := sched.NewManual()
	m.SetMainThread(true)
	b := New(m)

	_, err := b.RunOnMain(func() (any, error) { panic("boom") })
	if err == nil {
		t.Fatal("panic not converted to error")
	}
}
