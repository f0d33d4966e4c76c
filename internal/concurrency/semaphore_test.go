package concurrency

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestRunAllBoundsConcurrency(t *testing.T) {
	t.Parallel()
	sem := NewSemaphore(2)

	var inFlight, peak int32
	funcs := []func() error{}
	for i := 0; i < 8; i++ {
		funcs = append(funcs, func() error {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&inFlight, -1)
			return nil
		})
	}

	if err := sem.RunAll(funcs, false); err != nil {
		t.Fatalf("run all: %v", err)
	}
	if peak > 2 {
		t.Fatalf("expected at most 2 concurrent funcs, saw %d", peak)
	}
}

func TestRunAllCombinesErrors(t *testing.T) {
	t.Parallel()
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	funcs := []func() error{
		func() error { return errA },
		func() error { return nil },
		func() error { return errB },
	}

	err := NewSemaphore(3).RunAll(funcs, false)
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("expected both errors, got %v", err)
	}
}

func TestRunAllStopOnError(t *testing.T) {
	t.Parallel()
	boom := errors.New("boom")
	funcs := []func() error{
		func() error { return boom },
		func() error { time.Sleep(20 * time.Millisecond); return nil },
	}
	if err := NewSemaphore(0).RunAll(funcs, true); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestRunAllEmpty(t *testing.T) {
	t.Parallel()
	if err := NewSemaphore(1).RunAll(nil, false); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
