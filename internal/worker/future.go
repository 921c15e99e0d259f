// FILE: internal/worker/future.go
// Package worker runs a single move-source call in the background and lets
// the host loop join it with short timeouts.
package worker

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/panics"
)

// Result carries the outcome of a background call.
type Result[T any] struct {
	Value T
	Err   error
}

// Future is a background call whose result is delivered exactly once.
// Abandoning a future cancels its context as a hint; the call may still
// run to completion and its result is then discarded.
type Future[T any] struct {
	done      chan struct{}
	result    Result[T]
	cancel    context.CancelFunc
	abandoned atomic.Bool
	started   time.Time
}

// Go starts fn on a new goroutine. A panic inside fn is reported as an error.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := &Future[T]{
		done:    make(chan struct{}),
		cancel:  cancel,
		started: time.Now(),
	}

	go func() {
		defer close(f.done)
		var pc panics.Catcher
		pc.Try(func() {
			f.result.Value, f.result.Err = fn(ctx)
		})
		if r := pc.Recovered(); r != nil {
			f.result.Err = r.AsError()
		}
	}()

	return f
}

// Wait blocks up to timeout. ok is false if the call is still running.
func (f *Future[T]) Wait(timeout time.Duration) (res Result[T], ok bool) {
	if timeout <= 0 {
		select {
		case <-f.done:
			return f.result, true
		default:
			return res, false
		}
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-f.done:
		return f.result, true
	case <-timer.C:
		return res, false
	}
}

// Done reports completion without blocking.
func (f *Future[T]) Done() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Abandon gives up on the result.
func (f *Future[T]) Abandon() {
	if f.abandoned.CompareAndSwap(false, true) {
		f.cancel()
	}
}

func (f *Future[T]) Abandoned() bool {
	return f.abandoned.Load()
}

// Elapsed is the time since the call started.
func (f *Future[T]) Elapsed() time.Duration {
	return time.Since(f.started)
}

// Release frees the context once a result has been consumed.
func (f *Future[T]) Release() {
	f.cancel()
}
