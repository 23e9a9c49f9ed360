// Package async provides a small cancelable future used to hand results of
// background work (scripts, clipboard reads) back to a single-threaded owner.
package async

import (
	"context"
	"fmt"
	"sync"
)

// ErrCanceled is the error a future settles with when Cancel wins the race.
var ErrCanceled = fmt.Errorf("future canceled: %w", context.Canceled)

// Future is a value that becomes available later, or fails, or is canceled.
// It settles exactly once. The zero value is not usable; use New or Go.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	settled   bool
	val       T
	err       error
	cancel    context.CancelFunc
	callbacks []func(T, error)
}

// New returns an unsettled future. The owner settles it with Resolve or Reject.
func New[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Go runs fn in a new goroutine and settles the future with its result.
// Cancel cancels the context handed to fn.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	ctx, cancel := context.WithCancel(ctx)
	f := New[T]()
	f.cancel = cancel

	go func() {
		defer cancel()
		v, err := fn(ctx)
		if err != nil {
			f.Reject(err)
			return
		}
		f.Resolve(v)
	}()
	return f
}

// Resolved returns a future already settled with v.
func Resolved[T any](v T) *Future[T] {
	f := New[T]()
	f.Resolve(v)
	return f
}

// Rejected returns a future already failed with err.
func Rejected[T any](err error) *Future[T] {
	f := New[T]()
	f.Reject(err)
	return f
}

// Resolve settles the future with v. It reports false if the future was already settled.
func (f *Future[T]) Resolve(v T) bool {
	return f.settle(v, nil)
}

// Reject settles the future with err. It reports false if the future was already settled.
func (f *Future[T]) Reject(err error) bool {
	var zero T
	if err == nil {
		err = fmt.Errorf("future rejected without an error")
	}
	return f.settle(zero, err)
}

// Cancel settles the future with ErrCanceled and cancels the work behind it.
// Callbacks observe the canceled error, never a late success.
func (f *Future[T]) Cancel() bool {
	var zero T
	ok := f.settle(zero, ErrCanceled)
	f.mu.Lock()
	cancel := f.cancel
	f.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	return ok
}

func (f *Future[T]) settle(v T, err error) bool {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return false
	}
	f.settled = true
	f.val, f.err = v, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(v, err)
	}
	return true
}

// Done is closed once the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Settled reports whether the future has settled.
func (f *Future[T]) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

// Result blocks until the future settles.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Wait blocks until the future settles or ctx is done.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// OnSettled registers fn to run once with the outcome.
// fn runs on the goroutine that settles the future, or immediately if it already has.
func (f *Future[T]) OnSettled(fn func(T, error)) {
	f.mu.Lock()
	if !f.settled {
		f.callbacks = append(f.callbacks, fn)
		f.mu.Unlock()
		return
	}
	v, err := f.val, f.err
	f.mu.Unlock()
	fn(v, err)
}

// Map derives a future whose value is fn applied to f's value.
// Canceling the derived future cancels f.
func Map[T, U any](f *Future[T], fn func(T) U) *Future[U] {
	out := New[U]()
	out.cancel = func() { f.Cancel() }
	f.OnSettled(func(v T, err error) {
		if err != nil {
			out.Reject(err)
			return
		}
		out.Resolve(fn(v))
	})
	return out
}
