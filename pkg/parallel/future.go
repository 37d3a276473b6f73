package parallel

import (
	"context"
	"fmt"
)

// Future is the pending result of a task run on a WorkerPool.
type Future[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go runs fn on the pool and returns its future. A panic in fn resolves the
// future with an error. If the pool is closed the future resolves at once
// with ErrPoolClosed.
func Go[T any](wp *WorkerPool, fn func() (T, error)) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	ok := wp.Submit(func() {
		defer close(f.done)
		defer func() {
			if r := recover(); r != nil {
				f.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		f.value, f.err = fn()
	})
	if !ok {
		f.err = ErrPoolClosed
		close(f.done)
	}
	return f
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the result is available without blocking.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task finishes or ctx is cancelled.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
