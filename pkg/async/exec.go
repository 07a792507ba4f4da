package async

import (
	"context"
	"time"
)

// ExecFuture represents an asynchronous computation that only yields an error.
type ExecFuture struct {
	err  error
	done chan struct{}
}

// Await blocks until the computation completes and returns its error.
func (f *ExecFuture) Await() error {
	<-f.done
	return f.err
}

// AwaitWithTimeout waits for completion up to the given timeout and returns
// ErrTimeout if it elapses first.
func (f *ExecFuture) AwaitWithTimeout(timeout time.Duration) error {
	select {
	case <-f.done:
		return f.err
	case <-time.After(timeout):
		return ErrTimeout
	}
}

// IsComplete reports whether the computation has finished, without blocking.
func (f *ExecFuture) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Exec runs fn asynchronously with the given parameter and returns a future
// for its error. A pre-canceled context short-circuits without invoking fn.
func Exec[T any](ctx context.Context, param T, fn func(context.Context, T) error) *ExecFuture {
	f := &ExecFuture{done: make(chan struct{})}

	go func() {
		defer close(f.done)

		select {
		case <-ctx.Done():
			f.err = ctx.Err()
			return
		default:
		}

		f.err = fn(ctx, param)
	}()

	return f
}

// ExecAll waits for every future and returns the first error encountered.
func ExecAll(futures ...*ExecFuture) error {
	var firstErr error
	for _, future := range futures {
		if err := future.Await(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// ExecAny waits until any future completes and returns its index and error.
func ExecAny(futures ...*ExecFuture) (int, error) {
	if len(futures) == 0 {
		return -1, ErrNoFutures
	}

	done := make(chan struct {
		index int
		err   error
	}, len(futures))

	for i, future := range futures {
		go func(index int, f *ExecFuture) {
			err := f.Await()
			done <- struct {
				index int
				err   error
			}{index, err}
		}(i, future)
	}

	res := <-done
	return res.index, res.err
}
