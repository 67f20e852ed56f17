package offload

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
)

// Future is the completion handle of an offloaded call. It is resolved exactly
// once; every Await after that returns the same value and error.
type Future[T any] struct {
	id   string
	done chan struct{}
	once sync.Once

	val T
	err error
}

func newFuture[T any](id string) *Future[T] {
	if id == "" {
		id = uuid.NewString()
	}
	return &Future[T]{id: id, done: make(chan struct{})}
}

// Resolved returns a future that is already complete with v and err.
func Resolved[T any](v T, err error) *Future[T] {
	f := newFuture[T]("")
	f.resolve(v, err)
	return f
}

func (f *Future[T]) resolve(v T, err error) {
	f.once.Do(func() {
		f.val = v
		f.err = err
		close(f.done)
	})
}

// ID returns the call ID, a UUID shared with logs and traces.
func (f *Future[T]) ID() string {
	return f.id
}

// Done returns a channel closed when the future is resolved.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Await suspends the calling goroutine until the future is resolved or ctx is
// done. Cancelling ctx abandons only this wait: the call keeps running and the
// future still resolves.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	default:
	}

	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Poll returns the result without waiting. ok is false while the call is
// still running.
//
//nolint:staticcheck // ok last mirrors the map/channel comma-ok form
func (f *Future[T]) Poll() (v T, err error, ok bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}

// Then derives a future whose value is fn applied to f's value. Errors from f
// pass through unchanged and fn is not called. A panic in fn resolves the
// derived future with *PanicError.
func Then[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	out := newFuture[U](f.id)

	go func() {
		<-f.done
		if f.err != nil {
			var zero U
			out.resolve(zero, f.err)
			return
		}

		var (
			u   U
			err error
		)
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = &PanicError{Value: r, Stack: debug.Stack()}
				}
			}()
			u, err = fn(f.val)
		}()
		out.resolve(u, err)
	}()

	return out
}

// Gather awaits every future in order and returns their values. The first
// error, in argument order, is returned with the index of the failing
// future; the remaining futures keep running to completion.
func Gather[T any](ctx context.Context, futures ...*Future[T]) ([]T, error) {
	results := make([]T, len(futures))
	for i, f := range futures {
		v, err := f.Await(ctx)
		if err != nil {
			return nil, &GatherError{Index: i, Err: err}
		}
		results[i] = v
	}
	return results, nil
}

// GatherError reports which future made Gather fail. It unwraps to the
// original error so errors.Is and errors.As still match it.
type GatherError struct {
	Index int
	Err   error
}

func (e *GatherError) Error() string {
	return fmt.Sprintf("future %d: %v", e.Index, e.Err)
}

func (e *GatherError) Unwrap() error {
	return e.Err
}
