package fspath

import (
	"context"
	"sync"
)

// Future is the result of an asynchronous content operation. It completes
// exactly once; Wait and Then may be called any number of times from any
// goroutine.
//
// Futures of local operations are already complete when returned.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

// NewFuture returns a pending future and the function that completes it.
// Only the first call to resolve has an effect.
func NewFuture[T any]() (*Future[T], func(T, error)) {
	f := &Future[T]{done: make(chan struct{})}
	return f, f.resolve
}

// Resolved returns a future that is already complete.
func Resolved[T any](val T, err error) *Future[T] {
	f, resolve := NewFuture[T]()
	resolve(val, err)
	return f
}

// Go runs fn on a new goroutine and completes the returned future with its result.
func Go[T any](fn func() (T, error)) *Future[T] {
	f, resolve := NewFuture[T]()
	go func() {
		resolve(fn())
	}()
	return f
}

func (f *Future[T]) resolve(val T, err error) {
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
	})
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is done. Abandoning a wait
// does not cancel the underlying operation.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Then calls fn with the result once the future completes. A completed
// future runs fn inline before Then returns; a pending one runs it on
// another goroutine after Then has returned.
func (f *Future[T]) Then(fn func(T, error)) {
	select {
	case <-f.done:
		fn(f.val, f.err)
	default:
		go func() {
			<-f.done
			fn(f.val, f.err)
		}()
	}
}
