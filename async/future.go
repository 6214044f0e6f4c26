// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package async provides the small Promise/Future-style primitive spec.md
// 5 and 9 call for: "where a future-like handle is needed, expose a small
// Promise-style primitive completable with success/failure/cancel."
package async

import (
	"context"
	"errors"
	"sync"
)

// ErrCancelled is the error a Future resolves with when Cancel is called
// before it completes.
var ErrCancelled = errors.New("future was cancelled")

// Future is a single-assignment result cell completable exactly once with
// a value, an error, or cancellation.
type Future[T any] struct {
	mu   sync.Mutex
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an incomplete future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Complete resolves the future with val, or with err if err is non-nil.
// Calling Complete more than once is a no-op.
func (f *Future[T]) Complete(val T, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.done:
		return
	default:
	}
	f.val = val
	f.err = err
	close(f.done)
}

// Cancel resolves the future with ErrCancelled if it has not already
// completed.
func (f *Future[T]) Cancel() {
	var zero T
	f.Complete(zero, ErrCancelled)
}

// Done returns a channel closed when the future completes.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the future completes or ctx is cancelled, returning
// the completion value/error or ctx.Err().
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// TryGet returns the completion value/error and true if the future has
// already completed, or the zero value and false otherwise.
func (f *Future[T]) TryGet() (T, error, bool) {
	select {
	case <-f.done:
		return f.val, f.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
