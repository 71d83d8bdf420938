package stream

import (
	"context"
	"errors"
)

// ErrEmpty is returned by Last when a stream completes without values.
var ErrEmpty = errors.New("stream: completed without values")

// PipeFunc handles one upstream value. It may call next any number of
// times. Returning done=true completes the derived stream; a non-nil error
// terminates it with that error.
type PipeFunc[T, U any] func(v T, next func(U)) (done bool, err error)

// Pipe derives a subscription from src. The derived stream mirrors src's
// terminal outcome unless fn ends it first. Closing the derived
// subscription closes src.
func Pipe[T, U any](src *Subscription[T], fn PipeFunc[T, U]) *Subscription[U] {
	dst := NewSubject[U]()
	out := dst.Subscribe()
	next := func(u U) { dst.Next(u) }

	go func() {
		defer src.Close()
		for {
			select {
			case v, ok := <-src.C():
				if !ok {
					dst.Finish(src.Err())
					return
				}
				done, err := fn(v, next)
				if err != nil {
					dst.Error(err)
					return
				}
				if done {
					dst.Complete()
					return
				}
			case <-out.Closing():
				return
			}
		}
	}()
	return out
}

// Collect reads sub until it terminates and returns every value.
func Collect[T any](ctx context.Context, sub *Subscription[T]) ([]T, error) {
	defer sub.Close()

	var values []T
	for {
		select {
		case v, ok := <-sub.C():
			if !ok {
				return values, sub.Err()
			}
			values = append(values, v)
		case <-ctx.Done():
			return values, ctx.Err()
		}
	}
}

// Last reads sub until it terminates and returns the final value.
func Last[T any](ctx context.Context, sub *Subscription[T]) (T, error) {
	values, err := Collect(ctx, sub)
	var zero T
	if err != nil {
		return zero, err
	}
	if len(values) == 0 {
		return zero, ErrEmpty
	}
	return values[len(values)-1], nil
}

// Drain discards values until sub terminates and returns its error.
func Drain[T any](ctx context.Context, sub *Subscription[T]) error {
	defer sub.Close()

	for {
		select {
		case _, ok := <-sub.C():
			if !ok {
				return sub.Err()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
