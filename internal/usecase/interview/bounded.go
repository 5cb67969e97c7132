package interview

import (
	"context"
	"time"
)

type boundedResult[T any] struct {
	value T
	err   error
}

// callBounded runs call under a deadline of limit and stops waiting once the
// deadline passes or ctx is done, whichever comes first. A result delivered
// after that is dropped. The worker goroutine exits when call returns.
func callBounded[T any](ctx context.Context, limit time.Duration, call func(context.Context) (T, error)) (T, error) {
	callCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	done := make(chan boundedResult[T], 1)
	go func() {
		value, err := call(callCtx)
		done <- boundedResult[T]{value: value, err: err}
	}()

	select {
	case res := <-done:
		return res.value, res.err
	case <-callCtx.Done():
		select {
		case res := <-done:
			return res.value, res.err
		default:
		}

		var zero T
		return zero, callCtx.Err()
	}
}
