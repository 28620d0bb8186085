package resilience

import (
	"context"
	"fmt"
	"time"
)

// Bounded runs fn with a deadline of timeout and returns its result, or an
// error wrapping context.DeadlineExceeded once the deadline passes. fn keeps
// running after that, so it must honor its context. A non-positive timeout
// runs fn under ctx unchanged.
func Bounded[T any](ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return fn(ctx)
	}
	bctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := fn(bctx)
		done <- outcome{v, err}
	}()

	var zero T
	select {
	case o := <-done:
		return o.v, o.err
	case <-bctx.Done():
		if err := ctx.Err(); err != nil {
			return zero, fmt.Errorf("%s: %w", name, err)
		}
		return zero, fmt.Errorf("%s: %w after %v", name, context.DeadlineExceeded, timeout)
	}
}

// WithTimeout is Bounded for operations without a result.
func WithTimeout(ctx context.Context, timeout time.Duration, name string, fn func(ctx context.Context) error) error {
	_, err := Bounded(ctx, timeout, name, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
