package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitOpensAndRecovers(t *testing.T) {
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		ResetTimeout:     20 * time.Millisecond,
	})
	down := errors.New("connection refused")

	assert.Equal(t, down, cb.Execute(func() error { return down }))
	assert.Equal(t, down, cb.Execute(func() error { return down }))
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.True(t, errors.Is(err, ErrCircuitOpen))
	assert.False(t, called)

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitIgnoresNonFailures(t *testing.T) {
	miss := errors.New("key not found")
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, miss) },
	})
	for i := 0; i < 3; i++ {
		assert.Equal(t, miss, cb.Execute(func() error { return miss }))
	}
	assert.Equal(t, StateClosed, cb.State())
}

func TestWithTimeout(t *testing.T) {
	err := WithTimeout(context.Background(), 10*time.Millisecond, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(5 * time.Millisecond)
		return nil
	})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))

	err = WithTimeout(context.Background(), time.Second, "fast", func(context.Context) error { return nil })
	assert.NoError(t, err)
}

func TestBoundedReturnsValue(t *testing.T) {
	n, err := Bounded(context.Background(), time.Second, "count", func(context.Context) (int, error) {
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Bounded(ctx, time.Second, "cancelled", func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFailedProbeReopensAndReportsTransitions(t *testing.T) {
	var seen []string
	cb := NewCircuitBreaker("postgres", CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     10 * time.Millisecond,
		OnStateChange: func(name string, from, to State) {
			seen = append(seen, name+":"+from.String()+"->"+to.String())
		},
	})
	down := errors.New("down")

	assert.Equal(t, down, cb.Execute(func() error { return down }))
	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, down, cb.Execute(func() error { return down }))
	assert.Equal(t, StateOpen, cb.State())

	assert.Equal(t, []string{
		"postgres:closed->open",
		"postgres:open->half-open",
		"postgres:half-open->open",
	}, seen)
	assert.Equal(t, "state(7)", State(7).String())
}
