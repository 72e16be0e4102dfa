package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts:     attempts,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("transient")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsAtMaxAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), fastPolicy(3), func() error {
		calls++
		return fmt.Errorf("still broken")
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	calls := 0
	permanent := NewPermanentError(fmt.Errorf("malformed request"))

	err := Retry(context.Background(), fastPolicy(5), func() error {
		calls++
		return permanent
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.ErrorContains(t, err, "malformed request")
}

func TestRetryHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := Retry(ctx, fastPolicy(5), func() error {
		calls++
		return fmt.Errorf("transient")
	})

	require.Error(t, err)
	assert.LessOrEqual(t, calls, 1)
}

func TestRetryWithCallbackNotifies(t *testing.T) {
	var delays []time.Duration
	calls := 0

	err := RetryWithCallback(context.Background(), fastPolicy(3), func() error {
		calls++
		return fmt.Errorf("transient")
	}, func(err error, next time.Duration) {
		delays = append(delays, next)
	})

	require.Error(t, err)
	assert.Len(t, delays, 2, "one notification per retry")
}
