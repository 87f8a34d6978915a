package retry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hvacconnect/marketplace/pkg/retry"
)

func fastConfig(attempts int) retry.Config {
	return retry.Config{
		MaxAttempts:   attempts,
		InitialDelay:  time.Millisecond,
		MaxDelay:      4 * time.Millisecond,
		BackoffFactor: 2,
	}
}

func TestConfig_Delay(t *testing.T) {
	cfg := retry.Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, BackoffFactor: 2}

	assert.Equal(t, 100*time.Millisecond, cfg.Delay(1))
	assert.Equal(t, 200*time.Millisecond, cfg.Delay(2))
	assert.Equal(t, 800*time.Millisecond, cfg.Delay(4))
	assert.Equal(t, time.Second, cfg.Delay(5))
	assert.Equal(t, time.Second, cfg.Delay(12))
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry.Do(context.Background(), fastConfig(5), func() error {
		calls++
		if calls < 3 {
			return errors.New("connection refused")
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsAtMaxAttempts(t *testing.T) {
	cause := errors.New("connection refused")
	calls := 0
	err := retry.Do(context.Background(), fastConfig(3), func() error {
		calls++
		return cause
	})

	assert.Equal(t, 3, calls)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestDo_PermanentErrorStopsImmediately(t *testing.T) {
	cause := errors.New("password authentication failed")
	calls := 0
	err := retry.Do(context.Background(), fastConfig(5), func() error {
		calls++
		return retry.Permanent(cause)
	})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, cause)
}

func TestDo_ContextCancelled(t *testing.T) {
	t.Run("before the first attempt", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		calls := 0
		err := retry.Do(ctx, fastConfig(5), func() error {
			calls++
			return nil
		})

		assert.Zero(t, calls)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("while waiting to retry", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cfg := retry.Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, BackoffFactor: 2}

		calls := 0
		err := retry.Do(ctx, cfg, func() error {
			calls++
			cancel()
			return errors.New("connection refused")
		})

		assert.Equal(t, 1, calls)
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "last error: connection refused")
	})
}

func TestDoWithLog_NotifiesBeforeEachWait(t *testing.T) {
	var delays []time.Duration
	err := retry.DoWithLog(context.Background(), fastConfig(4), "Redis",
		func() error { return errors.New("connection refused") },
		func(attempt int, err error, nextDelay time.Duration) {
			delays = append(delays, nextDelay)
		},
	)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Redis: ")
	assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
}
