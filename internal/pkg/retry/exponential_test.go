package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.BaseDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	cfg.Jitter = false
	return cfg
}

func TestExecute_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	err := New(fastConfig()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestExecute_RetriesTransientFailure(t *testing.T) {
	calls := 0
	err := New(fastConfig()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("connection reset")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecute_ExhaustsRetries(t *testing.T) {
	calls := 0
	wantErr := errors.New("still down")
	err := New(fastConfig()).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	// first call plus MaxRetries
	assert.Equal(t, 3, calls)
}

func TestExecute_NonRetryableStopsImmediately(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryableFunc = func(err error) bool { return false }

	calls := 0
	wantErr := errors.New("bad request")
	err := New(cfg).Execute(context.Background(), func(ctx context.Context) error {
		calls++
		return wantErr
	})
	assert.ErrorIs(t, err, wantErr)
	assert.Equal(t, 1, calls)
}

func TestExecute_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New(fastConfig()).Execute(ctx, func(ctx context.Context) error {
		t.Fatal("fn should not run with a cancelled context")
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}
