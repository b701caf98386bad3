package camunda

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creators-club/internal/common/errors"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestExecuteWithRetry_RetriesTransientErrors(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		if calls < 3 {
			return stderrors.New("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	}, "create-instance creator-application")

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetry_GivesUpAndMaps(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		return stderrors.New("context deadline exceeded")
	}, "op")

	assert.Equal(t, 3, calls)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeTimeout, stdErr.Code)
	assert.Contains(t, stdErr.Details, "after 3 attempts")
}

func TestExecuteWithRetry_PermanentErrorIsNotRetried(t *testing.T) {
	calls := 0
	err := executeWithRetry(context.Background(), fastRetry, func(context.Context) error {
		calls++
		return stderrors.New("NOT_FOUND: process 'creator-application' not found")
	}, "op")

	assert.Equal(t, 1, calls)
	var stdErr *errors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, errors.ErrCodeResourceNotFound, stdErr.Code)
}

func TestExecuteWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	slow := &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}

	err := executeWithRetry(ctx, slow, func(context.Context) error {
		cancel()
		return stderrors.New("unavailable")
	}, "op")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryableZeebeError(t *testing.T) {
	assert.True(t, isRetryableZeebeError(stderrors.New("broken pipe")))
	assert.True(t, isRetryableZeebeError(stderrors.New("RESOURCE_EXHAUSTED: backpressure")))
	assert.False(t, isRetryableZeebeError(stderrors.New("invalid argument")))
}
