package camunda

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shop-documents/internal/common/config"
	"shop-documents/internal/common/errors"
	"shop-documents/internal/common/logger"
)

var fastRetry = &RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry, "complete job", func(context.Context) error {
		calls++
		if calls < 3 {
			return fmt.Errorf("rpc error: code = Unavailable desc = connection refused")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry, "publish message", func(context.Context) error {
		calls++
		return fmt.Errorf("rpc error: code = InvalidArgument desc = bad variables")
	})
	assert.Equal(t, 1, calls)
	require.True(t, errors.HasCode(err, errors.ErrCodeUpstreamFailed))
	assert.False(t, errors.AsStandard(err).Retryable)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := retry(context.Background(), fastRetry, "topology", func(context.Context) error {
		calls++
		return fmt.Errorf("context deadline exceeded")
	})
	assert.Equal(t, 3, calls)
	stdErr := errors.AsStandard(err)
	assert.Equal(t, errors.ErrCodeUpstreamFailed, stdErr.Code)
	assert.True(t, stdErr.Retryable)
	assert.Contains(t, stdErr.Message, "after 3 attempts")
}

func TestRetry_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := retry(ctx, &RetryConfig{MaxRetries: 5, BaseDelay: time.Hour, MaxDelay: time.Hour}, "complete job", func(context.Context) error {
		return fmt.Errorf("unavailable")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMapZeebeError_NotFound(t *testing.T) {
	err := mapZeebeError(fmt.Errorf("rpc error: code = NotFound desc = job not found"), "complete job", 0)
	assert.Equal(t, errors.ErrCodeNotFound, err.Code)
}

func TestStartWorker_Disabled(t *testing.T) {
	w := StartWorker(nil, "compose-order-document", config.WorkerConfig{Enabled: false}, nil, logger.NewTestLogger(t))
	assert.Nil(t, w)
	assert.NotPanics(t, w.Stop)
}
