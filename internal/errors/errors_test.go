package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "resolution", err: Resolution("resolver", "resolve", fmt.Errorf("no match")), want: KindResolution},
		{name: "invalid_window", err: InvalidWindow("session", "resolve", fmt.Errorf("bad expr")), want: KindInvalidWindow},
		{name: "cache_corrupt", err: CacheCorrupt("cache", "load", fmt.Errorf("bad json")), want: KindCacheCorrupt},
		{name: "trial_exceeded", err: TrialExceeded("trials", "gate", nil), want: KindTrialExceeded},
		{name: "storage", err: StorageUnavailable("trials", "open", fmt.Errorf("no such dir")), want: KindStorageUnavailable},
		{name: "transient", err: Transient("fetch", "bars", fmt.Errorf("timeout")), want: KindTransient},
		{name: "plain_error", err: fmt.Errorf("whatever"), want: KindUnknown},
		{name: "nil", err: nil, want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestKindOf_SurvivesWrapping(t *testing.T) {
	inner := Resolution("resolver", "resolve", fmt.Errorf("no match"))
	wrapped := fmt.Errorf("request failed: %w", inner)

	assert.Equal(t, KindResolution, KindOf(wrapped))
	assert.True(t, IsResolutionFailure(wrapped))
}

func TestError_UnwrapChain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := StorageUnavailable("trials", "open", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "trials")
	assert.Contains(t, err.Error(), "root cause")
}

func TestResolutionErrorf(t *testing.T) {
	err := ResolutionErrorf("resolver", "fixed_income", "cannot resolve %q", "/cusip/912810FE3")
	assert.True(t, IsResolutionFailure(err))
	assert.Contains(t, err.Error(), `"/cusip/912810FE3"`)
}

func TestRetry_StopsOnPermanentError(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, "fetch", func() error {
		calls++
		return fmt.Errorf("malformed request")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_RetriesTransient(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, "fetch", func() error {
		calls++
		if calls < 3 {
			return Transient("fetch", "bars", fmt.Errorf("connection reset"))
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, RetryPolicy{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, "fetch", func() error {
		calls++
		return Transient("fetch", "bars", fmt.Errorf("rate limit"))
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempts")
}

func TestRetry_MessagePatternClassification(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), nil, RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, "fetch", func() error {
		calls++
		return fmt.Errorf("503 service unavailable")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls, "plain errors with transport wording are retried")
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, nil, RetryPolicy{MaxAttempts: 5, InitialDelay: time.Minute, MaxDelay: time.Minute}, "fetch", func() error {
		return Transient("fetch", "bars", fmt.Errorf("timeout"))
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
