package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func retryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: 1 * time.Millisecond,
		MaxWait:     10 * time.Millisecond,
		Multiplier:  2.0,
	}
}

var (
	okResp      = MockResponse{Content: json.RawMessage(`{"ok":true}`)}
	downResp    = MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
	invalidResp = MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`bad`), Err: errors.New("bad")}}
)

func TestRetry(t *testing.T) {
	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt succeeds", []MockResponse{okResp}, false, 1},
		{"transient then success", []MockResponse{downResp, okResp}, false, 2},
		{"all attempts fail", []MockResponse{downResp, downResp, downResp, okResp}, true, 3},
		{"max tokens not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{Content: json.RawMessage(`{}`)}}, okResp}, true, 1},
		{"invalid response retried once", []MockResponse{invalidResp, invalidResp, okResp}, true, 2},
		{"invalid then success", []MockResponse{invalidResp, okResp}, false, 2},
		{"rate limit honours retry after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond, Err: errors.New("429")}}, okResp}, false, 2},
		{"cancellation not retried", []MockResponse{{Err: context.Canceled}, okResp}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			p := WithRetry(mock, retryConfig(), nil)

			resp, err := p.Generate(context.Background(), Request{})
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.JSONEq(t, `{"ok":true}`, string(resp.Content))
			}
			assert.Equal(t, tt.wantCalls, mock.CallCount())
		})
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	mock := NewMockProvider(downResp, downResp, okResp)
	p := WithRetry(mock, retryConfig(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Generate(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_LogsAttempts(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	mock := NewMockProvider(downResp, okResp)
	p := WithRetry(mock, retryConfig(), zap.New(core))

	ctx := WithSession(WithPurpose(context.Background(), "tutor:practice"), "sess-1")
	_, err := p.Generate(ctx, Request{})
	require.NoError(t, err)

	entries := logs.FilterMessage("retrying llm request").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tutor:practice", fields["purpose"])
	assert.Equal(t, "sess-1", fields["session_id"])
	assert.EqualValues(t, 1, fields["attempt"])
}

func TestRetry_ZeroAttemptsStillCallsOnce(t *testing.T) {
	mock := NewMockProvider(downResp)
	p := WithRetry(mock, RetryConfig{}, nil)
	_, err := p.Generate(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 1, mock.CallCount())
}

func TestRetry_ModelIDDelegates(t *testing.T) {
	p := WithRetry(NewMockProvider(), retryConfig(), nil)
	assert.Equal(t, "mock", p.ModelID())
}

func TestErrorClasses(t *testing.T) {
	tests := []struct {
		err                  error
		transient, malformed bool
	}{
		{&ErrProviderUnavailable{}, true, false},
		{&ErrRateLimit{Err: errors.New("429")}, true, false},
		{errors.New("connection reset"), true, false},
		{&ErrInvalidResponse{Err: errors.New("bad")}, false, true},
		{&ErrMaxTokensExceeded{}, false, true},
		{context.DeadlineExceeded, false, false},
		{nil, false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.transient, IsTransient(tt.err), "IsTransient(%v)", tt.err)
		assert.Equal(t, tt.malformed, IsMalformed(tt.err), "IsMalformed(%v)", tt.err)
	}
}
