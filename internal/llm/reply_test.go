package llm

import (
	"errors"
	"net/http"
	"testing"
	"time"
)

func TestFinish(t *testing.T) {
	quiz := &Schema{
		Name: "quiz",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"question": map[string]any{"type": "string"}},
			"required":   []any{"question"},
		},
	}

	tests := []struct {
		name     string
		req      Request
		r        reply
		wantErr  any
		wantBody string
	}{
		{"text reply", Request{}, reply{text: "Mirrors reflect."}, nil, `"Mirrors reflect."`},
		{"structured reply trimmed", Request{Schema: quiz}, reply{text: "\n{\"question\":\"Why?\"}\n"}, nil, `{"question":"Why?"}`},
		{"structured reply invalid", Request{Schema: quiz}, reply{text: `{"answer":1}`}, &ErrInvalidResponse{}, ""},
		{"structured reply truncated", Request{Schema: quiz}, reply{text: `{"quest`, stop: stopMaxTokens}, &ErrMaxTokensExceeded{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := finish(tt.req, tt.r)
			switch want := tt.wantErr.(type) {
			case nil:
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if string(resp.Content) != tt.wantBody {
					t.Fatalf("content = %s, want %s", resp.Content, tt.wantBody)
				}
				if resp.StopReason != stopEnd {
					t.Fatalf("stop reason = %q", resp.StopReason)
				}
			case *ErrInvalidResponse:
				if !errors.As(err, &want) {
					t.Fatalf("expected ErrInvalidResponse, got %T (%v)", err, err)
				}
			case *ErrMaxTokensExceeded:
				if !errors.As(err, &want) {
					t.Fatalf("expected ErrMaxTokensExceeded, got %T (%v)", err, err)
				}
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	base := errors.New("boom")
	h := http.Header{}
	h.Set("Retry-After", "3")

	var rl *ErrRateLimit
	if err := classifyStatus(http.StatusTooManyRequests, h, base); !errors.As(err, &rl) || rl.RetryAfter != 3*time.Second {
		t.Fatalf("429: got %T (%v)", err, err)
	}
	if !errors.Is(rl, base) {
		t.Error("rate limit error should wrap the SDK error")
	}

	var un *ErrProviderUnavailable
	for _, status := range []int{http.StatusInternalServerError, http.StatusBadGateway, http.StatusBadRequest} {
		if err := classifyStatus(status, nil, base); !errors.As(err, &un) {
			t.Errorf("%d: got %T", status, err)
		}
	}
}

func TestParseRetryAfter(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"", 0},
		{"12", 12 * time.Second},
		{" 2 ", 2 * time.Second},
		{"-1", 0},
		{"Wed, 21 Oct 2026 07:28:00 GMT", 0},
	}
	for _, tt := range tests {
		h := http.Header{}
		if tt.value != "" {
			h.Set("Retry-After", tt.value)
		}
		if got := parseRetryAfter(h); got != tt.want {
			t.Errorf("parseRetryAfter(%q) = %v, want %v", tt.value, got, tt.want)
		}
	}
	if got := parseRetryAfter(nil); got != 0 {
		t.Errorf("nil header = %v", got)
	}
}
