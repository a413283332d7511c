package llm

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Normalized stop reasons.
const (
	stopEnd       = "end"
	stopMaxTokens = "max_tokens"
)

// reply is what every adapter extracts from its SDK's response before the
// shared checks run.
type reply struct {
	text  string
	stop  string
	usage Usage
	model string
}

// finish turns an adapter reply into a Response. Structured replies are
// validated against the request schema; a structured reply cut off by the
// token limit is reported as such rather than as invalid JSON.
func finish(req Request, r reply) (*Response, error) {
	if r.stop == "" {
		r.stop = stopEnd
	}
	if r.usage.TotalTokens == 0 {
		r.usage.TotalTokens = r.usage.InputTokens + r.usage.OutputTokens
	}
	resp := &Response{Usage: r.usage, Model: r.model, StopReason: r.stop}

	if req.Schema == nil {
		resp.Content = textContent(r.text)
		return resp, nil
	}

	raw := json.RawMessage(strings.TrimSpace(r.text))
	if r.stop == stopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: raw}
	}
	if err := validateResponse(req.Schema, raw); err != nil {
		return nil, err
	}
	resp.Content = raw
	return resp, nil
}

// classifyStatus maps an HTTP status from a provider API error onto the
// package's error classes. header may be nil.
func classifyStatus(status int, header http.Header, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{RetryAfter: parseRetryAfter(header), Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
