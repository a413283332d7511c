package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCanedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"a":1}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		MockResponse{Content: json.RawMessage(`{"b":2}`)},
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "first"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp1.Content) != `{"a":1}` {
		t.Fatalf("expected {\"a\":1}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: []Message{{Role: RoleUser, Content: "second"}}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp2.Content) != `{"b":2}` {
		t.Fatalf("expected {\"b\":2}, got %s", resp2.Content)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error from empty queue")
	}
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_RecordsCalls(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{}`)},
	)

	req := Request{
		System:   "sys",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
	}
	_, _ = mock.Generate(context.Background(), req)

	if mock.CallCount() != 1 {
		t.Fatalf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].System != "sys" {
		t.Fatalf("expected system 'sys', got %q", mock.Calls[0].System)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Err: &ErrRateLimit{RetryAfter: 0}},
	)

	_, err := mock.Generate(context.Background(), Request{})
	if err == nil {
		t.Fatal("expected error")
	}
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestMockProvider_ModelID(t *testing.T) {
	mock := NewMockProvider()
	if mock.ModelID() != "mock" {
		t.Fatalf("expected 'mock', got %q", mock.ModelID())
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "tutor:concept_explanation")
	if p := PurposeFrom(ctx); p != "tutor:concept_explanation" {
		t.Fatalf("expected 'question-gen', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "anthropic without key",
			cfg:     Config{Provider: "anthropic"},
			wantErr: true,
		},
		{
			name:    "anthropic with key",
			cfg:     Config{Provider: "anthropic", Anthropic: AnthropicConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "openai without key",
			cfg:     Config{Provider: "openai"},
			wantErr: true,
		},
		{
			name:    "openai with key",
			cfg:     Config{Provider: "openai", OpenAI: OpenAIConfig{APIKey: "sk-test"}},
			wantErr: false,
		},
		{
			name:    "mock needs no key",
			cfg:     Config{Provider: "mock"},
			wantErr: false,
		},
		{
			name:    "groq with key",
			cfg:     Config{Provider: "groq", Groq: CompatConfig{APIKey: "gsk-test"}},
			wantErr: false,
		},
		{
			name:    "fallback without key",
			cfg:     Config{Provider: "mock", Fallback: []string{"cerebras"}},
			wantErr: true,
		},
		{
			name:    "fallback with key",
			cfg:     Config{Provider: "gemini", Gemini: GeminiConfig{APIKey: "g"}, Fallback: []string{"openrouter"}, OpenRouter: CompatConfig{APIKey: "or"}},
			wantErr: false,
		},
		{
			name:    "unknown provider",
			cfg:     Config{Provider: "unknown"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidateMessageNamesVariable(t *testing.T) {
	err := Config{Provider: "openrouter"}.Validate()
	if err == nil || err.Error() != "TUTORLY_OPENROUTER_API_KEY is required for the openrouter provider" {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestResponse_Text(t *testing.T) {
	tests := []struct {
		name    string
		content json.RawMessage
		want    string
	}{
		{"json string", TextContent("Light travels in straight lines."), "Light travels in straight lines."},
		{"object verbatim", json.RawMessage(`{"message":"hi"}`), `{"message":"hi"}`},
		{"escapes", TextContent("a \"quoted\"\nline"), "a \"quoted\"\nline"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Content: tt.content}
			if got := r.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}

	var nilResp *Response
	if got := nilResp.Text(); got != "" {
		t.Errorf("nil Text() = %q, want empty", got)
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TUTORLY_LLM_PROVIDER", "groq")
	t.Setenv("TUTORLY_LLM_FALLBACK", "openai, gemini ,")
	t.Setenv("TUTORLY_LLM_TIMEOUT", "15s")
	t.Setenv("TUTORLY_GROQ_API_KEY", "gsk")
	t.Setenv("TUTORLY_GROQ_MODEL", "llama-3.1-8b-instant")

	cfg := ConfigFromEnv()
	if cfg.Provider != "groq" {
		t.Errorf("Provider = %q, want groq", cfg.Provider)
	}
	if len(cfg.Fallback) != 2 || cfg.Fallback[0] != "openai" || cfg.Fallback[1] != "gemini" {
		t.Errorf("Fallback = %v, want [openai gemini]", cfg.Fallback)
	}
	if cfg.Timeout.String() != "15s" {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if cfg.Groq.APIKey != "gsk" || cfg.Groq.Model != "llama-3.1-8b-instant" {
		t.Errorf("Groq = %+v", cfg.Groq)
	}
	if cfg.Groq.BaseURL != defaultGroqBaseURL {
		t.Errorf("Groq.BaseURL = %q, want default", cfg.Groq.BaseURL)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY", "GROQ_API_KEY", "CEREBRAS_API_KEY"} {
		t.Setenv(k, "")
	}

	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("CEREBRAS_API_KEY", "csk")
	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a provider")
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("Provider = %q, want anthropic", cfg.Provider)
	}
	if len(cfg.Fallback) != 1 || cfg.Fallback[0] != "cerebras" {
		t.Errorf("Fallback = %v, want [cerebras]", cfg.Fallback)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestMockProvider_RecordsPurposeAndHonoursCancel(t *testing.T) {
	mock := NewMockProvider(MockText("hello"), MockJSON(map[string]bool{"correct": true}))

	ctx := WithPurpose(context.Background(), "tutor:evaluate")
	resp, err := mock.Generate(ctx, Request{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != "hello" {
		t.Fatalf("expected text reply, got %q", resp.Text())
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Generate(cancelled, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.Pending() != 1 {
		t.Fatalf("cancelled call must not consume a response, %d pending", mock.Pending())
	}
	if got := mock.Purposes; len(got) != 2 || got[0] != "tutor:evaluate" || got[1] != "unknown" {
		t.Fatalf("unexpected purposes %v", got)
	}
}

func TestSessionContext(t *testing.T) {
	ctx := context.Background()
	if SessionFrom(ctx) != "" {
		t.Fatal("expected no session")
	}
	ctx = WithPurpose(WithSession(ctx, "s-1"), "outline")
	if SessionFrom(ctx) != "s-1" || PurposeFrom(ctx) != "outline" {
		t.Fatalf("got session %q purpose %q", SessionFrom(ctx), PurposeFrom(ctx))
	}
}
