package llm

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider returns queued responses in order
type fakeProvider struct {
	responses []string
	err       error
	requests  []CompletionRequest
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req CompletionRequest) (string, error) {
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no queued response")
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"bare object", `{"a":1}`, `{"a":1}`},
		{"bare array", `[1,2]`, `[1,2]`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"fenced no lang", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around object", `Here is the result: {"a":1} Hope that helps!`, `{"a":1}`},
		{"prose around array", `Sure: [1,2] done`, `[1,2]`},
		{"array before object", `[{"a":1}]`, `[{"a":1}]`},
		{"bracketed prose before object", `Here is [the] answer: {"a":1}`, `{"a":1}`},
		{"bracketed prose after object", `{"a":1} as shown in [1]`, `{"a":1}`},
		{"no json at all", "no brackets here", "no brackets here"},
		{"whitespace", "  \n{\"a\":1}\n  ", `{"a":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.raw); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestCompleteJSON(t *testing.T) {
	provider := &fakeProvider{responses: []string{"```json\n{\"claims\":[{\"text\":\"x\"}]}\n```"}}
	g := NewGatewayWithProvider(provider, Config{MaxTokens: 1000})

	var out struct {
		Claims []struct {
			Text string `json:"text"`
		} `json:"claims"`
	}
	if err := g.CompleteJSON(context.Background(), "extract", &out); err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if len(out.Claims) != 1 || out.Claims[0].Text != "x" {
		t.Errorf("unexpected result: %+v", out)
	}

	// The JSON instruction is appended to the prompt
	if len(provider.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(provider.requests))
	}
	if !strings.Contains(provider.requests[0].Prompt, "ONLY valid JSON") {
		t.Error("prompt missing the JSON-only instruction")
	}
}

func TestCompleteJSONMalformed(t *testing.T) {
	provider := &fakeProvider{responses: []string{"I could not produce JSON, sorry."}}
	g := NewGatewayWithProvider(provider, Config{})

	var out map[string]any
	err := g.CompleteJSON(context.Background(), "extract", &out)

	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedOutputError", err)
	}
	if !strings.Contains(malformed.Raw, "could not produce") {
		t.Errorf("raw not captured: %q", malformed.Raw)
	}
}

func TestCompleteJSONTruncatesRaw(t *testing.T) {
	provider := &fakeProvider{responses: []string{strings.Repeat("x", 2000)}}
	g := NewGatewayWithProvider(provider, Config{})

	var out map[string]any
	err := g.CompleteJSON(context.Background(), "extract", &out)

	var malformed *MalformedOutputError
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want MalformedOutputError", err)
	}
	if len(malformed.Raw) > maxRawInError+len("...[truncated]") {
		t.Errorf("raw length = %d, want at most %d", len(malformed.Raw), maxRawInError+len("...[truncated]"))
	}
	if !strings.HasSuffix(malformed.Raw, "...[truncated]") {
		t.Error("truncated raw missing marker")
	}
}

func TestCompleteJSONProviderErrorPassesThrough(t *testing.T) {
	wantErr := errors.New("boom")
	provider := &fakeProvider{err: wantErr}
	g := NewGatewayWithProvider(provider, Config{})

	var out map[string]any
	err := g.CompleteJSON(context.Background(), "extract", &out)
	if !errors.Is(err, wantErr) {
		t.Errorf("err = %v, want %v", err, wantErr)
	}
	var malformed *MalformedOutputError
	if errors.As(err, &malformed) {
		t.Error("provider error must not be reported as malformed output")
	}
}

func TestCompleteOptions(t *testing.T) {
	provider := &fakeProvider{responses: []string{"ok"}}
	g := NewGatewayWithProvider(provider, Config{MaxTokens: 2000})

	_, err := g.Complete(context.Background(), "hello",
		WithSystemPrompt("be terse"),
		WithTemperature(0.7),
		WithMaxTokens(123),
	)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	req := provider.requests[0]
	if req.SystemPrompt != "be terse" {
		t.Errorf("system prompt = %q", req.SystemPrompt)
	}
	if req.Temperature != 0.7 {
		t.Errorf("temperature = %v", req.Temperature)
	}
	if req.MaxTokens != 123 {
		t.Errorf("max tokens = %d", req.MaxTokens)
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		config   Config
		wantName string
		wantErr  bool
	}{
		{"openai", Config{Provider: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}, "openai", false},
		{"openrouter", Config{Provider: "openrouter", APIKey: "sk-or-test", Model: "x"}, "openrouter", false},
		{"anthropic", Config{Provider: "anthropic", APIKey: "sk-ant-test", Model: "x"}, "anthropic", false},
		{"claude alias", Config{Provider: "claude", APIKey: "sk-ant-test", Model: "x"}, "anthropic", false},
		{"ollama", Config{Provider: "ollama", Model: "llama3.1:8b"}, "ollama", false},
		{"case insensitive", Config{Provider: "OpenAI", APIKey: "sk-test", Model: "x"}, "openai", false},
		{"missing key", Config{Provider: "openai", Model: "x"}, "", true},
		{"ollama missing model", Config{Provider: "ollama"}, "", true},
		{"empty provider", Config{}, "", true},
		{"unknown provider", Config{Provider: "cohere"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.config)
			if tt.wantErr {
				var cfgErr *ConfigError
				if !errors.As(err, &cfgErr) {
					t.Fatalf("err = %v, want ConfigError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := keyPrefix("sk-abcdef", 6); got != "sk-abc" {
		t.Errorf("keyPrefix = %q", got)
	}
	if got := keyPrefix("sk", 6); got != "sk" {
		t.Errorf("short key prefix = %q", got)
	}
}
