package llm

import (
	"context"
	"encoding/json"
	"strings"
)

// maxRawInError bounds the raw text captured in MalformedOutputError
const maxRawInError = 500

// Gateway presents one completion interface over the configured provider.
// Provider selection happens once, at construction.
type Gateway struct {
	provider Provider
	config   Config
}

// NewGateway creates a gateway from configuration. Configuration problems
// (missing credentials, unknown provider) fail here, before any request.
func NewGateway(config Config) (*Gateway, error) {
	provider, err := NewProvider(config)
	if err != nil {
		return nil, err
	}
	return &Gateway{provider: provider, config: config}, nil
}

// NewGatewayWithProvider wraps an existing provider (used by tests)
func NewGatewayWithProvider(provider Provider, config Config) *Gateway {
	return &Gateway{provider: provider, config: config}
}

// ProviderName reports the active provider for provenance
func (g *Gateway) ProviderName() string {
	return g.provider.Name()
}

// Model reports the configured model for provenance
func (g *Gateway) Model() string {
	return g.config.Model
}

// Option adjusts a single completion request
type Option func(*CompletionRequest)

// WithSystemPrompt sets the system prompt
func WithSystemPrompt(s string) Option {
	return func(r *CompletionRequest) { r.SystemPrompt = s }
}

// WithTemperature sets the sampling temperature
func WithTemperature(t float32) Option {
	return func(r *CompletionRequest) { r.Temperature = t }
}

// WithMaxTokens limits the response length
func WithMaxTokens(n int) Option {
	return func(r *CompletionRequest) { r.MaxTokens = n }
}

// Complete generates a text completion
func (g *Gateway) Complete(ctx context.Context, prompt string, opts ...Option) (string, error) {
	req := CompletionRequest{
		Prompt:      prompt,
		Temperature: 0.3,
		MaxTokens:   g.config.MaxTokens,
	}
	for _, opt := range opts {
		opt(&req)
	}
	return g.provider.Complete(ctx, req)
}

// jsonInstruction is appended to every structured-output prompt. Models
// still wrap JSON in prose or markdown anyway; ExtractJSON tolerates that.
const jsonInstruction = "\n\nIMPORTANT: Return ONLY valid JSON, no other text or markdown formatting."

// CompleteJSON generates a completion and unmarshals it into v.
// A response that cannot be parsed returns *MalformedOutputError; the caller
// decides whether to retry with a stricter prompt.
func (g *Gateway) CompleteJSON(ctx context.Context, prompt string, v any, opts ...Option) error {
	req := CompletionRequest{
		Prompt:      prompt + jsonInstruction,
		Temperature: 0.1,
		MaxTokens:   g.config.MaxTokens,
	}
	for _, opt := range opts {
		opt(&req)
	}

	raw, err := g.provider.Complete(ctx, req)
	if err != nil {
		return err
	}

	payload := ExtractJSON(raw)
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return &MalformedOutputError{Raw: truncate(raw, maxRawInError), Err: err}
	}
	return nil
}

// ExtractJSON recovers a JSON document from a model response that may wrap
// it in a fenced code block or surrounding prose: strip the fence if
// present, then slice from the first "{" to the last "}". A response that
// opens with "[" is taken as an array; brackets appearing mid-prose never
// win over a brace pair, so "see [the] answer: {...}" slices the object.
func ExtractJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = stripCodeFence(s)

	if strings.HasPrefix(s, "[") {
		if end := strings.LastIndex(s, "]"); end > 0 {
			return s[:end+1]
		}
	}
	if start := strings.Index(s, "{"); start >= 0 {
		if end := strings.LastIndex(s, "}"); end > start {
			return s[start : end+1]
		}
	}
	if start := strings.Index(s, "["); start >= 0 {
		if end := strings.LastIndex(s, "]"); end > start {
			return s[start : end+1]
		}
	}
	return s
}

// stripCodeFence removes a leading/trailing markdown code fence
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...[truncated]"
}
