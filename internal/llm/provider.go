package llm

import (
	"context"
	"fmt"
	"time"
)

// Provider defines the interface for language-model providers.
// Each implementation owns its request formatting and authentication;
// callers are polymorphic over {Complete}.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete generates a completion for the request
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// CompletionRequest contains the input for a completion
type CompletionRequest struct {
	// Prompt is the user prompt
	Prompt string

	// SystemPrompt is an optional system prompt
	SystemPrompt string

	// Temperature controls sampling (lower = more deterministic)
	Temperature float32

	// MaxTokens limits the response length
	MaxTokens int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "openrouter", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout per API request
	Timeout time.Duration

	// MaxTokens default for response generation
	MaxTokens int
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   60 * time.Second,
		MaxTokens: 2000,
	}
}

// ConfigError reports missing or malformed provider configuration.
// It is fatal at construction time, never at call time, so misconfiguration
// is caught before any request is attempted.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("llm provider %q configuration: %s", e.Provider, e.Reason)
}

// AuthError reports a 401-class response. Credentials do not heal themselves,
// so it is never retried; the key-format hints help diagnose the bad key.
type AuthError struct {
	Provider  string
	KeyPrefix string // First few characters of the configured key
	KeyLength int
	Detail    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf(
		"%s authentication failed (401 unauthorized): %s (key starts with %q, length %d characters; verify the key is current and not revoked)",
		e.Provider, e.Detail, e.KeyPrefix, e.KeyLength)
}

// MalformedOutputError reports a model response that could not be parsed as
// the expected JSON. Raw is truncated for diagnosis; callers decide whether
// to retry with a stricter prompt.
type MalformedOutputError struct {
	Raw string
	Err error
}

func (e *MalformedOutputError) Error() string {
	return fmt.Sprintf("malformed structured output: %v (raw: %q)", e.Err, e.Raw)
}

func (e *MalformedOutputError) Unwrap() error { return e.Err }

// keyPrefix returns up to n leading characters of a key for diagnostics
func keyPrefix(key string, n int) string {
	if len(key) <= n {
		return key
	}
	return key[:n]
}
