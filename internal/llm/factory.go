package llm

import (
	"strings"
)

// NewProvider creates a provider from configuration. The variant is selected
// once here, not re-decided per call.
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "openai":
		return NewOpenAIProvider(config)

	case "openrouter":
		return NewOpenRouterProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, &ConfigError{Provider: "", Reason: "no provider configured"}

	default:
		return nil, &ConfigError{
			Provider: config.Provider,
			Reason:   "unknown provider (supported: openai, openrouter, anthropic, ollama)",
		}
	}
}
