package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// OpenAIProvider implements the Provider interface over any
// OpenAI-compatible chat-completions endpoint (OpenAI itself, OpenRouter).
type OpenAIProvider struct {
	client    *openai.Client
	config    Config
	name      string
	keyFormat string // Expected key prefix, for auth diagnostics
}

// NewOpenAIProvider creates a provider for the OpenAI API
func NewOpenAIProvider(config Config) (*OpenAIProvider, error) {
	return newCompatProvider(config, "openai", "sk-")
}

// NewOpenRouterProvider creates a provider for OpenRouter's
// OpenAI-compatible API.
func NewOpenRouterProvider(config Config) (*OpenAIProvider, error) {
	if config.BaseURL == "" {
		config.BaseURL = openRouterBaseURL
	}
	return newCompatProvider(config, "openrouter", "sk-or-")
}

func newCompatProvider(config Config, name, keyFormat string) (*OpenAIProvider, error) {
	config.APIKey = strings.TrimSpace(config.APIKey)
	if config.APIKey == "" {
		return nil, &ConfigError{Provider: name, Reason: "API key is required"}
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}

	return &OpenAIProvider{
		client:    openai.NewClientWithConfig(clientConfig),
		config:    config,
		name:      name,
		keyFormat: keyFormat,
	}, nil
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// Complete generates a completion via the Chat Completions API
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = p.config.MaxTokens
	}

	timeout := p.config.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model:       p.config.Model,
		Messages:    messages,
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return "", p.translateError(err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", p.name)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// translateError maps a 401 into an AuthError with key diagnostics.
// Other errors pass through wrapped; the caller's retry policy classifies them.
func (p *OpenAIProvider) translateError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusUnauthorized {
		detail := apiErr.Message
		if !strings.HasPrefix(p.config.APIKey, p.keyFormat) {
			detail += fmt.Sprintf(" (key should start with %q)", p.keyFormat)
		}
		return &AuthError{
			Provider:  p.name,
			KeyPrefix: keyPrefix(p.config.APIKey, 6),
			KeyLength: len(p.config.APIKey),
			Detail:    detail,
		}
	}
	return fmt.Errorf("%s API error: %w", p.name, err)
}
