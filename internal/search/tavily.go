package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/veridata/deckcheck/internal/model"
)

const tavilyBaseURL = "https://api.tavily.com"

// TavilyClient talks to the Tavily search API.
type TavilyClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewTavilyClient creates a Tavily client. The key is required; callers
// decide what to do when it is absent.
func NewTavilyClient(apiKey string, timeout time.Duration) *TavilyClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &TavilyClient{
		apiKey:  apiKey,
		baseURL: tavilyBaseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type tavilyRequest struct {
	APIKey     string `json:"api_key"`
	Query      string `json:"query"`
	Topic      string `json:"topic,omitempty"`
	MaxResults int    `json:"max_results,omitempty"`
}

type tavilyResult struct {
	Title         string `json:"title"`
	URL           string `json:"url"`
	Content       string `json:"content"`
	PublishedDate string `json:"published_date,omitempty"`
}

type tavilyResponse struct {
	Results []tavilyResult `json:"results"`
}

// Search runs a general web search. News-scoped search is fallback-only and
// never reaches this client.
func (c *TavilyClient) Search(ctx context.Context, query string, maxResults int) ([]model.Evidence, error) {
	reqBody := tavilyRequest{
		APIKey:     c.apiKey,
		Query:      query,
		Topic:      "general",
		MaxResults: maxResults,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyError(fmt.Errorf("tavily request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, classifyError(fmt.Errorf("read response: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &TransientError{Kind: KindRateLimit, Err: fmt.Errorf("tavily returned 429")}
	case resp.StatusCode >= 500:
		return nil, &TransientError{Kind: KindConnection, Err: fmt.Errorf("tavily returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("tavily returned %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed tavilyResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	evidence := make([]model.Evidence, 0, len(parsed.Results))
	now := time.Now()
	for _, r := range parsed.Results {
		if r.URL == "" {
			continue
		}
		evidence = append(evidence, model.Evidence{
			URL:           r.URL,
			Title:         r.Title,
			Snippet:       r.Content,
			Source:        sourceHost(r.URL),
			Retrieved:     now,
			Query:         query,
			PublishedDate: r.PublishedDate,
		})
	}
	return evidence, nil
}

func truncateBody(body []byte) string {
	const max = 200
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}
