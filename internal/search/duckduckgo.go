package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/veridata/deckcheck/internal/model"
)

const (
	ddgBaseURL   = "https://html.duckduckgo.com/html/"
	ddgUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
)

// DuckDuckGoClient scrapes the DuckDuckGo HTML endpoint. It has no API key
// and no SLA, so callers must pace requests through a Gate and treat every
// response as best effort.
type DuckDuckGoClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// NewDuckDuckGoClient creates a fallback search client.
func NewDuckDuckGoClient(timeout time.Duration) *DuckDuckGoClient {
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	return &DuckDuckGoClient{
		baseURL:    ddgBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		timeout:    timeout,
	}
}

// Reset replaces the underlying HTTP client, dropping any pooled
// connections. Called after a rate limit so the next attempt starts from a
// fresh connection.
func (c *DuckDuckGoClient) Reset() {
	c.httpClient.CloseIdleConnections()
	c.httpClient = &http.Client{Timeout: c.timeout}
}

// Search runs a general web search against the HTML endpoint.
func (c *DuckDuckGoClient) Search(ctx context.Context, query string, maxResults int) ([]model.Evidence, error) {
	return c.search(ctx, query, maxResults, false)
}

// SearchNews biases the query toward recent results.
func (c *DuckDuckGoClient) SearchNews(ctx context.Context, query string, maxResults int) ([]model.Evidence, error) {
	return c.search(ctx, query, maxResults, true)
}

func (c *DuckDuckGoClient) search(ctx context.Context, query string, maxResults int, recent bool) ([]model.Evidence, error) {
	params := url.Values{}
	params.Set("q", query)
	if recent {
		// Restrict to the past month.
		params.Set("df", "m")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", ddgUserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyError(fmt.Errorf("duckduckgo request: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests, resp.StatusCode == http.StatusForbidden:
		return nil, &TransientError{Kind: KindRateLimit, Err: fmt.Errorf("duckduckgo returned %d", resp.StatusCode)}
	case resp.StatusCode >= 500:
		return nil, &TransientError{Kind: KindConnection, Err: fmt.Errorf("duckduckgo returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("duckduckgo returned %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	results := parseDDGResults(doc, query)
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// parseDDGResults walks the HTML looking for result anchors and snippets.
// The HTML endpoint marks result links with class result__a and snippets
// with result__snippet.
func parseDDGResults(doc *html.Node, query string) []model.Evidence {
	var results []model.Evidence
	now := time.Now()

	var current *model.Evidence
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			class := attrValue(n, "class")
			switch {
			case strings.Contains(class, "result__a"):
				if current != nil && current.URL != "" {
					results = append(results, *current)
				}
				target := resolveDDGLink(attrValue(n, "href"))
				current = &model.Evidence{
					URL:       target,
					Title:     textContent(n),
					Source:    sourceHost(target),
					Retrieved: now,
					Query:     query,
				}
			case strings.Contains(class, "result__snippet"):
				if current != nil && current.Snippet == "" {
					current.Snippet = textContent(n)
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if current != nil && current.URL != "" {
		results = append(results, *current)
	}
	return results
}

// resolveDDGLink decodes the redirect wrapper DuckDuckGo puts around result
// URLs. Links look like //duckduckgo.com/l/?uddg=<encoded-url>&rut=...
func resolveDDGLink(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		if decoded, err := url.QueryUnescape(target); err == nil {
			return decoded
		}
		return target
	}
	return href
}

// sourceHost reduces a result URL to its www.-stripped host for display
func sourceHost(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return rawURL
	}
	return strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
