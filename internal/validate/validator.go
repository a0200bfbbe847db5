package validate

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/veridata/deckcheck/internal/model"
	"github.com/veridata/deckcheck/internal/util"
)

const (
	validateMaxRetries = 3
	validateUserAgent  = "deckcheck/0.1 (+https://github.com/veridata/deckcheck)"
)

// validateSleepFunc is the sleep function used between retries (injectable for tests)
var validateSleepFunc = time.Sleep

// Validator checks evidence links concurrently before they feed into
// scoring. Hosts whose robots.txt disallows us are skipped, not fetched.
type Validator struct {
	httpClient *http.Client
	maxWorkers int
	authority  *AuthorityClassifier
	robots     *util.RobotsChecker
}

// NewValidator creates a new validator
func NewValidator(timeout time.Duration, maxWorkers int) *Validator {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Validator{
		httpClient: &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 3 {
					return fmt.Errorf("stopped after 3 redirects")
				}
				return nil
			},
		},
		maxWorkers: maxWorkers,
		authority:  NewAuthorityClassifier(nil),
		robots:     util.NewRobotsChecker(validateUserAgent, timeout),
	}
}

// Validate checks all evidence links concurrently. Results keep the input
// order.
func (v *Validator) Validate(ctx context.Context, evidence []model.Evidence) []model.ValidationResult {
	if len(evidence) == 0 {
		return []model.ValidationResult{}
	}

	results := make([]model.ValidationResult, len(evidence))
	var wg sync.WaitGroup

	semaphore := make(chan struct{}, v.maxWorkers)

	for i, ev := range evidence {
		wg.Add(1)
		go func(idx int, e model.Evidence) {
			defer wg.Done()

			select {
			case <-ctx.Done():
				results[idx] = model.ValidationResult{
					URL:       e.URL,
					Authority: v.authority.Classify(e.URL),
					Error:     "context cancelled",
				}
				return
			case semaphore <- struct{}{}:
			}
			defer func() { <-semaphore }()

			results[idx] = v.validateSingleWithRetry(ctx, e)
		}(i, ev)
	}

	wg.Wait()
	return results
}

// validateSingle checks one evidence link with a HEAD request, falling back
// to GET when the server rejects HEAD.
func (v *Validator) validateSingle(ctx context.Context, evidence model.Evidence) model.ValidationResult {
	result := model.ValidationResult{
		URL:       evidence.URL,
		Authority: v.authority.Classify(evidence.URL),
	}

	if !v.robots.IsAllowed(ctx, evidence.URL) {
		result.Skipped = true
		return result
	}

	status, err := v.request(ctx, http.MethodHead, evidence.URL)
	if err == nil && status == http.StatusMethodNotAllowed {
		status, err = v.request(ctx, http.MethodGet, evidence.URL)
	}
	if err != nil {
		result.Error = err.Error()
		return result
	}

	result.StatusCode = status
	result.IsAccessible = status >= 200 && status < 400
	return result
}

func (v *Validator) request(ctx context.Context, method, rawURL string) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", validateUserAgent)

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	return resp.StatusCode, nil
}

// validateSingleWithRetry retries transient failures with exponential backoff
func (v *Validator) validateSingleWithRetry(ctx context.Context, evidence model.Evidence) model.ValidationResult {
	var result model.ValidationResult
	for attempt := 0; attempt < validateMaxRetries; attempt++ {
		result = v.validateSingle(ctx, evidence)
		if !isRetryableValidationResult(result) {
			return result
		}
		if attempt < validateMaxRetries-1 {
			backoff := time.Duration(1<<uint(attempt)) * time.Second
			validateSleepFunc(backoff)
		}
	}
	return result
}

// isRetryableValidationResult returns true for results that indicate transient failures
func isRetryableValidationResult(result model.ValidationResult) bool {
	if result.Skipped {
		return false
	}
	if result.StatusCode >= 500 && result.StatusCode < 600 {
		return true
	}
	if result.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if result.Error != "" && isRetryableNetworkError(result.Error) {
		return true
	}
	return false
}

// isRetryableNetworkError checks error strings for transient network failures
func isRetryableNetworkError(errMsg string) bool {
	s := strings.ToLower(errMsg)
	return strings.Contains(s, "timeout") ||
		strings.Contains(s, "connection refused") ||
		strings.Contains(s, "connection reset")
}
