package search

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/veridata/deckcheck/internal/model"
)

type fakeClient struct {
	mu      sync.Mutex
	calls   []time.Time
	errs    []error
	results []model.Evidence
	resets  int
}

func (f *fakeClient) Search(ctx context.Context, query string, maxResults int) ([]model.Evidence, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, time.Now())
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return f.results, nil
}

func (f *fakeClient) SearchNews(ctx context.Context, query string, maxResults int) ([]model.Evidence, error) {
	return f.Search(ctx, query, maxResults)
}

func (f *fakeClient) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestService(primary Client, fallback NewsClient) *Service {
	return &Service{
		primary:   primary,
		fallback:  fallback,
		gate:      NewGate(time.Millisecond),
		cfg:       model.SearchConfig{MaxResults: 5, RetryCount: 2},
		delayUnit: time.Millisecond,
	}
}

func TestServiceUsesPrimary(t *testing.T) {
	primary := &fakeClient{results: []model.Evidence{{URL: "https://example.com", Title: "result"}}}
	fallback := &fakeClient{}
	svc := newTestService(primary, fallback)

	results, err := svc.Search(context.Background(), "acme corp")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if fallback.callCount() != 0 {
		t.Error("fallback should not be called when primary succeeds")
	}
}

func TestServiceNewsSkipsPrimary(t *testing.T) {
	primary := &fakeClient{results: []model.Evidence{{URL: "https://primary.example.com"}}}
	fallback := &fakeClient{results: []model.Evidence{{URL: "https://example.com/news"}}}
	svc := newTestService(primary, fallback)

	results, err := svc.SearchNews(context.Background(), "acme funding")
	if err != nil {
		t.Fatalf("SearchNews: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if got := primary.callCount(); got != 0 {
		t.Errorf("primary called %d times, want 0 (news is fallback-only)", got)
	}
	if got := fallback.callCount(); got != 1 {
		t.Errorf("fallback called %d times, want 1", got)
	}
}

func TestNewServiceHonorsProviderSelection(t *testing.T) {
	tests := []struct {
		name        string
		cfg         model.SearchConfig
		wantPrimary bool
	}{
		{"tavily selected with key", model.SearchConfig{Provider: "tavily", TavilyAPIKey: "tvly-test"}, true},
		{"duckduckgo selected despite key", model.SearchConfig{Provider: "duckduckgo", TavilyAPIKey: "tvly-test"}, false},
		{"tavily selected without key", model.SearchConfig{Provider: "tavily"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(tt.cfg, nil)
			if got := svc.primaryHealthy(); got != tt.wantPrimary {
				t.Errorf("primaryHealthy() = %v, want %v", got, tt.wantPrimary)
			}
		})
	}
}

func TestServicePrimaryFailureIsSticky(t *testing.T) {
	primary := &fakeClient{errs: []error{errors.New("quota exceeded")}}
	fallback := &fakeClient{results: []model.Evidence{{URL: "https://example.com"}}}
	svc := newTestService(primary, fallback)

	if _, err := svc.Search(context.Background(), "first"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if _, err := svc.Search(context.Background(), "second"); err != nil {
		t.Fatalf("Search: %v", err)
	}

	if got := primary.callCount(); got != 1 {
		t.Errorf("primary called %d times, want 1 (sticky disable)", got)
	}
	if got := fallback.callCount(); got != 2 {
		t.Errorf("fallback called %d times, want 2", got)
	}
}

func TestServiceRetriesTransientFallbackErrors(t *testing.T) {
	fallback := &fakeClient{
		errs: []error{
			&TransientError{Kind: KindConnection, Err: errors.New("connection refused")},
			&TransientError{Kind: KindConnection, Err: errors.New("connection refused")},
		},
		results: []model.Evidence{{URL: "https://example.com"}},
	}
	svc := newTestService(nil, fallback)
	svc.primaryDown = true

	results, err := svc.Search(context.Background(), "acme")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want 1", len(results))
	}
	if got := fallback.callCount(); got != 3 {
		t.Errorf("fallback called %d times, want 3", got)
	}
}

func TestServiceResetsClientAfterRateLimit(t *testing.T) {
	fallback := &fakeClient{
		errs: []error{&TransientError{Kind: KindRateLimit, Err: errors.New("429")}},
		results: []model.Evidence{
			{URL: "https://example.com"},
		},
	}
	svc := newTestService(nil, fallback)
	svc.primaryDown = true

	if _, err := svc.Search(context.Background(), "acme"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if fallback.resets != 1 {
		t.Errorf("client reset %d times after rate limit, want 1", fallback.resets)
	}
}

func TestServiceFallbackExhaustionReturnsEmpty(t *testing.T) {
	rateLimited := &TransientError{Kind: KindRateLimit, Err: errors.New("429")}
	fallback := &fakeClient{errs: []error{rateLimited, rateLimited, rateLimited}}
	svc := newTestService(nil, fallback)
	svc.primaryDown = true

	results, err := svc.Search(context.Background(), "acme")
	if err != nil {
		t.Fatalf("exhausted fallback should not be fatal, got: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results, want 0", len(results))
	}
}

func TestServiceDoesNotRetryPermanentErrors(t *testing.T) {
	fallback := &fakeClient{errs: []error{errors.New("bad request")}}
	svc := newTestService(nil, fallback)
	svc.primaryDown = true

	if _, err := svc.Search(context.Background(), "acme"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := fallback.callCount(); got != 1 {
		t.Errorf("fallback called %d times, want 1 (no retry on permanent error)", got)
	}
}

func TestGateEnforcesMinimumInterval(t *testing.T) {
	interval := 20 * time.Millisecond
	fallback := &fakeClient{results: []model.Evidence{{URL: "https://example.com"}}}
	svc := newTestService(nil, fallback)
	svc.gate = NewGate(interval)
	svc.primaryDown = true

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.Search(ctx, fmt.Sprintf("query %d", i)); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}

	fallback.mu.Lock()
	calls := append([]time.Time(nil), fallback.calls...)
	fallback.mu.Unlock()
	if len(calls) != 3 {
		t.Fatalf("got %d calls, want 3", len(calls))
	}
	for i := 1; i < len(calls); i++ {
		if gap := calls[i].Sub(calls[i-1]); gap < interval-5*time.Millisecond {
			t.Errorf("calls %d and %d only %v apart, want at least %v", i-1, i, gap, interval)
		}
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind TransientKind
	}{
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"rate limit text", errors.New("got 429 too many requests"), KindRateLimit},
		{"connection refused", errors.New("dial tcp: connection refused"), KindConnection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var te *TransientError
			if !errors.As(classifyError(tt.err), &te) {
				t.Fatalf("classifyError(%v) not transient", tt.err)
			}
			if te.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", te.Kind, tt.kind)
			}
		})
	}

	if err := classifyError(errors.New("invalid query")); errors.As(err, new(*TransientError)) {
		t.Error("permanent error classified as transient")
	}
}
