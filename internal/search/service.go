package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/veridata/deckcheck/internal/cache"
	"github.com/veridata/deckcheck/internal/model"
)

// Client is implemented by anything that can run web searches.
type Client interface {
	Search(ctx context.Context, query string, maxResults int) ([]model.Evidence, error)
}

// NewsClient extends Client with a recency-scoped search. Only the fallback
// provides it; the primary has no news-scoped equivalent.
type NewsClient interface {
	Client
	SearchNews(ctx context.Context, query string, maxResults int) ([]model.Evidence, error)
}

// resettable clients can drop connection state between retries.
type resettable interface {
	Reset()
}

// Service runs searches against a primary provider with a scraped fallback.
// The primary is optional: when its key is missing or a call fails, the
// service disables it for the rest of the process and relies on the
// fallback. Fallback exhaustion is never fatal; the caller gets an empty
// result set and the pipeline records the claim as unverified.
type Service struct {
	primary  Client
	fallback NewsClient
	gate     *Gate
	store    cache.Cache
	cfg      model.SearchConfig

	mu          sync.Mutex
	primaryDown bool

	// delayUnit scales retry backoff. Tests shrink it to avoid real waits.
	delayUnit time.Duration
}

// NewService wires a search service from config. A nil store disables
// caching.
func NewService(cfg model.SearchConfig, store cache.Cache) *Service {
	svc := &Service{
		fallback:  NewDuckDuckGoClient(cfg.Timeout),
		gate:      NewGate(cfg.FallbackInterval),
		store:     store,
		cfg:       cfg,
		delayUnit: time.Second,
	}
	// The primary is only constructed when it is both selected and
	// credentialed; otherwise every search takes the fallback path.
	if cfg.Provider == "tavily" && cfg.TavilyAPIKey != "" {
		svc.primary = NewTavilyClient(cfg.TavilyAPIKey, cfg.Timeout)
	} else {
		svc.primaryDown = true
	}
	return svc
}

// Search runs a general web search for the query.
func (s *Service) Search(ctx context.Context, query string) ([]model.Evidence, error) {
	return s.run(ctx, "search", query, true, s.fallback.Search)
}

// SearchNews runs a recency-biased search for the query. The primary has no
// news-scoped variant, so news always takes the gated fallback path.
func (s *Service) SearchNews(ctx context.Context, query string) ([]model.Evidence, error) {
	return s.run(ctx, "news", query, false, s.fallback.SearchNews)
}

type searchFn func(ctx context.Context, query string, maxResults int) ([]model.Evidence, error)

func (s *Service) run(ctx context.Context, kind, query string, tryPrimary bool, fallback searchFn) ([]model.Evidence, error) {
	key := cache.QueryKey(kind, query)
	if cached, ok := s.cached(key); ok {
		return cached, nil
	}

	if tryPrimary && s.primaryHealthy() {
		results, err := s.primary.Search(ctx, query, s.cfg.MaxResults)
		if err == nil {
			s.remember(key, results)
			return results, nil
		}
		s.disablePrimary(err)
	}

	results, err := s.fallbackSearch(ctx, query, fallback)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// Fallback exhaustion is not fatal for the run.
		fmt.Fprintf(os.Stderr, "Warning: search failed for %q: %v\n", query, err)
		return []model.Evidence{}, nil
	}
	s.remember(key, results)
	return results, nil
}

func (s *Service) fallbackSearch(ctx context.Context, query string, fn searchFn) ([]model.Evidence, error) {
	attempts := uint(s.cfg.RetryCount) + 1

	return retry.DoWithData(
		func() ([]model.Evidence, error) {
			if err := s.gate.Wait(ctx); err != nil {
				return nil, err
			}
			results, err := fn(ctx, query, s.cfg.MaxResults)
			if err != nil {
				return nil, classifyError(err)
			}
			return results, nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			var te *TransientError
			return errors.As(err, &te)
		}),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			var te *TransientError
			if errors.As(err, &te) && te.Kind == KindRateLimit {
				return time.Duration(n+1) * 5 * s.delayUnit
			}
			return time.Duration(n+1) * 3 * s.delayUnit
		}),
		retry.OnRetry(func(n uint, err error) {
			var te *TransientError
			if errors.As(err, &te) && te.Kind == KindRateLimit {
				if r, ok := s.fallback.(resettable); ok {
					r.Reset()
				}
			}
		}),
	)
}

func (s *Service) primaryHealthy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primary != nil && !s.primaryDown
}

// disablePrimary marks the primary provider unusable for the rest of the
// process. One failure is enough: burning quota on a flaky paid endpoint is
// worse than scraping.
func (s *Service) disablePrimary(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.primaryDown {
		return
	}
	s.primaryDown = true
	fmt.Fprintf(os.Stderr, "Warning: primary search provider disabled: %v\n", err)
}

func (s *Service) cached(key string) ([]model.Evidence, bool) {
	if s.store == nil {
		return nil, false
	}
	data, ok := s.store.Get(key)
	if !ok {
		return nil, false
	}
	var results []model.Evidence
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, false
	}
	return results, true
}

func (s *Service) remember(key string, results []model.Evidence) {
	if s.store == nil || len(results) == 0 {
		return
	}
	data, err := json.Marshal(results)
	if err != nil {
		return
	}
	_ = s.store.Set(key, data, 0)
}
