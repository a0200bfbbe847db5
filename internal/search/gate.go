package search

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Gate enforces a minimum interval between outbound requests to a shared
// endpoint. All fallback queries in the process go through one gate, so
// concurrent workers cannot stampede the provider.
type Gate struct {
	limiter *rate.Limiter
}

// NewGate creates a gate that allows at most one request per minInterval.
func NewGate(minInterval time.Duration) *Gate {
	return &Gate{limiter: rate.NewLimiter(rate.Every(minInterval), 1)}
}

// Wait blocks until the gate opens or the context is cancelled.
func (g *Gate) Wait(ctx context.Context) error {
	return g.limiter.Wait(ctx)
}
