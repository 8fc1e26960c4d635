package provider

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// RateLimitedSearcher throttles outbound calls to one provider. Waiting
// respects the request context, so callers time out rather than queue
// forever.
type RateLimitedSearcher struct {
	next    ImageSearcher
	limiter *rate.Limiter
}

// WithRateLimit wraps an image searcher with a token-bucket limiter.
func WithRateLimit(next ImageSearcher, rps float64, burst int) *RateLimitedSearcher {
	return &RateLimitedSearcher{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimitedSearcher) Name() string     { return r.next.Name() }
func (r *RateLimitedSearcher) MaxPageSize() int { return r.next.MaxPageSize() }
func (r *RateLimitedSearcher) MaxOffset() int   { return r.next.MaxOffset() }

func (r *RateLimitedSearcher) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	return r.next.FetchPage(ctx, query, start, num)
}
