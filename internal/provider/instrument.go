package provider

import (
	"context"
	"time"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
)

// InstrumentedSearcher records request counts and latency per provider.
// It is the outermost decorator so retries and breaker rejections are
// counted as what the caller observed.
type InstrumentedSearcher struct {
	next ImageSearcher
}

// WithInstrumentation wraps an image searcher with Prometheus metrics.
func WithInstrumentation(next ImageSearcher) *InstrumentedSearcher {
	return &InstrumentedSearcher{next: next}
}

func (i *InstrumentedSearcher) Name() string     { return i.next.Name() }
func (i *InstrumentedSearcher) MaxPageSize() int { return i.next.MaxPageSize() }
func (i *InstrumentedSearcher) MaxOffset() int   { return i.next.MaxOffset() }

func (i *InstrumentedSearcher) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	begin := time.Now()
	page, err := i.next.FetchPage(ctx, query, start, num)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestsTotal.WithLabelValues(i.next.Name(), status).Inc()
	metrics.ProviderRequestDuration.WithLabelValues(i.next.Name()).Observe(time.Since(begin).Seconds())

	return page, err
}
