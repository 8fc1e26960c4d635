// Package catalogsearch runs normalized, style-boosted searches against the
// catalog index.
package catalogsearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
)

// Engine is the slice of the catalog contract this service needs.
type Engine interface {
	Search(ctx context.Context, query string, spec domain.FilterSpec, limit, offset int) (*domain.CatalogResult, error)
}

// Service interprets the query and delegates to the engine. Engine errors
// propagate unchanged; catalog search has no fallback.
type Service struct {
	engine Engine
	driver string
	log    *zap.Logger
}

// New creates a catalog search service. driver labels latency metrics.
func New(engine Engine, driver string, log *zap.Logger) *Service {
	return &Service{engine: engine, driver: driver, log: log}
}

// Search normalizes the raw query, expands it with detected style boost
// terms, and runs it through the engine. Every hit carries metadata about
// how the query was interpreted.
func (s *Service) Search(
	ctx context.Context, rawQuery string, spec domain.FilterSpec, limit, offset int,
) (*domain.CatalogResult, error) {
	if strings.TrimSpace(rawQuery) == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}

	q := domain.NewSearchQuery(rawQuery)

	begin := time.Now()
	res, err := s.engine.Search(ctx, q.Expanded(), spec, limit, offset)
	metrics.CatalogSearchDuration.WithLabelValues(s.driver).Observe(time.Since(begin).Seconds())
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}

	meta := &domain.HitMeta{
		DetectedStyle: q.StyleKey,
		ExpandedQuery: q.Expanded(),
	}
	for i := range res.Hits {
		res.Hits[i].Meta = meta
	}

	s.log.Debug("catalog search",
		zap.String("query", q.Normalized),
		zap.String("style", q.StyleKey),
		zap.Int("total", res.Total),
		zap.Int("returned", len(res.Hits)),
	)
	return res, nil
}
