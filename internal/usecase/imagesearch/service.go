// Package imagesearch aggregates external image providers: bounded
// pagination over filtered pages on the primary, falling back to the
// secondary when the primary errors or yields nothing.
package imagesearch

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/filter"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
	"github.com/kaurinho-svg/waura-backend/internal/provider"
)

// queryHint biases provider results toward apparel. The original RU-focused
// deployment mixes both languages on purpose.
const defaultQueryHint = "одежда fashion outfit lookbook"

// Config tunes the aggregation loop.
type Config struct {
	// PageAttempts bounds provider calls per request. Filtering can strip
	// whole pages, so one request may need several.
	PageAttempts int
	// QueryHint is appended to every image query. Empty disables it.
	QueryHint string
}

// Result is one aggregated image response.
type Result struct {
	Items     []domain.ImageResult
	Total     int
	NextStart int
	HasMore   bool
	Provider  string
}

// WebResult is one filtered web-search response.
type WebResult struct {
	Items     []domain.WebResult
	Total     int
	NextStart int
	HasMore   bool
}

// StyleImage is one entry of the style inspiration feed.
type StyleImage struct {
	ImageURL string   `json:"image_url"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// Service drives the providers.
type Service struct {
	primary   provider.ImageSearcher
	secondary provider.ImageSearcher
	web       provider.WebSearcher
	policy    filter.Policy
	attempts  int
	hint      string
	log       *zap.Logger
}

// New creates an image search service.
func New(
	primary, secondary provider.ImageSearcher,
	web provider.WebSearcher,
	policy filter.Policy,
	cfg Config,
	log *zap.Logger,
) *Service {
	if cfg.PageAttempts <= 0 {
		cfg.PageAttempts = 5
	}
	if cfg.QueryHint == "" {
		cfg.QueryHint = defaultQueryHint
	}
	return &Service{
		primary:   primary,
		secondary: secondary,
		web:       web,
		policy:    policy,
		attempts:  cfg.PageAttempts,
		hint:      cfg.QueryHint,
		log:       log,
	}
}

// Search collects filtered image results. The secondary provider runs only
// when the primary errored or produced zero accepted items; a secondary
// outcome is terminal either way.
func (s *Service) Search(ctx context.Context, query string, start, num int) (*Result, error) {
	query = domain.Normalize(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}

	res, err := s.collect(ctx, s.primary, query, start, num)
	if err == nil && len(res.Items) > 0 {
		return res, nil
	}

	reason := "empty"
	if err != nil {
		reason = "error"
		s.log.Warn("primary image provider failed",
			zap.String("provider", s.primary.Name()),
			zap.Error(err),
		)
	}
	metrics.FallbackTotal.WithLabelValues(reason).Inc()

	fres, ferr := s.collect(ctx, s.secondary, query, start, num)
	if ferr != nil {
		if err != nil {
			return nil, fmt.Errorf("all providers failed: %w (primary: %w)", ferr, err)
		}
		return nil, fmt.Errorf("fallback provider: %w", ferr)
	}
	return fres, nil
}

// collect is the bounded pagination loop over one provider. It stops when
// enough items were accepted, the provider reports no next page, the offset
// ceiling is reached, or the attempt budget runs out.
func (s *Service) collect(
	ctx context.Context, p provider.ImageSearcher, query string, start, num int,
) (*Result, error) {
	if start < 1 {
		start = 1
	}
	if num < 1 {
		num = 1
	}
	if start > p.MaxOffset() {
		return &Result{Items: []domain.ImageResult{}, Provider: p.Name()}, nil
	}

	pageSize := num
	if pageSize > p.MaxPageSize() {
		pageSize = p.MaxPageSize()
	}

	hinted := s.hinted(query)
	seen := make(map[string]struct{})
	collected := make([]domain.ImageResult, 0, num)
	total := 0
	cur := start
	var next domain.PageCursor

	for attempt := 0; attempt < s.attempts; attempt++ {
		page, err := p.FetchPage(ctx, hinted, cur, pageSize)
		if err != nil {
			if len(collected) > 0 {
				// Partial results beat an error mid-pagination.
				break
			}
			return nil, err
		}

		if page.Next.TotalEstimate > total {
			total = page.Next.TotalEstimate
		}
		collected = append(collected, s.policy.Apply(page.Items, seen)...)
		next = page.Next

		if len(collected) >= num || !next.HasMore || next.Start <= 0 || next.Start > p.MaxOffset() {
			break
		}
		cur = next.Start
	}

	if len(collected) > num {
		collected = collected[:num]
	}
	if total == 0 {
		total = len(collected)
	}

	hasMore := next.HasMore && next.Start > 0 && next.Start <= p.MaxOffset()
	nextStart := 0
	if hasMore {
		nextStart = next.Start
	}

	return &Result{
		Items:     collected,
		Total:     total,
		NextStart: nextStart,
		HasMore:   hasMore,
		Provider:  p.Name(),
	}, nil
}

// SearchWeb fetches one page of web results through the primary provider.
// There is no fallback; web mode exists only there. The domain blocklist
// still applies.
func (s *Service) SearchWeb(ctx context.Context, query string, start, num int) (*WebResult, error) {
	query = domain.Normalize(query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}

	page, err := s.web.SearchWeb(ctx, query, start, num)
	if err != nil {
		return nil, fmt.Errorf("web search: %w", err)
	}

	items := make([]domain.WebResult, 0, len(page.Items))
	for _, it := range page.Items {
		if !s.policy.SiteAllowed(it.Site) || !s.policy.SiteAllowed(it.Link) {
			continue
		}
		items = append(items, it)
	}

	total := page.Next.TotalEstimate
	if total == 0 {
		total = len(items)
	}
	return &WebResult{
		Items:     items,
		Total:     total,
		NextStart: page.Next.Start,
		HasMore:   page.Next.HasMore,
	}, nil
}

// StylesFeed serves style inspiration images from the secondary provider.
// The query template depends on the facet shape; a zero result retries once
// with a simplified query.
func (s *Service) StylesFeed(ctx context.Context, gender, category string, limit int) ([]StyleImage, error) {
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", domain.ErrInvalidQuery)
	}
	if limit < 1 {
		limit = 1
	}

	genderTerm := "Women's"
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(gender)), "m") {
		genderTerm = "Men's"
	}

	query := styleQuery(genderTerm, category)
	items, err := s.collectStyle(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		simplified := category + " " + genderTerm
		s.log.Debug("styles feed empty, simplifying query",
			zap.String("query", query),
			zap.String("fallback", simplified),
		)
		if items, err = s.collectStyle(ctx, simplified, limit); err != nil {
			return nil, err
		}
	}

	out := make([]StyleImage, 0, len(items))
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = category
		}
		out = append(out, StyleImage{
			ImageURL: it.ImageURL,
			Title:    title,
			Category: category,
			Tags:     []string{category, genderTerm, "Trend"},
		})
	}
	return out, nil
}

func (s *Service) collectStyle(ctx context.Context, query string, limit int) ([]domain.ImageResult, error) {
	num := limit * 2
	if num > s.secondary.MaxPageSize() {
		num = s.secondary.MaxPageSize()
	}
	page, err := s.secondary.FetchPage(ctx, query, 1, num)
	if err != nil {
		return nil, fmt.Errorf("styles feed: %w", err)
	}
	items := s.policy.Apply(page.Items, nil)
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// styleQuery mirrors the feed's query templating: multi-word categories are
// specific enough on their own, known accessory words need no outfit
// context, broad style words need the full outfit phrasing.
func styleQuery(genderTerm, category string) string {
	if len(strings.Fields(category)) >= 2 {
		return fmt.Sprintf("%s %s fashion", category, genderTerm)
	}
	lower := strings.ToLower(category)
	for _, item := range []string{"bag", "shoes", "boots", "sneakers", "hat", "watch", "сумка", "обувь", "кроссовки", "часы"} {
		if strings.Contains(lower, item) {
			return category + " fashion"
		}
	}
	return fmt.Sprintf("%s %s fashion outfit style", genderTerm, category)
}

func (s *Service) hinted(query string) string {
	if s.hint == "" {
		return query
	}
	return query + " " + s.hint
}
