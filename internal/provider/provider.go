// Package provider defines the contracts for external image and web search
// providers and the decorators (retry, rate limit, circuit breaker,
// instrumentation) applied to every client.
package provider

import (
	"context"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// ImageSearcher fetches one raw page of image results at a 1-based offset.
// Implementations map provider payloads into canonical items but apply no
// content filtering; that belongs to the caller.
type ImageSearcher interface {
	// Name identifies the provider in logs and metrics.
	Name() string

	// MaxPageSize is the largest num the provider accepts per request.
	MaxPageSize() int

	// MaxOffset is the largest start the provider serves. Requests beyond
	// it return an empty page with no next cursor, not an error.
	MaxOffset() int

	// FetchPage fetches up to num items starting at the 1-based offset.
	// An exhausted result set is an empty page, not an error.
	FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error)
}

// WebSearcher fetches one page of ordinary web results.
type WebSearcher interface {
	Name() string
	SearchWeb(ctx context.Context, query string, start, num int) (*domain.WebPage, error)
}
