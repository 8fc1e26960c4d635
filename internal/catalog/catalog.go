// Package catalog defines the contract for the product search index.
package catalog

import (
	"context"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Engine indexes and searches catalog products.
// Implementations: redisearch (RediSearch via rueidis), elastic
// (Elasticsearch), memory (in-process, for local runs and tests).
type Engine interface {
	// EnsureSchema creates the index schema if it does not exist yet.
	EnsureSchema(ctx context.Context) error

	// Search runs a ranked full-text query constrained by the facet spec.
	// Results carry only the fixed catalog projection, never full documents.
	Search(ctx context.Context, query string, spec domain.FilterSpec, limit, offset int) (*domain.CatalogResult, error)

	// Suggest returns lightweight autocomplete entries for a prefix query.
	// Entries are not deduplicated; that is the caller's concern.
	Suggest(ctx context.Context, query string, limit int) ([]domain.Suggestion, error)

	// Index adds or updates one product document.
	Index(ctx context.Context, p *domain.Product) error

	// Delete removes a product by ID. Deleting a missing product is not an error.
	Delete(ctx context.Context, id string) error

	// BulkIndex adds or updates many products.
	BulkIndex(ctx context.Context, ps []domain.Product) error

	// Ping checks index connectivity.
	Ping(ctx context.Context) error
}
