// Package memory implements the catalog engine in process. It is used for
// local runs and tests; matching is token containment, scoring counts
// matched tokens.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Engine is an in-memory catalog engine. Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{products: make(map[string]domain.Product)}
}

// EnsureSchema is a no-op; the map needs no schema.
func (e *Engine) EnsureSchema(context.Context) error { return nil }

// Ping always succeeds.
func (e *Engine) Ping(context.Context) error { return nil }

// Index adds or updates one product.
func (e *Engine) Index(_ context.Context, p *domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.products[p.ID] = *p
	return nil
}

// Delete removes a product; missing IDs are ignored.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.products, id)
	return nil
}

// BulkIndex adds or updates many products.
func (e *Engine) BulkIndex(_ context.Context, ps []domain.Product) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range ps {
		e.products[ps[i].ID] = ps[i]
	}
	return nil
}

// Search matches query tokens against the product text and applies the facet
// spec. Results are ordered by score descending, then by ID for a stable
// order across calls.
func (e *Engine) Search(
	_ context.Context, query string, spec domain.FilterSpec, limit, offset int,
) (*domain.CatalogResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	tokens := strings.Fields(strings.ToLower(query))

	var hits []domain.CatalogHit
	for _, p := range e.products {
		if !matchesSpec(p, spec) {
			continue
		}
		score := scoreTokens(p, tokens)
		if len(tokens) > 0 && score == 0 {
			continue
		}
		hits = append(hits, domain.CatalogHit{Product: p, Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})

	total := len(hits)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return &domain.CatalogResult{Hits: hits[offset:end], Total: total}, nil
}

// Suggest returns entries whose title contains the query, in stable ID order.
func (e *Engine) Suggest(_ context.Context, query string, limit int) ([]domain.Suggestion, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	q := strings.ToLower(strings.TrimSpace(query))

	var out []domain.Suggestion
	for _, p := range e.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Title), q) {
			continue
		}
		out = append(out, domain.Suggestion{
			ID:       p.ID,
			Title:    p.Title,
			Brand:    p.Brand,
			Category: p.Category,
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func matchesSpec(p domain.Product, spec domain.FilterSpec) bool {
	if spec.Gender != "" && !strings.EqualFold(p.Gender, spec.Gender) {
		return false
	}
	if spec.Category != "" && !strings.EqualFold(p.Category, spec.Category) {
		return false
	}
	if spec.Brand != "" && !strings.EqualFold(p.Brand, spec.Brand) {
		return false
	}
	if spec.Color != "" && !strings.EqualFold(p.Color, spec.Color) {
		return false
	}
	if spec.PriceMin != nil && p.Price < *spec.PriceMin {
		return false
	}
	if spec.PriceMax != nil && p.Price > *spec.PriceMax {
		return false
	}
	return true
}

func scoreTokens(p domain.Product, tokens []string) float64 {
	if len(tokens) == 0 {
		return 1
	}
	text := strings.ToLower(strings.Join([]string{
		p.Title, p.Brand, p.Category, p.Material,
		strings.Join(p.Tags, " "), strings.Join(p.StyleTags, " "),
	}, " "))

	var matched float64
	for _, tok := range tokens {
		if strings.Contains(text, tok) {
			matched++
		}
	}
	return matched
}
