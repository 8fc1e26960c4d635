// Package suggest serves catalog autocomplete entries.
package suggest

import (
	"context"
	"fmt"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Engine is the slice of the catalog contract this service needs.
type Engine interface {
	Suggest(ctx context.Context, query string, limit int) ([]domain.Suggestion, error)
}

// Service deduplicates raw engine suggestions by normalized title.
type Service struct {
	engine Engine
}

// New creates a suggest service.
func New(engine Engine) *Service {
	return &Service{engine: engine}
}

// Suggest returns up to limit entries with unique titles, first occurrence
// wins. The engine is overfetched because dedupe shrinks the set.
func (s *Service) Suggest(ctx context.Context, rawQuery string, limit int) ([]domain.Suggestion, error) {
	query := domain.Normalize(rawQuery)
	if query == "" {
		return nil, fmt.Errorf("%w: query is required", domain.ErrInvalidQuery)
	}
	if limit < 1 {
		limit = 1
	}

	raw, err := s.engine.Suggest(ctx, query, limit*2)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]domain.Suggestion, 0, limit)
	for _, sg := range raw {
		key := domain.Normalize(sg.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, sg)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}
