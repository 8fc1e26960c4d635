package catalogsearch

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

type mockEngine struct {
	gotQuery string
	gotSpec  domain.FilterSpec
	result   *domain.CatalogResult
	err      error
}

func (m *mockEngine) Search(
	_ context.Context, query string, spec domain.FilterSpec, _, _ int,
) (*domain.CatalogResult, error) {
	m.gotQuery = query
	m.gotSpec = spec
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestSearch_StyleBoostAndMeta(t *testing.T) {
	eng := &mockEngine{result: &domain.CatalogResult{
		Hits:  []domain.CatalogHit{{Product: domain.Product{ID: "p1"}}},
		Total: 1,
	}}
	svc := New(eng, "memory", zap.NewNop())

	spec := domain.FilterSpec{Gender: "male"}
	res, err := svc.Search(context.Background(), "Streetwear", spec, 20, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	want := "streetwear hoodie sneakers oversize logo cargo denim"
	if eng.gotQuery != want {
		t.Errorf("engine query = %q, want %q", eng.gotQuery, want)
	}
	if eng.gotSpec.Gender != "male" {
		t.Errorf("spec not forwarded: %+v", eng.gotSpec)
	}

	meta := res.Hits[0].Meta
	if meta == nil || meta.DetectedStyle != "streetwear" || meta.ExpandedQuery != want {
		t.Errorf("hit meta = %+v", meta)
	}
}

func TestSearch_NoStyleDetected(t *testing.T) {
	eng := &mockEngine{result: &domain.CatalogResult{
		Hits: []domain.CatalogHit{{Product: domain.Product{ID: "p1"}}},
	}}
	svc := New(eng, "memory", zap.NewNop())

	res, err := svc.Search(context.Background(), "  Blue  JEANS ", domain.FilterSpec{}, 20, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if eng.gotQuery != "blue jeans" {
		t.Errorf("engine query = %q, want normalized without boost", eng.gotQuery)
	}
	if res.Hits[0].Meta.DetectedStyle != "" {
		t.Errorf("detected style = %q, want empty", res.Hits[0].Meta.DetectedStyle)
	}
}

func TestSearch_BlankQueryRejected(t *testing.T) {
	svc := New(&mockEngine{}, "memory", zap.NewNop())
	_, err := svc.Search(context.Background(), "   ", domain.FilterSpec{}, 20, 0)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestSearch_EngineErrorPropagates(t *testing.T) {
	eng := &mockEngine{err: domain.ErrEngineUnavailable}
	svc := New(eng, "redisearch", zap.NewNop())
	_, err := svc.Search(context.Background(), "hoodie", domain.FilterSpec{}, 20, 0)
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
}
