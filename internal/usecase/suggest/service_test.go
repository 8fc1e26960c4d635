package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

type mockEngine struct {
	gotLimit int
	out      []domain.Suggestion
	err      error
}

func (m *mockEngine) Suggest(_ context.Context, _ string, limit int) ([]domain.Suggestion, error) {
	m.gotLimit = limit
	return m.out, m.err
}

func TestSuggest_DedupesByNormalizedTitle(t *testing.T) {
	eng := &mockEngine{out: []domain.Suggestion{
		{ID: "1", Title: "Black Hoodie"},
		{ID: "2", Title: "  black   hoodie "},
		{ID: "3", Title: "White Tee"},
		{ID: "4", Title: ""},
	}}
	svc := New(eng)

	got, err := svc.Suggest(context.Background(), "hood", 8)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d suggestions, want 2: %+v", len(got), got)
	}
	if got[0].ID != "1" || got[1].ID != "3" {
		t.Errorf("first occurrence must win: %+v", got)
	}
	if eng.gotLimit != 16 {
		t.Errorf("engine limit = %d, want overfetch 16", eng.gotLimit)
	}
}

func TestSuggest_CapsAtLimit(t *testing.T) {
	eng := &mockEngine{out: []domain.Suggestion{
		{ID: "1", Title: "A"}, {ID: "2", Title: "B"}, {ID: "3", Title: "C"},
	}}
	got, err := New(eng).Suggest(context.Background(), "x", 2)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("got %d, want 2", len(got))
	}
}

func TestSuggest_BlankQueryRejected(t *testing.T) {
	_, err := New(&mockEngine{}).Suggest(context.Background(), " \t ", 8)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestSuggest_EngineErrorPropagates(t *testing.T) {
	eng := &mockEngine{err: domain.ErrEngineUnavailable}
	_, err := New(eng).Suggest(context.Background(), "hoodie", 8)
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
}
