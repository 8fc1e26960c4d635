package elastic

import (
	"testing"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestBuildFilters(t *testing.T) {
	spec := domain.FilterSpec{
		Gender:   "female",
		Brand:    "Acne Studios",
		PriceMin: f64(50),
		PriceMax: f64(300),
	}
	filters := buildFilters(spec)
	if len(filters) != 3 {
		t.Fatalf("got %d filters, want 3", len(filters))
	}

	gender := filters[0].(map[string]any)["term"].(map[string]any)
	if gender["gender"] != "female" {
		t.Errorf("first filter = %v, want gender term", gender)
	}

	brand := filters[1].(map[string]any)["term"].(map[string]any)
	if _, ok := brand["brand.keyword"]; !ok {
		t.Errorf("brand filter must target brand.keyword, got %v", brand)
	}

	bounds := filters[2].(map[string]any)["range"].(map[string]any)["price"].(map[string]any)
	if bounds["gte"] != 50.0 || bounds["lte"] != 300.0 {
		t.Errorf("price bounds = %v", bounds)
	}
}

func TestBuildFilters_Empty(t *testing.T) {
	if got := buildFilters(domain.FilterSpec{}); len(got) != 0 {
		t.Errorf("empty spec produced filters: %v", got)
	}
}

func TestBuildSearchBody(t *testing.T) {
	body := buildSearchBody("hoodie", domain.FilterSpec{Category: "hoodie"}, 20, 40)
	if body["from"] != 40 || body["size"] != 20 {
		t.Errorf("paging = from %v size %v", body["from"], body["size"])
	}

	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)[0].(map[string]any)
	if _, ok := must["multi_match"]; !ok {
		t.Errorf("non-empty query must use multi_match, got %v", must)
	}
	if _, ok := boolQuery["filter"]; !ok {
		t.Error("facet spec must appear as a filter clause")
	}
}

func TestBuildSearchBody_EmptyQueryMatchesAll(t *testing.T) {
	body := buildSearchBody("", domain.FilterSpec{}, 10, 0)
	boolQuery := body["query"].(map[string]any)["bool"].(map[string]any)
	must := boolQuery["must"].([]any)[0].(map[string]any)
	if _, ok := must["match_all"]; !ok {
		t.Errorf("empty query must match all, got %v", must)
	}
	if _, ok := boolQuery["filter"]; ok {
		t.Error("empty spec must not add filter clauses")
	}
}
