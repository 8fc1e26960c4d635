package redisearch

import (
	"testing"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name  string
		query string
		spec  domain.FilterSpec
		want  string
	}{
		{
			name:  "empty query and spec matches all",
			query: "",
			spec:  domain.FilterSpec{},
			want:  "*",
		},
		{
			name:  "plain text query",
			query: "black hoodie",
			spec:  domain.FilterSpec{},
			want:  `@search_text:(black hoodie)`,
		},
		{
			name:  "single tag filter",
			query: "",
			spec:  domain.FilterSpec{Gender: "male"},
			want:  `@gender:{male}`,
		},
		{
			name:  "tag filters keep field order",
			query: "",
			spec:  domain.FilterSpec{Color: "black", Gender: "female", Brand: "stone island"},
			want:  `@gender:{female} @brand:{stone\ island} @color:{black}`,
		},
		{
			name:  "price range both bounds",
			query: "",
			spec:  domain.FilterSpec{PriceMin: f64(10), PriceMax: f64(50)},
			want:  `@price:[10 50]`,
		},
		{
			name:  "price range open above",
			query: "",
			spec:  domain.FilterSpec{PriceMin: f64(99.5)},
			want:  `@price:[99.5 +inf]`,
		},
		{
			name:  "price range open below",
			query: "",
			spec:  domain.FilterSpec{PriceMax: f64(200)},
			want:  `@price:[-inf 200]`,
		},
		{
			name:  "filters precede the text clause",
			query: "wide jeans",
			spec:  domain.FilterSpec{Category: "jeans", PriceMax: f64(120)},
			want:  `@category:{jeans} @price:[-inf 120] @search_text:(wide jeans)`,
		},
		{
			name:  "query syntax is escaped",
			query: `hoodie @nike -black`,
			spec:  domain.FilterSpec{},
			want:  `@search_text:(hoodie \@nike \-black)`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildQuery(tt.query, tt.spec)
			if got != tt.want {
				t.Errorf("buildQuery(%q, %+v) = %q, want %q", tt.query, tt.spec, got, tt.want)
			}
		})
	}
}

func TestRenderFilter_Empty(t *testing.T) {
	if got := renderFilter(domain.FilterSpec{}); got != "" {
		t.Errorf("renderFilter(empty) = %q, want empty", got)
	}
}

func TestHitFromFields(t *testing.T) {
	hit := hitFromFields(map[string]string{
		"id":          "p1",
		"title":       "Oversize Hoodie",
		"brand":       "carhartt",
		"price":       "129.9",
		"sizes":       "S,M,L",
		"style_tags":  "streetwear,oversize",
		"product_url": "https://shop.example/p1",
	})
	if hit.ID != "p1" || hit.Title != "Oversize Hoodie" {
		t.Errorf("unexpected identity fields: %+v", hit.Product)
	}
	if hit.Price != 129.9 {
		t.Errorf("price = %v, want 129.9", hit.Price)
	}
	if len(hit.Sizes) != 3 || hit.Sizes[1] != "M" {
		t.Errorf("sizes = %v", hit.Sizes)
	}
	if len(hit.StyleTags) != 2 || hit.StyleTags[0] != "streetwear" {
		t.Errorf("style_tags = %v", hit.StyleTags)
	}
	if hit.ProdURL != "https://shop.example/p1" {
		t.Errorf("product_url = %q", hit.ProdURL)
	}
}

func TestSplitList(t *testing.T) {
	if got := splitList(""); got != nil {
		t.Errorf("splitList(\"\") = %v, want nil", got)
	}
	if got := splitList("a,b"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("splitList(\"a,b\") = %v", got)
	}
}
