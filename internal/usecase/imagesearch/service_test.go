package imagesearch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/filter"
)

// scriptedProvider returns canned pages keyed by start offset.
type scriptedProvider struct {
	name     string
	pageSize int
	maxOff   int
	calls    int
	queries  []string
	fetch    func(call, start, num int) (*domain.ImagePage, error)
}

func (p *scriptedProvider) Name() string     { return p.name }
func (p *scriptedProvider) MaxPageSize() int { return p.pageSize }
func (p *scriptedProvider) MaxOffset() int   { return p.maxOff }

func (p *scriptedProvider) FetchPage(_ context.Context, q string, start, num int) (*domain.ImagePage, error) {
	p.calls++
	p.queries = append(p.queries, q)
	return p.fetch(p.calls, start, num)
}

type scriptedWeb struct {
	page *domain.WebPage
	err  error
}

func (w *scriptedWeb) Name() string { return "google_cse" }
func (w *scriptedWeb) SearchWeb(context.Context, string, int, int) (*domain.WebPage, error) {
	return w.page, w.err
}

func items(prefix string, n int) []domain.ImageResult {
	out := make([]domain.ImageResult, n)
	for i := range out {
		out[i] = domain.ImageResult{
			ImageURL: fmt.Sprintf("https://cdn.example/%s-%d.jpg", prefix, i),
			PageURL:  "https://shop.example/p",
			Site:     "shop.example",
			Width:    800, Height: 800,
		}
	}
	return out
}

func newService(primary, secondary *scriptedProvider, web *scriptedWeb) *Service {
	return New(primary, secondary, web, filter.Default(), Config{PageAttempts: 5}, zap.NewNop())
}

func TestSearch_PrimaryWinsWithoutFallback(t *testing.T) {
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			return &domain.ImagePage{Items: items("g", 10), Next: domain.PageCursor{Start: 11, TotalEstimate: 1000, HasMore: true}}, nil
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			t.Fatal("secondary must not run when primary returned items")
			return nil, nil
		}}

	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Provider != "google_cse" || len(res.Items) != 10 {
		t.Errorf("res = provider %q, %d items", res.Provider, len(res.Items))
	}
	if !res.HasMore || res.NextStart != 11 {
		t.Errorf("cursor = next %d hasMore %v", res.NextStart, res.HasMore)
	}
	if !strings.Contains(primary.queries[0], "hoodie") {
		t.Errorf("query = %q", primary.queries[0])
	}
}

func TestSearch_BudgetTerminatesAgainstAlwaysMore(t *testing.T) {
	// Every page is fully stripped (banned domain) and always reports more.
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 1000,
		fetch: func(call, _, _ int) (*domain.ImagePage, error) {
			page := items("g", 10)
			for i := range page {
				page[i].Site = "pinterest.com"
			}
			return &domain.ImagePage{Items: page, Next: domain.PageCursor{Start: call*10 + 1, HasMore: true}}, nil
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			return &domain.ImagePage{}, nil
		}}

	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if primary.calls != 5 {
		t.Errorf("primary calls = %d, want exactly the attempt budget 5", primary.calls)
	}
	if len(res.Items) != 0 {
		t.Errorf("items = %d, want 0", len(res.Items))
	}
	// Primary was empty, so the secondary was consulted.
	if secondary.calls != 1 {
		t.Errorf("secondary calls = %d, want 1", secondary.calls)
	}
}

func TestSearch_NeverExceedsNum(t *testing.T) {
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(call, _, _ int) (*domain.ImagePage, error) {
			return &domain.ImagePage{
				Items: items(fmt.Sprintf("page%d", call), 10),
				Next:  domain.PageCursor{Start: call*10 + 1, HasMore: true},
			}, nil
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) { return &domain.ImagePage{}, nil }}

	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 7)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Items) != 7 {
		t.Errorf("items = %d, want exactly 7", len(res.Items))
	}
}

func TestSearch_DedupeAcrossPages(t *testing.T) {
	// Both pages return the same URLs; the second page adds one new item.
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(call, _, _ int) (*domain.ImagePage, error) {
			page := items("dup", 3)
			if call == 2 {
				page = append(page, items("fresh", 1)...)
			}
			return &domain.ImagePage{Items: page, Next: domain.PageCursor{Start: call*10 + 1, HasMore: true}}, nil
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) { return &domain.ImagePage{}, nil }}

	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	seen := make(map[string]struct{})
	for _, it := range res.Items {
		key := domain.NormalizeImageURL(it.ImageURL)
		if _, dup := seen[key]; dup {
			t.Fatalf("duplicate normalized URL in response: %s", key)
		}
		seen[key] = struct{}{}
	}
	if len(res.Items) != 4 {
		t.Errorf("items = %d, want 4 unique", len(res.Items))
	}
}

func TestSearch_FallbackOnPrimaryError(t *testing.T) {
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			return nil, errors.New("upstream 500")
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			return &domain.ImagePage{Items: items("ddg", 5)}, nil
		}}

	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Provider != "duckduckgo" || len(res.Items) != 5 {
		t.Errorf("res = provider %q, %d items; want duckduckgo with 5", res.Provider, len(res.Items))
	}
}

func TestSearch_BothProvidersFail(t *testing.T) {
	fail := func(_, _, _ int) (*domain.ImagePage, error) { return nil, errors.New("down") }
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91, fetch: fail}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500, fetch: fail}

	if _, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 1, 10); err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestSearch_OffsetBeyondPrimaryWindow(t *testing.T) {
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			t.Fatal("offsets beyond the window must not hit the provider")
			return nil, nil
		}}
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(_, start, _ int) (*domain.ImagePage, error) {
			return &domain.ImagePage{Items: items("ddg", 2)}, nil
		}}

	// The primary is exhausted at this offset; the deeper secondary window
	// still serves the page.
	res, err := newService(primary, secondary, nil).Search(context.Background(), "hoodie", 101, 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Provider != "duckduckgo" || len(res.Items) != 2 {
		t.Errorf("res = provider %q, %d items", res.Provider, len(res.Items))
	}
}

func TestSearch_BlankQueryRejectedBeforeProviders(t *testing.T) {
	primary := &scriptedProvider{name: "google_cse", pageSize: 10, maxOff: 91,
		fetch: func(_, _, _ int) (*domain.ImagePage, error) {
			t.Fatal("provider must not be called for invalid input")
			return nil, nil
		}}
	svc := newService(primary, primary, nil)
	_, err := svc.Search(context.Background(), "   ", 1, 10)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("err = %v, want ErrInvalidQuery", err)
	}
}

func TestSearchWeb_FiltersBannedDomains(t *testing.T) {
	web := &scriptedWeb{page: &domain.WebPage{
		Items: []domain.WebResult{
			{Title: "Shop look", Link: "https://shop.example/a", Site: "shop.example"},
			{Title: "Pin board", Link: "https://pinterest.com/b", Site: "pinterest.com"},
		},
		Next: domain.PageCursor{Start: 11, TotalEstimate: 200, HasMore: true},
	}}
	svc := newService(&scriptedProvider{name: "p", pageSize: 10, maxOff: 91}, &scriptedProvider{name: "s", pageSize: 50, maxOff: 500}, web)

	res, err := svc.SearchWeb(context.Background(), "fall looks", 1, 10)
	if err != nil {
		t.Fatalf("SearchWeb: %v", err)
	}
	if len(res.Items) != 1 || res.Items[0].Site != "shop.example" {
		t.Errorf("items = %+v", res.Items)
	}
	if res.NextStart != 11 || !res.HasMore {
		t.Errorf("cursor = %+v", res)
	}
}

func TestStylesFeed_SimplifiedQueryFallback(t *testing.T) {
	secondary := &scriptedProvider{name: "duckduckgo", pageSize: 50, maxOff: 500,
		fetch: func(call, _, _ int) (*domain.ImagePage, error) {
			if call == 1 {
				return &domain.ImagePage{}, nil
			}
			return &domain.ImagePage{Items: items("style", 3)}, nil
		}}
	svc := newService(&scriptedProvider{name: "p", pageSize: 10, maxOff: 91}, secondary, nil)

	got, err := svc.StylesFeed(context.Background(), "male", "Casual", 3)
	if err != nil {
		t.Fatalf("StylesFeed: %v", err)
	}
	if secondary.calls != 2 {
		t.Fatalf("calls = %d, want primary query then simplified fallback", secondary.calls)
	}
	if want := "Men's Casual fashion outfit style"; secondary.queries[0] != want {
		t.Errorf("first query = %q, want %q", secondary.queries[0], want)
	}
	if want := "Casual Men's"; secondary.queries[1] != want {
		t.Errorf("fallback query = %q, want %q", secondary.queries[1], want)
	}
	if len(got) != 3 || got[0].Category != "Casual" {
		t.Errorf("feed = %+v", got)
	}
}

func TestStylesFeed_QueryTemplates(t *testing.T) {
	tests := []struct {
		gender, category, want string
	}{
		{"female", "Armani bag", "Armani bag Women's fashion"},
		{"male", "sneakers", "sneakers fashion"},
		{"male", "Business", "Men's Business fashion outfit style"},
	}
	for _, tt := range tests {
		genderTerm := "Women's"
		if strings.HasPrefix(tt.gender, "m") {
			genderTerm = "Men's"
		}
		if got := styleQuery(genderTerm, tt.category); got != tt.want {
			t.Errorf("styleQuery(%q, %q) = %q, want %q", tt.gender, tt.category, got, tt.want)
		}
	}
}
