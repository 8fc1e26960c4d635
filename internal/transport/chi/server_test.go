package chi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/usecase/imagesearch"
)

type mockCatalog struct {
	gotQuery  string
	gotSpec   domain.FilterSpec
	gotLimit  int
	gotOffset int
	out       *domain.CatalogResult
	err       error
}

func (m *mockCatalog) Search(_ context.Context, q string, spec domain.FilterSpec, limit, offset int) (*domain.CatalogResult, error) {
	m.gotQuery, m.gotSpec, m.gotLimit, m.gotOffset = q, spec, limit, offset
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	return &domain.CatalogResult{Hits: []domain.CatalogHit{}}, nil
}

type mockImages struct {
	gotQuery string
	gotStart int
	gotNum   int
	out      *imagesearch.Result
	webOut   *imagesearch.WebResult
	styles   []imagesearch.StyleImage
	err      error
}

func (m *mockImages) Search(_ context.Context, q string, start, num int) (*imagesearch.Result, error) {
	m.gotQuery, m.gotStart, m.gotNum = q, start, num
	if m.err != nil {
		return nil, m.err
	}
	if m.out != nil {
		return m.out, nil
	}
	return &imagesearch.Result{Items: []domain.ImageResult{}}, nil
}

func (m *mockImages) SearchWeb(_ context.Context, q string, start, num int) (*imagesearch.WebResult, error) {
	m.gotQuery, m.gotStart, m.gotNum = q, start, num
	if m.err != nil {
		return nil, m.err
	}
	if m.webOut != nil {
		return m.webOut, nil
	}
	return &imagesearch.WebResult{Items: []domain.WebResult{}}, nil
}

func (m *mockImages) StylesFeed(_ context.Context, _, category string, limit int) ([]imagesearch.StyleImage, error) {
	m.gotQuery, m.gotNum = category, limit
	return m.styles, m.err
}

type mockSuggester struct {
	gotLimit int
	out      []domain.Suggestion
	err      error
}

func (m *mockSuggester) Suggest(_ context.Context, _ string, limit int) ([]domain.Suggestion, error) {
	m.gotLimit = limit
	return m.out, m.err
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(context.Context) error { return m.err }

func newTestServer(cat *mockCatalog, img *mockImages, sug *mockSuggester, p *mockPinger) *Server {
	if cat == nil {
		cat = &mockCatalog{}
	}
	if img == nil {
		img = &mockImages{}
	}
	if sug == nil {
		sug = &mockSuggester{}
	}
	if p == nil {
		p = &mockPinger{}
	}
	return NewServer(cat, img, sug, p, PageLimits{Default: 20, Max: 50}, zap.NewNop())
}

func doRequest(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response: %v\nbody: %s", err, rec.Body.String())
	}
}

func TestCatalogSearch_PassesParams(t *testing.T) {
	cat := &mockCatalog{out: &domain.CatalogResult{
		Hits:  []domain.CatalogHit{{Product: domain.Product{ID: "p1", Title: "Hoodie"}, Score: 2.5}},
		Total: 37,
	}}
	s := newTestServer(cat, nil, nil, nil)

	rec := doRequest(t, s, "/search/catalog?q=hoodie&gender=male&brand=nike&price_min=50&price_max=200&limit=5&offset=10")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if cat.gotQuery != "hoodie" || cat.gotLimit != 5 || cat.gotOffset != 10 {
		t.Errorf("params: q=%q limit=%d offset=%d", cat.gotQuery, cat.gotLimit, cat.gotOffset)
	}
	if cat.gotSpec.Gender != "male" || cat.gotSpec.Brand != "nike" {
		t.Errorf("spec = %+v", cat.gotSpec)
	}
	if cat.gotSpec.PriceMin == nil || *cat.gotSpec.PriceMin != 50 {
		t.Errorf("price_min not parsed: %+v", cat.gotSpec.PriceMin)
	}
	if cat.gotSpec.PriceMax == nil || *cat.gotSpec.PriceMax != 200 {
		t.Errorf("price_max not parsed: %+v", cat.gotSpec.PriceMax)
	}

	var body catalogResponse
	decodeBody(t, rec, &body)
	if body.Source != "catalog" || body.Total != 37 || len(body.Items) != 1 {
		t.Errorf("body = %+v", body)
	}
}

func TestCatalogSearch_BadParams(t *testing.T) {
	cases := []struct {
		name string
		path string
	}{
		{"missing q", "/search/catalog"},
		{"limit zero", "/search/catalog?q=x&limit=0"},
		{"limit over max", "/search/catalog?q=x&limit=51"},
		{"limit not a number", "/search/catalog?q=x&limit=abc"},
		{"negative offset", "/search/catalog?q=x&offset=-1"},
		{"price_min not a number", "/search/catalog?q=x&price_min=cheap"},
	}
	s := newTestServer(nil, nil, nil, nil)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, s, tc.path)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestCatalogSearch_EngineDownMapsTo503(t *testing.T) {
	cat := &mockCatalog{err: domain.ErrEngineUnavailable}
	rec := doRequest(t, newTestServer(cat, nil, nil, nil), "/search/catalog?q=hoodie")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var body errorResponse
	decodeBody(t, rec, &body)
	if body.Code != "catalog_unavailable" {
		t.Errorf("code = %q", body.Code)
	}
}

func TestImageSearch_ClampsNumAndEchoesPaging(t *testing.T) {
	img := &mockImages{out: &imagesearch.Result{
		Items:     []domain.ImageResult{{ImageURL: "https://a.example/1.jpg", PageURL: "https://a.example", Site: "a.example"}},
		Total:     4200,
		NextStart: 11,
		HasMore:   true,
		Provider:  "google_cse",
	}}
	s := newTestServer(nil, img, nil, nil)

	rec := doRequest(t, s, "/search/images?q=streetwear&start=1&num=25")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if img.gotNum != 10 {
		t.Errorf("num = %d, want clamp to 10", img.gotNum)
	}
	var body imagesResponse
	decodeBody(t, rec, &body)
	if body.Total != 4200 || !body.HasMore || body.NextStart == nil || *body.NextStart != 11 {
		t.Errorf("paging: %+v", body)
	}
	if body.Provider != "google_cse" {
		t.Errorf("provider = %q", body.Provider)
	}
}

func TestImageSearch_ExhaustedCursorOmitsNextStart(t *testing.T) {
	img := &mockImages{out: &imagesearch.Result{
		Items: []domain.ImageResult{}, Total: 3, NextStart: 0, HasMore: false,
	}}
	rec := doRequest(t, newTestServer(nil, img, nil, nil), "/search/images?q=x")
	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	if string(raw["next_start"]) != "null" {
		t.Errorf("next_start = %s, want null", raw["next_start"])
	}
}

func TestImageSearch_ProviderDownMapsTo502(t *testing.T) {
	img := &mockImages{err: domain.ErrProviderUnavailable}
	rec := doRequest(t, newTestServer(nil, img, nil, nil), "/search/images?q=x")
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
}

func TestInternetSearch_ReturnsWebItems(t *testing.T) {
	img := &mockImages{webOut: &imagesearch.WebResult{
		Items: []domain.WebResult{{Title: "Shop", Link: "https://shop.example", Site: "shop.example"}},
		Total: 12, NextStart: 11, HasMore: true,
	}}
	rec := doRequest(t, newTestServer(nil, img, nil, nil), "/search/internet?q=hoodie+shop")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body internetResponse
	decodeBody(t, rec, &body)
	if body.Mode != "web" || len(body.Items) != 1 || body.Items[0].Site != "shop.example" {
		t.Errorf("body = %+v", body)
	}
}

func TestCombinedSearch_DegradesInternetBranch(t *testing.T) {
	cat := &mockCatalog{out: &domain.CatalogResult{
		Hits:  []domain.CatalogHit{{Product: domain.Product{ID: "p1"}}},
		Total: 1,
	}}
	img := &mockImages{err: domain.ErrProviderUnavailable}
	rec := doRequest(t, newTestServer(cat, img, nil, nil), "/search?q=hoodie")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 despite provider failure", rec.Code)
	}
	var body combinedResponse
	decodeBody(t, rec, &body)
	if body.Catalog.Total != 1 || body.Catalog.Error != "" {
		t.Errorf("catalog branch = %+v", body.Catalog)
	}
	if body.Internet.Total != 0 || body.Internet.Error == "" {
		t.Errorf("internet branch should degrade: %+v", body.Internet)
	}
}

func TestCombinedSearch_DegradesCatalogBranch(t *testing.T) {
	cat := &mockCatalog{err: domain.ErrEngineUnavailable}
	img := &mockImages{out: &imagesearch.Result{
		Items: []domain.ImageResult{{ImageURL: "https://a.example/1.jpg"}},
		Total: 1,
	}}
	rec := doRequest(t, newTestServer(cat, img, nil, nil), "/search?q=hoodie")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body combinedResponse
	decodeBody(t, rec, &body)
	if body.Catalog.Error == "" {
		t.Errorf("catalog branch should degrade: %+v", body.Catalog)
	}
	if body.Internet.Total != 1 {
		t.Errorf("internet branch = %+v", body.Internet)
	}
}

func TestSuggest_ClampsLimit(t *testing.T) {
	sug := &mockSuggester{out: []domain.Suggestion{{ID: "1", Title: "Hoodie"}}}
	s := newTestServer(nil, nil, sug, nil)

	rec := doRequest(t, s, "/suggest?q=hoo&limit=100")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if sug.gotLimit != 20 {
		t.Errorf("limit = %d, want clamp to 20", sug.gotLimit)
	}

	rec = doRequest(t, s, "/suggest?q=hoo")
	if sug.gotLimit != 8 {
		t.Errorf("default limit = %d, want 8", sug.gotLimit)
	}
	var body suggestResponse
	decodeBody(t, rec, &body)
	if len(body.Suggestions) != 1 {
		t.Errorf("suggestions = %+v", body.Suggestions)
	}
}

func TestStylesSearch_RequiresCategory(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil, nil, nil), "/styles/search?gender=female")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestStylesSearch_ReturnsFeed(t *testing.T) {
	img := &mockImages{styles: []imagesearch.StyleImage{
		{ImageURL: "https://a.example/1.jpg", Title: "Look", Category: "hoodie", Tags: []string{"hoodie", "Women's", "Trend"}},
	}}
	rec := doRequest(t, newTestServer(nil, img, nil, nil), "/styles/search?gender=female&category=hoodie&limit=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if img.gotQuery != "hoodie" || img.gotNum != 5 {
		t.Errorf("feed params: category=%q limit=%d", img.gotQuery, img.gotNum)
	}
	var body stylesResponse
	decodeBody(t, rec, &body)
	if body.Total != 1 || body.Items[0].Title != "Look" {
		t.Errorf("body = %+v", body)
	}
}

func TestHealth_ReportsEngineState(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil, nil, &mockPinger{}), "/health")
	if rec.Code != http.StatusOK {
		t.Fatalf("healthy status = %d", rec.Code)
	}

	rec = doRequest(t, newTestServer(nil, nil, nil, &mockPinger{err: domain.ErrEngineUnavailable}), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("degraded status = %d, want 503", rec.Code)
	}
	var body map[string]any
	decodeBody(t, rec, &body)
	if body["status"] != "degraded" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestEmptyResultsSerializeAsArrays(t *testing.T) {
	rec := doRequest(t, newTestServer(nil, nil, nil, nil), "/search/catalog?q=nomatches")
	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	if string(raw["items"]) != "[]" {
		t.Errorf("items = %s, want []", raw["items"])
	}
}
