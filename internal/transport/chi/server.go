// Package chi implements the HTTP API on the chi router.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/usecase/imagesearch"
)

// CatalogSearcher is the catalog usecase surface the server needs.
type CatalogSearcher interface {
	Search(ctx context.Context, rawQuery string, spec domain.FilterSpec, limit, offset int) (*domain.CatalogResult, error)
}

// ImageSearcher is the aggregated image/web/styles usecase surface.
type ImageSearcher interface {
	Search(ctx context.Context, query string, start, num int) (*imagesearch.Result, error)
	SearchWeb(ctx context.Context, query string, start, num int) (*imagesearch.WebResult, error)
	StylesFeed(ctx context.Context, gender, category string, limit int) ([]imagesearch.StyleImage, error)
}

// Suggester serves autocomplete entries.
type Suggester interface {
	Suggest(ctx context.Context, rawQuery string, limit int) ([]domain.Suggestion, error)
}

// Pinger reports catalog engine connectivity for health checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PageLimits bound catalog paging parameters.
type PageLimits struct {
	Default int
	Max     int
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	catalog       CatalogSearcher
	images        ImageSearcher
	suggester     Suggester
	pinger        Pinger
	limits        PageLimits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	catalog CatalogSearcher,
	images ImageSearcher,
	suggester Suggester,
	pinger Pinger,
	limits PageLimits,
	logger *zap.Logger,
) *Server {
	if limits.Default <= 0 {
		limits.Default = 20
	}
	if limits.Max <= 0 {
		limits.Max = 50
	}
	s := &Server{
		catalog:   catalog,
		images:    images,
		suggester: suggester,
		pinger:    pinger,
		limits:    limits,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, "invalid_query"),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, "not_found"),
		sentinelHandler(domain.ErrProviderNotConfigured, http.StatusInternalServerError, "provider_not_configured"),
		sentinelHandler(domain.ErrProviderUnavailable, http.StatusBadGateway, "provider_unavailable"),
		sentinelHandler(domain.ErrEngineUnavailable, http.StatusServiceUnavailable, "catalog_unavailable"),
	}
	return s
}

// Routes registers every endpoint on a fresh router.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/search/catalog", s.handleCatalogSearch)
	r.Get("/search/images", s.handleImageSearch)
	r.Get("/search/internet", s.handleInternetSearch)
	r.Get("/search", s.handleCombinedSearch)
	r.Get("/suggest", s.handleSuggest)
	r.Get("/styles/search", s.handleStylesSearch)
	r.Get("/health", s.handleHealth)
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	return r
}

type catalogResponse struct {
	Source string              `json:"source"`
	Q      string              `json:"q"`
	Total  int                 `json:"total"`
	Items  []domain.CatalogHit `json:"items"`
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}

	limit, err := queryInt(r, "limit", s.limits.Default)
	if err != nil || limit < 1 || limit > s.limits.Max {
		writeError(w, http.StatusBadRequest, "invalid_params", "limit must be an integer between 1 and "+itoa(s.limits.Max))
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "invalid_params", "offset must be a non-negative integer")
		return
	}

	spec, err := filterSpecFromQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", err.Error())
		return
	}

	res, err := s.catalog.Search(r.Context(), q, spec, limit, offset)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, catalogResponse{
		Source: "catalog",
		Q:      q,
		Total:  res.Total,
		Items:  ensureHits(res.Hits),
	})
}

type imagesResponse struct {
	Source    string               `json:"source"`
	Query     string               `json:"query"`
	Total     int                  `json:"total"`
	Items     []domain.ImageResult `json:"items"`
	Start     int                  `json:"start"`
	Num       int                  `json:"num"`
	NextStart *int                 `json:"next_start"`
	HasMore   bool                 `json:"has_more"`
	Provider  string               `json:"provider,omitempty"`
}

func (s *Server) handleImageSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}
	start, err := queryInt(r, "start", 1)
	if err != nil || start < 1 {
		writeError(w, http.StatusBadRequest, "invalid_params", "start must be a positive integer")
		return
	}
	num, err := queryInt(r, "num", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "num must be an integer")
		return
	}
	num = clamp(num, 1, 10)

	res, err := s.images.Search(r.Context(), q, start, num)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, imagesResponse{
		Source:    "images",
		Query:     q,
		Total:     res.Total,
		Items:     ensureImages(res.Items),
		Start:     start,
		Num:       num,
		NextStart: optionalStart(res.NextStart),
		HasMore:   res.HasMore,
		Provider:  res.Provider,
	})
}

type internetResponse struct {
	Source    string             `json:"source"`
	Mode      string             `json:"mode"`
	Q         string             `json:"q"`
	Total     int                `json:"total"`
	Items     []domain.WebResult `json:"items"`
	Start     int                `json:"start"`
	Num       int                `json:"num"`
	NextStart *int               `json:"next_start"`
	HasMore   bool               `json:"has_more"`
}

func (s *Server) handleInternetSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}
	start, err := queryInt(r, "start", 1)
	if err != nil || start < 1 {
		writeError(w, http.StatusBadRequest, "invalid_params", "start must be a positive integer")
		return
	}
	num, err := queryInt(r, "num", 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "num must be an integer")
		return
	}
	num = clamp(num, 1, 10)

	res, err := s.images.SearchWeb(r.Context(), q, start, num)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, internetResponse{
		Source:    "internet",
		Mode:      "web",
		Q:         q,
		Total:     res.Total,
		Items:     ensureWeb(res.Items),
		Start:     start,
		Num:       num,
		NextStart: optionalStart(res.NextStart),
		HasMore:   res.HasMore,
	})
}

type combinedBranch struct {
	Total int    `json:"total"`
	Items any    `json:"items"`
	Error string `json:"error,omitempty"`
}

type combinedResponse struct {
	Q        string         `json:"q"`
	Catalog  combinedBranch `json:"catalog"`
	Internet combinedBranch `json:"internet"`
}

// handleCombinedSearch runs the catalog and image branches for one query.
// Either branch degrades to an empty result with an error note instead of
// failing the whole request.
func (s *Server) handleCombinedSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}

	resp := combinedResponse{Q: q}

	if cat, err := s.catalog.Search(r.Context(), q, domain.FilterSpec{}, s.limits.Default, 0); err != nil {
		s.logger.Warn("combined search: catalog branch failed", zap.Error(err))
		resp.Catalog = combinedBranch{Items: []domain.CatalogHit{}, Error: "catalog search failed"}
	} else {
		resp.Catalog = combinedBranch{Total: cat.Total, Items: ensureHits(cat.Hits)}
	}

	if img, err := s.images.Search(r.Context(), q, 1, 10); err != nil {
		s.logger.Warn("combined search: internet branch failed", zap.Error(err))
		resp.Internet = combinedBranch{Items: []domain.ImageResult{}, Error: "image search failed"}
	} else {
		resp.Internet = combinedBranch{Total: img.Total, Items: ensureImages(img.Items)}
	}

	writeJSON(w, http.StatusOK, resp)
}

type suggestResponse struct {
	Q           string              `json:"q"`
	Suggestions []domain.Suggestion `json:"suggestions"`
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "q is required")
		return
	}
	limit, err := queryInt(r, "limit", 8)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "limit must be an integer")
		return
	}
	limit = clamp(limit, 1, 20)

	suggestions, err := s.suggester.Suggest(r.Context(), q, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []domain.Suggestion{}
	}

	writeJSON(w, http.StatusOK, suggestResponse{Q: q, Suggestions: suggestions})
}

type stylesResponse struct {
	Source   string                   `json:"source"`
	Gender   string                   `json:"gender"`
	Category string                   `json:"category"`
	Total    int                      `json:"total"`
	Items    []imagesearch.StyleImage `json:"items"`
}

func (s *Server) handleStylesSearch(w http.ResponseWriter, r *http.Request) {
	gender := r.URL.Query().Get("gender")
	category := r.URL.Query().Get("category")
	if category == "" {
		writeError(w, http.StatusBadRequest, "invalid_query", "category is required")
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_params", "limit must be an integer")
		return
	}
	limit = clamp(limit, 1, 50)

	items, err := s.images.StylesFeed(r.Context(), gender, category, limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	if items == nil {
		items = []imagesearch.StyleImage{}
	}

	writeJSON(w, http.StatusOK, stylesResponse{
		Source:   "styles",
		Gender:   gender,
		Category: category,
		Total:    len(items),
		Items:    items,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]string{"catalog": "ok"}
	status := "ok"
	httpStatus := http.StatusOK

	if err := s.pinger.Ping(r.Context()); err != nil {
		s.logger.Warn("health check failed", zap.Error(err))
		checks["catalog"] = "error"
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, map[string]any{
		"status": status,
		"checks": checks,
	})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrNotFound,
		domain.ErrProviderNotConfigured,
		domain.ErrProviderUnavailable,
		domain.ErrEngineUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func ensureHits(hs []domain.CatalogHit) []domain.CatalogHit {
	if hs == nil {
		return []domain.CatalogHit{}
	}
	return hs
}

func ensureImages(is []domain.ImageResult) []domain.ImageResult {
	if is == nil {
		return []domain.ImageResult{}
	}
	return is
}

func ensureWeb(ws []domain.WebResult) []domain.WebResult {
	if ws == nil {
		return []domain.WebResult{}
	}
	return ws
}

func optionalStart(next int) *int {
	if next <= 0 {
		return nil
	}
	return &next
}
