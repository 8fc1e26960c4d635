package waura

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// APIError is a structured error response from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("waura: %s (%s, http %d)", e.Message, e.Code, e.StatusCode)
}

// Client calls the waura search API.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

// Option configures the client.
type Option func(*Client)

// WithAPIKey sets the bearer token sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpc = h }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpc.Timeout = d }
}

// New creates a waura API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// SearchCatalog runs a faceted catalog search.
func (c *Client) SearchCatalog(ctx context.Context, q string, p CatalogParams) (*CatalogResult, error) {
	params := url.Values{"q": {q}}
	if p.Limit > 0 {
		params.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Offset > 0 {
		params.Set("offset", strconv.Itoa(p.Offset))
	}
	setIfPresent(params, "gender", p.Gender)
	setIfPresent(params, "category", p.Category)
	setIfPresent(params, "brand", p.Brand)
	setIfPresent(params, "color", p.Color)
	if p.PriceMin != nil {
		params.Set("price_min", strconv.FormatFloat(*p.PriceMin, 'f', -1, 64))
	}
	if p.PriceMax != nil {
		params.Set("price_max", strconv.FormatFloat(*p.PriceMax, 'f', -1, 64))
	}

	var out CatalogResult
	if err := c.get(ctx, "/search/catalog", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchImages runs an aggregated image search.
func (c *Client) SearchImages(ctx context.Context, q string, p PageParams) (*ImageResult, error) {
	var out ImageResult
	if err := c.get(ctx, "/search/images", pageValues(q, p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SearchInternet runs a filtered web search.
func (c *Client) SearchInternet(ctx context.Context, q string, p PageParams) (*WebResult, error) {
	var out WebResult
	if err := c.get(ctx, "/search/internet", pageValues(q, p), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Suggest fetches autocomplete entries. limit 0 uses the server default.
func (c *Client) Suggest(ctx context.Context, q string, limit int) (*SuggestResult, error) {
	params := url.Values{"q": {q}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out SuggestResult
	if err := c.get(ctx, "/suggest", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// StylesFeed fetches the style inspiration feed for a category.
func (c *Client) StylesFeed(ctx context.Context, gender, category string, limit int) (*StylesResult, error) {
	params := url.Values{"category": {category}}
	setIfPresent(params, "gender", gender)
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var out StylesResult
	if err := c.get(ctx, "/styles/search", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks server and catalog engine status.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]any
	return c.get(ctx, "/health", nil, &out)
}

func pageValues(q string, p PageParams) url.Values {
	params := url.Values{"q": {q}}
	if p.Start > 0 {
		params.Set("start", strconv.Itoa(p.Start))
	}
	if p.Num > 0 {
		params.Set("num", strconv.Itoa(p.Num))
	}
	return params
}

func setIfPresent(params url.Values, key, val string) {
	if val != "" {
		params.Set(key, val)
	}
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("waura: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("waura: %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "unknown", Message: resp.Status}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("waura: decode %s response: %w", path, err)
	}
	return nil
}
