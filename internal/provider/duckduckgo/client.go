// Package duckduckgo implements image search on DuckDuckGo's unofficial
// i.js endpoint. It is keyless and serves as the fallback provider.
package duckduckgo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

const defaultBaseURL = "https://duckduckgo.com"

// Results require a vqd token obtained from the HTML search page first.
var vqdRegex = regexp.MustCompile(`vqd=['"]?([\d-]+)['"]?`)

// Config holds DuckDuckGo client settings.
type Config struct {
	Region     string // e.g. "wt-wt"
	SafeSearch bool
	Timeout    time.Duration
	PageSize   int
	OffsetCap  int
}

// Client calls the DuckDuckGo image endpoint.
type Client struct {
	cfg     Config
	httpc   *http.Client
	baseURL string
}

// New creates a DuckDuckGo image search client.
func New(cfg Config) *Client {
	if cfg.Region == "" {
		cfg.Region = "wt-wt"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 50
	}
	if cfg.OffsetCap <= 0 {
		cfg.OffsetCap = 500
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		baseURL: defaultBaseURL,
	}
}

func (c *Client) Name() string     { return "duckduckgo" }
func (c *Client) MaxPageSize() int { return c.cfg.PageSize }
func (c *Client) MaxOffset() int   { return c.cfg.OffsetCap }

type ddgResponse struct {
	Results []struct {
		Image     string `json:"image"`
		Thumbnail string `json:"thumbnail"`
		URL       string `json:"url"`
		Title     string `json:"title"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
	} `json:"results"`
	Next string `json:"next"`
}

// FetchPage fetches one page of image results. The endpoint paginates by a
// zero-based "s" offset; the canonical cursor stays 1-based.
func (c *Client) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidQuery)
	}
	if start < 1 {
		start = 1
	}
	if start > c.cfg.OffsetCap {
		return &domain.ImagePage{}, nil
	}
	if num < 1 {
		num = 1
	}
	if num > c.cfg.PageSize {
		num = c.cfg.PageSize
	}

	vqd, err := c.fetchVQD(ctx, query)
	if err != nil {
		return nil, err
	}

	safe := "-1"
	if c.cfg.SafeSearch {
		safe = "1"
	}
	params := url.Values{}
	params.Set("l", c.cfg.Region)
	params.Set("o", "json")
	params.Set("q", query)
	params.Set("vqd", vqd)
	params.Set("f", ",,,")
	params.Set("p", safe)
	params.Set("s", strconv.Itoa(start-1))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/i.js?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Referer", c.baseURL+"/")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: duckduckgo: %w", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: duckduckgo status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	var data ddgResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	items := make([]domain.ImageResult, 0, len(data.Results))
	for _, r := range data.Results {
		imgURL := strings.TrimSpace(r.Image)
		if imgURL == "" {
			continue
		}
		pageURL := strings.TrimSpace(r.URL)
		if pageURL == "" {
			pageURL = imgURL
		}
		thumb := strings.TrimSpace(r.Thumbnail)
		if thumb == "" {
			thumb = imgURL
		}
		items = append(items, domain.ImageResult{
			ImageURL:     imgURL,
			ThumbnailURL: thumb,
			PageURL:      pageURL,
			Site:         hostOf(pageURL),
			Title:        strings.TrimSpace(r.Title),
			Width:        r.Width,
			Height:       r.Height,
		})
		if len(items) >= num {
			break
		}
	}

	return &domain.ImagePage{
		Items: items,
		Next:  c.nextCursor(data),
	}, nil
}

// fetchVQD obtains the request token the image endpoint requires.
func (c *Client) fetchVQD(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: duckduckgo token: %w", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: duckduckgo token status %d", domain.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token page: %w", err)
	}

	m := vqdRegex.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("%w: duckduckgo token not found", domain.ErrProviderUnavailable)
	}
	return string(m[1]), nil
}

// nextCursor parses the continuation offset out of the "next" URL, e.g.
// "i.js?q=hoodie&s=100".
func (c *Client) nextCursor(data ddgResponse) domain.PageCursor {
	if data.Next == "" {
		return domain.PageCursor{}
	}

	next := 0
	if u, err := url.Parse(data.Next); err == nil {
		if s, err := strconv.Atoi(u.Query().Get("s")); err == nil && s > 0 {
			next = s + 1
		}
	}
	if next > c.cfg.OffsetCap {
		next = 0
	}

	return domain.PageCursor{
		Start:   next,
		HasMore: next > 0 && len(data.Results) > 0,
	}
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	return strings.ToLower(u.Host)
}
