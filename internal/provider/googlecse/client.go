// Package googlecse implements image and web search on the Google Custom
// Search JSON API.
package googlecse

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

const defaultBaseURL = "https://www.googleapis.com/customsearch/v1"

// imageFields is the response projection for image mode. Width and height
// are requested so undersized icons can be dropped downstream.
const imageFields = "queries/nextPage,searchInformation(totalResults)," +
	"items(title,link,displayLink,image/thumbnailLink,image/contextLink,image/width,image/height)"

// Config holds Google CSE client settings.
type Config struct {
	APIKey       string
	CX           string
	Language     string // hl
	Country      string // gl
	LangRestrict string // lr, e.g. "lang_ru"
	SiteAllow    []string
	Timeout      time.Duration
	PageSize     int // per-request cap, the API maximum is 10
	OffsetCap    int // the API serves at most ~100 results
}

// Client calls the Custom Search API.
type Client struct {
	cfg     Config
	httpc   *http.Client
	baseURL string
}

// New creates a Google CSE client. A missing key or cx is reported lazily,
// per request, so the server can start without credentials.
func New(cfg Config) *Client {
	if cfg.PageSize <= 0 || cfg.PageSize > 10 {
		cfg.PageSize = 10
	}
	if cfg.OffsetCap <= 0 {
		cfg.OffsetCap = 91
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 25 * time.Second
	}
	return &Client{
		cfg:     cfg,
		httpc:   &http.Client{Timeout: cfg.Timeout},
		baseURL: defaultBaseURL,
	}
}

func (c *Client) Name() string     { return "google_cse" }
func (c *Client) MaxPageSize() int { return c.cfg.PageSize }
func (c *Client) MaxOffset() int   { return c.cfg.OffsetCap }

type cseResponse struct {
	Queries struct {
		NextPage []struct {
			StartIndex int `json:"startIndex"`
		} `json:"nextPage"`
	} `json:"queries"`
	SearchInformation struct {
		TotalResults string `json:"totalResults"`
	} `json:"searchInformation"`
	Items []cseItem `json:"items"`
}

type cseItem struct {
	Title       string `json:"title"`
	Link        string `json:"link"`
	Snippet     string `json:"snippet"`
	DisplayLink string `json:"displayLink"`
	Image       struct {
		ThumbnailLink string `json:"thumbnailLink"`
		ContextLink   string `json:"contextLink"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
	} `json:"image"`
}

// FetchPage fetches one page of image results. Offsets beyond the API's
// serving window return an empty exhausted page.
func (c *Client) FetchPage(ctx context.Context, query string, start, num int) (*domain.ImagePage, error) {
	if c.cfg.APIKey == "" || c.cfg.CX == "" {
		return nil, fmt.Errorf("%w: google cse key or cx missing", domain.ErrProviderNotConfigured)
	}
	start, num = c.clamp(start, num)
	if start > c.cfg.OffsetCap {
		return &domain.ImagePage{}, nil
	}

	params := c.baseParams(query, start, num)
	params.Set("searchType", "image")
	params.Set("imgType", "photo")
	params.Set("fields", imageFields)

	data, err := c.call(ctx, params)
	if err != nil {
		return nil, err
	}

	items := make([]domain.ImageResult, 0, len(data.Items))
	for _, it := range data.Items {
		imgURL := strings.TrimSpace(it.Link)
		site := strings.TrimSpace(it.DisplayLink)
		if imgURL == "" || site == "" {
			continue
		}
		thumb := strings.TrimSpace(it.Image.ThumbnailLink)
		if thumb == "" {
			thumb = imgURL
		}
		pageURL := strings.TrimSpace(it.Image.ContextLink)
		if pageURL == "" {
			pageURL = imgURL
		}
		items = append(items, domain.ImageResult{
			ImageURL:     imgURL,
			ThumbnailURL: thumb,
			PageURL:      pageURL,
			Site:         site,
			Title:        strings.TrimSpace(it.Title),
			Width:        it.Image.Width,
			Height:       it.Image.Height,
		})
	}

	return &domain.ImagePage{
		Items: items,
		Next:  c.nextCursor(data, len(data.Items)),
	}, nil
}

// SearchWeb fetches one page of ordinary web results.
func (c *Client) SearchWeb(ctx context.Context, query string, start, num int) (*domain.WebPage, error) {
	if c.cfg.APIKey == "" || c.cfg.CX == "" {
		return nil, fmt.Errorf("%w: google cse key or cx missing", domain.ErrProviderNotConfigured)
	}
	start, num = c.clamp(start, num)
	if start > c.cfg.OffsetCap {
		return &domain.WebPage{}, nil
	}

	data, err := c.call(ctx, c.baseParams(query, start, num))
	if err != nil {
		return nil, err
	}

	items := make([]domain.WebResult, 0, len(data.Items))
	for _, it := range data.Items {
		link := strings.TrimSpace(it.Link)
		if link == "" {
			continue
		}
		items = append(items, domain.WebResult{
			Title:   strings.TrimSpace(it.Title),
			Snippet: strings.TrimSpace(it.Snippet),
			Link:    link,
			Site:    strings.TrimSpace(it.DisplayLink),
		})
	}

	return &domain.WebPage{
		Items: items,
		Next:  c.nextCursor(data, len(data.Items)),
	}, nil
}

func (c *Client) clamp(start, num int) (int, int) {
	if start < 1 {
		start = 1
	}
	if num < 1 {
		num = 1
	}
	if num > c.cfg.PageSize {
		num = c.cfg.PageSize
	}
	return start, num
}

func (c *Client) baseParams(query string, start, num int) url.Values {
	params := url.Values{}
	params.Set("key", c.cfg.APIKey)
	params.Set("cx", c.cfg.CX)
	params.Set("q", c.allowlisted(query))
	params.Set("num", strconv.Itoa(num))
	params.Set("start", strconv.Itoa(start))
	params.Set("safe", "active")
	if c.cfg.Language != "" {
		params.Set("hl", c.cfg.Language)
	}
	if c.cfg.Country != "" {
		params.Set("gl", c.cfg.Country)
	}
	if c.cfg.LangRestrict != "" {
		params.Set("lr", c.cfg.LangRestrict)
	}
	return params
}

// allowlisted softly constrains results to the configured shop domains.
// Too many OR terms degrade the query, so the list is capped at 40.
func (c *Client) allowlisted(query string) string {
	q := strings.TrimSpace(query)
	if q == "" || len(c.cfg.SiteAllow) == 0 {
		return q
	}
	sites := c.cfg.SiteAllow
	if len(sites) > 40 {
		sites = sites[:40]
	}
	terms := make([]string, len(sites))
	for i, d := range sites {
		terms[i] = "site:" + d
	}
	return fmt.Sprintf("(%s) (%s)", q, strings.Join(terms, " OR "))
}

func (c *Client) call(ctx context.Context, params url.Values) (*cseResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: google cse: %w", domain.ErrProviderUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: google cse status %d: %s",
			domain.ErrProviderUnavailable, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var data cseResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &data, nil
}

func (c *Client) nextCursor(data *cseResponse, rawCount int) domain.PageCursor {
	total, _ := strconv.Atoi(data.SearchInformation.TotalResults)

	next := 0
	if len(data.Queries.NextPage) > 0 {
		next = data.Queries.NextPage[0].StartIndex
	}
	// A next page past the serving window is unreachable.
	if next > c.cfg.OffsetCap {
		next = 0
	}

	return domain.PageCursor{
		Start:         next,
		TotalEstimate: total,
		HasMore:       next > 0 && rawCount > 0,
	}
}
