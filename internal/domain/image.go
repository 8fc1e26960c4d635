package domain

import "strings"

// ImageResult is the provider-agnostic shape of one image hit.
type ImageResult struct {
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	PageURL      string `json:"page_url"`
	Site         string `json:"site"`
	Title        string `json:"title,omitempty"`
	Width        int    `json:"-"`
	Height       int    `json:"-"`
}

// WebResult is one web-page hit from an internet search provider.
type WebResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link"`
	Site    string `json:"site"`
}

// PageCursor is a provider pagination position. Both wired providers
// paginate by 1-based numeric offsets, so the position is an int; Start == 0
// means the provider reported no next page, and then HasMore is false.
type PageCursor struct {
	Start         int
	TotalEstimate int
	HasMore       bool
}

// ImagePage is one raw provider page mapped into canonical items.
type ImagePage struct {
	Items []ImageResult
	Next  PageCursor
}

// WebPage is one page of web-search results.
type WebPage struct {
	Items []WebResult
	Next  PageCursor
}

// NormalizeImageURL canonicalizes an image URL for deduplication: lowercased
// scheme/host, fragment stripped, trailing slash trimmed.
func NormalizeImageURL(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" {
		return ""
	}
	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}
	// Lowercase scheme and host only; the path may be case-sensitive.
	if i := strings.Index(u, "://"); i >= 0 {
		rest := u[i+3:]
		if j := strings.IndexByte(rest, '/'); j >= 0 {
			u = strings.ToLower(u[:i+3]+rest[:j]) + rest[j:]
		} else {
			u = strings.ToLower(u)
		}
	}
	return strings.TrimSuffix(u, "/")
}
