package waura

// Product is one catalog document.
type Product struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Brand     string   `json:"brand"`
	Category  string   `json:"category"`
	Gender    string   `json:"gender"`
	Color     string   `json:"color"`
	Material  string   `json:"material"`
	Price     float64  `json:"price"`
	Currency  string   `json:"currency"`
	Sizes     []string `json:"sizes"`
	ImageURL  string   `json:"image_url"`
	ProdURL   string   `json:"product_url"`
	Store     string   `json:"store"`
	Tags      []string `json:"tags"`
	StyleTags []string `json:"style_tags"`
}

// HitMeta reports how the server interpreted the query.
type HitMeta struct {
	DetectedStyle string `json:"detected_style,omitempty"`
	ExpandedQuery string `json:"expanded_query"`
}

// CatalogHit is one ranked catalog result.
type CatalogHit struct {
	Product
	Score float64  `json:"score"`
	Meta  *HitMeta `json:"_meta,omitempty"`
}

// CatalogResult is a page of catalog hits.
type CatalogResult struct {
	Source string       `json:"source"`
	Q      string       `json:"q"`
	Total  int          `json:"total"`
	Items  []CatalogHit `json:"items"`
}

// ImageItem is one image hit.
type ImageItem struct {
	ImageURL     string `json:"image_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	PageURL      string `json:"page_url"`
	Site         string `json:"site"`
	Title        string `json:"title,omitempty"`
}

// ImageResult is a page of image hits with pagination state.
type ImageResult struct {
	Source    string      `json:"source"`
	Query     string      `json:"query"`
	Total     int         `json:"total"`
	Items     []ImageItem `json:"items"`
	Start     int         `json:"start"`
	Num       int         `json:"num"`
	NextStart *int        `json:"next_start"`
	HasMore   bool        `json:"has_more"`
	Provider  string      `json:"provider,omitempty"`
}

// WebItem is one web-page hit.
type WebItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	Link    string `json:"link"`
	Site    string `json:"site"`
}

// WebResult is a page of web hits.
type WebResult struct {
	Source    string    `json:"source"`
	Q         string    `json:"q"`
	Total     int       `json:"total"`
	Items     []WebItem `json:"items"`
	Start     int       `json:"start"`
	Num       int       `json:"num"`
	NextStart *int      `json:"next_start"`
	HasMore   bool      `json:"has_more"`
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// SuggestResult is the autocomplete response.
type SuggestResult struct {
	Q           string       `json:"q"`
	Suggestions []Suggestion `json:"suggestions"`
}

// StyleImage is one style inspiration entry.
type StyleImage struct {
	ImageURL string   `json:"image_url"`
	Title    string   `json:"title"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// StylesResult is the style feed response.
type StylesResult struct {
	Source   string       `json:"source"`
	Gender   string       `json:"gender"`
	Category string       `json:"category"`
	Total    int          `json:"total"`
	Items    []StyleImage `json:"items"`
}

// CatalogParams are the optional catalog search parameters.
type CatalogParams struct {
	Limit    int
	Offset   int
	Gender   string
	Category string
	Brand    string
	Color    string
	PriceMin *float64
	PriceMax *float64
}

// PageParams select a provider-paginated page.
type PageParams struct {
	Start int
	Num   int
}
