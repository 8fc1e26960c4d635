package domain

// Product is a catalog document as stored in the search index.
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

// HitMeta is observability metadata attached to every hit of one response.
// It reports how the query was interpreted; it is never a search key.
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

// CatalogResult is a page of ranked catalog hits with a total estimate.
type CatalogResult struct {
	Hits  []CatalogHit
	Total int
}

// Suggestion is a lightweight autocomplete entry.
type Suggestion struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Brand    string `json:"brand,omitempty"`
	Category string `json:"category,omitempty"`
}

// CatalogProjection is the fixed attribute set requested from the index.
// A bounded projection keeps response payloads small regardless of how
// wide the stored documents grow.
var CatalogProjection = []string{
	"id", "title", "brand", "category", "gender", "color", "material",
	"price", "currency", "sizes", "image_url", "product_url", "store",
	"tags", "style_tags",
}
