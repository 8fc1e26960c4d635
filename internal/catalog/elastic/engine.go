// Package elastic implements the catalog engine on Elasticsearch.
package elastic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"go.uber.org/zap"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Engine is an Elasticsearch-backed catalog engine.
type Engine struct {
	client    *elasticsearch.Client
	indexName string
	log       *zap.Logger
}

type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		Hits []struct {
			Score  float64        `json:"_score"`
			Source domain.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID    string `json:"_id"`
			Error struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
}

// New creates an Elasticsearch catalog engine.
func New(url, indexName string, log *zap.Logger) (*Engine, error) {
	if indexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{url}})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return &Engine{client: client, indexName: indexName, log: log}, nil
}

// Ping checks cluster reachability.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: ping: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("%w: ping: status %s", domain.ErrEngineUnavailable, res.Status())
	}
	return nil
}

// EnsureSchema creates the product index with its mapping unless it exists.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	res, err := e.client.Indices.Exists(
		[]string{e.indexName},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: check index: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		return nil
	}

	res, err = e.client.Indices.Create(
		e.indexName,
		e.client.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: create index: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("%w: create index: %s", domain.ErrEngineUnavailable, decodeError(res.Body, res.Status()))
	}

	e.log.Info("created index", zap.String("index", e.indexName))
	return nil
}

// Search runs a bool query: a fuzzy multi_match over the text fields with
// facet constraints as filter clauses.
func (e *Engine) Search(
	ctx context.Context, query string, spec domain.FilterSpec, limit, offset int,
) (*domain.CatalogResult, error) {
	body, err := json.Marshal(buildSearchBody(query, spec, limit, offset))
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
		e.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("%w: search: %s", domain.ErrEngineUnavailable, decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	hits := make([]domain.CatalogHit, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		hits = append(hits, domain.CatalogHit{Product: h.Source, Score: h.Score})
	}
	return &domain.CatalogResult{Hits: hits, Total: esResp.Hits.Total.Value}, nil
}

// Suggest matches the title autocomplete subfield and returns light entries.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"match": map[string]any{"title.autocomplete": query},
		},
		"size":    limit,
		"_source": []string{"id", "title", "brand", "category"},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(e.indexName),
		e.client.Search.WithBody(bytes.NewReader(body)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: suggest: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("%w: suggest: %s", domain.ErrEngineUnavailable, decodeError(res.Body, res.Status()))
	}

	var esResp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&esResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	out := make([]domain.Suggestion, 0, len(esResp.Hits.Hits))
	for _, h := range esResp.Hits.Hits {
		out = append(out, domain.Suggestion{
			ID:       h.Source.ID,
			Title:    h.Source.Title,
			Brand:    h.Source.Brand,
			Category: h.Source.Category,
		})
	}
	return out, nil
}

// Index adds or updates one product document.
func (e *Engine) Index(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product: %w", err)
	}

	res, err := e.client.Index(
		e.indexName,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(p.ID),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: index product %s: %w", domain.ErrEngineUnavailable, p.ID, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("%w: index product %s: %s", domain.ErrEngineUnavailable, p.ID, decodeError(res.Body, res.Status()))
	}
	return nil
}

// Delete removes a product document. 404 is not an error.
func (e *Engine) Delete(ctx context.Context, id string) error {
	res, err := e.client.Delete(e.indexName, id, e.client.Delete.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("%w: delete product %s: %w", domain.ErrEngineUnavailable, id, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("%w: delete product %s: %s", domain.ErrEngineUnavailable, id, decodeError(res.Body, res.Status()))
	}
	return nil
}

// BulkIndex upserts products via the bulk NDJSON API and surfaces per-item
// failures.
func (e *Engine) BulkIndex(ctx context.Context, ps []domain.Product) error {
	if len(ps) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for i := range ps {
		if ps[i].ID == "" {
			continue
		}
		action := map[string]any{
			"index": map[string]any{"_index": e.indexName, "_id": ps[i].ID},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(ps[i]); err != nil {
			return fmt.Errorf("encode document: %w", err)
		}
	}

	res, err := e.client.Bulk(
		bytes.NewReader(buf.Bytes()),
		e.client.Bulk.WithIndex(e.indexName),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("%w: bulk index: %w", domain.ErrEngineUnavailable, err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("%w: bulk index: %s", domain.ErrEngineUnavailable, decodeError(res.Body, res.Status()))
	}

	var bulkResp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&bulkResp); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if bulkResp.Errors {
		var msgs []string
		for _, item := range bulkResp.Items {
			if item.Index.Error.Type != "" {
				msgs = append(msgs, fmt.Sprintf("id=%s: %s: %s", item.Index.ID, item.Index.Error.Type, item.Index.Error.Reason))
			}
		}
		return fmt.Errorf("bulk index partial errors: %s", strings.Join(msgs, "; "))
	}

	e.log.Info("bulk indexed products", zap.Int("count", len(ps)))
	return nil
}

func buildSearchBody(query string, spec domain.FilterSpec, limit, offset int) map[string]any {
	var must any
	if strings.TrimSpace(query) != "" {
		must = map[string]any{
			"multi_match": map[string]any{
				"query":         query,
				"fields":        []string{"title^3", "title.autocomplete^2", "brand", "category", "material", "tags", "style_tags"},
				"type":          "best_fields",
				"fuzziness":     "AUTO",
				"prefix_length": 1,
			},
		}
	} else {
		must = map[string]any{"match_all": map[string]any{}}
	}

	boolQuery := map[string]any{"must": []any{must}}
	if filters := buildFilters(spec); len(filters) > 0 {
		boolQuery["filter"] = filters
	}

	return map[string]any{
		"query":            map[string]any{"bool": boolQuery},
		"from":             offset,
		"size":             limit,
		"track_total_hits": true,
	}
}

func buildFilters(spec domain.FilterSpec) []any {
	var filters []any
	for _, c := range spec.EqualityClauses() {
		field := c[0]
		// brand is analyzed text; filter against its keyword subfield.
		if field == "brand" {
			field = "brand.keyword"
		}
		filters = append(filters, map[string]any{
			"term": map[string]any{field: c[1]},
		})
	}
	if spec.PriceMin != nil || spec.PriceMax != nil {
		bounds := map[string]any{}
		if spec.PriceMin != nil {
			bounds["gte"] = *spec.PriceMin
		}
		if spec.PriceMax != nil {
			bounds["lte"] = *spec.PriceMax
		}
		filters = append(filters, map[string]any{
			"range": map[string]any{"price": bounds},
		})
	}
	return filters
}

func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Sprintf("unexpected status %s", status)
}
