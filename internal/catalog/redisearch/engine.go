// Package redisearch implements the catalog engine on RediSearch (FT.*)
// via rueidis.
package redisearch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/rueidis"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// Config holds connection and index parameters.
type Config struct {
	Addrs     []string
	Username  string
	Password  string
	DB        int
	IndexName string
	KeyPrefix string
}

// Engine is a RediSearch-backed catalog engine.
type Engine struct {
	client    rueidis.Client
	indexName string
	keyPrefix string
}

// New creates a RediSearch catalog engine.
func New(cfg Config) (*Engine, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}
	if cfg.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:  cfg.Addrs,
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: true,
		AlwaysRESP2:  true, // FT.SEARCH result parsing expects RESP2 array format
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Engine{client: client, indexName: cfg.IndexName, keyPrefix: cfg.KeyPrefix}, nil
}

// Ping checks connectivity.
func (e *Engine) Ping(ctx context.Context) error {
	cmd := e.client.B().Ping().Build()
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close shuts down the client.
func (e *Engine) Close() {
	e.client.Close()
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (e *Engine) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for index: %w", ctx.Err())
		case <-ticker.C:
			if err := e.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// EnsureSchema creates the product FT index unless it already exists.
func (e *Engine) EnsureSchema(ctx context.Context) error {
	args := []string{
		e.indexName, "ON", "HASH",
		"PREFIX", "1", e.keyPrefix,
		"SCHEMA",
		"search_text", "TEXT",
		"title", "TEXT", "WEIGHT", "2",
		"brand", "TAG",
		"category", "TAG",
		"gender", "TAG",
		"color", "TAG",
		"store", "TAG",
		"price", "NUMERIC",
	}
	cmd := e.client.B().Arbitrary("FT.CREATE").Args(args...).Build()
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		if isRedisErr(err, "index already exists") {
			return nil
		}
		return fmt.Errorf("%w: create index: %w", domain.ErrEngineUnavailable, err)
	}
	return nil
}

// Search runs FT.SEARCH with the rendered facet filter, an explicit RETURN
// projection, and WITHSCORES for ranking.
func (e *Engine) Search(
	ctx context.Context, query string, spec domain.FilterSpec, limit, offset int,
) (*domain.CatalogResult, error) {
	queryStr := buildQuery(query, spec)

	args := []string{e.indexName, queryStr}
	args = append(args, "RETURN", strconv.Itoa(len(domain.CatalogProjection)))
	args = append(args, domain.CatalogProjection...)
	args = append(args,
		"WITHSCORES",
		"LIMIT", strconv.Itoa(offset), strconv.Itoa(limit),
		"DIALECT", "2",
	)

	cmd := e.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := e.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("%w: search: %w", domain.ErrEngineUnavailable, err)
	}

	return parseSearchResult(raw)
}

// Suggest runs a lightweight FT.SEARCH with a minimal projection.
func (e *Engine) Suggest(ctx context.Context, query string, limit int) ([]domain.Suggestion, error) {
	queryStr := buildQuery(query, domain.FilterSpec{})

	args := []string{
		e.indexName, queryStr,
		"RETURN", "4", "id", "title", "brand", "category",
		"LIMIT", "0", strconv.Itoa(limit),
		"DIALECT", "2",
	}

	cmd := e.client.B().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := e.client.Do(ctx, cmd).ToArray()
	if err != nil {
		return nil, fmt.Errorf("%w: suggest: %w", domain.ErrEngineUnavailable, err)
	}

	res, err := parseListResult(raw)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Suggestion, 0, len(res))
	for _, fields := range res {
		out = append(out, domain.Suggestion{
			ID:       fields["id"],
			Title:    fields["title"],
			Brand:    fields["brand"],
			Category: fields["category"],
		})
	}
	return out, nil
}

// Index writes the product as a hash under the configured key prefix.
func (e *Engine) Index(ctx context.Context, p *domain.Product) error {
	if p.ID == "" {
		return fmt.Errorf("product id is required")
	}
	cmd := e.client.B().Hset().Key(e.keyPrefix + p.ID).FieldValue()
	for field, value := range productFields(p) {
		cmd = cmd.FieldValue(field, value)
	}
	if err := e.client.Do(ctx, cmd.Build()).Error(); err != nil {
		return fmt.Errorf("%w: index product %s: %w", domain.ErrEngineUnavailable, p.ID, err)
	}
	return nil
}

// Delete removes a product hash; missing keys are ignored.
func (e *Engine) Delete(ctx context.Context, id string) error {
	cmd := e.client.B().Del().Key(e.keyPrefix + id).Build()
	if err := e.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("%w: delete product %s: %w", domain.ErrEngineUnavailable, id, err)
	}
	return nil
}

// BulkIndex upserts products one command per product over a single pipeline.
func (e *Engine) BulkIndex(ctx context.Context, ps []domain.Product) error {
	cmds := make(rueidis.Commands, 0, len(ps))
	for i := range ps {
		if ps[i].ID == "" {
			continue
		}
		cmd := e.client.B().Hset().Key(e.keyPrefix + ps[i].ID).FieldValue()
		for field, value := range productFields(&ps[i]) {
			cmd = cmd.FieldValue(field, value)
		}
		cmds = append(cmds, cmd.Build())
	}
	for _, resp := range e.client.DoMulti(ctx, cmds...) {
		if err := resp.Error(); err != nil {
			return fmt.Errorf("%w: bulk index: %w", domain.ErrEngineUnavailable, err)
		}
	}
	return nil
}

// productFields flattens a product into hash fields. Multi-valued fields are
// comma-joined; search_text concatenates the text-searchable attributes.
func productFields(p *domain.Product) map[string]string {
	return map[string]string{
		"id":          p.ID,
		"title":       p.Title,
		"brand":       p.Brand,
		"category":    p.Category,
		"gender":      p.Gender,
		"color":       p.Color,
		"material":    p.Material,
		"price":       strconv.FormatFloat(p.Price, 'f', -1, 64),
		"currency":    p.Currency,
		"sizes":       strings.Join(p.Sizes, ","),
		"image_url":   p.ImageURL,
		"product_url": p.ProdURL,
		"store":       p.Store,
		"tags":        strings.Join(p.Tags, ","),
		"style_tags":  strings.Join(p.StyleTags, ","),
		"search_text": strings.Join([]string{
			p.Title, p.Brand, p.Category, p.Material,
			strings.Join(p.Tags, " "), strings.Join(p.StyleTags, " "),
		}, " "),
	}
}

func isRedisErr(err error, substr string) bool {
	re, ok := rueidis.IsRedisErr(err)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(re.Error()), strings.ToLower(substr))
}
