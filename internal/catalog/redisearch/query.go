package redisearch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// buildQuery renders the full FT.SEARCH query string: facet pre-filters
// followed by a text clause over search_text. An empty query with an empty
// spec matches everything.
func buildQuery(query string, spec domain.FilterSpec) string {
	var parts []string

	if f := renderFilter(spec); f != "" {
		parts = append(parts, f)
	}

	if q := strings.TrimSpace(query); q != "" {
		parts = append(parts, fmt.Sprintf("@search_text:(%s)", escapeQuery(q)))
	}

	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

// renderFilter translates a FilterSpec into RediSearch tag/numeric clauses.
// Equality fields become tag filters, the price bounds a numeric range.
// Clause order follows FilterSpec's fixed field order.
func renderFilter(spec domain.FilterSpec) string {
	if spec.IsEmpty() {
		return ""
	}

	var parts []string
	for _, c := range spec.EqualityClauses() {
		parts = append(parts, fmt.Sprintf("@%s:{%s}", c[0], tagEscaper.Replace(c[1])))
	}

	if spec.PriceMin != nil || spec.PriceMax != nil {
		minBound := "-inf"
		maxBound := "+inf"
		if spec.PriceMin != nil {
			minBound = fmt.Sprintf("%g", *spec.PriceMin)
		}
		if spec.PriceMax != nil {
			maxBound = fmt.Sprintf("%g", *spec.PriceMax)
		}
		parts = append(parts, fmt.Sprintf("@price:[%s %s]", minBound, maxBound))
	}

	return strings.Join(parts, " ")
}

// parseSearchResult parses a WITHSCORES FT.SEARCH reply.
// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
func parseSearchResult(raw []rueidis.RedisMessage) (*domain.CatalogResult, error) {
	if len(raw) == 0 {
		return &domain.CatalogResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &domain.CatalogResult{}, nil
	}

	hits := make([]domain.CatalogHit, 0, total)
	for i := 1; i+2 < len(raw); i += 3 {
		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fieldMsgs, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		hit := hitFromFields(parseFieldPairs(fieldMsgs))
		hit.Score = score
		hits = append(hits, hit)
	}

	return &domain.CatalogResult{Hits: hits, Total: int(total)}, nil
}

// parseListResult parses a plain FT.SEARCH reply (no scores).
// 2-stride: [total, key1, fields1, key2, fields2, ...]
func parseListResult(raw []rueidis.RedisMessage) ([]map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return nil, nil
	}

	entries := make([]map[string]string, 0, total)
	for i := 1; i+1 < len(raw); i += 2 {
		fieldMsgs, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		entries = append(entries, parseFieldPairs(fieldMsgs))
	}
	return entries, nil
}

func parseFieldPairs(msgs []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(msgs)/2)
	for i := 0; i+1 < len(msgs); i += 2 {
		name, err := msgs[i].ToString()
		if err != nil {
			continue
		}
		value, err := msgs[i+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

func hitFromFields(fields map[string]string) domain.CatalogHit {
	price, _ := strconv.ParseFloat(fields["price"], 64)
	return domain.CatalogHit{
		Product: domain.Product{
			ID:        fields["id"],
			Title:     fields["title"],
			Brand:     fields["brand"],
			Category:  fields["category"],
			Gender:    fields["gender"],
			Color:     fields["color"],
			Material:  fields["material"],
			Price:     price,
			Currency:  fields["currency"],
			Sizes:     splitList(fields["sizes"]),
			ImageURL:  fields["image_url"],
			ProdURL:   fields["product_url"],
			Store:     fields["store"],
			Tags:      splitList(fields["tags"]),
			StyleTags: splitList(fields["style_tags"]),
		},
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// tagEscaper escapes RediSearch tag syntax characters in filter values.
var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)

// escapeQuery escapes RediSearch query syntax in free text.
var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}
