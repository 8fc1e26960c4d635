package domain

import "strings"

// SearchQuery carries a raw query through normalization and style expansion.
type SearchQuery struct {
	Raw        string
	Normalized string
	StyleKey   string   // empty when no style was detected
	BoostTerms []string // ordered; appended to the query in this order
}

// NewSearchQuery normalizes raw text and runs style detection on it.
func NewSearchQuery(raw string) SearchQuery {
	nq := Normalize(raw)
	key, terms := DetectStyle(nq)
	return SearchQuery{
		Raw:        raw,
		Normalized: nq,
		StyleKey:   key,
		BoostTerms: terms,
	}
}

// Expanded returns the normalized query with boost terms appended,
// space-joined. With no boost terms it equals Normalized.
func (q SearchQuery) Expanded() string {
	if len(q.BoostTerms) == 0 {
		return q.Normalized
	}
	return q.Normalized + " " + strings.Join(q.BoostTerms, " ")
}

// Normalize trims, lowercases, and collapses internal whitespace.
// It is total and idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
