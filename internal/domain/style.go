package domain

import "strings"

// styleSynonym maps a query substring to a canonical style key.
type styleSynonym struct {
	pattern string
	key     string
}

// styleSynonyms is scanned in order; the first pattern found as a substring
// of the normalized query wins. The slice (not a map) is deliberate: the
// tie-break must be reproducible, and map iteration order is not.
var styleSynonyms = []styleSynonym{
	{"old money", "old_money"},
	{"олд мани", "old_money"},
	{"тихая роскошь", "old_money"},
	{"quiet luxury", "old_money"},

	{"streetwear", "streetwear"},
	{"стритвир", "streetwear"},
	{"стрит", "streetwear"},

	{"y2k", "y2k"},
	{"гранж", "grunge"},
	{"gorpcore", "gorpcore"},
}

// styleTags maps a canonical style key to its ordered boost terms.
var styleTags = map[string][]string{
	"old_money":  {"wool", "cashmere", "blazer", "trench", "loafers", "minimal", "neutral"},
	"streetwear": {"hoodie", "sneakers", "oversize", "logo", "cargo", "denim"},
	"y2k":        {"low-rise", "baggy", "glossy", "cropped", "denim", "metallic"},
	"grunge":     {"flannel", "distressed", "boots", "dark", "oversize"},
	"gorpcore":   {"shell", "outdoor", "gore-tex", "hiking", "technical"},
}

// DetectStyle scans the query for a known style synonym and returns the
// canonical style key with its boost terms. The query is normalized first,
// so callers may pass raw text. Returns ("", nil) when no synonym matches.
func DetectStyle(q string) (string, []string) {
	nq := Normalize(q)
	for _, syn := range styleSynonyms {
		if strings.Contains(nq, syn.pattern) {
			tags := styleTags[syn.key]
			out := make([]string, len(tags))
			copy(out, tags)
			return syn.key, out
		}
	}
	return "", nil
}

// StyleKeys returns the canonical style keys in synonym-table order,
// without duplicates.
func StyleKeys() []string {
	seen := make(map[string]struct{}, len(styleTags))
	keys := make([]string, 0, len(styleTags))
	for _, syn := range styleSynonyms {
		if _, ok := seen[syn.key]; ok {
			continue
		}
		seen[syn.key] = struct{}{}
		keys = append(keys, syn.key)
	}
	return keys
}
