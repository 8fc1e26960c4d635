// Package filter removes unsafe or unusable items from provider image pages.
package filter

import (
	"regexp"
	"strings"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
	"github.com/kaurinho-svg/waura-backend/internal/metrics"
)

// Drop-stage labels reported to metrics.
const (
	stageMissing = "missing_fields"
	stageDomain  = "banned_domain"
	stagePattern = "bad_url_pattern"
	stageKeyword = "banned_keyword"
	stageSize    = "undersized"
	stageDupe    = "duplicate"
)

// DefaultBannedDomains are hosts whose results are never clothing-shop
// content (social feeds, search engines, encyclopedias).
var DefaultBannedDomains = []string{
	"pinterest.com", "pinimg.com",
	"tiktok.com", "instagram.com", "facebook.com", "vk.com",
	"wikipedia.org", "yandex.ru", "google.com", "youtube.com",
	"reddit.com",
}

// DefaultBannedKeywords block non-apparel results in either language the
// service is queried in.
var DefaultBannedKeywords = []string{
	"пистолет", "оружие", "ружье", "автомат", "винтовка",
	"gun", "pistol", "rifle", "firearm", "weapon",
	"плуг", "трактор", "станок", "механизм",
	"plow", "tractor", "machine", "equipment",
	"logo", "icon", "vector", "drawing", "illustration",
	"иконка", "логотип", "вектор", "рисунок", "иллюстрация",
}

// defaultBadURLPatterns match icon, sprite, vector and inline-data image
// URLs that are never product photos.
var defaultBadURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`logo`),
	regexp.MustCompile(`icon`),
	regexp.MustCompile(`favicon`),
	regexp.MustCompile(`sprite`),
	regexp.MustCompile(`\.svg`),
	regexp.MustCompile(`^data:image`),
}

// Policy is the content-filter configuration. The zero value filters
// nothing except items with no image URL; Default() returns the policy
// applied to every image endpoint.
type Policy struct {
	BannedDomains  []string
	BannedKeywords []string
	URLPatterns    []*regexp.Regexp
	MinWidth       int
	MinHeight      int
}

// Default returns the uniform image-filtering policy.
func Default() Policy {
	return Policy{
		BannedDomains:  DefaultBannedDomains,
		BannedKeywords: DefaultBannedKeywords,
		URLPatterns:    defaultBadURLPatterns,
		MinWidth:       250,
		MinHeight:      250,
	}
}

// Apply runs the filter pipeline over items in order:
// missing fields, banned domains, banned URL patterns, banned keywords,
// minimum pixel size, dedupe by normalized image URL. Order of surviving
// items is preserved. The seen set carries deduplication state across pages;
// pass nil to dedupe within a single call.
func (p Policy) Apply(items []domain.ImageResult, seen map[string]struct{}) []domain.ImageResult {
	if seen == nil {
		seen = make(map[string]struct{}, len(items))
	}
	kept := make([]domain.ImageResult, 0, len(items))
	for _, it := range items {
		if stage, ok := p.accept(it); !ok {
			metrics.FilterDroppedTotal.WithLabelValues(stage).Inc()
			continue
		}
		key := domain.NormalizeImageURL(it.ImageURL)
		if _, dup := seen[key]; dup {
			metrics.FilterDroppedTotal.WithLabelValues(stageDupe).Inc()
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, it)
	}
	return kept
}

// accept applies every per-item stage; it returns the name of the stage
// that rejected the item, or ok=true.
func (p Policy) accept(it domain.ImageResult) (string, bool) {
	if strings.TrimSpace(it.ImageURL) == "" {
		return stageMissing, false
	}
	if p.domainBanned(it.Site) || p.domainBanned(it.PageURL) {
		return stageDomain, false
	}
	imgLower := strings.ToLower(it.ImageURL)
	for _, re := range p.URLPatterns {
		if re.MatchString(imgLower) {
			return stagePattern, false
		}
	}
	// Keyword match in any field blocks the item (OR across fields).
	haystack := strings.ToLower(it.Title + " " + it.Site + " " + it.PageURL + " " + it.ImageURL)
	for _, kw := range p.BannedKeywords {
		if kw != "" && strings.Contains(haystack, strings.ToLower(kw)) {
			return stageKeyword, false
		}
	}
	// Unknown dimensions (zero) are not filtered on size.
	if it.Width > 0 && it.Height > 0 {
		if (p.MinWidth > 0 && it.Width < p.MinWidth) || (p.MinHeight > 0 && it.Height < p.MinHeight) {
			return stageSize, false
		}
	}
	return "", true
}

// SiteAllowed reports whether a host or URL passes the domain blocklist.
// Web-mode results have no image URL, so they use this check alone.
func (p Policy) SiteAllowed(s string) bool {
	return !p.domainBanned(s)
}

// domainBanned reports whether the host of s (a hostname or URL) equals a
// banned domain or is one of its subdomains.
func (p Policy) domainBanned(s string) bool {
	host := hostOf(s)
	if host == "" {
		return false
	}
	for _, b := range p.BannedDomains {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if host == b || strings.HasSuffix(host, "."+b) {
			return true
		}
	}
	return false
}

// hostOf extracts a lowercased hostname from a URL or bare host string.
func hostOf(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.IndexAny(s, "/?#"); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '@'); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexByte(s, ':'); i >= 0 {
		s = s[:i]
	}
	return s
}
