package chi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kaurinho-svg/waura-backend/internal/domain"
)

// queryInt parses an optional integer query parameter, returning def when
// the parameter is absent.
func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

// filterSpecFromQuery maps facet query parameters onto a FilterSpec.
// price_min and price_max must be numeric when present.
func filterSpecFromQuery(r *http.Request) (domain.FilterSpec, error) {
	q := r.URL.Query()
	spec := domain.FilterSpec{
		Gender:   q.Get("gender"),
		Category: q.Get("category"),
		Brand:    q.Get("brand"),
		Color:    q.Get("color"),
	}

	if raw := q.Get("price_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.FilterSpec{}, errors.New("price_min must be a number")
		}
		spec.PriceMin = &v
	}
	if raw := q.Get("price_max"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.FilterSpec{}, errors.New("price_max must be a number")
		}
		spec.PriceMax = &v
	}
	return spec, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func itoa(v int) string { return strconv.Itoa(v) }
