package domain

// FilterSpec holds the optional facet constraints of a catalog search.
// Nil / empty fields impose no constraint; present fields are ANDed.
// The spec is engine-agnostic: each catalog engine renders it into its
// native filter syntax.
type FilterSpec struct {
	Gender   string
	Category string
	Brand    string
	Color    string
	PriceMin *float64
	PriceMax *float64
}

// IsEmpty reports whether the spec imposes no constraint at all.
func (f FilterSpec) IsEmpty() bool {
	return f.Gender == "" && f.Category == "" && f.Brand == "" && f.Color == "" &&
		f.PriceMin == nil && f.PriceMax == nil
}

// EqualityClauses returns the present equality constraints as ordered
// (field, value) pairs. The order is fixed so rendered expressions are
// reproducible.
func (f FilterSpec) EqualityClauses() [][2]string {
	var clauses [][2]string
	if f.Gender != "" {
		clauses = append(clauses, [2]string{"gender", f.Gender})
	}
	if f.Category != "" {
		clauses = append(clauses, [2]string{"category", f.Category})
	}
	if f.Brand != "" {
		clauses = append(clauses, [2]string{"brand", f.Brand})
	}
	if f.Color != "" {
		clauses = append(clauses, [2]string{"color", f.Color})
	}
	return clauses
}
