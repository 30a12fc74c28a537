package models

import "strings"

// ProductFilter narrows the catalog listing. The zero value matches everything.
type ProductFilter struct {
	CategoryID *int64
	Query      string
}

// Matches reports whether p belongs to the category (when set) and contains
// the query, case-insensitively, in its name or description (when set).
func (f ProductFilter) Matches(p Product) bool {
	if f.CategoryID != nil {
		if p.CategoryID == nil || *p.CategoryID != *f.CategoryID {
			return false
		}
	}

	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q)
}

// FilterProducts keeps the products f matches, preserving order.
func FilterProducts(products []Product, f ProductFilter) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if f.Matches(p) {
			out = append(out, p)
		}
	}
	return out
}
