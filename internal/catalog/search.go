package catalog

import (
	"strconv"
	"strings"

	"golang.org/x/text/cases"
)

// Search filters products by a free-text term. A blank term returns products
// unchanged. Otherwise a product matches when its name or category contains
// the term ignoring case, or when its decimal id contains the trimmed term.
func Search(products []Product, term string) []Product {
	term = strings.TrimSpace(term)
	if term == "" {
		return products
	}

	fold := cases.Fold()
	needle := fold.String(term)

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if matches(p, term, needle, fold) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p Product, term, needle string, fold cases.Caser) bool {
	if p.Name != "" && strings.Contains(fold.String(p.Name), needle) {
		return true
	}
	if p.Category != "" && strings.Contains(fold.String(p.Category), needle) {
		return true
	}
	return p.ID > 0 && strings.Contains(strconv.Itoa(p.ID), term)
}
