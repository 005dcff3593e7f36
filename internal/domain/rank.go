package domain

import (
	"cmp"
	"slices"
)

// RankQuotes returns a copy of quotes ordered by ascending price.
// Quotes with the same price keep their relative input order, so ranking the
// same insertion-ordered collection always yields the same sequence.
func RankQuotes(quotes []Quote) []Quote {
	ranked := slices.Clone(quotes)
	if ranked == nil {
		ranked = []Quote{}
	}
	slices.SortStableFunc(ranked, func(a, b Quote) int {
		return cmp.Compare(a.Price.Amount, b.Price.Amount)
	})
	return ranked
}
