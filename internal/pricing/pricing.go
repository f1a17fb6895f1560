// Package pricing computes order totals from the live product catalog.
package pricing

import (
	"strings"

	"github.com/flobe99/svb-chicken.backend/internal/domain"
	"github.com/shopspring/decimal"
)

// Catalog maps a category to its current unit price.
type Catalog map[domain.Category]decimal.Decimal

// CatalogFromProducts keys products by their lower-cased category label.
// When several products share a label the last one wins.
func CatalogFromProducts(products []domain.Product) Catalog {
	c := make(Catalog, len(products))
	for _, p := range products {
		c[domain.Category(strings.ToLower(strings.TrimSpace(p.Category)))] = p.Price
	}
	return c
}

// Price is the unrounded sum of quantity times unit price. Categories missing
// from the catalog are priced at zero.
func Price(q domain.Quantities, catalog Catalog) decimal.Decimal {
	total := decimal.Zero
	for _, c := range domain.Categories {
		unit, ok := catalog[c]
		if !ok {
			continue
		}
		total = total.Add(unit.Mul(decimal.NewFromInt(int64(q.Of(c)))))
	}
	return total
}

// Display rounds a stored price for presentation.
func Display(price decimal.Decimal) decimal.Decimal {
	return price.Round(2)
}
