package domain

import "github.com/shopspring/decimal"

// Product is a catalog entry; Category matches a Category value case-insensitively.
type Product struct {
	ID       int64
	Category string
	Name     string
	Price    decimal.Decimal
}
