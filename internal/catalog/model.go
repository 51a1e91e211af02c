package catalog

import "github.com/shopspring/decimal"

// Product is the read-only snapshot of a catalog product as carts see it.
type Product struct {
	ID          int64
	Name        string
	Slug        string
	Category    string
	Subcategory string
	Price       decimal.Decimal
	Images      Images
}

// Images holds resolved image URLs. Empty means the product has no image of that size.
type Images struct {
	Small  string
	Medium string
	Large  string
}
