package cart

import (
	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/catalog"
)

// Money renders as a JSON string with two decimal places.
type Money struct {
	decimal.Decimal
}

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.StringFixed(2) + `"`), nil
}

type CartView struct {
	ID         int64          `json:"id"`
	User       string         `json:"user"`
	Items      []CartItemView `json:"items"`
	TotalItems int            `json:"total_items_cart"`
	TotalPrice Money          `json:"total_price_cart"`
}

type CartItemView struct {
	ID         int64       `json:"id"`
	Product    ProductView `json:"product"`
	Quantity   int         `json:"quantity"`
	TotalPrice Money       `json:"total_price"`
}

type ProductView struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Category    string     `json:"category"`
	Subcategory string     `json:"subcategory"`
	Price       Money      `json:"price"`
	Images      ImagesView `json:"images"`
}

// ImagesView holds image URLs; a missing size is null.
type ImagesView struct {
	Small  *string `json:"small"`
	Medium *string `json:"medium"`
	Large  *string `json:"large"`
}

func newProductView(p catalog.Product) ProductView {
	return ProductView{
		ID:          p.ID,
		Name:        p.Name,
		Slug:        p.Slug,
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Price:       Money{p.Price},
		Images: ImagesView{
			Small:  optional(p.Images.Small),
			Medium: optional(p.Images.Medium),
			Large:  optional(p.Images.Large),
		},
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// lineTotal prices the item at the product's current price.
func lineTotal(p catalog.Product, quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

func newItemView(it Item, p catalog.Product) CartItemView {
	return CartItemView{
		ID:         it.ID,
		Product:    newProductView(p),
		Quantity:   it.Quantity,
		TotalPrice: Money{lineTotal(p, it.Quantity)},
	}
}

// newCartView derives totals from the items. Items whose product no longer
// exists are left out; the database cascades their deletion.
func newCartView(c Cart, items []Item, products map[int64]catalog.Product) CartView {
	v := CartView{
		ID:    c.ID,
		User:  c.UserID,
		Items: make([]CartItemView, 0, len(items)),
	}
	total := decimal.Zero
	for _, it := range items {
		p, ok := products[it.ProductID]
		if !ok {
			continue
		}
		v.Items = append(v.Items, newItemView(it, p))
		v.TotalItems += it.Quantity
		total = total.Add(lineTotal(p, it.Quantity))
	}
	v.TotalPrice = Money{total}
	return v
}

func productIDs(items []Item) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	return ids
}
