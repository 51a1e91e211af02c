package cart

import "time"

// Quantity bounds for a stored cart item.
const (
	MinQuantity = 0
	MaxQuantity = 1000
)

type Cart struct {
	ID        int64
	UserID    string
	CreatedAt time.Time
}

type Item struct {
	ID        int64
	CartID    int64
	ProductID int64
	Quantity  int
}
