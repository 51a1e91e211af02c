package cart

import "context"

// Store opens units of work against cart persistence.
type Store interface {
	// WithinTx runs fn in one transaction. fn's error rolls everything back.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Tx is the set of cart operations available inside a unit of work.
// Cart lookups lock the cart row until the unit of work ends.
type Tx interface {
	GetOrCreateCart(ctx context.Context, userID string) (Cart, error)
	FindCart(ctx context.Context, userID string) (Cart, error)

	FindItem(ctx context.Context, cartID, productID int64) (Item, error)
	FindItemByIDAndCart(ctx context.Context, itemID, cartID int64) (Item, error)
	ListItems(ctx context.Context, cartID int64) ([]Item, error)

	CreateItem(ctx context.Context, cartID, productID int64, quantity int) (Item, error)
	UpdateItem(ctx context.Context, item Item) error
	DeleteItem(ctx context.Context, itemID int64) error
	DeleteAllItems(ctx context.Context, cartID int64) error
}
