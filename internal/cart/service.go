package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/catalog"
)

// ProductLookup resolves catalog products at their current price.
type ProductLookup interface {
	Get(ctx context.Context, id int64) (catalog.Product, error)
	GetMany(ctx context.Context, ids []int64) (map[int64]catalog.Product, error)
}

// Service implements cart reads and mutations on top of a Store.
// Every operation runs in its own unit of work; the cart row lock taken
// inside it serializes concurrent mutations of one cart.
type Service struct {
	store     Store
	products  ProductLookup
	publisher EventPublisher
	logger    *slog.Logger
}

func NewService(store Store, products ProductLookup, publisher EventPublisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:     store,
		products:  products,
		publisher: publisher,
		logger:    logger,
	}
}

// GetCart returns the caller's cart, creating an empty one on first access.
func (s *Service) GetCart(ctx context.Context, userID string) (CartView, error) {
	if userID == "" {
		return CartView{}, errNoCaller
	}

	var (
		c     Cart
		items []Item
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if c, err = tx.GetOrCreateCart(ctx, userID); err != nil {
			return err
		}
		items, err = tx.ListItems(ctx, c.ID)
		return err
	})
	if err != nil {
		return CartView{}, fmt.Errorf("load cart: %w", err)
	}

	products, err := s.products.GetMany(ctx, productIDs(items))
	if err != nil {
		return CartView{}, fmt.Errorf("load cart products: %w", err)
	}
	return newCartView(c, items, products), nil
}

// AddToCart adds quantity to the caller's line for productID, creating the
// line if needed. created reports which of the two happened. An absent
// quantity counts as zero. The delta itself is not required to be positive;
// only the resulting quantity is bounds-checked. An unknown product fails
// before the cart is fetched or created.
func (s *Service) AddToCart(ctx context.Context, userID string, productID int64, quantity RawQuantity) (CartItemView, bool, error) {
	if userID == "" {
		return CartItemView{}, false, errNoCaller
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return CartItemView{}, false, errProductNotFound
		}
		return CartItemView{}, false, fmt.Errorf("lookup product: %w", err)
	}

	delta, _, err := quantity.parse()
	if err != nil {
		return CartItemView{}, false, err
	}

	var (
		item    Item
		created bool
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		c, err := tx.GetOrCreateCart(ctx, userID)
		if err != nil {
			return err
		}

		existing, err := tx.FindItem(ctx, c.ID, productID)
		switch {
		case err == nil:
			item, err = increment(ctx, tx, existing, delta)
			return err
		case !errors.Is(err, ErrItemNotFound):
			return err
		}

		if err := checkStoredQuantity(delta); err != nil {
			return err
		}
		item, err = tx.CreateItem(ctx, c.ID, productID, delta)
		if errors.Is(err, ErrItemExists) {
			// Lost a race with a writer that did not hold the cart lock.
			if existing, err = tx.FindItem(ctx, c.ID, productID); err != nil {
				return err
			}
			item, err = increment(ctx, tx, existing, delta)
			return err
		}
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		return CartItemView{}, false, wrapStoreErr("add to cart", err)
	}

	change := ChangeItemUpdated
	if created {
		change = ChangeItemAdded
	}
	s.publish(ctx, ChangeEvent{
		Type:      change,
		CartID:    item.CartID,
		UserID:    userID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	})

	return newItemView(item, product), created, nil
}

func increment(ctx context.Context, tx Tx, it Item, delta int) (Item, error) {
	next := it.Quantity + delta
	if err := checkStoredQuantity(next); err != nil {
		return Item{}, err
	}
	it.Quantity = next
	if err := tx.UpdateItem(ctx, it); err != nil {
		return Item{}, err
	}
	return it, nil
}

// UpdateItem replaces the quantity of one of the caller's items.
// Unlike AddToCart, the new quantity must be positive.
func (s *Service) UpdateItem(ctx context.Context, userID string, itemID int64, quantity RawQuantity) (CartItemView, error) {
	if userID == "" {
		return CartItemView{}, errNoCaller
	}

	var (
		item    Item
		product catalog.Product
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if item, err = findOwnedItem(ctx, tx, userID, itemID); err != nil {
			return err
		}

		n, present, err := quantity.parse()
		switch {
		case !present:
			return errQuantityRequired
		case err != nil:
			return err
		case n <= 0:
			return errQuantityNotPositive
		}
		if err := checkStoredQuantity(n); err != nil {
			return err
		}

		// Resolved before the write; a missing product leaves the item unchanged.
		if product, err = s.products.Get(ctx, item.ProductID); err != nil {
			if errors.Is(err, catalog.ErrNotFound) {
				return errItemNotFound
			}
			return fmt.Errorf("lookup product: %w", err)
		}

		item.Quantity = n
		return tx.UpdateItem(ctx, item)
	})
	if err != nil {
		return CartItemView{}, wrapStoreErr("update cart item", err)
	}

	s.publish(ctx, ChangeEvent{
		Type:      ChangeItemUpdated,
		CartID:    item.CartID,
		UserID:    userID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
		Quantity:  item.Quantity,
	})

	return newItemView(item, product), nil
}

// RemoveItem deletes one of the caller's items.
func (s *Service) RemoveItem(ctx context.Context, userID string, itemID int64) error {
	if userID == "" {
		return errNoCaller
	}

	var item Item
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if item, err = findOwnedItem(ctx, tx, userID, itemID); err != nil {
			return err
		}
		return tx.DeleteItem(ctx, item.ID)
	})
	if err != nil {
		return wrapStoreErr("remove cart item", err)
	}

	s.publish(ctx, ChangeEvent{
		Type:      ChangeItemRemoved,
		CartID:    item.CartID,
		UserID:    userID,
		ItemID:    item.ID,
		ProductID: item.ProductID,
	})
	return nil
}

// ClearCart deletes every item in the caller's cart and keeps the cart itself.
func (s *Service) ClearCart(ctx context.Context, userID string) error {
	if userID == "" {
		return errNoCaller
	}

	var c Cart
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		if c, err = tx.FindCart(ctx, userID); err != nil {
			return err
		}
		return tx.DeleteAllItems(ctx, c.ID)
	})
	if err != nil {
		return wrapStoreErr("clear cart", err)
	}

	s.publish(ctx, ChangeEvent{Type: ChangeCleared, CartID: c.ID, UserID: userID})
	return nil
}

// findOwnedItem resolves itemID only within userID's cart.
func findOwnedItem(ctx context.Context, tx Tx, userID string, itemID int64) (Item, error) {
	c, err := tx.FindCart(ctx, userID)
	if err != nil {
		return Item{}, err
	}
	return tx.FindItemByIDAndCart(ctx, itemID, c.ID)
}

// wrapStoreErr maps store sentinels to caller-facing errors and wraps the rest.
func wrapStoreErr(op string, err error) error {
	var svcErr *Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr
	case errors.Is(err, ErrCartNotFound):
		return errCartNotFound
	case errors.Is(err, ErrItemNotFound):
		return errItemNotFound
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// publish is best effort: the mutation is already committed.
func (s *Service) publish(ctx context.Context, ev ChangeEvent) {
	if err := s.publisher.PublishCartChanged(ctx, ev); err != nil {
		s.logger.WarnContext(ctx, "publish cart event failed",
			"event", string(ev.Type),
			"cart_id", ev.CartID,
			"error", err,
		)
	}
}
