package cart

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBPool matches the *pgxpool.Pool method the store uses.
// This allows us to mock the database in tests.
type DBPool interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type PostgresStore struct {
	pool DBPool
}

func NewPostgresStore(pool DBPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(ctx, &postgresTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type postgresTx struct {
	tx pgx.Tx
}

// GetOrCreateCart inserts the cart if missing, then locks it. The unique
// user_id constraint makes concurrent first calls converge on one row.
func (t *postgresTx) GetOrCreateCart(ctx context.Context, userID string) (Cart, error) {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO carts (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING
	`, userID)
	if err != nil {
		return Cart{}, fmt.Errorf("insert cart: %w", err)
	}

	c, err := t.lockCart(ctx, userID)
	if errors.Is(err, ErrCartNotFound) {
		return Cart{}, fmt.Errorf("cart for %q vanished after insert: %w", userID, err)
	}
	return c, err
}

func (t *postgresTx) FindCart(ctx context.Context, userID string) (Cart, error) {
	return t.lockCart(ctx, userID)
}

func (t *postgresTx) lockCart(ctx context.Context, userID string) (Cart, error) {
	var c Cart
	err := t.tx.QueryRow(ctx, `
		SELECT id, user_id, created_at
		FROM carts
		WHERE user_id = $1
		FOR UPDATE
	`, userID).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrCartNotFound
		}
		return Cart{}, fmt.Errorf("select cart: %w", err)
	}
	return c, nil
}

func (t *postgresTx) FindItem(ctx context.Context, cartID, productID int64) (Item, error) {
	return t.scanItem(t.tx.QueryRow(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`, cartID, productID))
}

func (t *postgresTx) FindItemByIDAndCart(ctx context.Context, itemID, cartID int64) (Item, error) {
	return t.scanItem(t.tx.QueryRow(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items
		WHERE id = $1 AND cart_id = $2
	`, itemID, cartID))
}

func (t *postgresTx) scanItem(row pgx.Row) (Item, error) {
	var it Item
	if err := row.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemNotFound
		}
		return Item{}, fmt.Errorf("select cart item: %w", err)
	}
	return it, nil
}

func (t *postgresTx) ListItems(ctx context.Context, cartID int64) ([]Item, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, cart_id, product_id, quantity
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY id
	`, cartID)
	if err != nil {
		return nil, fmt.Errorf("list cart items: %w", err)
	}
	defer rows.Close()

	items := make([]Item, 0)
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.Quantity); err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart items: %w", err)
	}
	return items, nil
}

// CreateItem returns ErrItemExists when the (cart, product) pair is already
// taken. ON CONFLICT keeps the transaction usable for a follow-up increment.
func (t *postgresTx) CreateItem(ctx context.Context, cartID, productID int64, quantity int) (Item, error) {
	it := Item{CartID: cartID, ProductID: productID, Quantity: quantity}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO cart_items (cart_id, product_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (cart_id, product_id) DO NOTHING
		RETURNING id
	`, cartID, productID, quantity).Scan(&it.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, ErrItemExists
		}
		return Item{}, fmt.Errorf("insert cart item: %w", mapConstraintError(err))
	}
	return it, nil
}

func (t *postgresTx) UpdateItem(ctx context.Context, item Item) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE cart_items
		SET quantity = $2
		WHERE id = $1
	`, item.ID, item.Quantity)
	if err != nil {
		return fmt.Errorf("update cart item: %w", mapConstraintError(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *postgresTx) DeleteItem(ctx context.Context, itemID int64) error {
	tag, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrItemNotFound
	}
	return nil
}

func (t *postgresTx) DeleteAllItems(ctx context.Context, cartID int64) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}

const pgCheckViolation = "23514"

// mapConstraintError turns the quantity CHECK constraint into the service's error kind.
func mapConstraintError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgCheckViolation {
		return errQuantityOutOfRange
	}
	return err
}
