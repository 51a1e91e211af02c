package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cartColumns = []string{"id", "user_id", "created_at"}
	itemColumns = []string{"id", "cart_id", "product_id", "quantity"}
)

func newMockStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresStore(mock), mock
}

func TestPostgresStore_GetOrCreateCart(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO carts`).
		WithArgs("user-1").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT id, user_id, created_at\s+FROM carts\s+WHERE user_id = \$1\s+FOR UPDATE`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows(cartColumns).AddRow(int64(7), "user-1", created))
	mock.ExpectCommit()

	var got Cart
	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		got, err = tx.GetOrCreateCart(ctx, "user-1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, Cart{ID: 7, UserID: "user-1", CreatedAt: created}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindCartMissing(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, user_id, created_at`).
		WithArgs("ghost").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		_, err := tx.FindCart(ctx, "ghost")
		return err
	})
	require.ErrorIs(t, err, ErrCartNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_FindItemByIDAndCart(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM cart_items\s+WHERE id = \$1 AND cart_id = \$2`).
			WithArgs(int64(11), int64(7)).
			WillReturnRows(pgxmock.NewRows(itemColumns).AddRow(int64(11), int64(7), int64(3), 2))
		mock.ExpectCommit()

		var got Item
		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			got, err = tx.FindItemByIDAndCart(ctx, 11, 7)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, Item{ID: 11, CartID: 7, ProductID: 3, Quantity: 2}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other cart", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`FROM cart_items\s+WHERE id = \$1 AND cart_id = \$2`).
			WithArgs(int64(11), int64(8)).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			_, err := tx.FindItemByIDAndCart(ctx, 11, 8)
			return err
		})
		require.ErrorIs(t, err, ErrItemNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_ListItems(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`FROM cart_items\s+WHERE cart_id = \$1\s+ORDER BY id`).
		WithArgs(int64(7)).
		WillReturnRows(pgxmock.NewRows(itemColumns).
			AddRow(int64(1), int64(7), int64(3), 2).
			AddRow(int64(2), int64(7), int64(4), 1))
	mock.ExpectCommit()

	var got []Item
	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		var err error
		got, err = tx.ListItems(ctx, 7)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []Item{
		{ID: 1, CartID: 7, ProductID: 3, Quantity: 2},
		{ID: 2, CartID: 7, ProductID: 4, Quantity: 1},
	}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateItem(t *testing.T) {
	ctx := context.Background()

	t.Run("inserted", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO cart_items`).
			WithArgs(int64(7), int64(3), 2).
			WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(21)))
		mock.ExpectCommit()

		var got Item
		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			var err error
			got, err = tx.CreateItem(ctx, 7, 3, 2)
			return err
		})
		require.NoError(t, err)
		assert.Equal(t, Item{ID: 21, CartID: 7, ProductID: 3, Quantity: 2}, got)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict reports existing item", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`ON CONFLICT \(cart_id, product_id\) DO NOTHING`).
			WithArgs(int64(7), int64(3), 2).
			WillReturnError(pgx.ErrNoRows)
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			_, err := tx.CreateItem(ctx, 7, 3, 2)
			return err
		})
		require.ErrorIs(t, err, ErrItemExists)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("check violation maps to invalid quantity", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO cart_items`).
			WithArgs(int64(7), int64(3), 5000).
			WillReturnError(&pgconn.PgError{Code: pgCheckViolation})
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			_, err := tx.CreateItem(ctx, 7, 3, 5000)
			return err
		})
		require.ErrorIs(t, err, ErrInvalidQuantity)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStore_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE cart_items`).
		WithArgs(int64(21), 5).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`DELETE FROM cart_items WHERE id = \$1`).
		WithArgs(int64(22)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(`DELETE FROM cart_items WHERE cart_id = \$1`).
		WithArgs(int64(7)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCommit()

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		if err := tx.UpdateItem(ctx, Item{ID: 21, Quantity: 5}); err != nil {
			return err
		}
		if err := tx.DeleteItem(ctx, 22); err != nil {
			return err
		}
		return tx.DeleteAllItems(ctx, 7)
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteMissingItem(t *testing.T) {
	ctx := context.Background()
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM cart_items WHERE id = \$1`).
		WithArgs(int64(99)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectRollback()

	err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
		return tx.DeleteItem(ctx, 99)
	})
	require.ErrorIs(t, err, ErrItemNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_WithinTxErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("begin", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin().WillReturnError(errors.New("pool exhausted"))

		called := false
		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error {
			called = true
			return nil
		})
		require.Error(t, err)
		assert.False(t, called)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("commit", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectCommit().WillReturnError(errors.New("serialization failure"))
		mock.ExpectRollback()

		err := store.WithinTx(ctx, func(ctx context.Context, tx Tx) error { return nil })
		require.ErrorContains(t, err, "commit tx")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
