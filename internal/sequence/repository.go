// Package sequence numbers cart change events. Each cart is its own
// partition ("cart-<id>"), so consumers can order and de-duplicate the
// events of one cart without a global counter.
package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var errEmptyPartition = errors.New("partition key is required")

// Store is the subset of *pgxpool.Pool the counter needs.
type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository hands out event sequence numbers from the event_sequence table.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

const nextSequenceSQL = `
	INSERT INTO event_sequence (partition_key, last_sequence)
	VALUES ($1, 1)
	ON CONFLICT (partition_key)
	DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = now()
	RETURNING last_sequence
`

// NextSequence returns the next number for a cart partition, starting at 1.
// The upsert is atomic, so concurrent publishers for one cart never share a number.
func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, errEmptyPartition
	}

	var seq int64
	if err := r.store.QueryRow(ctx, nextSequenceSQL, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", partitionKey, err)
	}
	return seq, nil
}
