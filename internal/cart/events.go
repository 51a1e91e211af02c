package cart

import "context"

type ChangeType string

const (
	ChangeItemAdded   ChangeType = "CartItemAdded"
	ChangeItemUpdated ChangeType = "CartItemUpdated"
	ChangeItemRemoved ChangeType = "CartItemRemoved"
	ChangeCleared     ChangeType = "CartCleared"
)

// ChangeEvent describes one committed cart mutation. Item fields are zero for ChangeCleared.
type ChangeEvent struct {
	Type      ChangeType
	CartID    int64
	UserID    string
	ItemID    int64
	ProductID int64
	Quantity  int
}

type EventPublisher interface {
	PublishCartChanged(ctx context.Context, ev ChangeEvent) error
}

// NopPublisher drops events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishCartChanged(context.Context, ChangeEvent) error { return nil }
