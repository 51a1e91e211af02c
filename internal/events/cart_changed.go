package events

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/andreasstove999/ecommerce-system/services/shop-cart-go/internal/cart"
)

const cartChangedSchemaPrefix = "contracts/events/cart/"

type CartChangedPayload struct {
	CartID    int64     `json:"cartId"`
	UserID    string    `json:"userId"`
	ItemID    int64     `json:"itemId,omitempty"`
	ProductID int64     `json:"productId,omitempty"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type CartChangedEvent struct {
	EventEnvelope
	Payload CartChangedPayload `json:"payload"`
}

type EventMeta struct {
	CorrelationID string
	CausationID   string
	PartitionKey  string
}

func routingKeyFor(t cart.ChangeType) (string, error) {
	switch t {
	case cart.ChangeItemAdded:
		return CartItemAddedRoutingKey, nil
	case cart.ChangeItemUpdated:
		return CartItemUpdatedRoutingKey, nil
	case cart.ChangeItemRemoved:
		return CartItemRemovedRoutingKey, nil
	case cart.ChangeCleared:
		return CartClearedRoutingKey, nil
	default:
		return "", fmt.Errorf("unknown cart change %q", t)
	}
}

func cartPartitionKey(cartID int64) string {
	return "cart-" + strconv.FormatInt(cartID, 10)
}

func newCartChangedEvent(ev cart.ChangeEvent, meta EventMeta, seq int64, producer string, occurredAt time.Time) CartChangedEvent {
	name := string(ev.Type)
	return CartChangedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     name,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: meta.CorrelationID,
			CausationID:   meta.CausationID,
			Producer:      producer,
			PartitionKey:  meta.PartitionKey,
			Sequence:      seq,
			OccurredAt:    occurredAt,
			Schema:        cartChangedSchemaPrefix + name + ".v1.json",
		},
		Payload: CartChangedPayload{
			CartID:    ev.CartID,
			UserID:    ev.UserID,
			ItemID:    ev.ItemID,
			ProductID: ev.ProductID,
			Quantity:  ev.Quantity,
			Timestamp: occurredAt,
		},
	}
}
