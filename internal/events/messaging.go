package events

import (
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange = "ecommerce.events"

	CartItemAddedRoutingKey   = "cart.item.added.v1"
	CartItemUpdatedRoutingKey = "cart.item.updated.v1"
	CartItemRemovedRoutingKey = "cart.item.removed.v1"
	CartClearedRoutingKey     = "cart.cleared.v1"

	producerName = "shop-cart"
)

func declareEventsExchange(ch *amqp.Channel) error {
	return ch.ExchangeDeclare(
		EventsExchange,
		"topic",
		true,
		false,
		false,
		false,
		nil,
	)
}
