package events

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	EventsExchange        = "ecommerce.events"
	OrderPlacedRoutingKey = "storefront.order.placed.v1"
	storefrontProducer    = "storefront-go"
)

// Channel is the subset of *amqp.Channel the publisher uses.
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

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
