package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	amqp "github.com/rabbitmq/amqp091-go"
)

type Publisher struct {
	conn     *amqp.Connection
	ch       Channel
	producer string
	now      func() time.Time
}

// NewPublisher publishes on an already opened channel.
func NewPublisher(ch Channel, producer string) *Publisher {
	if producer == "" {
		producer = storefrontProducer
	}
	return &Publisher{ch: ch, producer: producer, now: time.Now}
}

// Dial connects to RabbitMQ, opens a channel and declares the events
// exchange.
func Dial(url, producer string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareEventsExchange(ch); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare events exchange: %w", err)
	}
	p := NewPublisher(ch, producer)
	p.conn = conn
	return p, nil
}

func (p *Publisher) Close() error {
	err := p.ch.Close()
	if p.conn != nil {
		if cerr := p.conn.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

func (p *Publisher) PublishOrderPlaced(ctx context.Context, o order.Order) error {
	cid := logging.CorrelationID(ctx)
	if cid == "" {
		cid = o.ID
	}
	occurredAt := o.CreatedAt
	if occurredAt.IsZero() {
		occurredAt = p.now().UTC()
	}

	env := newOrderPlacedEvent(cid, p.producer, orderPlacedPayload(o), occurredAt)
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal OrderPlaced envelope: %w", err)
	}
	return p.publishJSON(ctx, OrderPlacedRoutingKey, env.EventID, body)
}

func (p *Publisher) publishJSON(ctx context.Context, routingKey, messageID string, body []byte) error {
	pubCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	return p.ch.PublishWithContext(
		pubCtx,
		EventsExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    messageID,
			Timestamp:    p.now().UTC(),
			Body:         body,
		},
	)
}
