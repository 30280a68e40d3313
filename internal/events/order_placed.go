package events

import (
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeOrderPlaced = "OrderPlaced"
	orderPlacedSchema    = "contracts/events/storefront/OrderPlaced.v1.payload.schema.json"
)

type OrderPlacedItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

type OrderPlacedPayload struct {
	OrderID       string            `json:"orderId"`
	SessionID     string            `json:"sessionId"`
	UserID        string            `json:"userId,omitempty"`
	Items         []OrderPlacedItem `json:"items"`
	Total         decimal.Decimal   `json:"total"`
	PaymentMethod string            `json:"paymentMethod"`
	Reference     string            `json:"reference,omitempty"`
	County        string            `json:"county"`
	Town          string            `json:"town"`
	PlacedAt      time.Time         `json:"placedAt"`
}

// OrderPlacedEvent is the envelope with a typed payload.
type OrderPlacedEvent struct {
	EventEnvelope
	Payload OrderPlacedPayload `json:"payload"`
}

func orderPlacedPayload(o order.Order) OrderPlacedPayload {
	p := OrderPlacedPayload{
		OrderID:       o.ID,
		SessionID:     o.Owner,
		UserID:        o.UserID,
		Items:         make([]OrderPlacedItem, 0, len(o.Items)),
		Total:         o.Total,
		PaymentMethod: string(o.PaymentMethod),
		Reference:     o.Reference,
		County:        o.Shipping.County,
		Town:          o.Shipping.Town,
		PlacedAt:      o.CreatedAt,
	}
	for _, it := range o.Items {
		p.Items = append(p.Items, OrderPlacedItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	return p
}

// Each order is its own partition, so the sequence is always 1.
func newOrderPlacedEvent(correlationID, producer string, payload OrderPlacedPayload, occurredAt time.Time) OrderPlacedEvent {
	return OrderPlacedEvent{
		EventEnvelope: EventEnvelope{
			EventName:     EventTypeOrderPlaced,
			EventVersion:  1,
			EventID:       uuid.NewString(),
			CorrelationID: correlationID,
			Producer:      producer,
			PartitionKey:  payload.OrderID,
			Sequence:      1,
			OccurredAt:    occurredAt,
			Schema:        orderPlacedSchema,
		},
		Payload: payload,
	}
}
