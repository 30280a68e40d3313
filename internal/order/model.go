package order

import (
	"fmt"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/shopspring/decimal"
)

type Status string

const StatusConfirmed Status = "confirmed"

type PaymentMethod string

const (
	PaymentCashOnDelivery PaymentMethod = "cash-on-delivery"
	PaymentMobileMoney    PaymentMethod = "mobile-money"
)

// DefaultPaymentMethod is preselected when a checkout starts.
const DefaultPaymentMethod = PaymentMobileMoney

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch PaymentMethod(strings.ToLower(strings.TrimSpace(s))) {
	case PaymentCashOnDelivery:
		return PaymentCashOnDelivery, nil
	case PaymentMobileMoney:
		return PaymentMobileMoney, nil
	}
	return "", fmt.Errorf("unknown payment method %q", s)
}

// Shipping is the delivery address captured at checkout. PostalCode and
// Notes are optional.
type Shipping struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Phone      string `json:"phone" validate:"required,phone"`
	Address    string `json:"address" validate:"required"`
	County     string `json:"county" validate:"required"`
	Town       string `json:"town" validate:"required"`
	PostalCode string `json:"postalCode,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Order is immutable once appended to a history.
type Order struct {
	ID            string          `json:"id"`
	Owner         string          `json:"owner"`
	UserID        string          `json:"userId,omitempty"`
	Items         []cart.LineItem `json:"items"`
	Shipping      Shipping        `json:"shipping"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Reference     string          `json:"reference,omitempty"`
	Total         decimal.Decimal `json:"total"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

func (o Order) ItemCount() int {
	return cart.Count(o.Items)
}
