package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/shopspring/decimal"
)

type PaymentRequest struct {
	OrderID string
	Method  order.PaymentMethod
	Amount  decimal.Decimal
	Phone   string
}

type Receipt struct {
	Reference   string
	ConfirmedAt time.Time
}

type PaymentProcessor interface {
	Process(ctx context.Context, req PaymentRequest) (Receipt, error)
}

// SimulatedProcessor confirms every payment after Delay. It stops early
// only when ctx is done.
type SimulatedProcessor struct {
	Delay time.Duration
	Now   func() time.Time
}

func (p SimulatedProcessor) Process(ctx context.Context, req PaymentRequest) (Receipt, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return Receipt{}, ctx.Err()
		case <-timer.C:
		}
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	prefix := "COD"
	if req.Method == order.PaymentMobileMoney {
		prefix = "MM"
	}
	ref := strings.ToUpper(strings.ReplaceAll(req.OrderID, "-", ""))
	if len(ref) > 10 {
		ref = ref[:10]
	}
	return Receipt{Reference: fmt.Sprintf("%s-%s", prefix, ref), ConfirmedAt: now().UTC()}, nil
}
