package order

import (
	"context"
	"testing"
	"time"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func sampleOrder(id, owner string, at time.Time) Order {
	items := []cart.LineItem{{ProductID: "bs1", Name: "Black Seed Oil", Price: decimal.NewFromInt(1299), Quantity: 2}}
	return Order{
		ID:            id,
		Owner:         owner,
		Items:         items,
		Shipping:      Shipping{Name: "Amina", Email: "amina@example.com", Phone: "0712345678", Address: "Moi Ave 1", County: "Nairobi", Town: "Nairobi"},
		PaymentMethod: PaymentMobileMoney,
		Total:         cart.Total(items),
		Status:        StatusConfirmed,
		CreatedAt:     at,
	}
}

func TestKVHistory_AppendAndList(t *testing.T) {
	ctx := context.Background()
	h := NewKVHistory(storage.NewMemory(), nil)
	t0 := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, h.Append(ctx, sampleOrder("o1", "s1", t0)))
	require.NoError(t, h.Append(ctx, sampleOrder("o2", "s1", t0.Add(time.Hour))))
	require.NoError(t, h.Append(ctx, sampleOrder("o3", "s2", t0.Add(2*time.Hour))))

	mine, err := h.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	require.Equal(t, "o2", mine[0].ID)
	require.Equal(t, "2598", mine[0].Total.String())

	all, err := h.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, "o3", all[0].ID)

	got, err := h.Get(ctx, "s2", "o3")
	require.NoError(t, err)
	require.Equal(t, "Amina", got.Shipping.Name)

	_, err = h.Get(ctx, "s1", "o3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestKVHistory_RejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	h := NewKVHistory(storage.NewMemory(), nil)
	o := sampleOrder("o1", "s1", time.Now())

	require.NoError(t, h.Append(ctx, o))
	require.ErrorIs(t, h.Append(ctx, o), ErrDuplicate)

	all, err := h.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestKVHistory_CorruptListReadsEmpty(t *testing.T) {
	ctx := context.Background()
	port := storage.NewMemory()
	require.NoError(t, port.Set(ctx, "orders:s1", []byte(`not-a-list`)))
	h := NewKVHistory(port, nil)

	orders, err := h.List(ctx, "s1")
	require.NoError(t, err)
	require.Empty(t, orders)

	require.NoError(t, h.Append(ctx, sampleOrder("o1", "s1", time.Now())))
	orders, err = h.List(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod(" Mobile-Money ")
	require.NoError(t, err)
	require.Equal(t, PaymentMobileMoney, m)

	m, err = ParsePaymentMethod("cash-on-delivery")
	require.NoError(t, err)
	require.Equal(t, PaymentCashOnDelivery, m)

	_, err = ParsePaymentMethod("card")
	require.Error(t, err)
}
