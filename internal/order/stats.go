package order

import (
	"sort"

	"github.com/shopspring/decimal"
)

type ProductSales struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Stats backs the admin dashboard cards.
type Stats struct {
	Orders            int                   `json:"orders"`
	Customers         int                   `json:"customers"`
	Revenue           decimal.Decimal       `json:"revenue"`
	AverageOrderValue decimal.Decimal       `json:"averageOrderValue"`
	ItemsSold         int                   `json:"itemsSold"`
	ByPaymentMethod   map[PaymentMethod]int `json:"byPaymentMethod"`
	TopProducts       []ProductSales        `json:"topProducts"`
}

// Summarize aggregates orders. TopProducts holds at most top entries ranked
// by quantity sold, then revenue, then product id.
func Summarize(orders []Order, top int) Stats {
	s := Stats{
		Revenue:           decimal.Zero,
		AverageOrderValue: decimal.Zero,
		ByPaymentMethod:   map[PaymentMethod]int{},
		TopProducts:       []ProductSales{},
	}
	owners := map[string]bool{}
	sales := map[string]*ProductSales{}

	for _, o := range orders {
		s.Orders++
		s.Revenue = s.Revenue.Add(o.Total)
		s.ByPaymentMethod[o.PaymentMethod]++
		owner := o.UserID
		if owner == "" {
			owner = o.Owner
		}
		owners[owner] = true
		s.ItemsSold += o.ItemCount()

		for _, it := range o.Items {
			ps, ok := sales[it.ProductID]
			if !ok {
				ps = &ProductSales{ProductID: it.ProductID, Name: it.Name, Revenue: decimal.Zero}
				sales[it.ProductID] = ps
			}
			ps.Quantity += it.Quantity
			ps.Revenue = ps.Revenue.Add(it.Subtotal())
		}
	}
	s.Customers = len(owners)
	if s.Orders > 0 {
		s.AverageOrderValue = s.Revenue.Div(decimal.NewFromInt(int64(s.Orders))).Round(2)
	}

	for _, ps := range sales {
		s.TopProducts = append(s.TopProducts, *ps)
	}
	sort.Slice(s.TopProducts, func(i, j int) bool {
		a, b := s.TopProducts[i], s.TopProducts[j]
		if a.Quantity != b.Quantity {
			return a.Quantity > b.Quantity
		}
		if !a.Revenue.Equal(b.Revenue) {
			return a.Revenue.GreaterThan(b.Revenue)
		}
		return a.ProductID < b.ProductID
	})
	if top >= 0 && len(s.TopProducts) > top {
		s.TopProducts = s.TopProducts[:top]
	}
	return s
}
