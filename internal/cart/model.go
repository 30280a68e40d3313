package cart

import (
	"encoding/json"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/shopspring/decimal"
)

// LineItem is a denormalised copy of a product plus a quantity.
type LineItem struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
}

func FromProduct(p catalog.Product) LineItem {
	return LineItem{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     p.Image,
		Quantity:  1,
	}
}

func (li LineItem) Subtotal() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// UnmarshalJSON accepts prices written as numbers or display strings. A
// price that cannot be read decodes as zero so one bad line never poisons a
// stored cart.
func (li *LineItem) UnmarshalJSON(b []byte) error {
	var raw struct {
		ProductID json.RawMessage `json:"productId"`
		Name      string          `json:"name"`
		Price     json.RawMessage `json:"price"`
		Image     string          `json:"image"`
		Quantity  int             `json:"quantity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var id string
	if len(raw.ProductID) > 0 && json.Unmarshal(raw.ProductID, &id) != nil {
		var n json.Number
		if err := json.Unmarshal(raw.ProductID, &n); err != nil {
			return err
		}
		id = n.String()
	}

	*li = LineItem{
		ProductID: id,
		Name:      raw.Name,
		Price:     decimal.Zero,
		Image:     raw.Image,
		Quantity:  raw.Quantity,
	}
	if p, err := catalog.DecodePrice(raw.Price); err == nil {
		li.Price = p
	}
	return nil
}

// Total sums price x quantity over items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count sums quantities over items.
func Count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}
