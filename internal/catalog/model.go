package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultRating is used when ordering products that carry no rating.
const DefaultRating = 4.0

type Product struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Category      string           `json:"category"`
	SubCategory   string           `json:"subCategory"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Description   string           `json:"description"`
	Benefits      []string         `json:"benefits"`
	Rating        *float64         `json:"rating,omitempty"`
	Reviews       int              `json:"reviews"`
	InStock       bool             `json:"inStock"`
	Image         string           `json:"image"`
	AddedAt       time.Time        `json:"addedAt"`
}

func (p Product) rating() float64 {
	if p.Rating == nil {
		return DefaultRating
	}
	return *p.Rating
}

// OnSale reports whether the product is discounted against its original price.
func (p Product) OnSale() bool {
	return p.OriginalPrice != nil && p.OriginalPrice.GreaterThan(p.Price)
}

// seedProduct is the wire shape of the embedded catalog, where prices are
// display strings or numbers.
type seedProduct struct {
	ID            json.RawMessage `json:"id"`
	Name          string          `json:"name"`
	Category      string          `json:"category"`
	SubCategory   string          `json:"subCategory"`
	Price         json.RawMessage `json:"price"`
	OriginalPrice json.RawMessage `json:"originalPrice,omitempty"`
	Description   string          `json:"description"`
	Benefits      []string        `json:"benefits"`
	Rating        *float64        `json:"rating,omitempty"`
	Reviews       int             `json:"reviews"`
	InStock       *bool           `json:"inStock,omitempty"`
	Image         string          `json:"image"`
	AddedAt       time.Time       `json:"addedAt"`
}

func (sp seedProduct) toProduct() (Product, error) {
	id, err := decodeID(sp.ID)
	if err != nil {
		return Product{}, err
	}

	price, err := DecodePrice(sp.Price)
	if err != nil {
		return Product{}, fmt.Errorf("product %s: %w", id, err)
	}

	p := Product{
		ID:          id,
		Name:        sp.Name,
		Category:    sp.Category,
		SubCategory: sp.SubCategory,
		Price:       price,
		Description: sp.Description,
		Benefits:    append([]string(nil), sp.Benefits...),
		Rating:      sp.Rating,
		Reviews:     sp.Reviews,
		InStock:     true,
		Image:       sp.Image,
		AddedAt:     sp.AddedAt,
	}
	if sp.InStock != nil {
		p.InStock = *sp.InStock
	}
	if len(sp.OriginalPrice) > 0 && string(sp.OriginalPrice) != "null" {
		orig, err := DecodePrice(sp.OriginalPrice)
		if err != nil {
			return Product{}, fmt.Errorf("product %s original price: %w", id, err)
		}
		p.OriginalPrice = &orig
	}
	if p.Rating != nil && (*p.Rating < 0 || *p.Rating > 5) {
		return Product{}, fmt.Errorf("product %s: rating %.1f out of range", id, *p.Rating)
	}
	return p, nil
}

// decodeID accepts both string and numeric ids.
func decodeID(raw json.RawMessage) (string, error) {
	if len(raw) == 0 {
		return "", fmt.Errorf("product without id")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "" {
			return "", fmt.Errorf("product without id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("product id %s: %w", raw, err)
	}
	return n.String(), nil
}
