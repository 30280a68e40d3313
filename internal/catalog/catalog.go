package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("product not found")

//go:embed seed/products.json
var seedJSON []byte

// Catalog is an immutable snapshot of the products on sale.
type Catalog struct {
	products []Product
	byID     map[string]int
}

// New builds a catalog from products. Ids must be unique within the snapshot.
func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %q", p.ID)
		}
		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}
	return c, nil
}

// Load decodes a JSON array of products, normalising prices on the way in.
// A product whose price cannot be normalised fails the whole load.
func Load(r io.Reader) (*Catalog, error) {
	var raw []seedProduct
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	products := make([]Product, 0, len(raw))
	for _, sp := range raw {
		p, err := sp.toProduct()
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return New(products)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(seedJSON))
}

func (c *Catalog) Len() int { return len(c.products) }

// Products returns a copy of the snapshot in catalog order.
func (c *Catalog) Products() []Product {
	return append([]Product(nil), c.products...)
}

func (c *Catalog) Get(id string) (Product, error) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return c.products[i], nil
}

type CategorySummary struct {
	Name          string               `json:"name"`
	Slug          string               `json:"slug"`
	Count         int                  `json:"count"`
	SubCategories []SubCategorySummary `json:"subCategories,omitempty"`
}

type SubCategorySummary struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Categories lists categories and their sub-categories in first-seen order.
func (c *Catalog) Categories() []CategorySummary {
	var out []CategorySummary
	index := map[string]int{}
	for _, p := range c.products {
		i, ok := index[p.Category]
		if !ok {
			i = len(out)
			index[p.Category] = i
			out = append(out, CategorySummary{Name: p.Category, Slug: Slug(p.Category)})
		}
		out[i].Count++
		if p.SubCategory == "" {
			continue
		}
		found := false
		for j := range out[i].SubCategories {
			if out[i].SubCategories[j].Name == p.SubCategory {
				out[i].SubCategories[j].Count++
				found = true
				break
			}
		}
		if !found {
			out[i].SubCategories = append(out[i].SubCategories, SubCategorySummary{Name: p.SubCategory, Count: 1})
		}
	}
	return out
}

// Benefits returns the distinct benefit tags, sorted.
func (c *Catalog) Benefits() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range c.products {
		for _, b := range p.Benefits {
			key := strings.ToLower(b)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, b)
		}
	}
	sort.Strings(out)
	return out
}

type PriceRange struct {
	Min decimal.Decimal `json:"min"`
	Max decimal.Decimal `json:"max"`
}

func (c *Catalog) PriceRange() PriceRange {
	if len(c.products) == 0 {
		return PriceRange{Min: decimal.Zero, Max: decimal.Zero}
	}
	r := PriceRange{Min: c.products[0].Price, Max: c.products[0].Price}
	for _, p := range c.products[1:] {
		r.Min = decimal.Min(r.Min, p.Price)
		r.Max = decimal.Max(r.Max, p.Price)
	}
	return r
}

// Slug lower-cases s and collapses every run of non-alphanumeric characters
// into a single dash, so "Herbs & Spices" becomes "herbs-spices".
func Slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
