package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultPageSize is the number of products shown per catalog page.
const DefaultPageSize = 9

type SortKey string

const (
	SortDefault    SortKey = "default"
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	SortNewest     SortKey = "newest"
	SortPriceAsc   SortKey = "price-asc"
	SortPriceDesc  SortKey = "price-desc"
	SortName       SortKey = "name"
)

var SortKeys = []SortKey{SortDefault, SortPopularity, SortRating, SortNewest, SortPriceAsc, SortPriceDesc, SortName}

func ParseSortKey(s string) (SortKey, error) {
	if s == "" {
		return SortDefault, nil
	}
	for _, k := range SortKeys {
		if strings.EqualFold(s, string(k)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// Bracket is a closed-open price range [Min, Max). An unbounded bracket has
// no upper limit. The zero Bracket matches every price.
type Bracket struct {
	ID        string          `json:"id"`
	Label     string          `json:"label"`
	Min       decimal.Decimal `json:"min"`
	Max       decimal.Decimal `json:"max"`
	Unbounded bool            `json:"unbounded,omitempty"`
}

func (b Bracket) IsAll() bool {
	return b.ID == "" || b.ID == "all"
}

func (b Bracket) Contains(price decimal.Decimal) bool {
	if b.IsAll() {
		return true
	}
	if price.LessThan(b.Min) {
		return false
	}
	return b.Unbounded || price.LessThan(b.Max)
}

var Brackets = []Bracket{
	{ID: "all", Label: "All prices"},
	{ID: "under-500", Label: "Under KSh 500", Min: decimal.Zero, Max: decimal.NewFromInt(500)},
	{ID: "500-1000", Label: "KSh 500 - 1,000", Min: decimal.NewFromInt(500), Max: decimal.NewFromInt(1000)},
	{ID: "1000-2000", Label: "KSh 1,000 - 2,000", Min: decimal.NewFromInt(1000), Max: decimal.NewFromInt(2000)},
	{ID: "2000-5000", Label: "KSh 2,000 - 5,000", Min: decimal.NewFromInt(2000), Max: decimal.NewFromInt(5000)},
	{ID: "over-5000", Label: "Over KSh 5,000", Min: decimal.NewFromInt(5000), Unbounded: true},
}

// ParseBracket resolves a named bracket or a custom "min-max" range.
func ParseBracket(s string) (Bracket, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Brackets[0], nil
	}
	for _, b := range Brackets {
		if b.ID == s {
			return b, nil
		}
	}

	lo, hi, ok := strings.Cut(s, "-")
	if !ok {
		return Bracket{}, fmt.Errorf("unknown price bracket %q", s)
	}
	lower, err := decimal.NewFromString(strings.ReplaceAll(lo, ",", ""))
	if err != nil {
		return Bracket{}, fmt.Errorf("price bracket %q: %w", s, err)
	}
	b := Bracket{ID: s, Label: s, Min: lower}
	if hi == "" {
		b.Unbounded = true
		return b, nil
	}
	upper, err := decimal.NewFromString(strings.ReplaceAll(hi, ",", ""))
	if err != nil {
		return Bracket{}, fmt.Errorf("price bracket %q: %w", s, err)
	}
	b.Max = upper
	return b, nil
}

type Criteria struct {
	Category    string  `json:"category,omitempty"`
	SubCategory string  `json:"subCategory,omitempty"`
	Benefit     string  `json:"benefit,omitempty"`
	Search      string  `json:"search,omitempty"`
	Price       Bracket `json:"price"`
	Sort        SortKey `json:"sort"`
	Page        int     `json:"page"`
	PageSize    int     `json:"pageSize"`
}

func (c Criteria) sameFilters(o Criteria) bool {
	return c.Category == o.Category &&
		c.SubCategory == o.SubCategory &&
		c.Benefit == o.Benefit &&
		c.Search == o.Search &&
		c.Price.ID == o.Price.ID &&
		c.Price.Min.Equal(o.Price.Min) &&
		c.Price.Max.Equal(o.Price.Max) &&
		c.Price.Unbounded == o.Price.Unbounded &&
		c.Sort == o.Sort
}

// Change moves from c to next. When any filter or the sort key differs the
// page goes back to 1.
func (c Criteria) Change(next Criteria) Criteria {
	if !c.sameFilters(next) {
		next.Page = 1
	}
	return next
}

func isAll(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "all")
}

func matchCategory(p Product, category string) bool {
	if isAll(category) {
		return true
	}
	return strings.EqualFold(p.Category, category) || Slug(p.Category) == Slug(category)
}

func matchSubCategory(p Product, sub string) bool {
	if isAll(sub) || strings.HasPrefix(strings.ToLower(strings.TrimSpace(sub)), "all ") {
		return true
	}
	return strings.EqualFold(p.SubCategory, strings.TrimSpace(sub))
}

func matchBenefit(p Product, benefit string) bool {
	if isAll(benefit) {
		return true
	}
	needle := strings.ToLower(strings.TrimSpace(benefit))
	for _, b := range p.Benefits {
		if strings.Contains(strings.ToLower(b), needle) {
			return true
		}
	}
	return false
}

func matchSearch(p Product, term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	fields := []string{p.Name, p.Description, p.Category, p.SubCategory}
	fields = append(fields, p.Benefits...)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Apply narrows products by category, sub-category, benefit, search term and
// price bracket, then orders the result. The input slice is not modified.
func Apply(products []Product, c Criteria) []Product {
	out := make([]Product, 0, len(products))
	for _, p := range products {
		if !matchCategory(p, c.Category) ||
			!matchSubCategory(p, c.SubCategory) ||
			!matchBenefit(p, c.Benefit) ||
			!matchSearch(p, c.Search) ||
			!c.Price.Contains(p.Price) {
			continue
		}
		out = append(out, p)
	}
	sortProducts(out, c.Sort)
	return out
}

func sortProducts(ps []Product, key SortKey) {
	var less func(a, b Product) (bool, bool)
	switch key {
	case SortPriceAsc:
		less = func(a, b Product) (bool, bool) { return a.Price.LessThan(b.Price), a.Price.Equal(b.Price) }
	case SortPriceDesc:
		less = func(a, b Product) (bool, bool) { return a.Price.GreaterThan(b.Price), a.Price.Equal(b.Price) }
	case SortRating:
		less = func(a, b Product) (bool, bool) { return a.rating() > b.rating(), a.rating() == b.rating() }
	case SortPopularity:
		less = func(a, b Product) (bool, bool) { return a.Reviews > b.Reviews, a.Reviews == b.Reviews }
	case SortNewest:
		less = func(a, b Product) (bool, bool) { return a.AddedAt.After(b.AddedAt), a.AddedAt.Equal(b.AddedAt) }
	case SortName:
		less = func(a, b Product) (bool, bool) {
			an, bn := strings.ToLower(a.Name), strings.ToLower(b.Name)
			return an < bn, an == bn
		}
	default:
		less = func(a, b Product) (bool, bool) { return false, true }
	}

	sort.SliceStable(ps, func(i, j int) bool {
		lt, eq := less(ps[i], ps[j])
		if !eq {
			return lt
		}
		return ps[i].ID < ps[j].ID
	})
}

type Page struct {
	Items      []Product `json:"items"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalItems int       `json:"totalItems"`
	TotalPages int       `json:"totalPages"`
}

// Paginate returns one page of products. Out of range pages clamp to the
// nearest valid page; an empty result is page 1 of 0.
func Paginate(products []Product, page, pageSize int) Page {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	total := len(products)
	pages := (total + pageSize - 1) / pageSize

	if page > pages {
		page = pages
	}
	if page < 1 {
		page = 1
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	return Page{
		Items:      append([]Product{}, products[start:end]...),
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// Query filters, sorts and paginates the catalog.
func (c *Catalog) Query(criteria Criteria) Page {
	return Paginate(Apply(c.products, criteria), criteria.Page, criteria.PageSize)
}

type Facets struct {
	Categories map[string]int `json:"categories"`
	Benefits   map[string]int `json:"benefits"`
	InStock    int            `json:"inStock"`
	OutOfStock int            `json:"outOfStock"`
	OnSale     int            `json:"onSale"`
}

// CountFacets tallies the filter sidebar counts for a product set.
func CountFacets(products []Product) Facets {
	f := Facets{Categories: map[string]int{}, Benefits: map[string]int{}}
	for _, p := range products {
		f.Categories[p.Category]++
		for _, b := range p.Benefits {
			f.Benefits[b]++
		}
		if p.InStock {
			f.InStock++
		} else {
			f.OutOfStock++
		}
		if p.OnSale() {
			f.OnSale++
		}
	}
	return f
}
