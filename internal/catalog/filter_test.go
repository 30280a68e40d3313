package catalog

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func ratingPtr(v float64) *float64 { return &v }

func fixture() []Product {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []Product{
		{ID: "p3", Name: "Rosemary", Category: "Herbs & Spices", SubCategory: "Whole Herbs", Price: decimal.NewFromInt(300), Benefits: []string{"Memory Support"}, Rating: ratingPtr(4.5), Reviews: 10, AddedAt: day(3)},
		{ID: "p1", Name: "ashwagandha", Category: "Supplements", SubCategory: "Capsules", Price: decimal.NewFromInt(2400), Benefits: []string{"Stress Relief"}, Reviews: 50, AddedAt: day(1)},
		{ID: "p2", Name: "Chamomile", Category: "Teas & Infusions", SubCategory: "Herbal Teas", Price: decimal.NewFromInt(500), Benefits: []string{"Sleep Support", "Stress Relief"}, Rating: ratingPtr(4.9), Reviews: 50, AddedAt: day(5)},
		{ID: "p4", Name: "Black Seed Oil", Category: "Essential Oils", Price: decimal.NewFromInt(1299), Description: "Cold pressed", Benefits: []string{"Immune Support"}, Rating: ratingPtr(3.5), Reviews: 5, AddedAt: day(2)},
	}
}

func ids(ps []Product) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func TestApply_Filters(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"no criteria", Criteria{}, []string{"p1", "p2", "p3", "p4"}},
		{"category by name", Criteria{Category: "herbs & spices"}, []string{"p3"}},
		{"category by slug", Criteria{Category: "teas-infusions"}, []string{"p2"}},
		{"category all", Criteria{Category: "All"}, []string{"p1", "p2", "p3", "p4"}},
		{"sub-category", Criteria{SubCategory: "capsules"}, []string{"p1"}},
		{"sub-category all label", Criteria{Category: "Supplements", SubCategory: "All Supplements"}, []string{"p1"}},
		{"benefit substring", Criteria{Benefit: "stress"}, []string{"p1", "p2"}},
		{"search name", Criteria{Search: "SEED"}, []string{"p4"}},
		{"search description", Criteria{Search: "cold"}, []string{"p4"}},
		{"search benefit", Criteria{Search: "sleep"}, []string{"p2"}},
		{"bracket is closed-open", Criteria{Price: mustBracket(t, "500-1000")}, []string{"p2"}},
		{"under 500 excludes 500", Criteria{Price: mustBracket(t, "under-500")}, []string{"p3"}},
		{"unbounded", Criteria{Price: mustBracket(t, "over-5000")}, []string{}},
		{"combined", Criteria{Benefit: "stress", Price: mustBracket(t, "2000-5000")}, []string{"p1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, ids(Apply(fixture(), tt.criteria)))
		})
	}
}

func mustBracket(t *testing.T, s string) Bracket {
	t.Helper()
	b, err := ParseBracket(s)
	require.NoError(t, err)
	return b
}

func TestApply_ContradictoryCriteriaYieldEmpty(t *testing.T) {
	got := Apply(fixture(), Criteria{
		Category:    "Supplements",
		SubCategory: "Capsules",
		Benefit:     "stress",
		Search:      "ashwagandha",
		Price:       mustBracket(t, "3000-1000"),
	})
	require.Empty(t, got)
}

func TestApply_ClearingFilterRestoresSet(t *testing.T) {
	all := fixture()
	narrowed := Apply(all, Criteria{Category: "Supplements"})
	require.Len(t, narrowed, 1)

	restored := Apply(all, Criteria{})
	require.ElementsMatch(t, ids(all), ids(restored))
}

func TestApply_DoesNotModifyInput(t *testing.T) {
	all := fixture()
	before := ids(all)
	Apply(all, Criteria{Sort: SortPriceDesc})
	require.Equal(t, before, ids(all))
}

func TestApply_Sort(t *testing.T) {
	tests := []struct {
		key  SortKey
		want []string
	}{
		{SortDefault, []string{"p1", "p2", "p3", "p4"}},
		{SortPriceAsc, []string{"p3", "p2", "p4", "p1"}},
		{SortPriceDesc, []string{"p1", "p4", "p2", "p3"}},
		// p1 has no rating and sorts as 4.0.
		{SortRating, []string{"p2", "p3", "p1", "p4"}},
		{SortPopularity, []string{"p1", "p2", "p3", "p4"}},
		{SortNewest, []string{"p2", "p3", "p4", "p1"}},
		{SortName, []string{"p1", "p4", "p2", "p3"}},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			require.Equal(t, tt.want, ids(Apply(fixture(), Criteria{Sort: tt.key})))
		})
	}
}

func TestParseSortKey(t *testing.T) {
	k, err := ParseSortKey("")
	require.NoError(t, err)
	require.Equal(t, SortDefault, k)

	k, err = ParseSortKey("Price-Desc")
	require.NoError(t, err)
	require.Equal(t, SortPriceDesc, k)

	_, err = ParseSortKey("random")
	require.Error(t, err)
}

func TestParseBracket(t *testing.T) {
	b, err := ParseBracket("")
	require.NoError(t, err)
	require.True(t, b.IsAll())

	b, err = ParseBracket("1,000-2,500")
	require.NoError(t, err)
	require.True(t, b.Contains(decimal.NewFromInt(1000)))
	require.False(t, b.Contains(decimal.NewFromInt(2500)))

	b, err = ParseBracket("750-")
	require.NoError(t, err)
	require.True(t, b.Unbounded)
	require.True(t, b.Contains(decimal.NewFromInt(100000)))

	_, err = ParseBracket("cheap")
	require.Error(t, err)
	_, err = ParseBracket("a-b")
	require.Error(t, err)
}

func TestPaginate(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	all := Apply(c.Products(), Criteria{})

	tests := []struct {
		name     string
		page     int
		wantPage int
		wantLen  int
	}{
		{"first", 1, 1, 9},
		{"zero clamps to first", 0, 1, 9},
		{"negative clamps to first", -4, 1, 9},
		{"last is partial", 3, 3, 3},
		{"beyond last clamps", 99, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(all, tt.page, DefaultPageSize)
			require.Equal(t, tt.wantPage, p.Page)
			require.Len(t, p.Items, tt.wantLen)
			require.Equal(t, 3, p.TotalPages)
			require.Equal(t, 21, p.TotalItems)
		})
	}
}

func TestPaginate_Empty(t *testing.T) {
	p := Paginate(nil, 5, 0)
	require.Equal(t, 1, p.Page)
	require.Equal(t, 0, p.TotalPages)
	require.Equal(t, DefaultPageSize, p.PageSize)
	require.Empty(t, p.Items)
}

func TestQuery(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	p := c.Query(Criteria{Benefit: "immune", Sort: SortPriceAsc, Page: 1})
	require.Equal(t, 6, p.TotalItems)
	require.Equal(t, "hs3", p.Items[0].ID)
	require.Equal(t, "sp4", p.Items[len(p.Items)-1].ID)
}

func TestCriteriaChange(t *testing.T) {
	cur := Criteria{Category: "Supplements", Page: 3}

	next := cur
	next.Page = 2
	require.Equal(t, 2, cur.Change(next).Page)

	next = cur
	next.Search = "moringa"
	require.Equal(t, 1, cur.Change(next).Page)

	next = cur
	next.Sort = SortName
	require.Equal(t, 1, cur.Change(next).Page)

	next = cur
	next.Price = mustBracket(t, "under-500")
	require.Equal(t, 1, cur.Change(next).Page)
}

func TestCountFacets(t *testing.T) {
	ps := fixture()
	ps[0].InStock = true
	was := decimal.NewFromInt(1599)
	ps[3].OriginalPrice = &was
	same := ps[2].Price
	ps[2].OriginalPrice = &same
	f := CountFacets(ps)
	require.Equal(t, 1, f.Categories["Supplements"])
	require.Equal(t, 2, f.Benefits["Stress Relief"])
	require.Equal(t, 1, f.InStock)
	require.Equal(t, 3, f.OutOfStock)
	require.Equal(t, 1, f.OnSale)
}
