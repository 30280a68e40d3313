package httpapi

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/go-chi/chi/v5"
)

type productPage struct {
	catalog.Page
	Criteria catalog.Criteria `json:"criteria"`
	Facets   catalog.Facets   `json:"facets"`
}

func criteriaFromQuery(q url.Values) (catalog.Criteria, error) {
	sortKey, err := catalog.ParseSortKey(q.Get("sort"))
	if err != nil {
		return catalog.Criteria{}, err
	}
	bracket, err := catalog.ParseBracket(q.Get("price"))
	if err != nil {
		return catalog.Criteria{}, err
	}
	c := catalog.Criteria{
		Category:    q.Get("category"),
		SubCategory: q.Get("subCategory"),
		Benefit:     q.Get("benefit"),
		Search:      q.Get("search"),
		Price:       bracket,
		Sort:        sortKey,
		Page:        1,
		PageSize:    catalog.DefaultPageSize,
	}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return catalog.Criteria{}, err
		}
		c.Page = n
	}
	return c, nil
}

// clientSession reports the session id when the client sent one. Ids the
// Session middleware issued for this request alone are not worth storing
// state under.
func clientSession(r *http.Request) (string, bool) {
	sid := logging.SessionID(r.Context())
	return sid, sid != "" && strings.TrimSpace(r.Header.Get(middleware.HeaderSessionID)) == sid
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	c, err := criteriaFromQuery(r.URL.Query())
	if err != nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid filter: "+err.Error())
		return
	}

	ctx := r.Context()
	sid, remembered := clientSession(r)
	if remembered {
		prev, ok, err := h.preferences.LastCriteria(ctx, sid)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if ok {
			c = prev.Change(c)
		}
	}

	matched := catalog.Apply(h.catalog.Products(), c)
	page := catalog.Paginate(matched, c.Page, c.PageSize)
	c.Page = page.Page

	if remembered {
		if err := h.preferences.SetLastCriteria(ctx, sid, c); err != nil {
			h.log.WarnContext(ctx, "save catalog view", "error", err)
		}
	}

	writeJSON(w, http.StatusOK, productPage{
		Page:     page,
		Criteria: c,
		Facets:   catalog.CountFacets(matched),
	})
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.catalog.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type filtersResponse struct {
	Categories []catalog.CategorySummary `json:"categories"`
	Benefits   []string                  `json:"benefits"`
	Brackets   []catalog.Bracket         `json:"priceBrackets"`
	SortKeys   []catalog.SortKey         `json:"sortKeys"`
	PriceRange catalog.PriceRange        `json:"priceRange"`
	PageSize   int                       `json:"pageSize"`
}

func (h *Handler) Filters(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, filtersResponse{
		Categories: h.catalog.Categories(),
		Benefits:   h.catalog.Benefits(),
		Brackets:   catalog.Brackets,
		SortKeys:   catalog.SortKeys,
		PriceRange: h.catalog.PriceRange(),
		PageSize:   catalog.DefaultPageSize,
	})
}
