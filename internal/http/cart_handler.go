package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type cartResponse struct {
	Items []cart.LineItem `json:"items"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

func cartView(s *cart.Store) cartResponse {
	items := s.Items()
	if items == nil {
		items = []cart.LineItem{}
	}
	return cartResponse{Items: items, Total: cart.Total(items), Count: cart.Count(items)}
}

func (h *Handler) sessionCart(w http.ResponseWriter, r *http.Request) (*cart.Store, bool) {
	s, err := h.carts.Get(r.Context(), logging.SessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, cartView(s))
}

type addItemRequest struct {
	ProductID string `json:"productId"`
}

// AddCartItem adds one unit of a catalog product. Out of stock products are
// refused here; the cart itself does no stock checks.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ProductID == "" {
		middleware.WriteError(w, r, http.StatusBadRequest, "productId is required")
		return
	}
	p, err := h.catalog.Get(req.ProductID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !p.InStock {
		middleware.WriteError(w, r, http.StatusConflict, "product is out of stock")
		return
	}

	s, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	if err := s.AddItem(r.Context(), p); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s))
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

func (h *Handler) SetCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity == nil {
		middleware.WriteError(w, r, http.StatusBadRequest, "quantity is required")
		return
	}

	s, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	if err := s.SetQuantity(r.Context(), chi.URLParam(r, "productId"), *req.Quantity); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s))
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	if err := s.RemoveItem(r.Context(), chi.URLParam(r, "productId")); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s))
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	s, ok := h.sessionCart(w, r)
	if !ok {
		return
	}
	if err := s.Clear(r.Context()); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cartView(s))
}
