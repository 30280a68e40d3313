package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
)

type confirmResponse struct {
	Order order.Order    `json:"order"`
	State checkout.State `json:"state"`
}

func (h *Handler) wizard(w http.ResponseWriter, r *http.Request, begin bool) (*checkout.Wizard, bool) {
	sid := logging.SessionID(r.Context())
	var (
		wz  *checkout.Wizard
		err error
	)
	if begin {
		wz, err = h.checkout.Begin(r.Context(), sid)
	} else {
		wz, err = h.checkout.Current(r.Context(), sid)
	}
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return wz, true
}

func (h *Handler) writeState(w http.ResponseWriter, r *http.Request, wz *checkout.Wizard) {
	st, err := wz.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (h *Handler) CheckoutState(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	h.writeState(w, r, wz)
}

func (h *Handler) BeginCheckout(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, true)
	if !ok {
		return
	}
	h.writeState(w, r, wz)
}

func (h *Handler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	var req order.Shipping
	if !decodeJSON(w, r, &req) {
		return
	}
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	if err := wz.UpdateShipping(req); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, wz)
}

type paymentMethodRequest struct {
	PaymentMethod string `json:"paymentMethod"`
}

func (h *Handler) SetPaymentMethod(w http.ResponseWriter, r *http.Request) {
	var req paymentMethodRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, err := order.ParsePaymentMethod(req.PaymentMethod)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:         err.Error(),
			Fields:        map[string]string{"paymentMethod": "choose a payment method"},
			CorrelationID: logging.CorrelationID(r.Context()),
		})
		return
	}
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	if err := wz.SetPaymentMethod(m); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, wz)
}

func (h *Handler) NextStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	if _, err := wz.Advance(r.Context(), logging.UserID(r.Context())); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, wz)
}

func (h *Handler) PreviousStep(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	if _, err := wz.Back(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, wz)
}

func (h *Handler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	o, err := wz.Confirm(r.Context(), logging.UserID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	st, err := wz.State(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, confirmResponse{Order: o, State: st})
}

func (h *Handler) CancelCheckout(w http.ResponseWriter, r *http.Request) {
	wz, ok := h.wizard(w, r, false)
	if !ok {
		return
	}
	if err := wz.Cancel(); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeState(w, r, wz)
}
