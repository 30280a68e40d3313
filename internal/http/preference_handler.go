package httpapi

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/preference"
)

type themeBody struct {
	Theme string `json:"theme"`
}

func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	t, err := h.preferences.Theme(r.Context(), logging.SessionID(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(t)})
}

func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req themeBody
	if !decodeJSON(w, r, &req) {
		return
	}
	t, err := preference.ParseTheme(req.Theme)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.preferences.SetTheme(r.Context(), logging.SessionID(r.Context()), t); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, themeBody{Theme: string(t)})
}
