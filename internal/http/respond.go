package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/checkout"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/middleware"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/newsletter"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/preference"
)

const maxRequestBody = 64 << 10

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		middleware.WriteError(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

type validationResponse struct {
	Error         string            `json:"error"`
	Fields        map[string]string `json:"fields"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

type loginResponse struct {
	Error         string `json:"error"`
	LoginURL      string `json:"loginUrl"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// writeError maps domain errors onto status codes. Anything unknown is a 500
// and gets logged.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ve *checkout.ValidationError
		lr *checkout.LoginRedirect
		be *newsletter.BackendError
	)
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Error:         "invalid shipping details",
			Fields:        ve.Fields,
			CorrelationID: logging.CorrelationID(r.Context()),
		})
	case errors.As(err, &lr):
		w.Header().Set("Location", lr.Location)
		writeJSON(w, http.StatusUnauthorized, loginResponse{
			Error:         "login required",
			LoginURL:      lr.Location,
			CorrelationID: logging.CorrelationID(r.Context()),
		})
	case errors.Is(err, catalog.ErrNotFound), errors.Is(err, order.ErrNotFound):
		middleware.WriteError(w, r, http.StatusNotFound, err.Error())
	case errors.Is(err, checkout.ErrInvalidTransition),
		errors.Is(err, checkout.ErrEmptyCart),
		errors.Is(err, checkout.ErrBusy):
		middleware.WriteError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, newsletter.ErrInvalidEmail),
		errors.Is(err, newsletter.ErrInvalidMessage),
		errors.Is(err, preference.ErrUnknownTheme):
		middleware.WriteError(w, r, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.log.WarnContext(r.Context(), "request timed out", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, r, http.StatusGatewayTimeout, "request timed out")
	case errors.As(err, &be):
		status := http.StatusBadGateway
		if be.Status == http.StatusNotFound {
			status = http.StatusNotFound
		}
		msg := be.Message
		if msg == "" {
			msg = "newsletter service unavailable"
		}
		h.log.WarnContext(r.Context(), "newsletter backend call failed", "op", be.Op, "status", be.Status, "error", err)
		middleware.WriteError(w, r, status, msg)
	default:
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, r, http.StatusInternalServerError, "internal error")
	}
}
