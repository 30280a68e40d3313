package middleware

import (
	"net/http"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/google/uuid"
)

const HeaderCorrelationID = "X-Correlation-Id"

func CorrelationID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cid := r.Header.Get(HeaderCorrelationID)
		if cid == "" {
			cid = uuid.NewString()
		}

		w.Header().Set(HeaderCorrelationID, cid)
		next.ServeHTTP(w, r.WithContext(logging.WithCorrelationID(r.Context(), cid)))
	})
}
