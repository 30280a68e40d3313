package middleware

import (
	"net/http"
	"strings"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/logging"
	"github.com/google/uuid"
)

const (
	HeaderSessionID = "X-Session-Id"
	HeaderUserID    = "X-User-Id"
)

const maxSessionIDLen = 128

// Session identifies the browser session from X-Session-Id, issuing a new id
// when the header is missing or unusable. The id is echoed on the response.
func Session(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sid := strings.TrimSpace(r.Header.Get(HeaderSessionID))
		if !validSessionID(sid) {
			sid = uuid.NewString()
		}
		w.Header().Set(HeaderSessionID, sid)
		next.ServeHTTP(w, r.WithContext(logging.WithSessionID(r.Context(), sid)))
	})
}

// validSessionID keeps ids safe to embed in storage keys.
func validSessionID(sid string) bool {
	if sid == "" || len(sid) > maxSessionIDLen {
		return false
	}
	for _, r := range sid {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return false
		}
	}
	return true
}

// UserID stores the authenticated user from X-User-Id in the context. A
// missing header leaves the request anonymous.
func UserID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if uid := strings.TrimSpace(r.Header.Get(HeaderUserID)); uid != "" {
			r = r.WithContext(logging.WithUserID(r.Context(), uid))
		}
		next.ServeHTTP(w, r)
	})
}
