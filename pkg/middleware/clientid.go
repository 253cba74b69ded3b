package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/utafrali/storefront/pkg/logger"
)

// ClientIDHeader identifies the browser-side client whose cart, wishlist and
// session flag a request acts on.
const ClientIDHeader = "X-Client-ID"

// ClientID resolves the client id from the X-Client-ID header. A missing or
// malformed id is replaced by a fresh UUID. The resolved id is echoed in the
// response header so the client can persist it.
func ClientID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ClientIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(ClientIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithClientID(r.Context(), id)))
	})
}

// ClientIDFromRequest returns the id stored by ClientID, or "".
func ClientIDFromRequest(r *http.Request) string {
	return logger.ClientIDFromContext(r.Context())
}
