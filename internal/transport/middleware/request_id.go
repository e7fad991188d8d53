package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/trekkr-app/trekkr-backend/pkg/ctxutil"
)

// RequestIDHeader is the header carrying the request correlation ID.
const RequestIDHeader = "X-Request-Id"

// RequestID returns middleware that reuses an incoming X-Request-Id header or
// generates a fresh UUID, and echoes it back on the response.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = uuid.New().String()
			}
			ctx := ctxutil.WithRequestID(r.Context(), id)
			w.Header().Set(RequestIDHeader, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
