// Package middleware provides reusable HTTP middleware for request IDs,
// Prometheus metrics, request timeouts, and per-client rate limiting.
package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/minerva-search/minerva/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns every request an id (honouring an incoming
// X-Request-ID header), echoes it in the response, and stores it in the
// request context for log correlation via logger.RequestID.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = newRequestID()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func newRequestID() string {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(buf[:])
}
