package middleware

import (
	"net"
	"net/http"

	"github.com/dangerclosesec/studygroups/internal/audit"
)

// ClientIP stores the caller's address on the request context for the audit trail.
// Mount it after chi's RealIP so proxied addresses are honored.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClientIP(r.Context(), clientHost(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
