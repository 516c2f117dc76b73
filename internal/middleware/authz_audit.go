package middleware

import (
	"net/http"

	"github.com/dangerclosesec/agiletrack/internal/audit"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// AuthzAuditMiddleware records the request id, client address and user agent
// so authorization decisions made further down can be audited with them.
// It must run after chi's RequestID and RealIP middleware.
func AuthzAuditMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithRequestInfo(r.Context(), audit.RequestInfo{
			RequestID: chimw.GetReqID(r.Context()),
			ClientIP:  r.RemoteAddr,
			UserAgent: r.UserAgent(),
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
