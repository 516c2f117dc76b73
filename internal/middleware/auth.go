// internal/middleware/auth.go
package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dangerclosesec/agiletrack/internal/auth"
	"github.com/google/uuid"
)

type contextKey string

const claimsKey contextKey = "agiletrack_claims"

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID uuid.UUID
	Email  string
	Name   string
}

// AuthMiddleware validates the bearer JWT and stores the caller in the
// request context. Missing or invalid tokens get 401.
func AuthMiddleware(tokenManager *auth.TokenManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondWithError(w, http.StatusUnauthorized, "No authorization header")
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
				respondWithError(w, http.StatusUnauthorized, "Invalid authorization header")
				return
			}

			claims, err := tokenManager.Validate(token)
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			userID, err := claims.UserUUID()
			if err != nil {
				respondWithError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := WithCaller(r.Context(), Caller{UserID: userID, Email: claims.Email, Name: claims.Name})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithCaller stores c in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// CallerFrom returns the caller stored by AuthMiddleware.
func CallerFrom(ctx context.Context) (Caller, bool) {
	c, ok := ctx.Value(claimsKey).(Caller)
	return c, ok
}

// respondWithError sends a JSON error response
func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]any{"ok": false, "error": message})
}

// respondWithJSON sends a JSON response
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}
