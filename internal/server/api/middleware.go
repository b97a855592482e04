package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/unilocator/server/internal/server/services"
)

type contextKey string

const identityKey contextKey = "identity"

// AuthMiddleware resolves the bearer credential through the identity
// service and stashes the resolved identity on the request context. How
// the credential was produced (session JWT, Firebase ID token) is the
// identity service's business; handlers only see the user id.
func AuthMiddleware(identity *services.IdentityService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				respondErrorJSON(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondErrorJSON(w, http.StatusUnauthorized, "invalid authorization header format")
				return
			}

			ident, err := identity.Resolve(r.Context(), parts[1])
			if err != nil {
				respondErrorJSON(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, ident)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the resolved caller identity, or nil outside the
// auth middleware.
func GetIdentity(r *http.Request) *services.Identity {
	ident, ok := r.Context().Value(identityKey).(*services.Identity)
	if !ok {
		return nil
	}
	return ident
}

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
