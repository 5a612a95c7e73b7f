package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/MustakimRidoyMR/rewards-admin/internal/model"
	"github.com/MustakimRidoyMR/rewards-admin/internal/service"
)

type contextKeyAuth string

// AuthPrincipalKey is the context key for the authenticated admin principal.
const AuthPrincipalKey contextKeyAuth = "auth_principal"

// Authenticate validates the Bearer session token on each request and
// attaches the reconstructed AdminPrincipal to the context. Requests
// without a valid token get a 401 JSON error.
func Authenticate(tokens *service.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, http.StatusUnauthorized, "Authentication required. Provide a Bearer session token.")
				return
			}

			principal, err := tokens.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				writeAuthError(w, http.StatusUnauthorized, "Invalid or expired session token")
				return
			}

			ctx := context.WithValue(r.Context(), AuthPrincipalKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePermission enforces that the authenticated principal carries the
// given capability. Must be used after Authenticate in the chain.
func RequirePermission(capability string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := GetPrincipal(r.Context())
			if !p.HasPermission(capability) {
				writeAuthError(w, http.StatusForbidden, "Missing permission: "+capability)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetPrincipal extracts the authenticated principal from the context, or nil
// for an unauthenticated request.
func GetPrincipal(ctx context.Context) *model.AdminPrincipal {
	if p, ok := ctx.Value(AuthPrincipalKey).(*model.AdminPrincipal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.ErrorResponse{
		Error: model.ErrorDetail{Code: status, Message: message},
	})
}
