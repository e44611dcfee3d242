package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/hollis/causeconnect/internal/auth"
	"github.com/hollis/causeconnect/internal/authz"
)

type contextKey string

const identityKey contextKey = "identity"

// Auth resolves the session token into an explicit Identity and stores
// it in the request context. Handlers and the permission gate receive
// the identity as a value; nothing consults ambient session state.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var token string

			// 1. Authorization header (API clients)
			authHeader := r.Header.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				token = strings.TrimPrefix(authHeader, "Bearer ")
			}

			// 2. Cookie (browser clients)
			if token == "" {
				if cookie, err := r.Cookie("token"); err == nil && cookie.Value != "" {
					token = cookie.Value
				}
			}

			if token == "" {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
				return
			}

			identity := &authz.Identity{
				UserID:  claims.UserID,
				Email:   claims.Email,
				IsAdmin: claims.IsAdmin,
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetIdentity returns the caller resolved by Auth, or nil when the
// request carries no valid session.
func GetIdentity(ctx context.Context) *authz.Identity {
	if id, ok := ctx.Value(identityKey).(*authz.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity injects an identity directly; test helper for handlers
// exercised without the full middleware stack.
func WithIdentity(ctx context.Context, identity *authz.Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}

// RequireAdmin gates admin-only routes.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentity(r.Context())
		if identity == nil {
			http.Error(w, "Not authenticated", http.StatusUnauthorized)
			return
		}
		if !identity.IsAdmin {
			http.Error(w, "Permission denied", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission enforces the entity permission matrix for a route
// group, deriving the action from the HTTP verb.
func RequirePermission(gate *authz.Gate, entityType string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			action, ok := authz.ActionForMethod(r.Method)
			if !ok {
				http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
				return
			}

			identity := GetIdentity(r.Context())
			err := gate.Require(r.Context(), identity, entityType, action)
			switch {
			case err == nil:
				next.ServeHTTP(w, r)
			case err == authz.ErrNotAuthenticated:
				http.Error(w, "Not authenticated", http.StatusUnauthorized)
			case err == authz.ErrPermissionDenied:
				http.Error(w, "Permission denied", http.StatusForbidden)
			default:
				http.Error(w, "Internal server error", http.StatusInternalServerError)
			}
		})
	}
}
