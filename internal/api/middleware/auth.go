// internal/api/middleware/auth.go
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"tochcoin-wallet/internal/api/auth"
	"tochcoin-wallet/internal/api/respond"
	"tochcoin-wallet/internal/util"
)

type contextKey string

const (
	userIDKey contextKey = "user_id"
	roleKey   contextKey = "user_role"
)

// Authenticate requires a valid bearer token and stores its subject and role in the
// request context.
func Authenticate(verifier *auth.Verifier, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
			if len(parts) != 2 || !strings.EqualFold(strings.TrimSpace(parts[0]), "Bearer") || strings.TrimSpace(parts[1]) == "" {
				respond.Error(w, logger, util.ErrUnauthorized)
				return
			}

			claims, err := verifier.Verify(strings.TrimSpace(parts[1]))
			if err != nil {
				logger.Debug("rejected bearer token", "error", err)
				respond.Error(w, logger, util.ErrUnauthorized)
				return
			}

			ctx := WithIdentity(r.Context(), claims.Subject, claims.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects callers whose token does not carry role.
func RequireRole(role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if RoleFrom(r.Context()) != role {
				respond.Error(w, logger, util.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithIdentity stores the caller identity in ctx.
func WithIdentity(ctx context.Context, userID, role string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// UserIDFrom returns the authenticated user id, or "" outside an authenticated route.
func UserIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func RoleFrom(ctx context.Context) string {
	role, _ := ctx.Value(roleKey).(string)
	return role
}
