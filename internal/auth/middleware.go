package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/dormitory-management/internal/transport"
)

// Middleware authenticates requests and gates them on permissions.
type Middleware struct {
	*transport.BaseHandler
	Tokens  TokenGenerator
	Checker PermissionChecker
	Logger  *slog.Logger
}

func NewMiddleware(tokens TokenGenerator, checker PermissionChecker, logger *slog.Logger) *Middleware {
	return &Middleware{
		BaseHandler: transport.NewBaseHandler(logger),
		Tokens:      tokens,
		Checker:     checker,
		Logger:      logger,
	}
}

// Authenticate validates the bearer token and places the User in context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := m.ExtractTokenFromHeader(r)
		if token == "" {
			m.Logger.Error("auth middleware: missing authorization token")
			m.WriteError(w, http.StatusUnauthorized, "missing authorization token")
			return
		}

		claims, err := m.Tokens.ValidateToken(token)
		if err != nil {
			m.Logger.Error("token validation failed", "error", err)
			m.WriteError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		var uid int64
		if claims.UserID != "" {
			if parsed, perr := strconv.ParseInt(claims.UserID, 10, 64); perr == nil {
				uid = parsed
			} else {
				m.Logger.Warn("failed to parse user id from token claims", "value", claims.UserID, "error", perr)
			}
		}

		user := &User{
			ID:          uid,
			Email:       claims.Email,
			TenantID:    claims.TenantID,
			Permissions: claims.Permissions,
		}

		ctx := context.WithValue(r.Context(), ContextUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequirePermission rejects requests whose user lacks all of the given
// permissions. Must be mounted inside Authenticate.
func (m *Middleware) RequirePermission(permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				m.WriteError(w, http.StatusUnauthorized, "missing authorization token")
				return
			}

			if !m.Checker.HasAnyPermission(user.Permissions, append(permissions, "admin")) {
				m.Logger.Warn("permission denied", "user_id", user.ID, "required", permissions)
				m.WriteError(w, http.StatusForbidden, "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
