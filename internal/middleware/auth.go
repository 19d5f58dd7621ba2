package middleware

import (
	"context"
	"net/http"
	"strings"
)

// IdentityResolver is the opaque identity oracle the core consumes; the
// SSO gRPC client implements it.
type IdentityResolver interface {
	ValidateToken(ctx context.Context, token string) (int64, bool, error)
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

type AuthMiddleware struct {
	resolver IdentityResolver
}

func NewAuthMiddleware(resolver IdentityResolver) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver}
}

type contextKey string

const (
	UserIDKey  = contextKey("userID")
	IsAdminKey = contextKey("isAdmin")
)

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(UserIDKey).(int64)
	return id, ok
}

func IsAdminFromContext(ctx context.Context) bool {
	isAdmin, _ := ctx.Value(IsAdminKey).(bool)
	return isAdmin
}

func (m *AuthMiddleware) ValidateToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		userID, valid, err := m.resolver.ValidateToken(r.Context(), token)
		if err != nil || !valid {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		isAdmin, err := m.resolver.IsAdmin(r.Context(), userID)
		if err != nil {
			http.Error(w, "failed to resolve roles", http.StatusInternalServerError)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		ctx = context.WithValue(ctx, IsAdminKey, isAdmin)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
