package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/quillbook/quillbook-server/internal/domain"
	domainerrors "github.com/quillbook/quillbook-server/internal/errors"
	"github.com/quillbook/quillbook-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// authKey is the context key for the authentication outcome.
const authKey ctxKey = "auth"

// authResult is what authMiddleware learned from the Authorization header.
type authResult struct {
	user *domain.AllowedUser
	err  error
}

// GetUser returns the authenticated user from context.
// Returns a 401 error if the request carried no valid token.
func GetUser(ctx context.Context) (*domain.AllowedUser, error) {
	res, ok := ctx.Value(authKey).(authResult)
	if !ok {
		return nil, huma.Error401Unauthorized("Authentication required")
	}
	if res.err != nil {
		return nil, res.err
	}
	return res.user, nil
}

// setAuth stores the authentication outcome in context.
func setAuth(ctx context.Context, res authResult) context.Context {
	return context.WithValue(ctx, authKey, res)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores the
// outcome in context. Requests without a token continue anonymously; handlers
// use GetUser to require authentication.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := auth.Authenticate(token)
			ctx := setAuth(r.Context(), authResult{user: user, err: err})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin validates the user is authenticated and is an admin.
func RequireAdmin(ctx context.Context) (*domain.AllowedUser, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, domainerrors.Forbidden("Admin access required")
	}
	return user, nil
}

// userKey returns the storage key of the authenticated user.
func userKey(ctx context.Context) (string, error) {
	user, err := GetUser(ctx)
	if err != nil {
		return "", err
	}
	return user.Email, nil
}
