// Package middleware provides HTTP middleware components for the API server.
package middleware

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/veldra/appsight/internal/auth"
)

// TokenValidator validates a bearer token and returns its claims.
// Implemented by auth.JWTService.
type TokenValidator interface {
	ValidateToken(tokenString string) (*auth.Claims, error)
}

// Auth returns a middleware that authenticates requests using a Bearer token
// in the Authorization header. On success the user id from the token's
// subject claim is stored in the request context via SetUserID.
//
// Requests without a token pass through unauthenticated; handlers that
// require a user enforce that themselves. Requests with a malformed or
// invalid token are rejected with 401 so clients notice expired credentials
// instead of silently losing access.
func Auth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				writeAuthError(w, r, "invalid Authorization header format")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				msg := "invalid token"
				if errors.Is(err, auth.ErrExpiredToken) {
					msg = "token has expired"
				}
				writeAuthError(w, r, msg)
				return
			}

			if claims.Type != auth.TokenTypeAccess {
				writeAuthError(w, r, "token is not an access token")
				return
			}

			ctx := SetUserID(r.Context(), claims.UserID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeAuthError(w http.ResponseWriter, r *http.Request, message string) {
	ctx := SetErrorCode(r.Context(), "auth_failed")
	UpdateResponseContext(w, ctx)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = io.WriteString(w, `{"error":{"code":"auth_failed","message":"`+message+`"}}`)
}
