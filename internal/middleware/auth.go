// Package middleware provides HTTP middlewares for authentication and logging.
package middleware

import (
	"context"
	"net/http"
)

type ctxKey string

const userKey ctxKey = "user"

// Authenticator reports the currently active session, if any.
type Authenticator interface {
	// CurrentUserID returns the id of the signed-in user, or an
	// empty string when no session is active.
	CurrentUserID(ctx context.Context) string
}

// SessionAuth is a middleware that enforces an active local session.
//
// Registration and login are excluded so new users can sign in. On
// success the authenticated user id is stored in the request context
// for downstream handlers.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/register", "/api/login":
				next.ServeHTTP(w, r)
				return
			}
			userID := auth.CurrentUserID(r.Context())
			if userID == "" {
				http.Error(w, "no active session", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), userKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserIDFromContext extracts the authenticated user id from the
// request context. Returns an empty string if not found.
func GetUserIDFromContext(ctx context.Context) string {
	val := ctx.Value(userKey)
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
