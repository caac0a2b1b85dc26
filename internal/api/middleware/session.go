package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/calagora/server/internal/api/problem"
	"github.com/calagora/server/internal/auth"
)

type contextKeySession string

const sessionClaimsKey contextKeySession = "sessionClaims"

// SessionAuth requires a valid session cookie and puts its claims on the
// request context. Used for routes that only make sense for a logged-in
// user, such as /auth/me.
func SessionAuth(manager *auth.SessionManager, env string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if manager == nil {
				problem.Write(w, r, http.StatusUnauthorized, "https://calagora.dev/problems/unauthorized", "Unauthorized", problem.ErrUnauthorized, env)
				return
			}

			cookie, err := r.Cookie(auth.SessionCookieName)
			if err != nil || strings.TrimSpace(cookie.Value) == "" {
				problem.Write(w, r, http.StatusUnauthorized, "https://calagora.dev/problems/unauthorized", "Missing session", problem.ErrUnauthorized, env)
				return
			}

			claims, err := manager.Validate(cookie.Value)
			if err != nil {
				problem.Write(w, r, http.StatusUnauthorized, "https://calagora.dev/problems/unauthorized", "Invalid session", err, env)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithSessionClaims(r.Context(), claims)))
		})
	}
}

// ContextWithSessionClaims stores validated claims on the context.
func ContextWithSessionClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, sessionClaimsKey, claims)
}

// SessionClaims returns the claims stored by SessionAuth, or nil.
func SessionClaims(r *http.Request) *auth.Claims {
	if r == nil {
		return nil
	}
	if claims, ok := r.Context().Value(sessionClaimsKey).(*auth.Claims); ok {
		return claims
	}
	return nil
}
