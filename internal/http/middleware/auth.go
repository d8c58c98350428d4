package middleware

import (
	"net/http"
	"strings"

	"github.com/adityaverma/chatbot-backend/internal/tenancy"
)

// TokenVerifier resolves a bearer token to its subject username.
// Implemented by the users token issuer.
type TokenVerifier interface {
	Verify(tokenString string) (string, error)
}

// RequireAuth enforces a valid JWT and puts the subject username on the
// request context. The token may arrive as an Authorization bearer header,
// a ?token query parameter, or a token cookie — dashboard pages open with
// the query form, API clients use the header.
func RequireAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, ok := authenticate(tokens, r)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"success":false,"message":"Authentication required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(tenancy.WithUser(r.Context(), username)))
		})
	}
}

// OptionalAuth resolves the subject when a valid token is present but lets
// anonymous requests through untouched. Public widget endpoints use this so
// authenticated dashboard previews still carry their identity.
func OptionalAuth(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if username, ok := authenticate(tokens, r); ok {
				r = r.WithContext(tenancy.WithUser(r.Context(), username))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func authenticate(tokens TokenVerifier, r *http.Request) (string, bool) {
	token := extractToken(r)
	if token == "" || tokens == nil {
		return "", false
	}
	username, err := tokens.Verify(token)
	if err != nil || username == "" {
		return "", false
	}
	return username, true
}

func extractToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	if cookie, err := r.Cookie("token"); err == nil {
		return cookie.Value
	}
	return ""
}
