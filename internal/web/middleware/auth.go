package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// RequireAdmin is middleware that guards administrative endpoints with a
// bearer token. An empty configured token disables the admin surface
// entirely rather than leaving it open.
func RequireAdmin(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				http.Error(w, `{"error": "admin interface disabled"}`, http.StatusForbidden)
				return
			}

			auth := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(auth, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, `{"error": "unauthorized"}`, http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
