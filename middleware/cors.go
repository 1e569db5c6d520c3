// ABOUTME: CORS middleware for API cross-origin requests
// ABOUTME: Allows configured origins (or any when none are configured) and answers preflight

package middleware

import (
	"net/http"
	"slices"
)

// CORS returns middleware that adds CORS headers to responses. With no allowed
// origins every origin is accepted; otherwise only listed origins are echoed back.
// OPTIONS preflight requests are answered with 204 without calling the handler.
func CORS(allowedOrigins []string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(allowedOrigins) == 0:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(allowedOrigins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next(w, r)
		}
	}
}
