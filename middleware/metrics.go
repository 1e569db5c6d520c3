// ABOUTME: Request metrics middleware reporting latency and status per route pattern
// ABOUTME: Uses the route pattern rather than the raw path to keep label cardinality bounded

package middleware

import (
	"net/http"
	"time"
)

// RequestObserver receives one observation per HTTP request.
type RequestObserver interface {
	ObserveRequest(method, route string, code int, elapsed time.Duration)
}

// Metrics reports every request on route to o. A nil observer disables it.
func Metrics(o RequestObserver, route string) Middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if o == nil {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := wrap(w)
			next(wrapped, r)
			o.ObserveRequest(r.Method, route, wrapped.statusCode, time.Since(start))
		}
	}
}
