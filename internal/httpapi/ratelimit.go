package httpapi

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimit applies a global token bucket to every request. Callers over
// the budget get 429 instead of queueing.
func rateLimit(perSec, burst int) func(http.Handler) http.Handler {
	if burst <= 0 {
		burst = perSec * 2
	}
	lim := rate.NewLimiter(rate.Limit(perSec), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !lim.Allow() {
				w.Header().Set("Content-Type", "application/json; charset=utf-8")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"rate_limited","message":"too many requests"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
