// internal/ratelimit/middleware.go
package ratelimit

import (
	"math"
	"net/http"
	"strconv"
)

// Middleware rejects requests over the limit with 429 and a Retry-After
// header in whole seconds.
func (l *Limiter) Middleware(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			ip := GetClientIP(r, trustProxy)
			result := l.Allow(ip)
			if !result.Allowed {
				LogRateLimitExceeded(r.Context(), ip, r.URL.Path, result.RetryAfter)
				seconds := int(math.Ceil(result.RetryAfter.Seconds()))
				if seconds < 1 {
					seconds = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(seconds))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
