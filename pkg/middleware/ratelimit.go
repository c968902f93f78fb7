package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit limits each admin to limit requests per window, falling back to
// the client IP for unauthenticated requests. Mount it after Auth.
func RateLimit(limit int, window time.Duration) func(http.Handler) http.Handler {
	retryAfter := strconv.Itoa(int(window.Seconds()))
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(adminOrIPKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", retryAfter)
			writeAuthError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests")
		}),
	)
}

func adminOrIPKey(r *http.Request) (string, error) {
	if id := AdminIDFromContext(r.Context()); id != "" {
		return "admin:" + id, nil
	}
	return httprate.KeyByIP(r)
}
