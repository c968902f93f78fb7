package middleware

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/catalogadmin/pkg/logger"
)

// RequestLogger stores a request-scoped logger carrying correlation_id,
// admin_id, trace_id and span_id. Mount it after RequestLogging, Tracing and Auth.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := AdminIDFromContext(ctx); id != "" && logger.AdminIDFromContext(ctx) == "" {
				ctx = logger.WithAdminID(ctx, id)
			}
			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
