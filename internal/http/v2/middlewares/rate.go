package middlewares

import (
	"net/http"
	"strconv"

	"github.com/dropDatabas3/gatejohn/internal/http/v2/errors"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/helpers"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/dropDatabas3/gatejohn/internal/rate"
)

// WithRateLimit limita por IP usando el limiter dado. Si limiter es nil,
// el middleware es un no-op.
func WithRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.URL.Path + ":" + helpers.ClientIP(r)
			res, err := limiter.Allow(r.Context(), key)
			if err != nil {
				// Limiter caído no bloquea el tráfico.
				logger.From(r.Context()).Warn("rate limiter unavailable", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
			if !res.Allowed {
				w.Header().Set("Retry-After", strconv.Itoa(int(res.RetryAfter.Seconds())+1))
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
