package middlewares

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/http/v2/helpers"
	"github.com/dropDatabas3/gatejohn/internal/metrics"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/google/uuid"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithRequestContext genera un request ID, inyecta un logger con los campos
// del request en el contexto y registra la latencia al terminar.
func WithRequestContext() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := r.Header.Get("X-Request-Id")
			if reqID == "" {
				reqID = uuid.NewString()
			}
			w.Header().Set("X-Request-Id", reqID)

			log := logger.L().With(
				logger.RequestID(reqID),
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.ClientIP(helpers.ClientIP(r)),
			)
			ctx := logger.ToContext(r.Context(), log)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			elapsed := time.Since(start)

			metrics.HTTPRequestDuration.
				WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).
				Observe(float64(elapsed.Milliseconds()))

			log.Debug("request served",
				logger.Status(rec.status),
				logger.Duration(elapsed),
			)
		})
	}
}
