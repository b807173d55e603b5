package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"ai-interview-service/internal/observability/metrics"
)

// RequestObserver returns middleware that logs each request and records
// its duration, keyed by the chi route pattern rather than the raw path.
func RequestObserver(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			path := chi.RouteContext(r.Context()).RoutePattern()
			if path == "" {
				path = r.URL.Path
			}
			status := strconv.Itoa(ww.Status())

			m.RecordHTTPRequest(r.Method, path, status, duration.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", path).
				Str("status", status).
				Dur("duration", duration).
				Str("requestId", middleware.GetReqID(r.Context())).
				Msg("HTTP request")
		})
	}
}
