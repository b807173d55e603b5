// Package http exposes the interview workflow over a JSON API.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ai-interview-service/internal/observability/metrics"
	"ai-interview-service/internal/service/interview"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(svc *interview.Service, m *metrics.Metrics) http.Handler {
	h := &Handlers{service: svc}

	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(RequestObserver(m))

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/voice-interview", func(r chi.Router) {
			r.Post("/start", h.StartInterview)
			r.Post("/process-audio", h.ProcessAudio)
			r.Post("/generate-feedback", h.GenerateFeedback)
		})
		r.Get("/interview/voice/history", h.History)
	})

	return r
}
