package http

import (
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

// NewRouter wires the routes. Render routes sit behind the rate limiter and the request
// timeout; /health and /metrics never do.
func NewRouter(h *Handler, limiter *rate.Limiter, requestTimeout time.Duration, logger *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")

	render := router.NewRoute().Subrouter()
	render.Use(RateLimitMiddleware(limiter))
	if requestTimeout > 0 {
		render.Use(TimeoutMiddleware(requestTimeout))
	}
	render.HandleFunc("/", h.GetDashboard).Methods("GET")
	render.HandleFunc("/api/dashboard", h.GetDashboardJSON).Methods("GET")
	render.HandleFunc("/charts/{view}", h.GetChart).Methods("GET")
	return router
}
