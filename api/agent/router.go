// Package agent exposes the parking agent over HTTP.
package agent

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/parkagent/core/reservation"
	"github.com/kilianp07/parkagent/infra/logger"
)

const maxBodySize = 1 << 20

// Options configure the router.
type Options struct {
	// AuthToken protects the audit endpoint when non-empty.
	AuthToken string
	// RateLimit is reservations per second per client IP. Non-positive
	// disables limiting.
	RateLimit float64
	Burst     int
	// Metrics serves Prometheus metrics from Gatherer on /metrics.
	Metrics  bool
	Gatherer prometheus.Gatherer
	Logger   logger.Logger
}

type server struct {
	agent reservation.Agent
	token string
	log   logger.Logger
}

// NewRouter builds the HTTP handler serving svc.
func NewRouter(svc reservation.Agent, opts Options) http.Handler {
	s := &server{agent: svc, token: opts.AuthToken, log: opts.Logger}
	if s.log == nil {
		s.log = logger.NopLogger{}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", s.handleHealth)

	r.Group(func(r chi.Router) {
		if opts.RateLimit > 0 {
			r.Use(newIPLimiter(opts.RateLimit, opts.Burst, 10*time.Minute).middleware)
		}
		r.Post("/reserve", s.handleReserve)
	})
	r.Post("/decide", s.handleDecide)
	r.Post("/plan", s.handlePlan)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/decisions", s.handleDecisions)
	})

	if opts.Metrics {
		g := opts.Gatherer
		if g == nil {
			g = prometheus.DefaultGatherer
		}
		r.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	}
	return r
}

func (s *server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
