package server

import (
	"net/http"

	"github.com/fulmenhq/gofulmen/signals"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/server/handlers"
)

// Admin signal endpoint limits, per client.
const (
	adminSignalPath     = "/admin/signal"
	adminRequestsPerMin = 10
	adminRequestsBurst  = 5
)

func (s *Server) registerRoutes() {
	r := s.router

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/ready", s.opts.Health.ReadinessHandler)
	r.Get("/version", handlers.VersionHandler)
	r.Method(http.MethodGet, "/metrics", newMetricsProxy())
	r.Method(http.MethodPost, "/bfhl", handlers.NewBFHLHandler(s.opts.Dispatcher, s.opts.MaxBodyBytes, s.requestTimeout()))

	if s.opts.AdminToken != "" {
		s.mountAdminSignals()
	}
}

// mountAdminSignals exposes reload and shutdown over HTTP behind a bearer
// token, for hosts where sending SIGHUP is not possible.
func (s *Server) mountAdminSignals() {
	handler := signals.NewHTTPHandler(signals.HTTPConfig{
		TokenAuth: s.opts.AdminToken,
		RateLimit: adminRequestsPerMin,
		RateBurst: adminRequestsBurst,
	})
	s.router.Method(http.MethodPost, adminSignalPath, handler)

	if logger := observability.ServerLogger; logger != nil {
		logger.Warn("Admin signal endpoint enabled; keep it off the public internet",
			zap.String("path", adminSignalPath))
	}
}
