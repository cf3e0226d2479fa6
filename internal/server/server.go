package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/dispatch"
	apperrors "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/ratelimit"
	"github.com/bfhl/bfhl/internal/server/handlers"
	servermw "github.com/bfhl/bfhl/internal/server/middleware"
)

// Client-facing messages for router-level errors.
const (
	MsgRouteNotFound    = "Route not found"
	MsgMethodNotAllowed = "Method not allowed"
	MsgTooManyRequests  = "Too many requests, please try again later."
)

const defaultWriteTimeout = 60 * time.Second

// Options configures a Server.
type Options struct {
	Host string
	Port int

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// MaxBodyBytes caps POST /bfhl bodies; zero uses handlers.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// RequestTimeout bounds one POST /bfhl execution. It is clamped below
	// WriteTimeout so a timed-out request still receives its envelope.
	RequestTimeout time.Duration

	// OfficialEmail is read on every request so a config reload takes effect
	// without rebuilding the router.
	OfficialEmail func() string

	Dispatcher *dispatch.Dispatcher

	// Limiter is nil when rate limiting is disabled.
	Limiter *ratelimit.Limiter

	Health *handlers.HealthManager

	// AdminToken enables POST /admin/signal when set.
	AdminToken string

	// TrustProxy rewrites RemoteAddr from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites those headers; otherwise any
	// client can pick its own rate-limit key.
	TrustProxy bool
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	opts   Options
}

// New creates a new HTTP server instance
func New(opts Options) *Server {
	if opts.Dispatcher == nil {
		opts.Dispatcher = dispatch.New(nil)
	}
	if opts.Health == nil {
		opts.Health = handlers.NewHealthManager(handlers.AppVersion)
	}

	r := chi.NewRouter()

	if opts.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(servermw.RequestID)
	r.Use(servermw.Identity(opts.OfficialEmail))
	r.Use(servermw.RequestMetrics)
	r.Use(servermw.Recovery)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", servermw.RequestIDHeader},
		ExposedHeaders: []string{
			servermw.RequestIDHeader,
			servermw.HeaderRateLimitLimit,
			servermw.HeaderRateLimitRemaining,
			servermw.HeaderRateLimitReset,
			servermw.HeaderRetryAfter,
		},
		MaxAge: 300,
	}))
	r.Use(servermw.RateLimit(opts.Limiter, servermw.ClientAddress, rejectRateLimited))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithEnvelope(w, req, apperrors.NewNotFoundError(MsgRouteNotFound))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.RespondWithEnvelope(w, req, apperrors.NewMethodNotAllowedError(MsgMethodNotAllowed))
	})

	s := &Server{
		router: r,
		opts:   opts,
	}
	s.registerRoutes()

	return s
}

func rejectRateLimited(w http.ResponseWriter, r *http.Request, decision ratelimit.Decision) {
	err := apperrors.NewRateLimitedError(MsgTooManyRequests)
	if updated, ctxErr := err.WithContext(map[string]interface{}{
		"client":      servermw.ClientAddress(r),
		"count":       decision.Count,
		"limit":       decision.Limit,
		"retry_after": decision.RetryAfter.String(),
	}); ctxErr == nil {
		err = updated
	}
	apperrors.RespondWithEnvelope(w, r, err)
}

// Addr returns host:port the server listens on.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := s.Addr()

	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadTimeout:       durationOr(s.opts.ReadTimeout, 30*time.Second),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      durationOr(s.opts.WriteTimeout, defaultWriteTimeout),
		IdleTimeout:       durationOr(s.opts.IdleTimeout, 120*time.Second),
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Starting HTTP server",
			zap.String("host", s.opts.Host),
			zap.Int("port", s.opts.Port),
			zap.String("addr", addr),
			zap.Bool("rate_limit", s.opts.Limiter != nil))
	}

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if observability.ServerLogger != nil {
		observability.ServerLogger.Info("Shutting down HTTP server")
	}
	return s.server.Shutdown(ctx)
}

// Handler exposes the underlying router for testing and instrumentation
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the server port for testing
func (s *Server) Port() int {
	return s.opts.Port
}

func (s *Server) requestTimeout() time.Duration {
	write := durationOr(s.opts.WriteTimeout, defaultWriteTimeout)
	timeout := durationOr(s.opts.RequestTimeout, handlers.DefaultTimeout)
	if timeout >= write {
		timeout = write - write/10
	}
	return timeout
}

func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
