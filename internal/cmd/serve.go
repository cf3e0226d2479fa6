package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/config"
	"github.com/bfhl/bfhl/internal/dispatch"
	errwrap "github.com/bfhl/bfhl/internal/errors"
	"github.com/bfhl/bfhl/internal/metrics"
	"github.com/bfhl/bfhl/internal/observability"
	"github.com/bfhl/bfhl/internal/ratelimit"
	"github.com/bfhl/bfhl/internal/server"
	"github.com/bfhl/bfhl/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the BFHL HTTP API with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Reload configuration (the official email applies to the next
    request; AI, rate limit and listener settings need a restart)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg := config.GetConfig()
		if cfg == nil {
			return errwrap.NewConfigInvalidError("configuration not loaded")
		}
		applyServeFlags(cmd, cfg)

		if err := observability.InitServerLogger(observability.ServerLoggerOptions{
			Service:     config.AppName,
			Level:       cfg.Logging.Level,
			Environment: cfg.Logging.Environment,
			Stream:      cfg.Logging.Stream,
		}); err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "logger initialization failed")
		}
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(ctx, err, "metrics initialization failed")
			}
			metrics.SetServerStartTime(time.Now().Unix())
		}

		aiService, err := ailink.New(ctx, cfg.AI)
		if err != nil {
			return errwrap.WrapConfigInvalid(ctx, err, "ai provider initialization failed")
		}

		if cfg.OfficialEmail() == "" {
			logger.Warn("OFFICIAL_EMAIL is not set; /health and /bfhl will answer 500")
		}
		if !aiService.Configured() {
			logger.Warn("GEMINI_API_KEY is not set; AI requests will answer 503")
		}

		janitorCtx, stopJanitor := context.WithCancel(context.Background())
		defer stopJanitor()
		limiter := newLimiter(janitorCtx, cfg.RateLimit)

		hm := handlers.NewHealthManager(versionInfo.Version)
		registerHealthCheckers(hm, cfg.Metrics.Enabled, aiService, limiter)

		srv := server.New(server.Options{
			Host:           cfg.Server.Host,
			Port:           cfg.Server.Port,
			ReadTimeout:    cfg.Server.ReadTimeout,
			WriteTimeout:   cfg.Server.WriteTimeout,
			IdleTimeout:    cfg.Server.IdleTimeout,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
			RequestTimeout: cfg.Server.RequestTimeout,
			OfficialEmail:  currentOfficialEmail,
			Dispatcher:     dispatch.New(aiService),
			Limiter:        limiter,
			Health:         hm,
			AdminToken:     cfg.Server.AdminToken,
			TrustProxy:     cfg.Server.TrustProxy,
		})

		logger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("addr", srv.Addr()),
			zap.Bool("metrics", cfg.Metrics.Enabled),
			zap.Int("metrics_port", cfg.Metrics.Port),
			zap.Bool("rate_limit", limiter != nil),
			zap.Bool("trust_proxy", cfg.Server.TrustProxy))

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// LIFO: the HTTP server stops first, the logger flushes last.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := logger.Sync(); err != nil {
				logger.Warn("Logger sync returned error (may be benign)", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			stopJanitor()
			if cfg.Metrics.Enabled {
				if err := observability.ShutdownMetrics(); err != nil {
					logger.Warn("Metrics exporter stop failed", zap.Error(err))
				}
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: reloading configuration")
			reloaded, err := config.Load(cfgFile)
			if err != nil {
				logger.Error("Config reload failed; keeping previous configuration", zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}
			logger.Info("Configuration reloaded",
				zap.Bool("official_email_set", reloaded.OfficialEmail() != ""))
			if reloaded.AI != cfg.AI {
				logger.Warn("AI settings changed; restart the server to apply them")
			}
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()

		go func() {
			if err := signals.Listen(ctx); err != nil {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
				return
			}
			errChan <- nil
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(ctx, err, "server error")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "0.0.0.0", "server host (overrides server.host)")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 3000, "server port (overrides PORT and server.port)")
}

// applyServeFlags gives explicitly set flags precedence over every other layer.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = serverPort
	}
}

// currentOfficialEmail reads the live configuration so SIGHUP reloads apply
// to the next request.
func currentOfficialEmail() string {
	return config.GetConfig().OfficialEmail()
}

// newLimiter returns nil when rate limiting is disabled.
func newLimiter(ctx context.Context, cfg config.RateLimitConfig) *ratelimit.Limiter {
	if !cfg.Enabled {
		return nil
	}
	store := ratelimit.NewMemoryStore(cfg.Window)
	store.StartJanitor(ctx, cfg.SweepInterval, func(removed int) {
		metrics.RecordRateLimitSweep(removed, store.Len())
	})
	return ratelimit.New(store, ratelimit.Limit{
		RequestsPerWindow: cfg.Requests,
		WindowDuration:    cfg.Window,
	})
}

// registerHealthCheckers wires the readiness checks. Missing identity makes
// the service unready; a missing AI key only degrades it.
func registerHealthCheckers(hm *handlers.HealthManager, metricsEnabled bool, ai *ailink.Service, limiter *ratelimit.Limiter) {
	hm.RegisterChecker("identity", handlers.CheckerFunc(func(ctx context.Context) error {
		if currentOfficialEmail() == "" {
			return errwrap.NewConfigInvalidError("official email not configured")
		}
		return nil
	}))

	hm.RegisterChecker("ai_provider", handlers.CheckerFunc(func(ctx context.Context) error {
		if !ai.Configured() {
			return handlers.ErrDegraded
		}
		return nil
	}))

	if metricsEnabled {
		hm.RegisterChecker("telemetry", handlers.CheckerFunc(func(ctx context.Context) error {
			if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
				return errwrap.NewInternalError("telemetry system not initialized")
			}
			return nil
		}))
	}

	if limiter != nil {
		hm.RegisterChecker("rate_limiter", handlers.CheckerFunc(func(ctx context.Context) error {
			if _, err := limiter.Allow(ctx, healthCheckKey); err != nil {
				return handlers.ErrDegraded
			}
			return nil
		}))
	}
}

// healthCheckKey never collides with a client address.
const healthCheckKey = "health-check"
