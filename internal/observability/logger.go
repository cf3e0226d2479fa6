// Package observability owns the process-wide loggers and the telemetry
// system that metrics are emitted through.
package observability

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/logging"
)

var (
	// CLILogger is used by terminal commands (SIMPLE profile).
	CLILogger *logging.Logger

	// ServerLogger is used by the HTTP server (STRUCTURED profile). Nil in
	// tests and CLI runs; callers check before logging.
	ServerLogger *logging.Logger
)

// ServerLoggerOptions configures the structured server logger.
type ServerLoggerOptions struct {
	Service     string
	Level       string
	Environment string
	// Stream is "stderr" (default) or "stdout".
	Stream string
}

var severities = map[string]string{
	"trace":   "TRACE",
	"debug":   "DEBUG",
	"info":    "INFO",
	"warn":    "WARN",
	"warning": "WARN",
	"error":   "ERROR",
}

// InitCLILogger installs CLILogger. verbose lowers the level to DEBUG.
func InitCLILogger(serviceName string, verbose bool) error {
	logger, err := logging.NewCLI(serviceName)
	if err != nil {
		return fmt.Errorf("init cli logger: %w", err)
	}
	if verbose {
		logger.SetLevel(logging.DEBUG)
	}
	CLILogger = logger
	return nil
}

// InitServerLogger installs ServerLogger.
func InitServerLogger(opts ServerLoggerOptions) error {
	logger, err := NewServerLogger(opts)
	if err != nil {
		return err
	}
	ServerLogger = logger
	return nil
}

// NewServerLogger builds a JSON console logger with request correlation.
func NewServerLogger(opts ServerLoggerOptions) (*logging.Logger, error) {
	environment := opts.Environment
	if environment == "" {
		environment = "production"
	}
	stream := strings.ToLower(strings.TrimSpace(opts.Stream))
	if stream != "stdout" {
		stream = "stderr"
	}

	logger, err := logging.New(&logging.LoggerConfig{
		Profile:      logging.ProfileStructured,
		DefaultLevel: parseLogLevel(opts.Level),
		Service:      opts.Service,
		Environment:  environment,
		StaticFields: map[string]any{"component": "http"},
		Middleware: []logging.MiddlewareConfig{
			{Name: "correlation", Enabled: true, Order: 100, Config: map[string]any{}},
		},
		Sinks: []logging.SinkConfig{
			{
				Type:    "console",
				Format:  "json",
				Console: &logging.ConsoleSinkConfig{Stream: stream, Colorize: false},
			},
		},
		EnableCaller:     true,
		EnableStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init server logger: %w", err)
	}
	return logger, nil
}

// parseLogLevel maps a config level to a gofulmen severity; unknown values
// fall back to INFO.
func parseLogLevel(level string) string {
	if severity, ok := severities[strings.ToLower(strings.TrimSpace(level))]; ok {
		return severity
	}
	return "INFO"
}
