package config

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bfhl/bfhl/internal/ailink"
)

// Config represents the complete application configuration. Values resolve
// in order: flags, environment, config file, defaults.
type Config struct {
	Identity  IdentityConfig  `mapstructure:"identity"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	AI        ailink.Config   `mapstructure:"ai"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// IdentityConfig carries the service identity echoed in every response.
type IdentityConfig struct {
	// OfficialEmail is required for /health and /bfhl to succeed. Missing
	// identity is reported per request, not at startup.
	OfficialEmail string `mapstructure:"official_email"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`

	// RequestTimeout bounds one POST /bfhl execution.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// AdminToken enables the bearer-protected signal endpoint.
	AdminToken string `mapstructure:"admin_token"`

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	TrustProxy bool `mapstructure:"trust_proxy"`
}

// RateLimitConfig controls the per-client fixed window.
type RateLimitConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	Requests      int           `mapstructure:"requests"`
	Window        time.Duration `mapstructure:"window"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	Environment string `mapstructure:"environment"`

	// Stream selects the console sink: stderr or stdout.
	Stream string `mapstructure:"stream"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated exporter port; /metrics on the main port proxies it.
	Port int `mapstructure:"port"`
}

// OfficialEmail returns the trimmed identity.
func (c *Config) OfficialEmail() string {
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Identity.OfficialEmail)
}

// Validate reports settings that would prevent the server from starting.
// An absent official email is allowed; it is surfaced by request handlers.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Server.MaxBodyBytes < 0 {
		problems = append(problems, "server.max_body_bytes must not be negative")
	}
	if c.Server.RequestTimeout < 0 {
		problems = append(problems, "server.request_timeout must not be negative")
	}
	if c.RateLimit.Enabled {
		if c.RateLimit.Requests <= 0 {
			problems = append(problems, "rate_limit.requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			problems = append(problems, "rate_limit.window must be positive")
		}
	}
	if c.AI.RequestsPerSecond < 0 {
		problems = append(problems, "ai.requests_per_second must not be negative")
	}
	if c.Metrics.Enabled && (c.Metrics.Port < 0 || c.Metrics.Port > 65535) {
		problems = append(problems, fmt.Sprintf("metrics.port %d out of range", c.Metrics.Port))
	}
	if email := c.OfficialEmail(); email != "" {
		addr, err := mail.ParseAddress(email)
		switch {
		case err != nil:
			problems = append(problems, fmt.Sprintf("identity.official_email %q is not an email address", email))
		case addr.Address != email:
			// Display names and angle brackets would be echoed verbatim on the wire.
			problems = append(problems, fmt.Sprintf("identity.official_email %q must be a bare address such as %s", email, addr.Address))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
