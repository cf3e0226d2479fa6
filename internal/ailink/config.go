package ailink

import (
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Config defines provider configuration for the AI proxy.
type Config struct {
	// Provider selects the driver. Only "gemini" is built in.
	Provider string `mapstructure:"provider"`

	// APIKey is the provider credential. An empty key leaves the proxy
	// unconfigured rather than failing startup.
	APIKey string `mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (tests, proxies).
	BaseURL string `mapstructure:"base_url"`

	Model string `mapstructure:"model"`

	// Timeout bounds a single call. Zero leaves the transport default.
	Timeout time.Duration `mapstructure:"timeout"`

	// RequestsPerSecond paces outbound calls across all clients so a burst
	// of AI requests cannot exhaust the provider quota. Zero disables pacing.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// pacer returns nil when pacing is disabled.
func (c Config) pacer() *rate.Limiter {
	if c.RequestsPerSecond <= 0 {
		return nil
	}
	burst := c.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(c.RequestsPerSecond), burst)
}

// Configured reports whether a credential is present.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}
