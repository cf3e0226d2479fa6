package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/ailink"
	"github.com/bfhl/bfhl/internal/config"
	"github.com/bfhl/bfhl/internal/observability"
)

var doctorPing bool

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long: `Run diagnostic checks on the runtime and the resolved configuration.

Use --ping to send one question to the AI provider.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := observability.CLILogger
		logger.Info("=== bfhl doctor ===")
		logger.Info("")

		cfg := config.GetConfig()
		checks := doctorChecks(cfg)
		if doctorPing {
			checks = append(checks, pingCheck(cmd.Context(), cfg))
		}

		failed := 0
		for i, check := range checks {
			line := fmt.Sprintf("[%d/%d] %s... %s", i+1, len(checks), check.name, check.detail)
			switch {
			case !check.ok:
				failed++
				logger.Error("❌ "+line, zap.String("check", check.name))
			case check.warn:
				logger.Warn("⚠️  "+line, zap.String("check", check.name))
			default:
				logger.Info("✅ "+line, zap.String("check", check.name))
			}
		}

		logger.Info("")
		if failed > 0 {
			logger.Warn(fmt.Sprintf("%d check(s) failed. Review the output above for details.", failed))
			return fmt.Errorf("%d diagnostic check(s) failed", failed)
		}
		logger.Info("All checks passed.")
		return nil
	},
}

var doctorInitForce bool

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if err := writeDefaultConfig(configPath, doctorInitForce); err != nil {
			return err
		}
		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.Flags().BoolVar(&doctorPing, "ping", false, "send a test question to the AI provider")
	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite an existing config file")
}

type diagnostic struct {
	name   string
	ok     bool
	warn   bool
	detail string
}

// doctorChecks inspects the environment without touching the network.
// Missing identity fails; a missing AI key only warns.
func doctorChecks(cfg *config.Config) []diagnostic {
	checks := []diagnostic{
		{name: "Go runtime", ok: true, detail: fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
	}

	version := crucible.GetVersion()
	checks = append(checks, diagnostic{
		name:   "Gofulmen/Crucible",
		ok:     version.Gofulmen != "" && version.Crucible != "",
		detail: fmt.Sprintf("gofulmen %s, crucible %s", version.Gofulmen, version.Crucible),
	})

	configPath := config.DefaultConfigPath()
	switch {
	case configPath == "":
		checks = append(checks, diagnostic{name: "Config file", ok: true, warn: true, detail: "config directory not resolved"})
	case fileExists(configPath):
		checks = append(checks, diagnostic{name: "Config file", ok: true, detail: configPath})
	default:
		checks = append(checks, diagnostic{name: "Config file", ok: true, warn: true, detail: configPath + " (not created; defaults and environment in use)"})
	}

	if cfg == nil {
		return append(checks, diagnostic{name: "Configuration", ok: false, detail: "not loaded"})
	}

	if email := cfg.OfficialEmail(); email != "" {
		checks = append(checks, diagnostic{name: "Official email", ok: true, detail: email})
	} else {
		checks = append(checks, diagnostic{name: "Official email", ok: false, detail: "not set (export OFFICIAL_EMAIL)"})
	}

	if cfg.AI.Configured() {
		checks = append(checks, diagnostic{name: "AI provider", ok: true, detail: fmt.Sprintf("%s (%s)", cfg.AI.Provider, cfg.AI.Model)})
	} else {
		checks = append(checks, diagnostic{name: "AI provider", ok: true, warn: true, detail: "GEMINI_API_KEY not set; AI requests answer 503"})
	}

	if cfg.AI.RequestsPerSecond > 0 {
		checks = append(checks, diagnostic{name: "AI pacing", ok: true, detail: fmt.Sprintf("%g calls/s, burst %d", cfg.AI.RequestsPerSecond, cfg.AI.Burst)})
	}

	if cfg.RateLimit.Enabled {
		checks = append(checks, diagnostic{name: "Rate limit", ok: true, detail: fmt.Sprintf("%d requests per %s", cfg.RateLimit.Requests, cfg.RateLimit.Window)})
	} else {
		checks = append(checks, diagnostic{name: "Rate limit", ok: true, warn: true, detail: "disabled"})
	}

	checks = append(checks, diagnostic{name: "Listen address", ok: true, detail: fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)})
	return checks
}

func pingCheck(ctx context.Context, cfg *config.Config) diagnostic {
	if ctx == nil {
		ctx = context.Background()
	}
	if cfg == nil || !cfg.AI.Configured() {
		return diagnostic{name: "AI connectivity", ok: true, warn: true, detail: "skipped (no API key)"}
	}

	svc, err := ailink.New(ctx, cfg.AI)
	if err != nil {
		return diagnostic{name: "AI connectivity", ok: false, detail: err.Error()}
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	start := time.Now()
	answer, err := svc.Answer(ctx, "What is the capital of France?")
	if err != nil {
		return diagnostic{name: "AI connectivity", ok: false, detail: fmt.Sprintf("%s (%s)", err.Error(), ailink.KindOf(err))}
	}
	return diagnostic{name: "AI connectivity", ok: true, detail: fmt.Sprintf("answered %q in %s", answer, time.Since(start).Round(time.Millisecond))}
}

const defaultConfigYAML = `# bfhl configuration. Environment variables override these values:
# BFHL_<SECTION>_<KEY>, or OFFICIAL_EMAIL, GEMINI_API_KEY and PORT.
identity:
  official_email: ""

server:
  host: 0.0.0.0
  port: 3000
  max_body_bytes: 10240
  request_timeout: 30s
  shutdown_timeout: 10s

rate_limit:
  enabled: true
  requests: 120
  window: 60s

ai:
  provider: gemini
  model: gemini-2.5-flash
  api_key: ""
  # Outbound pacing across all clients. 0 disables it.
  requests_per_second: 0
  burst: 1

logging:
  level: info

metrics:
  enabled: true
  port: 9090
`

func writeDefaultConfig(path string, force bool) error {
	if fileExists(path) && !force {
		return fmt.Errorf("config file already exists: %s (use --force to overwrite)", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	// The file may later hold an API key.
	if err := os.WriteFile(path, []byte(defaultConfigYAML), 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
