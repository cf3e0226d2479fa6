package cmd

import (
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bfhl/bfhl/internal/ailink/driver"
	"github.com/bfhl/bfhl/internal/config"
	"github.com/bfhl/bfhl/internal/observability"
)

// Flags shared by every subcommand.
var (
	cfgFile   string
	verbose   bool
	traceFile string
)

// buildInfo is stamped by main from -ldflags.
type buildInfo struct {
	Version   string
	Commit    string
	BuildDate string
}

var versionInfo buildInfo

// stopTracing closes the --trace file once the command finishes.
var stopTracing = func() {}

// SetVersionInfo records build metadata for the version command.
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo = buildInfo{Version: version, Commit: commit, BuildDate: buildDate}
}

var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "BFHL data-processing API",
	Long: `bfhl serves POST /bfhl: fibonacci series, prime filtering, LCM, HCF and
AI answers, each wrapped in a response that carries the service's
official email.

Use "bfhl serve" to run the HTTP API, or "bfhl calc" and "bfhl ask" to run
the same operations from the terminal.`,
	SilenceUsage: true,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		stopTracing()
	},
}

// Execute runs the command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// serve replaces this with the exporting system.
	if sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: false}); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $XDG_CONFIG_HOME/bfhl/config.yaml, then ./config/config.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	flags.StringVar(&traceFile, "trace", "", "append every AI provider call to this JSON lines file")
}

// initConfig loads configuration once flags are parsed.
func initConfig() {
	if err := observability.InitCLILogger(config.AppName, verbose); err != nil {
		ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize CLI logger", err)
		return
	}

	if traceFile != "" {
		closeTrace, err := driver.EnableTracing(traceFile)
		switch {
		case err != nil:
			observability.CLILogger.Warn("AI tracing disabled", zap.String("file", traceFile), zap.Error(err))
		default:
			stopTracing = closeTrace
			observability.CLILogger.Debug("AI tracing enabled", zap.String("file", traceFile))
		}
	}

	cfg, err := config.Load(cfgFile)
	if err != nil {
		ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Failed to load configuration", err)
		return
	}

	observability.CLILogger.Debug("Configuration loaded",
		zap.String("config_file", cfgFile),
		zap.Bool("official_email_set", cfg.OfficialEmail() != ""),
		zap.Bool("ai_configured", cfg.AI.Configured()),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled))
}
