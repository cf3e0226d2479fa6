// Package config loads bfhl settings from defaults, an optional YAML file,
// environment variables and command flags through viper.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	gfconfig "github.com/fulmenhq/gofulmen/config"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

// AppName names the config directory ($XDG_CONFIG_HOME/bfhl).
const AppName = "bfhl"

// EnvPrefix namespaces every environment variable.
const EnvPrefix = "BFHL"

var (
	appConfig *Config
	configMu  sync.RWMutex
)

// envAliases lists the bare variable names accepted next to the prefixed
// ones. The prefixed name wins when both are set.
var envAliases = map[string][]string{
	"identity.official_email": {"OFFICIAL_EMAIL"},
	"ai.api_key":              {"GEMINI_API_KEY"},
	"server.port":             {"PORT"},
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("identity.official_email", "")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 10*1024)
	v.SetDefault("server.request_timeout", "30s")
	v.SetDefault("server.admin_token", "")
	v.SetDefault("server.trust_proxy", false)

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 120)
	v.SetDefault("rate_limit.window", "60s")
	v.SetDefault("rate_limit.sweep_interval", "5m")

	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.base_url", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.timeout", "0s")
	v.SetDefault("ai.requests_per_second", 0)
	v.SetDefault("ai.burst", 1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.environment", "production")
	v.SetDefault("logging.stream", "stderr")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.port", 9090)
}

// BindEnv maps every known key to BFHL_<SECTION>_<KEY> plus the bare aliases.
func BindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, key := range v.AllKeys() {
		names := []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
		names = append(names, envAliases[key]...)
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return fmt.Errorf("bind env for %s: %w", key, err)
		}
	}
	return nil
}

// ConfigureFile points v at cfgFile, or at config.yaml in the XDG config
// directory and ./config when cfgFile is empty.
func ConfigureFile(v *viper.Viper, cfgFile string) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		return
	}

	if dir := gfconfig.GetAppConfigDir(AppName); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath("./config")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

// ReadFile reads the configured file. A missing file is not an error; the
// returned bool reports whether one was read.
func ReadFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return false, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

// Decode resolves v into a typed Config and validates it.
func Decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load builds a Config from a fresh viper instance: defaults, cfgFile (or
// the discovered config.yaml), then environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	if err := BindEnv(v); err != nil {
		return nil, err
	}
	ConfigureFile(v, cfgFile)
	if _, err := ReadFile(v); err != nil {
		return nil, err
	}

	cfg, err := Decode(v)
	if err != nil {
		return nil, err
	}
	setConfig(cfg)
	return cfg, nil
}

// GetConfig returns the current application configuration (thread-safe)
func GetConfig() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return appConfig
}

// SetConfig replaces the current configuration, e.g. after a reload.
func SetConfig(cfg *Config) {
	setConfig(cfg)
}

func setConfig(cfg *Config) {
	configMu.Lock()
	defer configMu.Unlock()
	appConfig = cfg
}

// DefaultConfigPath returns the XDG-compliant path to the user config file.
func DefaultConfigPath() string {
	dir := gfconfig.GetAppConfigDir(AppName)
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
