package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ROCKBURST_PORT
const EnvPrefix = "ROCKBURST"

// Config holds the application configuration
type Config struct {
	Port         int    `mapstructure:"port"`
	DataDir      string `mapstructure:"data_dir"`
	ModelVersion string `mapstructure:"model_version"`
	LogLevel     string `mapstructure:"log_level"`
	LogFormat    string `mapstructure:"log_format"`
	Headless     bool   `mapstructure:"headless"`
	ExposeTraces bool   `mapstructure:"expose_traces"`
	Version      string `mapstructure:"-"`
}

// flagKeys maps command-line flag names to config keys
var flagKeys = map[string]string{
	"port":       "port",
	"data-dir":   "data_dir",
	"model":      "model_version",
	"log-level":  "log_level",
	"log-format": "log_format",
	"headless":   "headless",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("model_version", "rules-v1")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "console")
	v.SetDefault("headless", false)
	v.SetDefault("expose_traces", true)
}

// Load builds the configuration from defaults, an optional YAML file,
// ROCKBURST_* environment variables and any flags that were set, in
// increasing order of precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config failed: %w", err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			f := flags.Lookup(name)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s failed: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the loaded values
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be within 1-65535, got %d", c.Port)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.ModelVersion == "" {
		return fmt.Errorf("model_version is required")
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", c.LogFormat)
	}
	return nil
}

// DBPath returns the location of the parameter registry
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "rockburst.db")
}

// DefaultDataDir returns the per-user data directory, falling back to ./data
func DefaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "./data"
	}
	return filepath.Join(dir, "rockburst")
}
