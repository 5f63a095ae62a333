// Package config loads the engine's ambient configuration: data directory, store engine choice,
// and log level, from flags/env/file via cobra+viper. Grounded on the teacher's
// internal/config/config.go Load/setDefaults/bindFlags/validate pipeline, trimmed to the fields
// objectfsd actually needs — no HTTP listen addresses, TLS, or auth fields, since there is no
// HTTP façade in scope.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// StoreEngine selects which Store implementation objectfsd constructs.
type StoreEngine string

const (
	StoreEnginePebble StoreEngine = "pebble"
	StoreEngineBadger StoreEngine = "badger"
)

// Config holds the engine's ambient configuration.
type Config struct {
	DataDir     string `mapstructure:"data_dir"`
	StoreEngine string `mapstructure:"store_engine"`
	LogLevel    string `mapstructure:"log_level"`
}

// Load builds a Config from defaults, an optional config file, environment variables prefixed
// OBJECTFS_, and explicitly set flags, in that increasing order of precedence (viper's layering).
func Load(cmd *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if err := bindFlags(cmd, v); err != nil {
		return nil, fmt.Errorf("failed to bind flags: %w", err)
	}

	if configFile, _ := cmd.Flags().GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("OBJECTFS")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// No default for data_dir - must be explicitly configured.
	v.SetDefault("store_engine", string(StoreEnginePebble))
	v.SetDefault("log_level", "info")
}

func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	flags := map[string]string{
		"data-dir":     "data_dir",
		"store-engine": "store_engine",
		"log-level":    "log_level",
	}

	for flag, key := range flags {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return err
		}
	}

	return nil
}

func validate(cfg *Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir is required: specify via --data-dir flag, config file, or OBJECTFS_DATA_DIR environment variable")
	}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	cfg.DataDir = filepath.Clean(cfg.DataDir)

	switch StoreEngine(cfg.StoreEngine) {
	case StoreEnginePebble, StoreEngineBadger:
	default:
		return fmt.Errorf("store_engine must be %q or %q, got %q", StoreEnginePebble, StoreEngineBadger, cfg.StoreEngine)
	}

	return nil
}
