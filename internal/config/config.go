// Package config loads patchwork settings from defaults, an optional TOML
// file and PATCHWORK_ environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/roach88/patchwork/internal/unit"
)

// EnvPrefix prefixes every environment override (PATCHWORK_DATABASE_PATH, ...).
const EnvPrefix = "PATCHWORK"

// Config holds application configuration.
type Config struct {
	Database DatabaseConfig
	World    WorldConfig
	Order    OrderConfig
	Log      LogConfig
}

// DatabaseConfig holds journal settings. An empty path keeps the journal in
// memory.
type DatabaseConfig struct {
	Path string
}

// WorldConfig holds world loading settings.
type WorldConfig struct {
	ModsRoot string `mapstructure:"mods_root"`
}

// OrderConfig holds ordering settings.
type OrderConfig struct {
	// Strict fails ordering when an extension's package is missing from the
	// load order instead of skipping it.
	Strict bool
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string
}

// Load reads configuration. path selects the config file; when empty,
// PATCHWORK_CONFIG is consulted, then $HOME/.config/patchwork/config.toml.
// A missing default file is not an error; a missing explicit one is.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("database.path", "")
	v.SetDefault("world.mods_root", unit.DefaultModsRoot)
	v.SetDefault("order.strict", false)
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "patchwork"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if _, err := c.LogLevel(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// LogLevel parses Log.Level ("debug", "info", "warn", "error").
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", c.Log.Level, err)
	}
	return level, nil
}
