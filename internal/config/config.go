// Package config loads cauldron configuration.
//
// Layers, later ones winning:
//  1. built-in defaults
//  2. a TOML file (--config, or cauldron.toml in the working directory)
//  3. CAULDRON_* environment variables (CAULDRON_DATABASE_PATH -> database.path)
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFile is the config file looked for in the working directory.
const DefaultFile = "cauldron.toml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "CAULDRON_"

// Config is the resolved configuration.
type Config struct {
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Output   OutputConfig   `koanf:"output"`
}

type DatabaseConfig struct {
	Path string `koanf:"path"`
}

type LogConfig struct {
	Verbosity int  `koanf:"verbosity"`
	JSON      bool `koanf:"json"`
}

// CatalogConfig points at a CUE ingredient table replacing the embedded one.
// Empty means embedded.
type CatalogConfig struct {
	Path string `koanf:"path"`
}

// MetricsConfig sets where `run` serves /metrics. Empty disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

type OutputConfig struct {
	Format string `koanf:"format"`
}

func defaults() map[string]any {
	return map[string]any{
		"database.path": "cauldron.db",
		"log.verbosity": 0,
		"log.json":      false,
		"catalog.path":  "",
		"metrics.addr":  "",
		"output.format": "text",
	}
}

// Load resolves configuration. path names a TOML file that must exist; an
// empty path loads DefaultFile if present.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.Database.Path == "" {
		errs = append(errs, errors.New("database.path: must not be empty"))
	}
	if c.Log.Verbosity < 0 {
		errs = append(errs, fmt.Errorf("log.verbosity: %d is negative", c.Log.Verbosity))
	}
	switch c.Output.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("output.format: %q is not text or json", c.Output.Format))
	}
	return errors.Join(errs...)
}
