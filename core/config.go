package core

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config configures bundle ingestion and conversion.
type Config struct {
	// AssetSizeLimit is the byte ceiling above which an asset payload is
	// replaced by the omission sentinel (default: 1 MB).
	AssetSizeLimit int64 `yaml:"asset_size_limit"`

	// MaxArchiveSize is the maximum bundle archive size accepted for
	// ingestion (default: 100 MB).
	MaxArchiveSize int64 `yaml:"max_archive_size"`

	// Logger for debug/error messages.
	Logger *slog.Logger `yaml:"-"`
}

// WithDefaults returns the config with zero fields replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.AssetSizeLimit <= 0 {
		c.AssetSizeLimit = 1000000
	}
	if c.MaxArchiveSize <= 0 {
		c.MaxArchiveSize = 100 * 1024 * 1024
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	return c
}

// LoadConfigFile reads a YAML config file.
func LoadConfigFile(path string) (Config, error) {
	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return cfg, nil
}
