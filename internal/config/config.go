// Package config loads docgraph configuration.
//
// Configuration is loaded from a single YAML file specified by:
//   - the --config flag passed to the command, or
//   - the DOCGRAPH_CONFIG environment variable
//
// When neither is set, Default() is used as is. There is no automatic
// discovery of config files and environment variables never override
// values from the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/docgraph/internal/engine"
	"github.com/roach88/docgraph/internal/flex"
	"github.com/roach88/docgraph/internal/store"
)

// EnvVar names the environment variable holding the config file path.
const EnvVar = "DOCGRAPH_CONFIG"

// Config is the complete docgraph configuration.
type Config struct {
	// Database is the SQLite file path. ${VAR} references are expanded.
	Database string `yaml:"database"`

	// Hash is the digest algorithm: sha256 or blake3.
	// Pinned by the database on first open.
	Hash string `yaml:"hash"`

	// Compression is the payload compression for new documents:
	// none, zstd or lz4.
	Compression string `yaml:"compression"`

	// MaxDepth bounds reconstruction when the caller gives no bound.
	MaxDepth int `yaml:"max_depth"`

	// Cache configures the decoded content cache.
	Cache CacheConfig `yaml:"cache"`

	// Certifiers lists the identifiers allowed to certify documents.
	Certifiers []string `yaml:"certifiers"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`
}

// CacheConfig configures the read cache.
type CacheConfig struct {
	// TTL is how long a decoded document stays cached. Zero disables
	// the cache.
	TTL time.Duration `yaml:"ttl"`

	// Cleanup is the interval between expired-entry sweeps.
	Cleanup time.Duration `yaml:"cleanup"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Database:    "docgraph.db",
		Hash:        string(flex.SHA256),
		Compression: store.CompressionZstd.String(),
		MaxDepth:    engine.DefaultMaxDepth,
		Cache: CacheConfig{
			TTL:     5 * time.Minute,
			Cleanup: 10 * time.Minute,
		},
		LogLevel: "info",
	}
}

// Resolve loads the file at path, or the file named by DOCGRAPH_CONFIG
// when path is empty, or returns Default() when neither is set.
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvVar)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads configuration from a specific file path, on top of
// Default(). Unknown keys are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration on top of Default() and validates it.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Database = os.ExpandEnv(cfg.Database)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field.
func (c *Config) Validate() error {
	var errs []error

	if c.Database == "" {
		errs = append(errs, errors.New("database is required"))
	}
	if _, err := flex.ParseAlgorithm(c.Hash); err != nil {
		errs = append(errs, err)
	}
	if _, err := store.ParseCompression(c.Compression); err != nil {
		errs = append(errs, err)
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth must be >= 0, got %d", c.MaxDepth))
	}
	if c.Cache.TTL < 0 || c.Cache.Cleanup < 0 {
		errs = append(errs, errors.New("cache durations must be >= 0"))
	}
	for _, id := range c.Certifiers {
		if err := flex.ValidateIdentifier(id); err != nil {
			errs = append(errs, fmt.Errorf("certifiers: %w", err))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Algorithm returns the parsed hash algorithm.
// Valid only after Validate succeeds.
func (c *Config) Algorithm() flex.Algorithm {
	alg, _ := flex.ParseAlgorithm(c.Hash)
	return alg
}

// CompressionTag returns the parsed compression.
// Valid only after Validate succeeds.
func (c *Config) CompressionTag() store.Compression {
	tag, _ := store.ParseCompression(c.Compression)
	return tag
}
