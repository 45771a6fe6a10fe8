// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package config loads the engine's tunables (capacity, TTL, storage
// path, logging) from defaults, an optional YAML file, and environment
// variables, in that order of precedence — the same three-layer koanf
// pipeline the teacher uses for its own server configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds every tunable the embedding application can set without
// touching code, per SPEC_FULL.md §6.
type Config struct {
	MaxEntries         int           `koanf:"max_entries"`
	TTLCurrentYear     time.Duration `koanf:"ttl_current_year"`
	TTLPastYear        time.Duration `koanf:"ttl_past_year"`
	CompressionEnabled bool          `koanf:"compression_enabled"`
	StoragePath        string        `koanf:"storage_path"`
	LogLevel           string        `koanf:"log_level"`
	LogFormat          string        `koanf:"log_format"`
	MetricsEnabled     bool          `koanf:"metrics_enabled"`
}

func defaultConfig() *Config {
	return &Config{
		MaxEntries:         20,
		TTLCurrentYear:     time.Hour,
		TTLPastYear:        8760 * time.Hour,
		CompressionEnabled: true,
		StoragePath:        "./data/statscache",
		LogLevel:           "info",
		LogFormat:          "json",
		MetricsEnabled:     true,
	}
}

// DefaultConfigPaths lists the paths searched for a config file, first
// match wins.
var DefaultConfigPaths = []string{
	"statscache.yaml",
	"statscache.yml",
	"/etc/statscache/config.yaml",
}

// ConfigPathEnvVar overrides the search paths with an explicit file.
const ConfigPathEnvVar = "STATSCACHE_CONFIG_PATH"

// envPrefix namespaces every environment variable this package reads,
// so STATSCACHE_MAX_ENTRIES maps to max_entries, matching the
// teacher's TAUTULLI_URL -> tautulli.url transform.
const envPrefix = "STATSCACHE_"

func envTransformFunc(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(s)
}

// Load builds a Config from defaults, an optional YAML file, and
// STATSCACHE_-prefixed environment variables, in ascending priority.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// Validate rejects configuration that would make the engine behave
// nonsensically rather than failing some way downstream.
func (c *Config) Validate() error {
	if c.MaxEntries <= 0 {
		return fmt.Errorf("config: max_entries must be positive, got %d", c.MaxEntries)
	}
	if c.TTLCurrentYear < 0 {
		return fmt.Errorf("config: ttl_current_year must not be negative")
	}
	if c.TTLPastYear < 0 {
		return fmt.Errorf("config: ttl_past_year must not be negative")
	}
	switch c.LogLevel {
	case "trace", "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return fmt.Errorf("config: unrecognized log_level %q", c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("config: unrecognized log_format %q", c.LogFormat)
	}
	return nil
}
