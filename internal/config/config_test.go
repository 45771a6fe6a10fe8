// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxEntries != 20 {
		t.Errorf("MaxEntries = %d, want 20", cfg.MaxEntries)
	}
	if cfg.TTLCurrentYear != time.Hour {
		t.Errorf("TTLCurrentYear = %v, want 1h", cfg.TTLCurrentYear)
	}
}

func TestLoadEnvironmentOverride(t *testing.T) {
	t.Setenv("STATSCACHE_MAX_ENTRIES", "50")
	t.Setenv("STATSCACHE_LOG_LEVEL", "debug")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxEntries != 50 {
		t.Errorf("MaxEntries = %d, want 50 (env override)", cfg.MaxEntries)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name string
		mut  func(*Config)
	}{
		{"non-positive max entries", func(c *Config) { c.MaxEntries = 0 }},
		{"negative current-year ttl", func(c *Config) { c.TTLCurrentYear = -time.Second }},
		{"negative past-year ttl", func(c *Config) { c.TTLPastYear = -time.Second }},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mut(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected Validate to reject the mutated config")
			}
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Errorf("defaultConfig().Validate() = %v, want nil", err)
	}
}
