// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNewSlogHandler(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	if handler.attrs != nil || handler.groups != nil {
		t.Errorf("NewSlogHandler() = %+v, want zero-value attrs/groups", handler)
	}
}

func TestSlogHandlerEnabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		zerologLevel zerolog.Level
		slogLevel    slog.Level
		want         bool
	}{
		{"info logger disables debug", zerolog.InfoLevel, slog.LevelDebug, false},
		{"info logger enables info", zerolog.InfoLevel, slog.LevelInfo, true},
		{"warn logger disables info", zerolog.WarnLevel, slog.LevelInfo, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			logger := zerolog.New(nil).Level(tt.zerologLevel)
			handler := NewSlogHandlerWithLogger(logger)
			if got := handler.Enabled(context.Background(), tt.slogLevel); got != tt.want {
				t.Errorf("Enabled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSlogHandlerHandle(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level     slog.Level
		message   string
		wantLevel string
	}{
		{slog.LevelDebug, "debug message", "debug"},
		{slog.LevelInfo, "info message", "info"},
		{slog.LevelWarn, "warn message", "warn"},
		{slog.LevelError, "error message", "error"},
		{slog.Level(100), "unknown level message", "info"}, // unmatched levels default to info
	}
	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			handler := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

			record := slog.NewRecord(time.Now(), tt.level, tt.message, 0)
			if err := handler.Handle(context.Background(), record); err != nil {
				t.Fatalf("Handle() error = %v", err)
			}

			output := buf.String()
			if !strings.Contains(output, tt.wantLevel) || !strings.Contains(output, tt.message) {
				t.Errorf("Handle() output = %s, want level %q and message %q", output, tt.wantLevel, tt.message)
			}
		})
	}
}

func TestSlogHandlerHandleWithAttributes(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	handler := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))
	handler = handler.WithAttrs([]slog.Attr{slog.String("service", "test-service")}).(*SlogHandler)

	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test message", 0)
	record.AddAttrs(slog.String("key1", "value1"), slog.Int("key2", 42))
	if err := handler.Handle(context.Background(), record); err != nil {
		t.Fatalf("Handle() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"service", "test-service", "key1", "value1", "key2", "42"} {
		if !strings.Contains(output, want) {
			t.Errorf("Handle() output missing %q: %s", want, output)
		}
	}
}

func TestSlogHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	handler1 := handler.WithAttrs([]slog.Attr{slog.String("key1", "value1")}).(*SlogHandler)
	if len(handler1.attrs) != 1 {
		t.Errorf("WithAttrs() attrs length = %d, want 1", len(handler1.attrs))
	}
	if len(handler.attrs) != 0 {
		t.Error("WithAttrs() should not modify original handler")
	}
}

func TestSlogHandlerWithGroup(t *testing.T) {
	t.Parallel()

	handler := NewSlogHandler()
	handler1 := handler.WithGroup("group1").(*SlogHandler)
	if len(handler1.groups) != 1 || handler1.groups[0] != "group1" {
		t.Errorf("WithGroup() groups = %v, want [group1]", handler1.groups)
	}
	if handler.WithGroup("") != handler {
		t.Error("WithGroup(\"\") should return the same handler")
	}
}

func TestAddAttrTypesAndGroups(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		attr     slog.Attr
		wantKeys []string
	}{
		{"string", slog.String("str", "value"), []string{"str", "value"}},
		{"int64", slog.Int64("int", 42), []string{"int", "42"}},
		{"bool", slog.Bool("flag", true), []string{"flag", "true"}},
		{"duration", slog.Duration("elapsed", time.Second), []string{"elapsed"}},
		{"any", slog.Any("data", map[string]int{"a": 1}), []string{"data"}},
		{"group", slog.Group("request", slog.String("method", "GET")), []string{"request.method", "GET"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			handler := NewSlogHandlerWithLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

			record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
			record.AddAttrs(tt.attr)
			_ = handler.Handle(context.Background(), record)

			output := buf.String()
			for _, key := range tt.wantKeys {
				if !strings.Contains(output, key) {
					t.Errorf("output missing %q: %s", key, output)
				}
			}
		})
	}
}

func TestSlogToZerologLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		slogLvl  slog.Level
		wantZlog zerolog.Level
	}{
		{slog.LevelDebug, zerolog.DebugLevel},
		{slog.LevelInfo, zerolog.InfoLevel},
		{slog.LevelWarn, zerolog.WarnLevel},
		{slog.LevelError, zerolog.ErrorLevel},
		{slog.Level(-8), zerolog.TraceLevel},
		{slog.Level(12), zerolog.ErrorLevel},
	}
	for _, tt := range tests {
		if got := slogToZerologLevel(tt.slogLvl); got != tt.wantZlog {
			t.Errorf("slogToZerologLevel(%v) = %v, want %v", tt.slogLvl, got, tt.wantZlog)
		}
	}
}

// TestNewSlogLogger covers the one entry point this module actually
// calls: internal/lifecycle wires NewSlogLogger into sutureslog.Handler.
func TestNewSlogLogger(t *testing.T) {
	// Not parallel: mutates global logger state.
	var buf bytes.Buffer
	SetLogger(zerolog.New(&buf).Level(zerolog.TraceLevel))

	slogger := NewSlogLogger()
	slogger.Info("test from slog")

	if !strings.Contains(buf.String(), "test from slog") {
		t.Errorf("NewSlogLogger() should write to the global logger: %s", buf.String())
	}
}
