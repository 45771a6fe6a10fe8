// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package lifecycle supervises the engine's dispatcher goroutine. A
// handler panic the engine itself cannot recover from (one that
// escapes dispatchOne, e.g. a panic during goroutine setup rather than
// message handling) restarts the whole Serve loop instead of taking
// the process down, so the host keeps servicing requests across a
// worker crash.
//
// Grounded on the teacher's internal/supervisor.SupervisorTree, scaled
// from a three-layer tree (data/messaging/api) to the single service
// one cache engine instance needs.
package lifecycle

import (
	"context"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/lumendash/statscache/internal/logging"
)

// Config mirrors the teacher's TreeConfig fields and defaults.
type Config struct {
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// DefaultConfig matches suture's own built-in defaults.
func DefaultConfig() Config {
	return Config{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Supervisor runs one suture.Supervisor over the engine's Serve
// method.
type Supervisor struct {
	root *suture.Supervisor
}

// New builds a Supervisor. Call Add to register the engine (or any
// other suture.Service) before calling Serve.
func New(cfg Config) *Supervisor {
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 5.0
	}
	if cfg.FailureDecay == 0 {
		cfg.FailureDecay = 30.0
	}
	if cfg.FailureBackoff == 0 {
		cfg.FailureBackoff = 15 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logging.NewSlogLogger()}
	spec := suture.Spec{
		EventHook:        handler.MustHook(),
		FailureThreshold: cfg.FailureThreshold,
		FailureDecay:     cfg.FailureDecay,
		FailureBackoff:   cfg.FailureBackoff,
		Timeout:          cfg.ShutdownTimeout,
	}

	return &Supervisor{root: suture.New("statscache", spec)}
}

// Add registers svc with the supervisor, returning a token that can be
// used with Remove.
func (s *Supervisor) Add(svc suture.Service) suture.ServiceToken {
	return s.root.Add(svc)
}

// Remove stops and unregisters a previously Added service.
func (s *Supervisor) Remove(token suture.ServiceToken) error {
	return s.root.Remove(token)
}

// Serve runs the supervisor tree until ctx is cancelled. Blocks the
// calling goroutine; callers typically run it in its own goroutine and
// use ctx to trigger shutdown.
func (s *Supervisor) Serve(ctx context.Context) error {
	return s.root.Serve(ctx)
}

// ServeBackground starts the supervisor in a new goroutine and returns
// a cancel function that stops it.
func (s *Supervisor) ServeBackground() (stop func()) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.root.Serve(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}
