// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"time"

	"github.com/sony/gobreaker/v2"
)

// CircuitBreakerConfig tunes the breaker guarding StatsFetcher calls
// made during background refresh.
//
// Grounded on the teacher's internal/eventprocessor.CircuitBreakerConfig
// and DefaultCircuitBreakerConfig: same field shape and defaults, only
// the name changes to describe what's being protected here.
type CircuitBreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultCircuitBreakerConfig mirrors the teacher's defaults verbatim.
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// newRefreshBreaker builds the gobreaker instance a background refresh
// trips through. Opening after FailureThreshold consecutive failures
// turns a slow, failing upstream stats API into fast failures instead
// of stalled priority-10 handlers.
func newRefreshBreaker(cfg CircuitBreakerConfig) *gobreaker.CircuitBreaker[any] {
	st := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
	}
	return gobreaker.NewCircuitBreaker[any](st)
}

// breakerState reports the breaker's current state as a string, for
// logging and diagnostics, mirroring the teacher's CircuitBreakerState
// helper.
func breakerState(cb *gobreaker.CircuitBreaker[any]) string {
	return cb.State().String()
}
