// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package metrics exposes the engine's runtime counters as Prometheus
// instruments, the same promauto-registered package-level pattern the
// teacher uses throughout its own observability layer.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statscache_hits_total",
		Help: "Total number of GET calls served from a present entry.",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statscache_misses_total",
		Help: "Total number of GET calls with no stored entry (absent or corrupt).",
	})

	CacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statscache_evictions_total",
		Help: "Total number of entries removed by capacity eviction.",
	})

	CacheRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "statscache_background_refreshes_total",
		Help: "Total number of background UPDATE refreshes, labeled by outcome.",
	}, []string{"outcome"})

	CacheCorruptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "statscache_corruptions_total",
		Help: "Total number of entries dropped for failing codec decode.",
	})

	CacheTotalKeys = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statscache_keys",
		Help: "Current number of entries tracked by the eviction index.",
	})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statscache_queue_depth",
		Help: "Current number of messages waiting in the dispatcher queue.",
	})

	HandlerDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "statscache_handler_duration_seconds",
		Help:    "Duration of one dispatched message's handler, by message type.",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})

	RefreshBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "statscache_refresh_breaker_state",
		Help: "Background-refresh circuit breaker state: 0=closed, 1=half-open, 2=open.",
	})
)

// RecordHandler records how long a dispatched message's handler took.
func RecordHandler(messageType string, d time.Duration) {
	HandlerDuration.WithLabelValues(messageType).Observe(d.Seconds())
}

// RecordRefresh records the outcome of one background refresh.
func RecordRefresh(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	CacheRefreshes.WithLabelValues(outcome).Inc()
}

// SetBreakerState maps a gobreaker state name to RefreshBreakerState's
// numeric encoding.
func SetBreakerState(state string) {
	switch state {
	case "closed":
		RefreshBreakerState.Set(0)
	case "half-open":
		RefreshBreakerState.Set(1)
	case "open":
		RefreshBreakerState.Set(2)
	}
}
