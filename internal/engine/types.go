// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package engine is the worker side of the cache: it owns the
// durable store, the in-memory eviction index, and the inbound
// message queue, and runs the serial dispatch loop that services
// GET/SET/UPDATE/CLEAR_ONE/CLEAR_ALL one at a time.
package engine

import (
	"context"
	"time"

	"github.com/lumendash/statscache/internal/policy"
	"github.com/lumendash/statscache/internal/queue"
)

// Config configures one Engine instance.
type Config struct {
	MaxEntries         int
	TTL                policy.TTLConfig
	CompressionEnabled bool
}

// DefaultConfig mirrors spec.md's defaults.
func DefaultConfig() Config {
	return Config{
		MaxEntries:         20,
		TTL:                policy.DefaultTTLConfig(),
		CompressionEnabled: true,
	}
}

// FetchParams identifies the dashboard data block a StatsFetcher call
// should produce. It is the same identity policy.Key is built from.
type FetchParams struct {
	CommunityID    string
	DashboardType  string
	DateBasis      string
	BlockStartDate string
	BlockEndDate   string
	Year           *int
}

func (p FetchParams) keyParams() policy.KeyParams {
	return policy.KeyParams{
		CommunityID:    p.CommunityID,
		DashboardType:  p.DashboardType,
		DateBasis:      p.DateBasis,
		BlockStartDate: p.BlockStartDate,
		BlockEndDate:   p.BlockEndDate,
	}
}

// SetParams is the queue.Message.Params payload for a SET. Value is
// the already-fetched result to store; FetchParams is carried along so
// a later background UPDATE for this key knows what to re-fetch.
type SetParams struct {
	FetchParams
	Value    any
	Compress *bool // nil defers to Config.CompressionEnabled
}

// StatsFetcher is supplied by the embedding application; the engine
// treats the returned payload as opaque and simply re-encodes and
// stores whatever it gets back.
type StatsFetcher interface {
	Fetch(ctx context.Context, p FetchParams) (any, error)
}

// CacheUpdatedEvent is published after a background refresh completes
// (successfully or not), carrying enough information for the host to
// decide whether to re-render. On success, Data carries the refreshed,
// encoded payload so a subscriber can use it directly without issuing
// a follow-up GET.
type CacheUpdatedEvent struct {
	CacheKey string
	Data     []byte
	Year     *int
	Success  bool
	Error    string
}

// EventSink dispatches CacheUpdatedEvent notifications to the host.
// Subscribe exists for callers that want a channel instead of a
// registered callback; the statscache client uses it to implement
// OnCacheUpdated.
type EventSink interface {
	Publish(ctx context.Context, evt CacheUpdatedEvent) error
	Subscribe(ctx context.Context) (<-chan CacheUpdatedEvent, error)
}

// Result is the success-path payload of a Response. Field population
// depends on the originating message Type; see each handler.
type Result struct {
	Data                 []byte
	IsExpired            bool
	Year                 *int
	ServerFetchTimestamp *time.Time
	CacheKey             string
	Compressed           bool
	ObjectSize           int64
}

// Response answers a host-originated queue.Message. Background
// (negative-correlation) messages never produce a Response; their
// outcome is reported through EventSink instead.
type Response struct {
	CorrelationID int64
	Type          queue.Type
	Result        Result
	Err           error
}
