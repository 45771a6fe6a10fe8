// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Command statscache-demo wires a full statscache.Client against an
// on-disk store and a synthetic StatsFetcher, to exercise the engine
// end to end outside of the test suite.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/lumendash/statscache"
	"github.com/lumendash/statscache/internal/logging"
)

// randomStatsFetcher stands in for a real analytics backend: it
// returns a small synthetic payload after a short simulated latency.
type randomStatsFetcher struct{}

func (randomStatsFetcher) Fetch(ctx context.Context, p statscache.FetchParams) (any, error) {
	select {
	case <-time.After(50 * time.Millisecond):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return map[string]any{
		"community_id":   p.CommunityID,
		"dashboard_type": p.DashboardType,
		"block_start":    p.BlockStartDate,
		"views":          rand.Intn(10_000),
	}, nil
}

func main() {
	logging.Init(logging.Config{Level: "info", Format: "console", Output: os.Stderr})

	// LoadConfig layers internal/config's defaults under an optional
	// statscache.yaml and STATSCACHE_-prefixed environment variables, so
	// MaxEntries, the TTLs, compression and the storage path can all be
	// overridden without touching this file (e.g. STATSCACHE_MAX_ENTRIES=50).
	cfg, err := statscache.LoadConfig()
	if err != nil {
		logging.Fatal().Err(err).Msg("statscache-demo: failed to load config")
	}
	cfg.Fetcher = randomStatsFetcher{}

	client, err := statscache.New(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("statscache-demo: failed to construct client")
	}
	defer client.Terminate()

	ctx := context.Background()
	if err := client.OnCacheUpdated(ctx, func(evt statscache.CacheUpdatedEvent) {
		logging.Info().Str("key", evt.CacheKey).Bool("success", evt.Success).Msg("background refresh completed")
	}); err != nil {
		logging.Fatal().Err(err).Msg("statscache-demo: failed subscribing to cache updates")
	}

	params := statscache.FetchParams{
		CommunityID:    "demo-community",
		DashboardType:  "overview",
		DateBasis:      "calendar",
		BlockStartDate: "2026-01-01",
		BlockEndDate:   "2026-12-31",
	}

	setRes, err := client.Set(ctx, params, map[string]any{"views": 42}, nil)
	if err != nil {
		logging.Fatal().Err(err).Msg("statscache-demo: Set failed")
	}
	fmt.Printf("set key=%s compressed=%v objectSize=%d\n", setRes.CacheKey, setRes.Compressed, setRes.ObjectSize)

	getRes, err := client.Get(ctx, params)
	if err != nil {
		logging.Fatal().Err(err).Msg("statscache-demo: Get failed")
	}
	fmt.Printf("get key=%s expired=%v data=%s\n", getRes.CacheKey, getRes.IsExpired, string(getRes.Data))

	time.Sleep(200 * time.Millisecond)
}
