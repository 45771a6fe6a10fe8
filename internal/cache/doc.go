// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package cache holds the data structures shared across the statistics
cache engine: the Entry type every stored dashboard result is wrapped
in, and a Stats struct for the engine's runtime counters.

# Overview

This package owns no policy. It does not decide what is stale, what is
over capacity, or what gets compressed — internal/policy,
internal/eviction and internal/codec decide those things using the
types defined here. Keeping Entry and Stats in one dependency-free
package lets every other package in the module import them without a
cycle.

# Entry

Entry is the atomic unit of storage: the compressed-or-transparent
payload bytes for one dashboard data block, plus the metadata the
eviction and TTL-policy layers need (Timestamp, LastAccessed, the key
components, the optional Year used by the TTL policy).
*/
package cache
