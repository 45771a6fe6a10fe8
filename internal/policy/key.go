// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package policy constructs cache keys and decides TTL freshness. It
// touches no storage and holds no state: every function here is pure,
// given the same arguments and the same wall clock reading.
package policy

import "strings"

// KeyParams identifies one dashboard data block.
type KeyParams struct {
	CommunityID    string
	DashboardType  string
	DateBasis      string
	BlockStartDate string
	BlockEndDate   string
}

// Key builds the deterministic cache key for p:
//
//	isd_{communityIdShort}_{dashboardType}_{dateBasis}_{startShort}_{endShort}
//
// Pure, timezone- and locale-independent: it slices ASCII bytes, it
// never parses a date or consults time.Location.
func Key(p KeyParams) string {
	var b strings.Builder
	b.WriteString("isd_")
	b.WriteString(shortOrDefault(p.CommunityID, 8, "global"))
	b.WriteByte('_')
	b.WriteString(p.DashboardType)
	b.WriteByte('_')
	b.WriteString(p.DateBasis)
	b.WriteByte('_')
	b.WriteString(shortOrDefault(p.BlockStartDate, 10, "default"))
	b.WriteByte('_')
	b.WriteString(shortOrDefault(p.BlockEndDate, 10, "default"))
	return b.String()
}

func shortOrDefault(s string, n int, fallback string) string {
	if s == "" {
		return fallback
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
