// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package cache

import "time"

// Entry is the atomic unit of storage in the stats cache.
//
// Invariants (see spec):
//  1. Key uniquely identifies an entry.
//  2. LastAccessed >= Timestamp at rest.
//  3. Compressed == true iff Data holds an opaque, codec-compressed buffer.
//  4. Year == nil implies ServerFetchTimestamp == nil.
type Entry struct {
	Key        string
	Data       []byte
	Compressed bool
	ObjectSize int64

	Timestamp    time.Time
	LastAccessed time.Time

	CommunityID    string
	DashboardType  string
	DateBasis      string
	BlockStartDate string
	BlockEndDate   string

	Year                 *int
	ServerFetchTimestamp *time.Time

	Version string
}

// CurrentVersion is the schema tag written to every new Entry. Bumping
// it signals a wire-format change; the storage adapter does not
// currently migrate old versions, it simply tags entries with it.
const CurrentVersion = "v1"

// Stats is a plain struct of the engine's runtime performance
// counters. Nothing in this module fills one in; the engine reports
// these figures through internal/metrics instead.
type Stats struct {
	Hits        int64
	Misses      int64
	Evictions   int64
	Refreshes   int64
	Corruptions int64
	TotalKeys   int64
	QueueDepth  int64
}
