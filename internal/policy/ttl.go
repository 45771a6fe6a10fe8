// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package policy

import (
	"strconv"
	"time"
)

// TTLConfig holds the two-tier TTL policy. CurrentYear applies to
// entries whose block falls in the current calendar year; PastYear
// applies to everything else, including entries whose year could not
// be determined (see DESIGN.md: treating an unknown year as past-year
// avoids refresh storms on entries the engine cannot classify).
type TTLConfig struct {
	CurrentYear time.Duration
	PastYear    time.Duration
}

// DefaultTTLConfig mirrors spec.md's defaults.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		CurrentYear: time.Hour,
		PastYear:    8760 * time.Hour, // 365 days
	}
}

// YearOf parses a leading 4-digit year off a block start date such as
// "2026-01-01". Returns (0, false) on empty or malformed input; it
// never panics on short or non-numeric strings.
func YearOf(blockStartDate string) (int, bool) {
	if len(blockStartDate) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(blockStartDate[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

// IsCurrentYear reports whether year matches now's UTC calendar year.
func IsCurrentYear(year int, now time.Time) bool {
	return year == now.UTC().Year()
}

// Valid reports whether an entry written at ts, tagged with year
// (nil if unknown), is still fresh as of now under cfg.
//
// Strict less-than: an entry exactly TTL-old is no longer valid.
func Valid(ts time.Time, year *int, now time.Time, cfg TTLConfig) bool {
	ttl := cfg.PastYear
	if year != nil && IsCurrentYear(*year, now) {
		ttl = cfg.CurrentYear
	}
	return now.Sub(ts) < ttl
}
