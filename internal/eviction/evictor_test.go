// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package eviction

import (
	"testing"
	"time"
)

func TestEvictorVictimsOrdersByLastAccessed(t *testing.T) {
	e := New()
	base := time.Now()

	e.Track("c", base.Add(3*time.Second), base)
	e.Track("a", base.Add(1*time.Second), base)
	e.Track("b", base.Add(2*time.Second), base)

	if e.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", e.Len())
	}

	victims := e.Victims(2)
	if len(victims) != 2 || victims[0] != "a" || victims[1] != "b" {
		t.Errorf("Victims(2) = %v, want [a b]", victims)
	}
	if e.Len() != 1 {
		t.Errorf("Len() after Victims = %d, want 1", e.Len())
	}
}

func TestEvictorTieBreaksOnTimestamp(t *testing.T) {
	e := New()
	sameAccess := time.Now()

	e.Track("newer", sameAccess, sameAccess.Add(time.Second))
	e.Track("older", sameAccess, sameAccess)

	victims := e.Victims(1)
	if len(victims) != 1 || victims[0] != "older" {
		t.Errorf("Victims(1) = %v, want [older]", victims)
	}
}

func TestEvictorTrackUpdatesExisting(t *testing.T) {
	e := New()
	base := time.Now()

	e.Track("a", base, base)
	e.Track("b", base.Add(time.Second), base)

	// Touching "a" again should move it to the back of the LRU order.
	e.Track("a", base.Add(2*time.Second), base)

	victims := e.Victims(1)
	if len(victims) != 1 || victims[0] != "b" {
		t.Errorf("Victims(1) = %v, want [b]", victims)
	}
	if e.Len() != 1 {
		t.Errorf("Len() = %d, want 1", e.Len())
	}
}

func TestEvictorUntrack(t *testing.T) {
	e := New()
	base := time.Now()
	e.Track("a", base, base)
	e.Track("b", base.Add(time.Second), base)

	e.Untrack("a")
	if e.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", e.Len())
	}

	victims := e.Victims(1)
	if len(victims) != 1 || victims[0] != "b" {
		t.Errorf("Victims(1) = %v, want [b]", victims)
	}
}

func TestEvictorReset(t *testing.T) {
	e := New()
	base := time.Now()
	e.Track("a", base, base)
	e.Track("b", base, base)

	e.Reset()
	if e.Len() != 0 {
		t.Errorf("Len() after Reset = %d, want 0", e.Len())
	}
}

func TestEvictorVictimsCapsAtLen(t *testing.T) {
	e := New()
	base := time.Now()
	e.Track("a", base, base)

	victims := e.Victims(5)
	if len(victims) != 1 {
		t.Errorf("Victims(5) with 1 tracked = %d entries, want 1", len(victims))
	}
}

func TestEvictorVictimsZeroOrNegative(t *testing.T) {
	e := New()
	e.Track("a", time.Now(), time.Now())

	if v := e.Victims(0); v != nil {
		t.Errorf("Victims(0) = %v, want nil", v)
	}
	if v := e.Victims(-1); v != nil {
		t.Errorf("Victims(-1) = %v, want nil", v)
	}
}
