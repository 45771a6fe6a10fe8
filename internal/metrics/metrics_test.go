// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRefreshLabelsOutcome(t *testing.T) {
	CacheRefreshes.Reset()
	RecordRefresh(true)
	RecordRefresh(false)
	RecordRefresh(false)

	if got := testutil.ToFloat64(CacheRefreshes.WithLabelValues("success")); got != 1 {
		t.Errorf("success count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(CacheRefreshes.WithLabelValues("failure")); got != 2 {
		t.Errorf("failure count = %v, want 2", got)
	}
}

func TestSetBreakerState(t *testing.T) {
	SetBreakerState("closed")
	if got := testutil.ToFloat64(RefreshBreakerState); got != 0 {
		t.Errorf("closed state = %v, want 0", got)
	}
	SetBreakerState("open")
	if got := testutil.ToFloat64(RefreshBreakerState); got != 2 {
		t.Errorf("open state = %v, want 2", got)
	}
	SetBreakerState("half-open")
	if got := testutil.ToFloat64(RefreshBreakerState); got != 1 {
		t.Errorf("half-open state = %v, want 1", got)
	}
}

func TestRecordHandlerObservesDuration(t *testing.T) {
	RecordHandler("GET", 5*time.Millisecond)
	if got := testutil.CollectAndCount(HandlerDuration); got == 0 {
		t.Error("expected at least one observation recorded")
	}
}
