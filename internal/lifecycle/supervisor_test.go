// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingService struct {
	starts atomic.Int64
}

func (s *countingService) Serve(ctx context.Context) error {
	s.starts.Add(1)
	<-ctx.Done()
	return ctx.Err()
}

func TestSupervisorRunsRegisteredService(t *testing.T) {
	sup := New(DefaultConfig())
	svc := &countingService{}
	sup.Add(svc)

	stop := sup.ServeBackground()
	defer stop()

	deadline := time.After(2 * time.Second)
	for svc.starts.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("service never started")
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestSupervisorStopsOnCancel(t *testing.T) {
	sup := New(DefaultConfig())
	sup.Add(&countingService{})

	stop := sup.ServeBackground()
	done := make(chan struct{})
	go func() {
		stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("supervisor did not stop within timeout")
	}
}
