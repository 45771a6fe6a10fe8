// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/lumendash/statscache/internal/eviction"
	"github.com/lumendash/statscache/internal/logging"
	"github.com/lumendash/statscache/internal/metrics"
	"github.com/lumendash/statscache/internal/queue"
	"github.com/lumendash/statscache/internal/storage"
)

// Engine is the worker side of one cache instance: a serial dispatcher
// over a single queue.Queue, backed by one storage.Store and one
// eviction.Evictor. It implements suture.Service (Serve(ctx) error) so
// internal/lifecycle can supervise it.
type Engine struct {
	mu         sync.Mutex
	q          *queue.Queue
	processing bool
	wake       chan struct{}

	store   *storage.Store
	evictor *eviction.Evictor
	cfg     Config
	fetcher StatsFetcher
	sink    EventSink

	refreshBreaker *gobreaker.CircuitBreaker[any]
	nextBgID       atomic.Int64

	out chan Response
}

// New builds an Engine. store must already be open; evictor should be
// pre-seeded from store.GetAll at startup by the caller (the
// statscache Client does this before handing the engine to the
// supervisor).
func New(store *storage.Store, evictor *eviction.Evictor, cfg Config, fetcher StatsFetcher, sink EventSink) *Engine {
	return &Engine{
		q:              queue.New(),
		wake:           make(chan struct{}, 1),
		store:          store,
		evictor:        evictor,
		cfg:            cfg,
		fetcher:        fetcher,
		sink:           sink,
		refreshBreaker: newRefreshBreaker(DefaultCircuitBreakerConfig("statscache-refresh")),
		out:            make(chan Response, 64),
	}
}

// Outbox is the channel host-originated Responses arrive on.
// CacheUpdated notifications bypass this channel entirely — they go
// through the EventSink supplied to New, per §6.
func (e *Engine) Outbox() <-chan Response {
	return e.out
}

// Enqueue submits msg for dispatch and wakes the dispatcher if it is
// idle. Safe to call from any goroutine.
func (e *Engine) Enqueue(msg queue.Message) {
	e.mu.Lock()
	e.q.Enqueue(msg)
	e.mu.Unlock()

	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// hasPendingUpdate reports whether an UPDATE for cacheKey is already
// queued, used by the GET handler to avoid piling up redundant
// refreshes.
func (e *Engine) hasPendingUpdate(cacheKey string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.q.HasPendingUpdate(cacheKey)
}

// QueueDepth reports how many messages are waiting.
func (e *Engine) QueueDepth() int64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return int64(e.q.Len())
}

// Serve runs the dispatch loop until ctx is cancelled, satisfying
// suture.Service. One goroutine, never re-entered: each handler runs
// to completion before the next is popped, matching the single-
// threaded cooperative execution model in SPEC_FULL.md §5.
func (e *Engine) Serve(ctx context.Context) error {
	// Drain anything left over from a prior supervised run before
	// waiting on the next wake-up.
	e.drain(ctx)

	for {
		select {
		case <-ctx.Done():
			e.rejectPending()
			return ctx.Err()
		case <-e.wake:
			e.drain(ctx)
		}
	}
}

func (e *Engine) drain(ctx context.Context) {
	for {
		e.mu.Lock()
		msg, ok := e.q.Pop()
		if ok {
			e.processing = true
		}
		depth := int64(e.q.Len())
		e.mu.Unlock()
		metrics.QueueDepth.Set(float64(depth))
		if !ok {
			return
		}

		start := time.Now()
		e.dispatchOne(ctx, msg)
		metrics.RecordHandler(msg.Type.String(), time.Since(start))
		metrics.CacheTotalKeys.Set(float64(e.evictor.Len()))

		e.mu.Lock()
		e.processing = false
		e.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

// dispatchOne runs a single message's handler, recovering a panic so
// one bad message cannot take the whole dispatcher down with it; the
// offending message is simply dropped and the loop continues, per
// SPEC_FULL.md §7.
func (e *Engine) dispatchOne(ctx context.Context, msg queue.Message) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error().
				Interface("panic", r).
				Str("type", msg.Type.String()).
				Int64("correlation_id", msg.CorrelationID).
				Msg("engine: handler panicked, message dropped")
			if msg.CorrelationID > 0 {
				e.respond(Response{
					CorrelationID: msg.CorrelationID,
					Type:          msg.Type,
					Err:           errHandlerPanicked,
				})
			}
		}
	}()

	var resp Response
	switch msg.Type {
	case queue.Get:
		resp = e.handleGet(ctx, msg)
	case queue.Set:
		resp = e.handleSet(ctx, msg)
	case queue.Update:
		e.handleUpdate(ctx, msg)
		return
	case queue.Touch:
		e.handleTouch(ctx, msg)
		return
	case queue.ClearOne:
		resp = e.handleClearOne(ctx, msg)
	case queue.ClearAll:
		resp = e.handleClearAll(ctx, msg)
	default:
		resp = Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: errUnknownMessageType}
	}

	if msg.CorrelationID > 0 {
		e.respond(resp)
	}
}

func (e *Engine) respond(resp Response) {
	select {
	case e.out <- resp:
	default:
		// A host that stopped reading its Outbox does not get to stall
		// the dispatcher; the correlation table on the client side will
		// time out or the caller has already given up.
		logging.Warn().Int64("correlation_id", resp.CorrelationID).Msg("engine: outbox full, dropping response")
	}
}

// rejectPending drains whatever is left in the queue on shutdown and
// answers every host-originated one with an error, so no caller blocks
// forever on a channel that will never be written to.
func (e *Engine) rejectPending() {
	e.mu.Lock()
	pending := e.q.Drain()
	e.mu.Unlock()

	for _, msg := range pending {
		if msg.CorrelationID > 0 {
			e.respond(Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: errEngineShuttingDown})
		}
	}
}

func (e *Engine) nextBackgroundID() int64 {
	return -(e.nextBgID.Add(1))
}
