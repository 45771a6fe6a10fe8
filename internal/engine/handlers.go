// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package engine

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lumendash/statscache/internal/cache"
	"github.com/lumendash/statscache/internal/codec"
	"github.com/lumendash/statscache/internal/logging"
	"github.com/lumendash/statscache/internal/metrics"
	"github.com/lumendash/statscache/internal/policy"
	"github.com/lumendash/statscache/internal/queue"
)

// handleGet serves a GET. An expired entry is still returned — the
// caller decides what to do with stale data — but a background UPDATE
// is enqueued first, unless one is already pending for this key.
func (e *Engine) handleGet(ctx context.Context, msg queue.Message) Response {
	params, _ := msg.Params.(FetchParams)
	key := policy.Key(params.keyParams())

	entry, found, err := e.store.Get(ctx, key)
	if err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}
	if !found {
		metrics.CacheMisses.Inc()
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Result: Result{CacheKey: key}}
	}

	valid := policy.Valid(entry.Timestamp, entry.Year, time.Now(), e.cfg.TTL)
	if !valid && !e.hasPendingUpdate(key) {
		e.Enqueue(queue.Message{
			Type:          queue.Update,
			CorrelationID: e.nextBackgroundID(),
			CacheKey:      key,
			Params:        params,
		})
	}

	payload, err := codec.Decode(entry.Data, entry.Compressed)
	if err != nil {
		if errors.Is(err, codec.ErrCorrupt) {
			metrics.CacheCorruptions.Inc()
			metrics.CacheMisses.Inc()
			if delErr := e.store.Delete(ctx, key); delErr != nil {
				logging.Warn().Err(delErr).Str("key", key).Msg("engine: failed deleting corrupt entry")
			}
			e.evictor.Untrack(key)
			return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Result: Result{CacheKey: key}}
		}
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}

	metrics.CacheHits.Inc()
	e.Enqueue(queue.Message{
		Type:          queue.Touch,
		CorrelationID: e.nextBackgroundID(),
		CacheKey:      key,
	})

	return Response{
		CorrelationID: msg.CorrelationID,
		Type:          msg.Type,
		Result: Result{
			Data:                 payload.Raw(),
			IsExpired:            !valid,
			Year:                 entry.Year,
			ServerFetchTimestamp: entry.ServerFetchTimestamp,
			CacheKey:             key,
			Compressed:           entry.Compressed,
			ObjectSize:           entry.ObjectSize,
		},
	}
}

// handleTouch updates LastAccessed on a successful read. It is
// dispatched as its own queued message rather than a detached
// goroutine so it never races a concurrent CLEAR_ONE or eviction on
// the same key: running it on the single dispatcher goroutine means
// it either sees the entry before a delete removes it, or sees no
// entry at all and does nothing. A failure here never surfaces to the
// caller — it is logged at debug level and otherwise swallowed,
// matching §7's "LRU-update failure swallowed". It never answers a
// correlation channel; like UPDATE, it carries a negative id.
func (e *Engine) handleTouch(ctx context.Context, msg queue.Message) {
	entry, found, err := e.store.Get(ctx, msg.CacheKey)
	if err != nil || !found {
		if err != nil {
			logging.Debug().Err(err).Str("key", msg.CacheKey).Msg("engine: lastAccessed touch failed to reload entry")
		}
		return
	}
	now := time.Now()
	entry.LastAccessed = now
	if err := e.store.Put(ctx, entry); err != nil {
		logging.Debug().Err(err).Str("key", msg.CacheKey).Msg("engine: lastAccessed touch failed to persist")
		return
	}
	e.evictor.Track(msg.CacheKey, now, entry.Timestamp)
}

// handleSet writes params.Value under its key, evicting over-capacity
// victims first if this is a new key.
func (e *Engine) handleSet(ctx context.Context, msg queue.Message) Response {
	params, _ := msg.Params.(SetParams)
	key := policy.Key(params.keyParams())

	year := params.Year
	if year == nil {
		if y, ok := policy.YearOf(params.BlockStartDate); ok {
			year = &y
		}
	}

	compress := e.cfg.CompressionEnabled
	if params.Compress != nil {
		compress = *params.Compress
	}
	data, objectSize, err := codec.Encode(params.Value, compress)
	if err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}

	var existing *cache.Entry
	var count int
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		existing, _, err = e.store.Get(gctx, key)
		return err
	})
	g.Go(func() error {
		var err error
		count, err = e.store.Count(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}

	if existing == nil && count >= e.cfg.MaxEntries {
		e.evictOverCapacity(ctx, count-e.cfg.MaxEntries+1)
	}

	now := time.Now()
	var serverFetch *time.Time
	if year != nil && policy.IsCurrentYear(*year, now) {
		serverFetch = &now
	}

	entry := &cache.Entry{
		Key:                  key,
		Data:                 data,
		Compressed:           compress,
		ObjectSize:           objectSize,
		Timestamp:            now,
		LastAccessed:         now,
		CommunityID:          params.CommunityID,
		DashboardType:        params.DashboardType,
		DateBasis:            params.DateBasis,
		BlockStartDate:       params.BlockStartDate,
		BlockEndDate:         params.BlockEndDate,
		Year:                 year,
		ServerFetchTimestamp: serverFetch,
		Version:              cache.CurrentVersion,
	}
	if err := e.store.Put(ctx, entry); err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}
	e.evictor.Track(key, now, now)

	// Decode back the payload we just wrote so the response (and, for a
	// background UPDATE, the CacheUpdated notification) carries the same
	// raw JSON shape a GET would return — one source of truth in codec
	// rather than a second marshal here.
	var raw []byte
	if payload, err := codec.Decode(data, compress); err == nil {
		raw = payload.Raw()
	}

	return Response{
		CorrelationID: msg.CorrelationID,
		Type:          msg.Type,
		Result: Result{
			Data:       raw,
			CacheKey:   key,
			Compressed: compress,
			ObjectSize: objectSize,
		},
	}
}

// evictOverCapacity drops n least-recently-used entries from both
// storage and the in-memory index. A partial batch failure is
// tolerated; the invariant re-establishes itself on the next SET.
func (e *Engine) evictOverCapacity(ctx context.Context, n int) {
	victims := e.evictor.Victims(n)
	if len(victims) == 0 {
		return
	}
	if err := e.store.DeleteBatch(ctx, victims); err != nil {
		logging.Warn().Err(err).Int("count", len(victims)).Msg("engine: eviction batch delete failed")
	}
	metrics.CacheEvictions.Add(float64(len(victims)))
}

// handleUpdate performs a background refresh: call out to StatsFetcher
// through the circuit breaker, feed the result through the SET
// pipeline, and publish a CacheUpdated notification regardless of
// outcome. It never answers a correlation channel — background
// messages carry a negative id that no caller is waiting on.
func (e *Engine) handleUpdate(ctx context.Context, msg queue.Message) {
	params, _ := msg.Params.(FetchParams)

	result, err := e.refreshBreaker.Execute(func() (any, error) {
		return e.fetcher.Fetch(ctx, params)
	})
	metrics.SetBreakerState(breakerState(e.refreshBreaker))
	if err != nil {
		metrics.RecordRefresh(false)
		e.publishCacheUpdated(ctx, CacheUpdatedEvent{CacheKey: msg.CacheKey, Year: params.Year, Success: false, Error: err.Error()})
		return
	}

	setResp := e.handleSet(ctx, queue.Message{
		Type:     queue.Set,
		CacheKey: msg.CacheKey,
		Params:   SetParams{FetchParams: params, Value: result},
	})
	if setResp.Err != nil {
		metrics.RecordRefresh(false)
		e.publishCacheUpdated(ctx, CacheUpdatedEvent{CacheKey: msg.CacheKey, Year: params.Year, Success: false, Error: setResp.Err.Error()})
		return
	}

	metrics.RecordRefresh(true)
	e.publishCacheUpdated(ctx, CacheUpdatedEvent{CacheKey: msg.CacheKey, Data: setResp.Result.Data, Year: params.Year, Success: true})
}

func (e *Engine) publishCacheUpdated(ctx context.Context, evt CacheUpdatedEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Publish(ctx, evt); err != nil {
		logging.Warn().Err(err).Str("key", evt.CacheKey).Msg("engine: failed publishing cache-updated event")
	}
}

func (e *Engine) handleClearOne(ctx context.Context, msg queue.Message) Response {
	if err := e.store.Delete(ctx, msg.CacheKey); err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}
	e.evictor.Untrack(msg.CacheKey)
	return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Result: Result{CacheKey: msg.CacheKey}}
}

func (e *Engine) handleClearAll(ctx context.Context, msg queue.Message) Response {
	if err := e.store.ClearAll(ctx); err != nil {
		return Response{CorrelationID: msg.CorrelationID, Type: msg.Type, Err: err}
	}
	e.evictor.Reset()
	return Response{CorrelationID: msg.CorrelationID, Type: msg.Type}
}
