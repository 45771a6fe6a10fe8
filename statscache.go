// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

/*
Package statscache is an embeddable, off-thread statistics cache for
dashboard-style analytics results. A single background worker owns a
durable key/value store and a bounded in-memory LRU index; callers
never touch either directly — every operation is a message sent to the
worker and a result read back off a correlation channel.

	client, err := statscache.New(statscache.Config{
		Storage: storage.DefaultConfig(),
		Fetcher: myFetcher,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer client.Terminate()

	res, err := client.Get(ctx, statscache.FetchParams{
		CommunityID:    "community-42",
		DashboardType:  "overview",
		DateBasis:      "calendar",
		BlockStartDate: "2026-01-01",
		BlockEndDate:   "2026-12-31",
	})

The worker starts lazily: constructing a Client never starts the
supervisor tree or opens the store until the first Get/Set/ClearOne/
ClearAll/OnCacheUpdated call.
*/
package statscache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumendash/statscache/internal/config"
	"github.com/lumendash/statscache/internal/engine"
	"github.com/lumendash/statscache/internal/events"
	"github.com/lumendash/statscache/internal/eviction"
	"github.com/lumendash/statscache/internal/lifecycle"
	"github.com/lumendash/statscache/internal/logging"
	"github.com/lumendash/statscache/internal/policy"
	"github.com/lumendash/statscache/internal/queue"
	"github.com/lumendash/statscache/internal/storage"
)

// ErrWorkerTerminated is returned to every caller blocked on a pending
// request when the worker stops, and to any call made after Terminate.
var ErrWorkerTerminated = errors.New("statscache: worker terminated")

// FetchParams identifies one dashboard data block. Re-exported from
// internal/engine so callers never need to import an internal
// package.
type FetchParams = engine.FetchParams

// Result is what Get/Set return on success.
type Result = engine.Result

// CacheUpdatedEvent is delivered to OnCacheUpdated listeners after a
// background refresh completes.
type CacheUpdatedEvent = engine.CacheUpdatedEvent

// StatsFetcher is supplied by the embedding application to produce
// fresh data on a cache miss or a background refresh.
type StatsFetcher = engine.StatsFetcher

// Config configures a Client.
type Config struct {
	Storage            storage.Config
	MaxEntries         int
	TTLCurrentYear     time.Duration
	TTLPastYear        time.Duration
	CompressionEnabled bool
	Fetcher            StatsFetcher
	SupervisorConfig   lifecycle.Config
	RequestTimeout     time.Duration
}

// DefaultConfig returns spec.md's defaults with an in-memory store —
// callers that want persistence set Config.Storage.Path.
func DefaultConfig() Config {
	engCfg := engine.DefaultConfig()
	storageCfg := storage.DefaultConfig()
	storageCfg.Path = ""
	return Config{
		Storage:            storageCfg,
		MaxEntries:         engCfg.MaxEntries,
		TTLCurrentYear:     engCfg.TTL.CurrentYear,
		TTLPastYear:        engCfg.TTL.PastYear,
		CompressionEnabled: engCfg.CompressionEnabled,
		SupervisorConfig:   lifecycle.DefaultConfig(),
		RequestTimeout:     30 * time.Second,
	}
}

// LoadConfig builds a Config the way a deployed embedder normally
// would: internal/config.Load layers its built-in defaults under an
// optional YAML file and STATSCACHE_-prefixed environment variables,
// and the result drives MaxEntries, the two TTLs, CompressionEnabled
// and Storage.Path here. Fetcher is a Go value, not a config knob, so
// the caller still supplies it after LoadConfig returns.
func LoadConfig() (Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return Config{}, fmt.Errorf("statscache: load config: %w", err)
	}

	storageCfg := storage.DefaultConfig()
	storageCfg.Path = cfg.StoragePath

	return Config{
		Storage:            storageCfg,
		MaxEntries:         cfg.MaxEntries,
		TTLCurrentYear:     cfg.TTLCurrentYear,
		TTLPastYear:        cfg.TTLPastYear,
		CompressionEnabled: cfg.CompressionEnabled,
		SupervisorConfig:   lifecycle.DefaultConfig(),
		RequestTimeout:     30 * time.Second,
	}, nil
}

type pending struct {
	ch chan engine.Response
}

// Client is the host-facing handle to one off-thread cache instance.
type Client struct {
	cfg Config

	startOnce sync.Once
	startErr  error

	store *storage.Store
	eng   *engine.Engine
	sup   *lifecycle.Supervisor
	bus   *events.Bus
	stop  func()

	nextCorrelationID atomic.Int64

	mu       sync.Mutex
	waiters  map[int64]pending
	terminated bool
}

// New constructs a Client. The worker is not started here; it starts
// lazily on the first Get/Set/ClearOne/ClearAll/OnCacheUpdated call.
func New(cfg Config) (*Client, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("statscache: Config.Fetcher is required")
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &Client{
		cfg:     cfg,
		waiters: make(map[int64]pending),
	}, nil
}

func (c *Client) ensureStarted() error {
	c.startOnce.Do(func() {
		store, err := storage.Open(c.cfg.Storage)
		if err != nil {
			c.startErr = fmt.Errorf("statscache: open store: %w", err)
			return
		}

		evictor := eviction.New()
		entries, err := store.GetAll(context.Background())
		if err != nil {
			c.startErr = fmt.Errorf("statscache: seed eviction index: %w", err)
			return
		}
		for _, e := range entries {
			evictor.Track(e.Key, e.LastAccessed, e.Timestamp)
		}

		bus := events.New()
		engCfg := engine.Config{
			MaxEntries: c.cfg.MaxEntries,
			TTL: policy.TTLConfig{
				CurrentYear: c.cfg.TTLCurrentYear,
				PastYear:    c.cfg.TTLPastYear,
			},
			CompressionEnabled: c.cfg.CompressionEnabled,
		}
		eng := engine.New(store, evictor, engCfg, c.cfg.Fetcher, bus)

		sup := lifecycle.New(c.cfg.SupervisorConfig)
		sup.Add(eng)
		stop := sup.ServeBackground()

		c.store, c.eng, c.sup, c.bus, c.stop = store, eng, sup, bus, stop
		go c.pump()
	})
	return c.startErr
}

// pump relays engine.Response values to whichever caller is waiting on
// that correlation id. Runs for the Client's lifetime.
func (c *Client) pump() {
	for resp := range c.eng.Outbox() {
		c.mu.Lock()
		w, ok := c.waiters[resp.CorrelationID]
		if ok {
			delete(c.waiters, resp.CorrelationID)
		}
		c.mu.Unlock()
		if !ok {
			continue
		}
		w.ch <- resp
		close(w.ch)
	}
}

func (c *Client) send(ctx context.Context, msg queue.Message) (engine.Response, error) {
	if err := c.ensureStarted(); err != nil {
		return engine.Response{}, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
		defer cancel()
	}

	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return engine.Response{}, ErrWorkerTerminated
	}
	ch := make(chan engine.Response, 1)
	c.waiters[msg.CorrelationID] = pending{ch: ch}
	c.mu.Unlock()

	c.eng.Enqueue(msg)

	select {
	case resp, ok := <-ch:
		if !ok {
			return engine.Response{}, ErrWorkerTerminated
		}
		return resp, nil
	case <-ctx.Done():
		// The caller gave up on waiting; the engine-side work still
		// runs to completion (§5: dropping a promise never cancels the
		// underlying operation).
		return engine.Response{}, ctx.Err()
	}
}

// Get retrieves the dashboard block identified by p, enqueueing a
// background refresh if the cached entry (if any) has gone stale.
func (c *Client) Get(ctx context.Context, p FetchParams) (Result, error) {
	id := c.nextCorrelationID.Add(1)
	resp, err := c.send(ctx, queue.Message{Type: queue.Get, CorrelationID: id, Params: p})
	if err != nil {
		return Result{}, err
	}
	return resp.Result, resp.Err
}

// Set stores value under the key identified by p, compressing it per
// compress (nil defers to Config.CompressionEnabled).
func (c *Client) Set(ctx context.Context, p FetchParams, value any, compress *bool) (Result, error) {
	id := c.nextCorrelationID.Add(1)
	resp, err := c.send(ctx, queue.Message{
		Type:          queue.Set,
		CorrelationID: id,
		Params:        engine.SetParams{FetchParams: p, Value: value, Compress: compress},
	})
	if err != nil {
		return Result{}, err
	}
	return resp.Result, resp.Err
}

// ClearOne removes the entry identified by p.
func (c *Client) ClearOne(ctx context.Context, p FetchParams) error {
	id := c.nextCorrelationID.Add(1)
	key := policy.Key(policy.KeyParams{
		CommunityID:    p.CommunityID,
		DashboardType:  p.DashboardType,
		DateBasis:      p.DateBasis,
		BlockStartDate: p.BlockStartDate,
		BlockEndDate:   p.BlockEndDate,
	})
	resp, err := c.send(ctx, queue.Message{Type: queue.ClearOne, CorrelationID: id, CacheKey: key})
	if err != nil {
		return err
	}
	return resp.Err
}

// ClearAll empties the entire cache.
func (c *Client) ClearAll(ctx context.Context) error {
	id := c.nextCorrelationID.Add(1)
	resp, err := c.send(ctx, queue.Message{Type: queue.ClearAll, CorrelationID: id})
	if err != nil {
		return err
	}
	return resp.Err
}

// OnCacheUpdated registers fn to be called on every background-refresh
// outcome. fn runs on an internal goroutine; it must not block.
func (c *Client) OnCacheUpdated(ctx context.Context, fn func(CacheUpdatedEvent)) error {
	if err := c.ensureStarted(); err != nil {
		return err
	}
	ch, err := c.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("statscache: subscribe: %w", err)
	}
	go func() {
		for evt := range ch {
			fn(evt)
		}
	}()
	return nil
}

// Terminate stops the worker, rejects every pending caller with
// ErrWorkerTerminated, and closes the underlying store. Safe to call
// more than once.
func (c *Client) Terminate() error {
	c.mu.Lock()
	if c.terminated {
		c.mu.Unlock()
		return nil
	}
	c.terminated = true
	waiters := c.waiters
	c.waiters = make(map[int64]pending)
	c.mu.Unlock()

	for _, w := range waiters {
		close(w.ch)
	}

	if c.stop != nil {
		c.stop()
	}
	if c.bus != nil {
		if err := c.bus.Close(); err != nil {
			logging.Warn().Err(err).Msg("statscache: error closing event bus")
		}
	}
	if c.store != nil {
		return c.store.Close()
	}
	return nil
}
