// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/goccy/go-json"

	"github.com/lumendash/statscache/internal/cache"
)

// ErrStoreUnavailable is returned by every Store method once Close has
// run. A failed Open returns its own error and no Store.
var ErrStoreUnavailable = errors.New("storage: store is unavailable")

// Store is the durable key/value adapter backing the cache engine. Go
// has no native async storage API to mirror, so every method blocks;
// ctx is accepted for cancellation/tracing parity with the rest of the
// engine's call chain, not because BadgerDB transactions honor it.
//
// Safe for concurrent use. The engine calls it from its dispatcher
// goroutine, except that SET reads the existing entry and the count
// concurrently from two goroutines.
type Store struct {
	mu     sync.RWMutex
	db     *badger.DB
	closed bool
}

// Open creates or opens the BadgerDB database at cfg.Path. An empty
// Path opens an in-memory store, used by tests that want the real
// codec/storage path without touching disk. BadgerDB locks an on-disk
// directory while it is open, so opening a path that another Store
// still holds fails.
func Open(cfg Config) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.Path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = cfg.SyncWrites
	if cfg.MemTableSize > 0 {
		opts.MemTableSize = cfg.MemTableSize
	}
	if cfg.ValueLogFileSize > 0 {
		opts.ValueLogFileSize = cfg.ValueLogFileSize
	}
	if cfg.NumCompactors >= 2 {
		opts.NumCompactors = cfg.NumCompactors
	}
	if cfg.Compression {
		opts.Compression = options.Snappy
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("storage: open BadgerDB: %w", err)
	}

	return &Store{db: db}, nil
}

// record is the on-disk representation of a cache.Entry. It excludes
// Key (implied by the storage key) and carries the rest verbatim.
type record struct {
	Data                 []byte `json:"data"`
	Compressed           bool   `json:"compressed"`
	ObjectSize           int64  `json:"object_size"`
	Timestamp            int64  `json:"timestamp"`
	LastAccessed         int64  `json:"last_accessed"`
	CommunityID          string `json:"community_id"`
	DashboardType        string `json:"dashboard_type"`
	DateBasis            string `json:"date_basis"`
	BlockStartDate       string `json:"block_start_date"`
	BlockEndDate         string `json:"block_end_date"`
	Year                 *int   `json:"year,omitempty"`
	ServerFetchTimestamp *int64 `json:"server_fetch_timestamp,omitempty"`
	Version              string `json:"version"`
}

func toRecord(e *cache.Entry) record {
	r := record{
		Data:           e.Data,
		Compressed:     e.Compressed,
		ObjectSize:     e.ObjectSize,
		Timestamp:      e.Timestamp.UnixNano(),
		LastAccessed:   e.LastAccessed.UnixNano(),
		CommunityID:    e.CommunityID,
		DashboardType:  e.DashboardType,
		DateBasis:      e.DateBasis,
		BlockStartDate: e.BlockStartDate,
		BlockEndDate:   e.BlockEndDate,
		Year:           e.Year,
		Version:        e.Version,
	}
	if e.ServerFetchTimestamp != nil {
		nanos := e.ServerFetchTimestamp.UnixNano()
		r.ServerFetchTimestamp = &nanos
	}
	return r
}

func (r record) toEntry(key string) *cache.Entry {
	e := &cache.Entry{
		Key:            key,
		Data:           r.Data,
		Compressed:     r.Compressed,
		ObjectSize:     r.ObjectSize,
		Timestamp:      timeFromNanos(r.Timestamp),
		LastAccessed:   timeFromNanos(r.LastAccessed),
		CommunityID:    r.CommunityID,
		DashboardType:  r.DashboardType,
		DateBasis:      r.DateBasis,
		BlockStartDate: r.BlockStartDate,
		BlockEndDate:   r.BlockEndDate,
		Year:           r.Year,
		Version:        r.Version,
	}
	if r.ServerFetchTimestamp != nil {
		t := timeFromNanos(*r.ServerFetchTimestamp)
		e.ServerFetchTimestamp = &t
	}
	return e
}

// Get retrieves the entry stored under key. The bool result is false
// (with a nil error) when no entry exists — callers distinguish "not
// found" from I/O failure by the error, matching spec.md's GET
// handler needing both facts.
func (s *Store) Get(_ context.Context, key string) (*cache.Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, false, ErrStoreUnavailable
	}

	var rec record
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, nil
	}
	return rec.toEntry(key), true, nil
}

// Put writes or overwrites the entry under its Key.
func (s *Store) Put(_ context.Context, e *cache.Entry) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreUnavailable
	}

	data, err := json.Marshal(toRecord(e))
	if err != nil {
		return fmt.Errorf("storage: marshal entry: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(e.Key), data)
	})
}

// Delete removes the entry under key. Deleting a missing key is not
// an error, matching BadgerDB's own semantics.
func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreUnavailable
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// DeleteBatch removes every listed key in a single write transaction.
// Used by the eviction engine to drop its chosen victims atomically; a
// missing key among the batch is not an error.
func (s *Store) DeleteBatch(_ context.Context, keys []string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	if len(keys) == 0 {
		return nil
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, k := range keys {
			if err := txn.Delete([]byte(k)); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAll loads every stored entry. Used once at startup to seed the
// in-memory eviction index from whatever survived the last run.
func (s *Store) GetAll(_ context.Context) ([]*cache.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreUnavailable
	}

	var entries []*cache.Entry
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			key := string(item.KeyCopy(nil))
			var rec record
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return err
			}
			entries = append(entries, rec.toEntry(key))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of stored keys.
func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, ErrStoreUnavailable
	}

	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// ClearAll removes every entry in the store. Backs CLEAR_ALL.
func (s *Store) ClearAll(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreUnavailable
	}
	return s.db.DropAll()
}

// Close flushes and closes the BadgerDB handle. Safe to call more
// than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

func timeFromNanos(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
