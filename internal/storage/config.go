// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package storage is the durable BadgerDB-backed adapter the cache
// engine uses to persist dashboard statistics entries across process
// restarts. It knows nothing about TTL policy, eviction order, or
// compression — it stores and retrieves opaque byte blobs by key.
package storage

import "time"

// Config configures the BadgerDB-backed store.
//
// Path is the one field internal/config drives from outside code: it
// corresponds to Config.StoragePath there, settable via a YAML file or
// the STATSCACHE_STORAGE_PATH environment variable. SyncWrites,
// Compression and the BadgerDB tuning knobs below are Go-level choices
// the embedding application makes at construction time.
type Config struct {
	// Path is the directory BadgerDB stores its files in. Empty Path
	// opens an in-memory-only store, used by tests.
	Path string

	// SyncWrites forces fsync after every write. The cache engine
	// trades durability for latency here by default: a lost entry is
	// just a cache miss on next read, not data loss.
	SyncWrites bool

	// Compression enables BadgerDB's own Snappy compression of stored
	// values. This is independent of and composes with the
	// application-level gzip codec: BadgerDB compression reduces
	// on-disk size of whatever bytes the codec layer already produced.
	Compression bool

	MemTableSize     int64
	ValueLogFileSize int64
	NumCompactors    int

	// CloseTimeout bounds how long Close waits for BadgerDB to flush.
	CloseTimeout time.Duration
}

// DefaultConfig returns sensible defaults for an embedded deployment.
func DefaultConfig() Config {
	return Config{
		Path:             "./data/statscache",
		SyncWrites:       false,
		Compression:      true,
		MemTableSize:     16 * 1024 * 1024,
		ValueLogFileSize: 64 * 1024 * 1024,
		NumCompactors:    2,
		CloseTimeout:     10 * time.Second,
	}
}
