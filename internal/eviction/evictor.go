// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

// Package eviction picks which entries to drop when the cache is over
// capacity. It holds no storage handle; it only tracks ordering and
// hands the engine a batch of victim keys to delete.
package eviction

import (
	"sync"
	"time"
)

// candidate is one tracked entry's position in the min-heap.
//
// Grounded on the teacher's internal/cache.MinHeap[T]: same indexed
// slice + byKey map shape giving O(log n) push/remove/update, but
// ordered on the composite (lastAccessed, timestamp) tuple the
// eviction policy actually needs rather than a single timestamp field.
type candidate struct {
	key          string
	lastAccessed time.Time
	timestamp    time.Time
	index        int
}

func (c *candidate) before(o *candidate) bool {
	if !c.lastAccessed.Equal(o.lastAccessed) {
		return c.lastAccessed.Before(o.lastAccessed)
	}
	if !c.timestamp.Equal(o.timestamp) {
		return c.timestamp.Before(o.timestamp)
	}
	return false
}

// Evictor tracks every entry currently in the cache, ordered for O(log
// n) retrieval of the least-recently-used one. It does not talk to
// storage; the engine calls Track/Untrack/Reset to keep it in sync
// with what's actually on disk and calls Victims to ask what to drop.
type Evictor struct {
	mu    sync.Mutex
	heap  []*candidate
	byKey map[string]*candidate
}

// New creates an empty Evictor.
func New() *Evictor {
	return &Evictor{byKey: make(map[string]*candidate)}
}

// Track adds or repositions key with the given lastAccessed/timestamp
// pair. Called on every SET and on the queued LRU touch after a
// successful GET.
func (e *Evictor) Track(key string, lastAccessed, timestamp time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if c, ok := e.byKey[key]; ok {
		c.lastAccessed = lastAccessed
		c.timestamp = timestamp
		e.fix(c.index)
		return
	}

	c := &candidate{key: key, lastAccessed: lastAccessed, timestamp: timestamp, index: len(e.heap)}
	e.heap = append(e.heap, c)
	e.byKey[key] = c
	e.bubbleUp(c.index)
}

// Untrack removes key, e.g. after CLEAR_ONE or a successful delete.
func (e *Evictor) Untrack(key string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, ok := e.byKey[key]
	if !ok {
		return
	}
	e.removeAt(c.index)
}

// Reset clears all tracked entries, used by CLEAR_ALL.
func (e *Evictor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heap = e.heap[:0]
	e.byKey = make(map[string]*candidate)
}

// Len reports how many entries are tracked.
func (e *Evictor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.heap)
}

// Victims returns the n least-recently-used keys (ascending
// lastAccessed, tie-broken by timestamp) and removes them from
// tracking. The caller is responsible for actually deleting them from
// storage; if that delete only partially succeeds the invariant
// re-establishes itself on the next SET, per spec.
func (e *Evictor) Victims(n int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	if n <= 0 {
		return nil
	}
	if n > len(e.heap) {
		n = len(e.heap)
	}

	victims := make([]string, 0, n)
	for i := 0; i < n; i++ {
		c := e.removeAt(0)
		if c == nil {
			break
		}
		victims = append(victims, c.key)
	}
	return victims
}

func (e *Evictor) removeAt(i int) *candidate {
	if i < 0 || i >= len(e.heap) {
		return nil
	}
	n := len(e.heap) - 1
	c := e.heap[i]
	delete(e.byKey, c.key)

	if i == n {
		e.heap = e.heap[:n]
		return c
	}

	e.heap[i] = e.heap[n]
	e.heap[i].index = i
	e.heap = e.heap[:n]
	e.fix(i)
	return c
}

func (e *Evictor) fix(i int) {
	if e.bubbleUp(i) {
		return
	}
	e.bubbleDown(i)
}

func (e *Evictor) bubbleUp(i int) bool {
	moved := false
	for i > 0 {
		parent := (i - 1) / 2
		if !e.heap[i].before(e.heap[parent]) {
			break
		}
		e.swap(i, parent)
		i = parent
		moved = true
	}
	return moved
}

func (e *Evictor) bubbleDown(i int) {
	n := len(e.heap)
	for {
		smallest := i
		left, right := 2*i+1, 2*i+2
		if left < n && e.heap[left].before(e.heap[smallest]) {
			smallest = left
		}
		if right < n && e.heap[right].before(e.heap[smallest]) {
			smallest = right
		}
		if smallest == i {
			return
		}
		e.swap(i, smallest)
		i = smallest
	}
}

func (e *Evictor) swap(i, j int) {
	e.heap[i], e.heap[j] = e.heap[j], e.heap[i]
	e.heap[i].index = i
	e.heap[j].index = j
}
