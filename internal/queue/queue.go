// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cartographus

package queue

import "sort"

// Queue is the engine's pending-message mailbox. It is a stable
// priority structure, not a heap: at MAX_ENTRIES-scale queue depths a
// full stable sort on every Pop is cheap and trivially correct, and a
// heap would need a secondary key to stay FIFO within a priority class
// (see DESIGN.md for why eviction uses a heap but the message queue
// does not).
//
// Not safe for concurrent use on its own; internal/engine serializes
// access to it with its own dispatch loop lock.
type Queue struct {
	pending []Message
	nextSeq int64
}

// New returns an empty Queue.
func New() *Queue {
	return &Queue{}
}

// Enqueue appends msg, stamping it with the next arrival sequence
// number.
func (q *Queue) Enqueue(msg Message) {
	msg.seq = q.nextSeq
	q.nextSeq++
	q.pending = append(q.pending, msg)
}

// Len reports how many messages are waiting.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Pop stably sorts the pending messages by ascending priority (ties
// broken by arrival order) and removes and returns the head. The
// second result is false if the queue is empty.
func (q *Queue) Pop() (Message, bool) {
	if len(q.pending) == 0 {
		return Message{}, false
	}

	sort.SliceStable(q.pending, func(i, j int) bool {
		return q.pending[i].Type.Priority() < q.pending[j].Type.Priority()
	})

	msg := q.pending[0]
	q.pending = q.pending[1:]
	return msg, true
}

// HasPendingUpdate reports whether an UPDATE for cacheKey is already
// queued. The GET handler calls this before enqueueing a background
// refresh for a stale entry, to avoid piling up redundant refreshes for the same
// key; it is advisory, not a lock, since all queue access happens
// under the dispatcher's own serialization.
func (q *Queue) HasPendingUpdate(cacheKey string) bool {
	for _, m := range q.pending {
		if m.Type == Update && m.CacheKey == cacheKey {
			return true
		}
	}
	return false
}

// Drain removes and returns every pending message, used by Terminate
// to reject whatever was left unqueued.
func (q *Queue) Drain() []Message {
	drained := q.pending
	q.pending = nil
	return drained
}
