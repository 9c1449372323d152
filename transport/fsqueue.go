// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package transport implements the reliable delivery protocol of §4.7:
// FsProtocol (the manager), FsQueue (per-direction pending framesets keyed
// by request_id) and FsProtoElem (one connection's state machine).
package transport

import (
	"sort"
	"sync"

	"github.com/assimilation/assimilation-official-sub001/frameset"
)

// FsQueue is a monotonically increasing queue of framesets keyed by
// request_id. The send queue retains framesets until cumulatively ACKed;
// the receive queue holds framesets that arrived out of order until their
// missing predecessor allows delivery.
type FsQueue struct {
	mu    sync.Mutex
	items map[uint64]*frameset.FrameSet
}

// NewFsQueue returns an empty queue.
func NewFsQueue() *FsQueue {
	return &FsQueue{items: make(map[uint64]*frameset.FrameSet)}
}

// Put inserts or replaces the frameset pending at request_id reqID.
func (q *FsQueue) Put(reqID uint64, fs *frameset.FrameSet) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.items[reqID] = fs
}

// Get returns the frameset pending at reqID, if any.
func (q *FsQueue) Get(reqID uint64) (*frameset.FrameSet, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	fs, ok := q.items[reqID]
	return fs, ok
}

// Delete removes the entry at reqID.
func (q *FsQueue) Delete(reqID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.items, reqID)
}

// DeleteUpTo removes every entry whose request_id is <= reqID — the
// cumulative-ACK operation, idempotent under duplicate delivery since
// deleting an absent key is a no-op.
func (q *FsQueue) DeleteUpTo(reqID uint64) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for id := range q.items {
		if id <= reqID {
			delete(q.items, id)
		}
	}
}

// Pending returns every outstanding request_id in ascending order.
func (q *FsQueue) Pending() []uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]uint64, 0, len(q.items))
	for id := range q.items {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Len reports the number of outstanding entries.
func (q *FsQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
