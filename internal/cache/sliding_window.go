// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package cache

import (
	"sync"
	"time"
)

// SlidingWindowCounter counts events inside a rolling time window by
// dividing the window into fixed buckets and summing them. Used by the
// rate-flood detector to count per-user messages in the last 10 seconds
// without retaining per-message timestamps.
//
// Complexity: Increment O(1), Count O(k) for k buckets, memory O(k).
type SlidingWindowCounter struct {
	mu         sync.Mutex
	buckets    []int64
	bucketSize time.Duration
	numBuckets int
	current    int
	lastUpdate time.Time
}

// NewSlidingWindowCounter creates a counter over windowSize divided into
// numBuckets buckets.
func NewSlidingWindowCounter(windowSize time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	if windowSize <= 0 {
		windowSize = 10 * time.Second
	}

	return &SlidingWindowCounter{
		buckets:    make([]int64, numBuckets),
		bucketSize: windowSize / time.Duration(numBuckets),
		numBuckets: numBuckets,
		lastUpdate: time.Now(),
	}
}

// Increment adds delta to the current bucket.
func (sw *SlidingWindowCounter) Increment(delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance(time.Now())
	sw.buckets[sw.current] += delta
}

// IncrementAt adds delta using an explicit timestamp. Event timestamps from
// the transport drive the spam window, not wall-clock arrival time.
func (sw *SlidingWindowCounter) IncrementAt(ts time.Time, delta int64) {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance(ts)
	sw.buckets[sw.current] += delta
}

// Count returns the sum of all buckets in the window.
func (sw *SlidingWindowCounter) Count() int64 {
	return sw.CountAt(time.Now())
}

// CountAt returns the in-window sum as of the given timestamp.
func (sw *SlidingWindowCounter) CountAt(ts time.Time) int64 {
	sw.mu.Lock()
	defer sw.mu.Unlock()

	sw.advance(ts)

	var total int64
	for _, count := range sw.buckets {
		total += count
	}
	return total
}

// IdleSince reports whether the counter has seen no updates since the
// given time. Sweeps use this to drop cold per-user counters.
func (sw *SlidingWindowCounter) IdleSince(cutoff time.Time) bool {
	sw.mu.Lock()
	defer sw.mu.Unlock()
	return sw.lastUpdate.Before(cutoff)
}

// advance rotates the circular buffer forward to ts, zeroing buckets that
// fell out of the window. Must be called with mu held. Timestamps older
// than lastUpdate leave the buffer unchanged so out-of-order events still
// land in the current bucket.
func (sw *SlidingWindowCounter) advance(ts time.Time) {
	elapsed := ts.Sub(sw.lastUpdate)
	if elapsed < sw.bucketSize {
		return
	}

	steps := int(elapsed / sw.bucketSize)
	if steps > sw.numBuckets {
		steps = sw.numBuckets
	}

	for i := 0; i < steps; i++ {
		sw.current = (sw.current + 1) % sw.numBuckets
		sw.buckets[sw.current] = 0
	}
	sw.lastUpdate = ts
}
