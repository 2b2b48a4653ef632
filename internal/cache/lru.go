// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package cache provides the bounded in-memory data structures backing the
// spam trackers: a TTL-aware LRU map and a sliding window counter. Both are
// thread-safe and tuned for the high-churn, small-entry access pattern of
// live chat.
package cache

import (
	"sync"
	"time"
)

// lruEntry is a node in the doubly-linked recency list.
type lruEntry[V any] struct {
	key       string
	value     V
	prev      *lruEntry[V]
	next      *lruEntry[V]
	expiresAt time.Time
}

// LRU is a thread-safe least-recently-used map with per-entry TTL.
// Get, Set, Remove, and eviction are all O(1). Expired entries are dropped
// lazily on access and eagerly by SweepExpired.
type LRU[V any] struct {
	mu sync.Mutex

	capacity int
	ttl      time.Duration
	items    map[string]*lruEntry[V]

	// head.next is most recently used; tail.prev least recently used.
	head *lruEntry[V]
	tail *lruEntry[V]
}

// NewLRU creates an LRU with the given capacity and TTL. A non-positive
// capacity defaults to 4096; a non-positive TTL disables expiration.
func NewLRU[V any](capacity int, ttl time.Duration) *LRU[V] {
	if capacity <= 0 {
		capacity = 4096
	}

	head := &lruEntry[V]{}
	tail := &lruEntry[V]{}
	head.next = tail
	tail.prev = head

	return &LRU[V]{
		capacity: capacity,
		ttl:      ttl,
		items:    make(map[string]*lruEntry[V]),
		head:     head,
		tail:     tail,
	}
}

// Get returns the value for key and whether it was present and unexpired.
// A hit refreshes recency but not the TTL.
func (c *LRU[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	e, ok := c.items[key]
	if !ok {
		return zero, false
	}
	if c.expired(e, time.Now()) {
		c.unlink(e)
		delete(c.items, key)
		return zero, false
	}

	c.moveToFront(e)
	return e.value, true
}

// Set inserts or replaces the value for key, resetting its TTL. The least
// recently used entry is evicted when the cache is full.
func (c *LRU[V]) Set(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if e, ok := c.items[key]; ok {
		e.value = value
		e.expiresAt = c.deadline(now)
		c.moveToFront(e)
		return
	}

	if len(c.items) >= c.capacity {
		if lru := c.tail.prev; lru != c.head {
			c.unlink(lru)
			delete(c.items, lru.key)
		}
	}

	e := &lruEntry[V]{key: key, value: value, expiresAt: c.deadline(now)}
	c.items[key] = e
	c.insertFront(e)
}

// Remove deletes the entry for key, if present.
func (c *LRU[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.items[key]; ok {
		c.unlink(e)
		delete(c.items, key)
	}
}

// Len returns the number of resident entries, including any not yet swept.
func (c *LRU[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// SweepExpired removes all expired entries and reports how many were
// dropped. Called from the periodic spam-state sweep.
func (c *LRU[V]) SweepExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range c.items {
		if c.expired(e, now) {
			c.unlink(e)
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

func (c *LRU[V]) deadline(now time.Time) time.Time {
	if c.ttl <= 0 {
		return time.Time{}
	}
	return now.Add(c.ttl)
}

func (c *LRU[V]) expired(e *lruEntry[V], now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

func (c *LRU[V]) unlink(e *lruEntry[V]) {
	e.prev.next = e.next
	e.next.prev = e.prev
}

func (c *LRU[V]) insertFront(e *lruEntry[V]) {
	e.next = c.head.next
	e.prev = c.head
	c.head.next.prev = e
	c.head.next = e
}

func (c *LRU[V]) moveToFront(e *lruEntry[V]) {
	c.unlink(e)
	c.insertFront(e)
}
