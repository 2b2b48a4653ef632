// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package spam implements the stateful abuse detector for the chat
// pipeline. Four independent detectors run in a fixed order with
// short-circuit on first match: char flood, consecutive repeat, copypasta,
// rate flood. Tracking state is never persisted; a periodic sweep bounds
// its memory.
package spam

import (
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/tomtom215/chatforge/internal/cache"
)

// Block reasons, reported in verdicts and metrics labels.
const (
	ReasonCharFlood = "char_flood"
	ReasonRepeat    = "repeat"
	ReasonCopypasta = "copypasta"
	ReasonRateFlood = "rate_flood"
)

// Config holds detector thresholds. Zero values take defaults.
type Config struct {
	// CharFloodMinLen is the minimum message length (runes) before the
	// char-flood detector applies.
	CharFloodMinLen int

	// CharFloodRatio is the blocking share of the most frequent single
	// character among non-whitespace characters.
	CharFloodRatio float64

	// RepeatThreshold is the number of consecutive identical messages
	// (case-folded) from one user that triggers a block.
	RepeatThreshold int

	// CopypastaMinLen exempts short messages from copypasta tracking.
	CopypastaMinLen int

	// CopypastaWindow is the rolling window for identical-text tracking.
	CopypastaWindow time.Duration

	// CopypastaUsers is the distinct-poster count at which identical text
	// starts blocking.
	CopypastaUsers int

	// RateWindow and RateThreshold define the per-user flood window.
	RateWindow    time.Duration
	RateThreshold int

	// RatePassEvery lets every Nth message through once a user is over
	// the rate threshold, instead of silencing them entirely.
	RatePassEvery int

	// HistoryPerUser caps the per-user rolling message history.
	HistoryPerUser int

	// GlobalHistory caps the global recent-message ring buffer.
	GlobalHistory int

	// EntryTTL is the age past which tracking entries are swept.
	EntryTTL time.Duration
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		CharFloodMinLen: 8,
		CharFloodRatio:  0.8,
		RepeatThreshold: 3,
		CopypastaMinLen: 15,
		CopypastaWindow: 10 * time.Second,
		CopypastaUsers:  3,
		RateWindow:      10 * time.Second,
		RateThreshold:   5,
		RatePassEvery:   3,
		HistoryPerUser:  5,
		GlobalHistory:   50,
		EntryTTL:        60 * time.Second,
	}
}

// Verdict is the outcome of a spam check.
type Verdict struct {
	Blocked bool
	Reason  string
}

// historyEntry is one tracked message in a user's rolling history.
type historyEntry struct {
	normalized string
	seenAt     time.Time
}

// copyEntry tracks one normalized text across posters inside the window.
type copyEntry struct {
	count       int
	firstSeenAt time.Time
	users       map[string]struct{}
}

// rateState holds one user's flood window and throttle sequence.
type rateState struct {
	window *cache.SlidingWindowCounter
	// throttled counts messages seen while the user is over the rate
	// threshold; every Nth one passes.
	throttled int
}

// Filter is the spam detection service. Safe for concurrent use; the
// pipeline calls Check from the processing goroutine while the sweep timer
// runs independently.
type Filter struct {
	cfg Config

	mu        sync.Mutex
	userHist  map[string][]historyEntry
	global    []historyEntry
	copyText  *cache.LRU[*copyEntry]
	rateUsers map[string]*rateState
}

// NewFilter creates a spam filter with the given configuration.
func NewFilter(cfg Config) *Filter {
	def := DefaultConfig()
	if cfg.CharFloodMinLen <= 0 {
		cfg.CharFloodMinLen = def.CharFloodMinLen
	}
	if cfg.CharFloodRatio <= 0 {
		cfg.CharFloodRatio = def.CharFloodRatio
	}
	if cfg.RepeatThreshold <= 0 {
		cfg.RepeatThreshold = def.RepeatThreshold
	}
	if cfg.CopypastaMinLen <= 0 {
		cfg.CopypastaMinLen = def.CopypastaMinLen
	}
	if cfg.CopypastaWindow <= 0 {
		cfg.CopypastaWindow = def.CopypastaWindow
	}
	if cfg.CopypastaUsers <= 0 {
		cfg.CopypastaUsers = def.CopypastaUsers
	}
	if cfg.RateWindow <= 0 {
		cfg.RateWindow = def.RateWindow
	}
	if cfg.RateThreshold <= 0 {
		cfg.RateThreshold = def.RateThreshold
	}
	if cfg.RatePassEvery <= 0 {
		cfg.RatePassEvery = def.RatePassEvery
	}
	if cfg.HistoryPerUser <= 0 {
		cfg.HistoryPerUser = def.HistoryPerUser
	}
	if cfg.GlobalHistory <= 0 {
		cfg.GlobalHistory = def.GlobalHistory
	}
	if cfg.EntryTTL <= 0 {
		cfg.EntryTTL = def.EntryTTL
	}

	return &Filter{
		cfg:       cfg,
		userHist:  make(map[string][]historyEntry),
		copyText:  cache.NewLRU[*copyEntry](4096, cfg.EntryTTL),
		rateUsers: make(map[string]*rateState),
	}
}

// ShouldBlock runs the detector chain for one message and reports whether
// it must be dropped. Passing messages are recorded into every tracking
// structure; blocked messages are not, so a spammer cannot poison their own
// history into further blocks.
func (f *Filter) ShouldBlock(user, text string, ts time.Time) bool {
	return f.Check(user, text, ts).Blocked
}

// Check is ShouldBlock with the matched detector attached.
func (f *Filter) Check(user, text string, ts time.Time) Verdict {
	if isCharFlood(text, f.cfg.CharFloodMinLen, f.cfg.CharFloodRatio) {
		return Verdict{Blocked: true, Reason: ReasonCharFlood}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	normalized := normalize(text)

	if f.isRepeat(user, normalized) {
		return Verdict{Blocked: true, Reason: ReasonRepeat}
	}
	if f.isCopypasta(user, normalized, ts) {
		return Verdict{Blocked: true, Reason: ReasonCopypasta}
	}
	if f.isRateFlood(user, ts) {
		return Verdict{Blocked: true, Reason: ReasonRateFlood}
	}

	f.record(user, normalized, ts)
	return Verdict{}
}

// isCharFlood reports whether one character dominates the message.
// Stateless, so it runs before the lock.
func isCharFlood(text string, minLen int, ratio float64) bool {
	runes := []rune(text)
	if len(runes) < minLen {
		return false
	}

	counts := make(map[rune]int)
	total := 0
	maxCount := 0
	for _, r := range runes {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		counts[r]++
		if counts[r] > maxCount {
			maxCount = counts[r]
		}
	}

	if total == 0 {
		return false
	}
	return float64(maxCount)/float64(total) >= ratio
}

// isRepeat counts consecutive identical messages at the tail of the user's
// history; the current message is the Nth consecutive occurrence.
func (f *Filter) isRepeat(user, normalized string) bool {
	hist := f.userHist[user]
	consecutive := 1 // the current message
	for i := len(hist) - 1; i >= 0; i-- {
		if hist[i].normalized != normalized {
			break
		}
		consecutive++
	}
	return consecutive >= f.cfg.RepeatThreshold
}

// isCopypasta tracks identical normalized text across distinct posters
// inside the rolling window. The tracker is updated even when the verdict
// blocks, so later posters of the same text stay blocked.
func (f *Filter) isCopypasta(user, normalized string, ts time.Time) bool {
	if len(normalized) < f.cfg.CopypastaMinLen {
		return false
	}

	entry, ok := f.copyText.Get(normalized)
	if !ok || ts.Sub(entry.firstSeenAt) > f.cfg.CopypastaWindow {
		// First occurrence, or the window expired: restart tracking.
		f.copyText.Set(normalized, &copyEntry{
			count:       1,
			firstSeenAt: ts,
			users:       map[string]struct{}{user: {}},
		})
		return false
	}

	entry.count++
	entry.users[user] = struct{}{}
	return len(entry.users) >= f.cfg.CopypastaUsers
}

// isRateFlood throttles users over the in-window message threshold,
// passing every Nth message instead of silencing them.
func (f *Filter) isRateFlood(user string, ts time.Time) bool {
	rs, ok := f.rateUsers[user]
	if !ok {
		rs = &rateState{window: cache.NewSlidingWindowCounter(f.cfg.RateWindow, 10)}
		f.rateUsers[user] = rs
	}

	if rs.window.CountAt(ts) < int64(f.cfg.RateThreshold) {
		rs.throttled = 0
		return false
	}

	rs.throttled++
	return rs.throttled%f.cfg.RatePassEvery != 0
}

// record adds a passed message to the per-user history, the global ring,
// and the user's rate window. Must be called with mu held.
func (f *Filter) record(user, normalized string, ts time.Time) {
	hist := append(f.userHist[user], historyEntry{normalized: normalized, seenAt: ts})
	if len(hist) > f.cfg.HistoryPerUser {
		hist = hist[len(hist)-f.cfg.HistoryPerUser:]
	}
	f.userHist[user] = hist

	f.global = append(f.global, historyEntry{normalized: normalized, seenAt: ts})
	if len(f.global) > f.cfg.GlobalHistory {
		f.global = f.global[len(f.global)-f.cfg.GlobalHistory:]
	}

	rs, ok := f.rateUsers[user]
	if !ok {
		rs = &rateState{window: cache.NewSlidingWindowCounter(f.cfg.RateWindow, 10)}
		f.rateUsers[user] = rs
	}
	rs.window.IncrementAt(ts, 1)
}

// Sweep evicts tracking entries older than the TTL and returns how many
// were dropped. Runs from a supervised 30s timer.
func (f *Filter) Sweep() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := time.Now().Add(-f.cfg.EntryTTL)
	removed := 0

	for user, hist := range f.userHist {
		kept := hist[:0]
		for _, e := range hist {
			if e.seenAt.After(cutoff) {
				kept = append(kept, e)
			} else {
				removed++
			}
		}
		if len(kept) == 0 {
			delete(f.userHist, user)
		} else {
			f.userHist[user] = kept
		}
	}

	kept := f.global[:0]
	for _, e := range f.global {
		if e.seenAt.After(cutoff) {
			kept = append(kept, e)
		} else {
			removed++
		}
	}
	f.global = kept

	for user, rs := range f.rateUsers {
		if rs.window.IdleSince(cutoff) {
			delete(f.rateUsers, user)
			removed++
		}
	}

	removed += f.copyText.SweepExpired()
	return removed
}

// TrackedUsers returns the number of users with resident tracking state,
// for the metrics gauge.
func (f *Filter) TrackedUsers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.userHist)
}

// normalize case-folds and trims a message for identity comparison.
func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}
