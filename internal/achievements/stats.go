// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package achievements

import (
	"strings"
	"time"

	"github.com/tomtom215/chatforge/internal/models"
)

// trackedKeywords are the chat keywords with dedicated counters. Matching
// is whole-word after case folding.
var trackedKeywords = []string{"gg", "lol", "pog", "kappa", "hype"}

// MessageContext carries the per-message inputs the stats updater needs.
type MessageContext struct {
	Text       string
	EmoteCount int
	Timestamp  time.Time
}

// updateStats refreshes the derived per-user stats cache for one message:
// timing buckets, keyword counters, question counter, emote counter, and
// calendar flags. Rank-movement stats are updated separately by the
// snapshot job via UpdateRankStats.
func updateStats(u *models.UserRecord, msg MessageContext) {
	if u.AchievementStats == nil {
		u.AchievementStats = map[string]interface{}{}
	}
	stats := u.AchievementStats

	bumpInt(stats, timingBucket(msg.Timestamp), 1)

	if msg.EmoteCount > 0 {
		bumpInt(stats, "emote_count", msg.EmoteCount)
	}
	if strings.Contains(msg.Text, "?") {
		bumpInt(stats, "question_count", 1)
	}

	words := strings.Fields(strings.ToLower(msg.Text))
	for _, kw := range trackedKeywords {
		for _, w := range words {
			if w == kw {
				bumpInt(stats, kw+"_count", 1)
				addKeywordUsed(stats, kw)
				break
			}
		}
	}

	applyCalendarFlags(stats, msg.Timestamp)
}

// timingBucket maps a UTC hour to its stats counter key.
func timingBucket(t time.Time) string {
	switch hour := t.UTC().Hour(); {
	case hour < 6:
		return "night_messages"
	case hour < 12:
		return "morning_messages"
	case hour < 18:
		return "afternoon_messages"
	default:
		return "evening_messages"
	}
}

// applyCalendarFlags raises sticky holiday flags for messages sent on
// special dates.
func applyCalendarFlags(stats map[string]interface{}, t time.Time) {
	utc := t.UTC()
	month, day := utc.Month(), utc.Day()

	switch {
	case month == time.December && day >= 24 && day <= 26:
		stats["holiday_message"] = true
	case month == time.January && day == 1:
		stats["newyear_message"] = true
	case month == time.October && day == 31:
		stats["halloween_message"] = true
	}
}

// UpdateRankStats records leaderboard movement between snapshot rounds.
// Rank 1 is the top; climbing means the rank number went down.
func UpdateRankStats(u *models.UserRecord, oldRank, newRank int) {
	if u.AchievementStats == nil {
		u.AchievementStats = map[string]interface{}{}
	}
	stats := u.AchievementStats

	if oldRank > 0 && newRank > 0 && newRank < oldRank {
		climbed := oldRank - newRank
		if best, _ := toFloat(stats["rank_climbed"]); float64(climbed) > best {
			stats["rank_climbed"] = climbed
		}
	}
	if newRank > 0 {
		if best, ok := toFloat(stats["best_rank"]); !ok || float64(newRank) < best {
			stats["best_rank"] = newRank
		}
	}
}

// bumpInt adds delta to an integer stat, tolerating float64 values left by
// JSON round-trips.
func bumpInt(stats map[string]interface{}, key string, delta int) {
	cur, _ := toFloat(stats[key])
	stats[key] = int(cur) + delta
}

// addKeywordUsed appends a keyword to the distinct-keywords list.
func addKeywordUsed(stats map[string]interface{}, kw string) {
	switch list := stats["keywords_used"].(type) {
	case []string:
		for _, k := range list {
			if k == kw {
				return
			}
		}
		stats["keywords_used"] = append(list, kw)
	case []interface{}:
		for _, k := range list {
			if s, ok := k.(string); ok && s == kw {
				return
			}
		}
		stats["keywords_used"] = append(list, kw)
	default:
		stats["keywords_used"] = []string{kw}
	}
}
