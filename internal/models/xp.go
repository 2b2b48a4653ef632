// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

// XPSource is one itemized contribution to a message's XP award.
type XPSource struct {
	Name   string `json:"name"`
	Amount int    `json:"amount"`
}

// XPResult is the outcome of awarding XP for a single message. Zero-gain
// results (cooldown, blacklisted sender) carry Total == 0 and no sources.
type XPResult struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`

	// Sources itemizes the pre-multiplier breakdown.
	Sources []XPSource `json:"sources,omitempty"`

	// Multiplier is the streak multiplier applied to the source sum.
	Multiplier float64 `json:"multiplier"`

	// Total is the final awarded XP after multiplier and per-message clamp.
	Total int `json:"total"`

	// XP and Level reflect the user's cumulative state after the award.
	XP    int `json:"xp"`
	Level int `json:"level"`

	LeveledUp bool `json:"leveled_up"`
	OldLevel  int  `json:"old_level,omitempty"`

	// StreakDays and StreakMilestone report the refreshed daily streak.
	StreakDays      int  `json:"streak_days"`
	StreakMilestone bool `json:"streak_milestone,omitempty"`
}
