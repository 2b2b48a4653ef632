// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package xp implements per-message experience awarding: the itemized XP
// source evaluator and the experience service orchestrating streaks, the
// level curve, and watch-time accrual.
package xp

import (
	"strings"
	"time"

	"github.com/tomtom215/chatforge/internal/models"
)

// Source names used in itemized XP breakdowns.
const (
	SourceBase            = "base"
	SourceFirstOfDay      = "first_of_day"
	SourceLiveBonus       = "live_bonus"
	SourceEmotes          = "emotes"
	SourceStreamOpen      = "stream_open"
	SourceMention         = "mention"
	SourceStreakMilestone = "streak_milestone"
	SourceQuality         = "quality"
)

// SourceConfig holds the per-source award amounts. Zero values take
// defaults.
type SourceConfig struct {
	BaseXP            int
	FirstOfDayXP      int
	LiveBonusXP       int
	EmoteXP           int
	EmoteXPCap        int
	StreamOpenXP      int
	StreamOpenWindow  time.Duration
	MentionXP         int
	StreakMilestoneXP int
}

// DefaultSourceConfig returns the production award amounts.
func DefaultSourceConfig() SourceConfig {
	return SourceConfig{
		BaseXP:            5,
		FirstOfDayXP:      10,
		LiveBonusXP:       3,
		EmoteXP:           1,
		EmoteXPCap:        5,
		StreamOpenXP:      5,
		StreamOpenWindow:  10 * time.Minute,
		MentionXP:         2,
		StreakMilestoneXP: 15,
	}
}

// EvalInput is one message's context for source evaluation.
type EvalInput struct {
	Text            string
	EmoteCount      int
	Timestamp       time.Time
	FirstOfDay      bool
	StreamLive      bool
	StreamOpenedAt  time.Time
	StreakMilestone bool
}

// EvaluateSources computes the itemized pre-multiplier XP breakdown for a
// message. The quality adjustment may be negative, but the returned sum is
// never below 1: a message that reaches this point always earns something.
func EvaluateSources(cfg SourceConfig, in EvalInput) []models.XPSource {
	sources := []models.XPSource{{Name: SourceBase, Amount: cfg.BaseXP}}

	if in.FirstOfDay {
		sources = append(sources, models.XPSource{Name: SourceFirstOfDay, Amount: cfg.FirstOfDayXP})
	}
	if in.StreamLive {
		sources = append(sources, models.XPSource{Name: SourceLiveBonus, Amount: cfg.LiveBonusXP})

		if !in.StreamOpenedAt.IsZero() && in.Timestamp.Sub(in.StreamOpenedAt) <= cfg.StreamOpenWindow {
			sources = append(sources, models.XPSource{Name: SourceStreamOpen, Amount: cfg.StreamOpenXP})
		}
	}
	if in.EmoteCount > 0 {
		amount := in.EmoteCount * cfg.EmoteXP
		if amount > cfg.EmoteXPCap {
			amount = cfg.EmoteXPCap
		}
		sources = append(sources, models.XPSource{Name: SourceEmotes, Amount: amount})
	}
	if strings.Contains(in.Text, "@") {
		sources = append(sources, models.XPSource{Name: SourceMention, Amount: cfg.MentionXP})
	}
	if in.StreakMilestone {
		sources = append(sources, models.XPSource{Name: SourceStreakMilestone, Amount: cfg.StreakMilestoneXP})
	}

	if quality := qualityAdjustment(in.Text); quality != 0 {
		sources = append(sources, models.XPSource{Name: SourceQuality, Amount: quality})
	}

	// Floor: quality can shrink the award, never erase it.
	if SumSources(sources) < 1 {
		deficit := 1 - SumSources(sources)
		sources = append(sources, models.XPSource{Name: "floor", Amount: deficit})
	}

	return sources
}

// qualityAdjustment scores message effort from length, character
// diversity, and question-mark abuse. Range is roughly [-5, +3].
func qualityAdjustment(text string) int {
	runes := []rune(strings.TrimSpace(text))
	adj := 0

	switch {
	case len(runes) >= 40:
		adj += 3
	case len(runes) >= 20:
		adj += 2
	case len(runes) < 3:
		adj -= 2
	}

	if len(runes) >= 8 {
		distinct := make(map[rune]struct{}, len(runes))
		for _, r := range runes {
			distinct[r] = struct{}{}
		}
		if float64(len(distinct))/float64(len(runes)) < 0.3 {
			adj -= 3
		}
	}

	if strings.Count(text, "?") > 3 {
		adj -= 2
	}

	return adj
}

// SumSources totals an itemized breakdown.
func SumSources(sources []models.XPSource) int {
	total := 0
	for _, s := range sources {
		total += s.Amount
	}
	return total
}
