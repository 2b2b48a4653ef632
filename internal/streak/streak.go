// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package streak implements consecutive-day activity streak tracking and the
// streak XP multiplier lookup. All calendar math uses canonical UTC date
// keys; a streak continues only when the previous qualifying day is exactly
// yesterday.
package streak

import (
	"time"

	"github.com/tomtom215/chatforge/internal/models"
)

// MilestoneInterval is the streak length interval at which a milestone flag
// is raised (every Nth consecutive day).
const MilestoneInterval = 5

// multiplierTable maps minimum streak length to XP multiplier, ascending.
var multiplierTable = []struct {
	minDays    int
	multiplier float64
}{
	{0, 1.0},
	{3, 1.1},
	{7, 1.2},
	{14, 1.35},
	{30, 1.5},
}

// Manager tracks daily streaks on user records.
type Manager struct{}

// NewManager returns a streak manager.
func NewManager() *Manager {
	return &Manager{}
}

// Result reports the outcome of a streak refresh.
type Result struct {
	// Days is the streak length after the refresh.
	Days int

	// Extended is true when the refresh advanced the streak (first
	// qualifying activity of a new day).
	Extended bool

	// Milestone is true when the refreshed streak hit a milestone day.
	Milestone bool
}

// Refresh updates the user's streak for activity at the given time.
//
// Rules:
//   - Activity on the same UTC day as the last streak date: no change.
//   - Last streak date exactly yesterday: streak increments by 1.
//   - Anything else (gap >= 2 days, or first ever activity): reset to 1.
//
// BestStreak never decreases. The milestone flag is raised only on the
// refresh that extends the streak onto a milestone day.
func (m *Manager) Refresh(user *models.UserRecord, now time.Time) Result {
	today := models.DateKey(now)
	if user.LastStreakDate == today {
		return Result{Days: user.StreakDays}
	}

	yesterday := models.DateKey(now.AddDate(0, 0, -1))
	if user.LastStreakDate == yesterday {
		user.StreakDays++
	} else {
		user.StreakDays = 1
	}
	user.LastStreakDate = today

	if user.StreakDays > user.BestStreak {
		user.BestStreak = user.StreakDays
	}

	return Result{
		Days:      user.StreakDays,
		Extended:  true,
		Milestone: user.StreakDays%MilestoneInterval == 0,
	}
}

// Multiplier returns the XP multiplier for a streak length.
func (m *Manager) Multiplier(days int) float64 {
	mult := multiplierTable[0].multiplier
	for _, row := range multiplierTable {
		if days >= row.minDays {
			mult = row.multiplier
		}
	}
	return mult
}
