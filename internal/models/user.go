// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

import "time"

// DateKey formats a time as the canonical UTC date string used for
// activityHistory keys and streak bookkeeping.
func DateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// AchievementAward records one unlocked achievement on a user.
type AchievementAward struct {
	ID         string    `json:"id"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// DayActivity aggregates one UTC day of user activity.
type DayActivity struct {
	Messages  int `json:"messages"`
	XP        int `json:"xp"`
	WatchTime int `json:"watch_time"`
}

// UserRecord is the durable per-identity progression state. One record per
// identity; created on first sighting, mutated by the experience and
// achievement services, never deleted outside an administrative reset.
//
// Invariants maintained by the owning services:
//   - XP >= 0
//   - Level >= 1 and always equals leveling.LevelForXP(XP)
//   - BestStreak >= StreakDays
//   - Achievement IDs unique within Achievements
//   - ActivityHistory keys are canonical UTC date strings (DateKey)
type UserRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`

	XP    int `json:"xp"`
	Level int `json:"level"`

	LastActivityAt time.Time `json:"last_activity_at"`

	StreakDays     int    `json:"streak_days"`
	BestStreak     int    `json:"best_streak"`
	LastStreakDate string `json:"last_streak_date"`

	TotalMessages int `json:"total_messages"`

	Achievements     []AchievementAward     `json:"achievements"`
	AchievementStats map[string]interface{} `json:"achievement_stats"`

	ActivityHistory map[string]*DayActivity `json:"activity_history"`

	WatchTimeMinutes   int `json:"watch_time_minutes"`
	SubscriptionMonths int `json:"subscription_months"`

	// UpdatedAt is the logical timestamp (Unix milliseconds) used for
	// newer-wins reconciliation between instances. Bumped on every mutation.
	UpdatedAt int64 `json:"updated_at"`
}

// NewUserRecord returns a default record for a first-seen identity.
func NewUserRecord(id, displayName string) *UserRecord {
	return &UserRecord{
		ID:               id,
		DisplayName:      displayName,
		Level:            1,
		Achievements:     []AchievementAward{},
		AchievementStats: map[string]interface{}{},
		ActivityHistory:  map[string]*DayActivity{},
	}
}

// HasAchievement reports whether the achievement with the given ID is
// already unlocked.
func (u *UserRecord) HasAchievement(id string) bool {
	for _, a := range u.Achievements {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Touch bumps the logical timestamp. Callers mutating the record must call
// this before the record is broadcast or persisted.
func (u *UserRecord) Touch(now time.Time) {
	ts := now.UnixMilli()
	if ts <= u.UpdatedAt {
		ts = u.UpdatedAt + 1
	}
	u.UpdatedAt = ts
}

// DayFor returns the activity bucket for the given time, creating it if
// absent.
func (u *UserRecord) DayFor(t time.Time) *DayActivity {
	key := DateKey(t)
	if u.ActivityHistory == nil {
		u.ActivityHistory = map[string]*DayActivity{}
	}
	day, ok := u.ActivityHistory[key]
	if !ok {
		day = &DayActivity{}
		u.ActivityHistory[key] = day
	}
	return day
}

// Clone returns a deep copy of the record, safe to hand to other goroutines
// (sync broadcast, snapshot jobs).
func (u *UserRecord) Clone() *UserRecord {
	c := *u

	c.Achievements = make([]AchievementAward, len(u.Achievements))
	copy(c.Achievements, u.Achievements)

	c.AchievementStats = make(map[string]interface{}, len(u.AchievementStats))
	for k, v := range u.AchievementStats {
		c.AchievementStats[k] = v
	}

	c.ActivityHistory = make(map[string]*DayActivity, len(u.ActivityHistory))
	for k, v := range u.ActivityHistory {
		day := *v
		c.ActivityHistory[k] = &day
	}

	return &c
}
