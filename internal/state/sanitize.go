// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package state

import "github.com/tomtom215/chatforge/internal/models"

// sanitize repairs a record loaded from storage or received over sync:
// negative counters are clamped, duplicate achievement awards are
// dropped, and nil nested containers are replaced so callers never
// index into a nil map.
func sanitize(u *models.UserRecord) {
	clampNonNegative(&u.XP)
	clampNonNegative(&u.TotalMessages)
	clampNonNegative(&u.StreakDays)
	clampNonNegative(&u.BestStreak)
	clampNonNegative(&u.WatchTimeMinutes)
	clampNonNegative(&u.SubscriptionMonths)

	if u.Level < 1 {
		u.Level = 1
	}
	if u.BestStreak < u.StreakDays {
		u.BestStreak = u.StreakDays
	}

	if u.Achievements == nil {
		u.Achievements = []models.AchievementAward{}
	} else {
		seen := make(map[string]struct{}, len(u.Achievements))
		deduped := u.Achievements[:0]
		for _, a := range u.Achievements {
			if _, dup := seen[a.ID]; dup {
				continue
			}
			seen[a.ID] = struct{}{}
			deduped = append(deduped, a)
		}
		u.Achievements = deduped
	}

	if u.AchievementStats == nil {
		u.AchievementStats = map[string]interface{}{}
	}
	if u.ActivityHistory == nil {
		u.ActivityHistory = map[string]*models.DayActivity{}
	}
	for key, day := range u.ActivityHistory {
		if day == nil {
			u.ActivityHistory[key] = &models.DayActivity{}
			continue
		}
		clampNonNegative(&day.Messages)
		clampNonNegative(&day.XP)
		clampNonNegative(&day.WatchTime)
	}
}

func clampNonNegative(v *int) {
	if *v < 0 {
		*v = 0
	}
}
