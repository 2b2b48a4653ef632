// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package achievements

import (
	"time"

	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Service evaluates the achievement catalog against user records and
// applies unlocks.
type Service struct {
	defs      []models.AchievementDefinition
	calc      *leveling.Calculator
	publisher Publisher
}

// NewService creates the achievement service. publisher may be nil in
// tests; unlock events are then skipped.
func NewService(defs []models.AchievementDefinition, calc *leveling.Calculator, publisher Publisher) *Service {
	return &Service{defs: defs, calc: calc, publisher: publisher}
}

// Definitions returns the loaded catalog.
func (s *Service) Definitions() []models.AchievementDefinition {
	return s.defs
}

// CheckMessage refreshes derived stats for one live message, then evaluates
// every locked definition. Matches unlock with rarity-scaled XP and an
// unlock event on the bus. Returns the IDs unlocked by this pass.
func (s *Service) CheckMessage(user *models.UserRecord, msg MessageContext) []string {
	updateStats(user, msg)
	return s.evaluate(user, msg.Timestamp, true)
}

// CheckBulk evaluates all locked definitions without side effects beyond
// the unlock itself: no events, no XP grants. Used on initial load and full
// resync so history is never replayed as live notifications.
func (s *Service) CheckBulk(user *models.UserRecord, now time.Time) []string {
	return s.evaluate(user, now, false)
}

func (s *Service) evaluate(user *models.UserRecord, now time.Time, live bool) []string {
	var unlocked []string

	for i := range s.defs {
		def := &s.defs[i]
		if user.HasAchievement(def.ID) {
			continue
		}
		if !evaluateRule(&def.Rule, user) {
			continue
		}

		user.Achievements = append(user.Achievements, models.AchievementAward{
			ID:         def.ID,
			UnlockedAt: now,
		})
		unlocked = append(unlocked, def.ID)

		if live {
			s.grantXP(user, def)
			s.emit(user, def, now)
		}
	}

	return unlocked
}

// grantXP applies the rarity reward and recomputes the level so the
// record's level invariant holds.
func (s *Service) grantXP(user *models.UserRecord, def *models.AchievementDefinition) {
	user.XP += def.Rarity.XPReward()
	user.Level = s.calc.LevelForXP(user.XP)
}

func (s *Service) emit(user *models.UserRecord, def *models.AchievementDefinition, now time.Time) {
	logging.Info().
		Str("user", user.ID).
		Str("achievement", def.ID).
		Str("rarity", string(def.Rarity)).
		Msg("achievement unlocked")

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(models.TopicAchievementUnlocked, models.AchievementUnlockedEvent{
		Identity:      user.ID,
		DisplayName:   user.DisplayName,
		AchievementID: def.ID,
		Name:          def.Name,
		Rarity:        def.Rarity,
		Timestamp:     now,
	})
	if err != nil {
		logging.Error().Err(err).Str("achievement", def.ID).Msg("failed to publish unlock event")
	}
}
