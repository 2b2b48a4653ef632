// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package xp

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/tomtom215/chatforge/internal/cache"
	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/streak"
)

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	Publish(topic string, payload interface{}) error
}

// Config holds experience service settings. Zero values take defaults.
type Config struct {
	Sources SourceConfig

	// AwardCooldown is the global per-user minimum interval between
	// message XP awards.
	AwardCooldown time.Duration

	// MaxPerMessage clamps the final post-multiplier award.
	MaxPerMessage int

	// WatchTimeXPPerMinute is the passive XP ratio for watch time. It is
	// independent of the message cooldown.
	WatchTimeXPPerMinute int

	// Blacklist lists identities and display names (case-insensitive)
	// that never earn XP: known bots, system accounts.
	Blacklist []string
}

// DefaultConfig returns the production experience settings.
func DefaultConfig() Config {
	return Config{
		Sources:              DefaultSourceConfig(),
		AwardCooldown:        time.Second,
		MaxPerMessage:        50,
		WatchTimeXPPerMinute: 2,
	}
}

// Service converts chat messages and watch time into durable XP, levels,
// and streaks on user records.
type Service struct {
	cfg       Config
	calc      *leveling.Calculator
	streaks   *streak.Manager
	publisher Publisher

	blacklist map[string]struct{}
	lastAward *cache.LRU[time.Time]

	mu             sync.Mutex
	streamLive     bool
	streamOpenedAt time.Time
}

// NewService creates the experience service. publisher may be nil in
// tests.
func NewService(cfg Config, calc *leveling.Calculator, streaks *streak.Manager, publisher Publisher) *Service {
	def := DefaultConfig()
	if cfg.Sources.BaseXP <= 0 {
		cfg.Sources = def.Sources
	}
	if cfg.AwardCooldown <= 0 {
		cfg.AwardCooldown = def.AwardCooldown
	}
	if cfg.MaxPerMessage <= 0 {
		cfg.MaxPerMessage = def.MaxPerMessage
	}
	if cfg.WatchTimeXPPerMinute <= 0 {
		cfg.WatchTimeXPPerMinute = def.WatchTimeXPPerMinute
	}

	blacklist := make(map[string]struct{}, len(cfg.Blacklist))
	for _, name := range cfg.Blacklist {
		blacklist[strings.ToLower(name)] = struct{}{}
	}

	return &Service{
		cfg:       cfg,
		calc:      calc,
		streaks:   streaks,
		publisher: publisher,
		blacklist: blacklist,
		lastAward: cache.NewLRU[time.Time](8192, time.Hour),
	}
}

// SetStreamLive records the live state of the broadcast, driving the live
// and stream-open bonuses.
func (s *Service) SetStreamLive(live bool, openedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamLive = live
	s.streamOpenedAt = openedAt
}

// StreamLive reports the current live state. The watch-time job only
// credits minutes while the broadcast is live.
func (s *Service) StreamLive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streamLive
}

// Blacklisted reports whether an identity or display name never earns XP.
func (s *Service) Blacklisted(identity, displayName string) bool {
	if _, ok := s.blacklist[strings.ToLower(identity)]; ok {
		return true
	}
	_, ok := s.blacklist[strings.ToLower(displayName)]
	return ok
}

// TrackMessage awards XP for one chat message and returns the itemized
// result. Blacklisted senders and messages inside the per-user cooldown
// get a zero-gain result. The caller owns dirty marking.
func (s *Service) TrackMessage(user *models.UserRecord, event *models.ChatEvent, emoteCount int) *models.XPResult {
	now := event.Timestamp
	result := &models.XPResult{
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Multiplier:  1,
		XP:          user.XP,
		Level:       user.Level,
		StreakDays:  user.StreakDays,
	}

	if s.Blacklisted(event.Identity, event.DisplayName) {
		return result
	}

	if last, ok := s.lastAward.Get(user.ID); ok && now.Sub(last) < s.cfg.AwardCooldown {
		return result
	}
	s.lastAward.Set(user.ID, now)

	firstOfDay := user.ActivityHistory[models.DateKey(now)] == nil
	streakRes := s.streaks.Refresh(user, now)
	result.StreakDays = streakRes.Days
	result.StreakMilestone = streakRes.Milestone

	s.mu.Lock()
	live, openedAt := s.streamLive, s.streamOpenedAt
	s.mu.Unlock()

	sources := EvaluateSources(s.cfg.Sources, EvalInput{
		Text:            event.Text,
		EmoteCount:      emoteCount,
		Timestamp:       now,
		FirstOfDay:      firstOfDay,
		StreamLive:      live,
		StreamOpenedAt:  openedAt,
		StreakMilestone: streakRes.Milestone,
	})

	multiplier := s.streaks.Multiplier(streakRes.Days)
	total := int(math.Round(float64(SumSources(sources)) * multiplier))
	if total > s.cfg.MaxPerMessage {
		total = s.cfg.MaxPerMessage
	}
	if total < 1 {
		total = 1
	}

	oldLevel := user.Level
	user.XP += total
	user.Level = s.calc.LevelForXP(user.XP)
	user.LastActivityAt = now
	user.DayFor(now).XP += total

	result.Sources = sources
	result.Multiplier = multiplier
	result.Total = total
	result.XP = user.XP
	result.Level = user.Level

	if user.Level > oldLevel {
		result.LeveledUp = true
		result.OldLevel = oldLevel
		s.emitLevelUp(user, oldLevel, now)
	}

	return result
}

// AddWatchTime credits passive watch-time XP at the configured per-minute
// ratio. Separate lower-frequency path; the message cooldown does not
// apply. Returns true when the user leveled up.
func (s *Service) AddWatchTime(user *models.UserRecord, minutes int, now time.Time) bool {
	if minutes <= 0 {
		return false
	}

	oldLevel := user.Level
	user.WatchTimeMinutes += minutes
	user.XP += minutes * s.cfg.WatchTimeXPPerMinute
	user.Level = s.calc.LevelForXP(user.XP)
	user.DayFor(now).WatchTime += minutes

	if user.Level > oldLevel {
		s.emitLevelUp(user, oldLevel, now)
		return true
	}
	return false
}

// AddWatchTimeBatch credits one interval of watch time to every given
// user. Returns the users that leveled up.
func (s *Service) AddWatchTimeBatch(users []*models.UserRecord, minutes int, now time.Time) []*models.UserRecord {
	var leveled []*models.UserRecord
	for _, u := range users {
		if s.AddWatchTime(u, minutes, now) {
			leveled = append(leveled, u)
		}
	}
	return leveled
}

func (s *Service) emitLevelUp(user *models.UserRecord, oldLevel int, now time.Time) {
	logging.Info().
		Str("user", user.ID).
		Int("old_level", oldLevel).
		Int("new_level", user.Level).
		Msg("level up")

	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(models.TopicLevelUp, models.LevelUpEvent{
		Identity:    user.ID,
		DisplayName: user.DisplayName,
		OldLevel:    oldLevel,
		NewLevel:    user.Level,
		XP:          user.XP,
		Title:       leveling.TitleForLevel(user.Level),
		Timestamp:   now,
	})
	if err != nil {
		logging.Error().Err(err).Str("user", user.ID).Msg("failed to publish level-up event")
	}
}

// Progress exposes the level calculator's progress percentage for the
// read API.
func (s *Service) Progress(xpTotal int) float64 {
	return s.calc.Progress(xpTotal)
}
