// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package xp

import (
	"testing"
	"time"

	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/streak"
)

type capturingPublisher struct {
	topics   []string
	payloads []interface{}
}

func (p *capturingPublisher) Publish(topic string, payload interface{}) error {
	p.topics = append(p.topics, topic)
	p.payloads = append(p.payloads, payload)
	return nil
}

func newTestService(cfg Config) (*Service, *capturingPublisher) {
	pub := &capturingPublisher{}
	return NewService(cfg, leveling.NewCalculator(), streak.NewManager(), pub), pub
}

func chatEvent(id, name, text string, at time.Time) *models.ChatEvent {
	return &models.ChatEvent{
		Identity:    id,
		DisplayName: name,
		Text:        text,
		Timestamp:   at,
	}
}

func TestTrackMessage_FreshUserBaseAward(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// First message of the first day: base 5 + first_of_day 10, streak day 1.
	res := svc.TrackMessage(u, chatEvent("1", "alice", "hello chat", at), 0)

	if res.Total != 15 {
		t.Errorf("total = %d, want 15", res.Total)
	}
	if u.XP != 15 || res.XP != 15 {
		t.Errorf("XP = %d/%d, want 15", u.XP, res.XP)
	}
	if u.Level != 1 || res.Level != 1 {
		t.Errorf("level = %d, want 1 below the 100 XP threshold", u.Level)
	}
	if res.StreakDays != 1 {
		t.Errorf("streak = %d, want 1", res.StreakDays)
	}
	if res.Multiplier != 1.0 {
		t.Errorf("multiplier = %v, want 1.0 for a day-1 streak", res.Multiplier)
	}
}

func TestTrackMessage_CooldownZeroGain(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	first := svc.TrackMessage(u, chatEvent("1", "alice", "one", at), 0)
	second := svc.TrackMessage(u, chatEvent("1", "alice", "two", at.Add(200*time.Millisecond)), 0)
	third := svc.TrackMessage(u, chatEvent("1", "alice", "three", at.Add(2*time.Second)), 0)

	if first.Total == 0 {
		t.Error("first message must earn XP")
	}
	if second.Total != 0 {
		t.Errorf("message inside cooldown earned %d XP", second.Total)
	}
	if second.XP != first.XP {
		t.Errorf("cooldown result XP = %d, want unchanged %d", second.XP, first.XP)
	}
	if third.Total == 0 {
		t.Error("message after cooldown must earn XP")
	}
}

func TestTrackMessage_BlacklistedNeverEarns(t *testing.T) {
	svc, _ := newTestService(Config{Blacklist: []string{"Nightbot"}})
	u := models.NewUserRecord("bot1", "Nightbot")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	res := svc.TrackMessage(u, chatEvent("bot1", "nightbot", "!uptime is 2h", at), 0)

	if res.Total != 0 || u.XP != 0 {
		t.Errorf("blacklisted sender earned XP: total=%d xp=%d", res.Total, u.XP)
	}
	if u.StreakDays != 0 {
		t.Errorf("blacklisted sender advanced streak to %d", u.StreakDays)
	}
}

func TestTrackMessage_StreakMultiplierApplied(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	u.StreakDays = 6
	u.BestStreak = 6
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u.LastStreakDate = models.DateKey(at.AddDate(0, 0, -1))

	// Extending to day 7 raises the multiplier to 1.2. Sources: base 5 +
	// first_of_day 10 = 15, so the award is int(15 * 1.2) = 18.
	res := svc.TrackMessage(u, chatEvent("1", "alice", "hello chat", at), 0)

	if res.StreakDays != 7 {
		t.Fatalf("streak = %d, want 7", res.StreakDays)
	}
	if res.Multiplier != 1.2 {
		t.Errorf("multiplier = %v, want 1.2", res.Multiplier)
	}
	if res.Total != 18 {
		t.Errorf("total = %d, want 18", res.Total)
	}
}

func TestTrackMessage_MilestoneBonus(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	u.StreakDays = 4
	u.BestStreak = 4
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	u.LastStreakDate = models.DateKey(at.AddDate(0, 0, -1))

	res := svc.TrackMessage(u, chatEvent("1", "alice", "day five", at), 0)

	if !res.StreakMilestone {
		t.Fatal("day 5 refresh should be a milestone")
	}
	if _, ok := amountOf(res.Sources, SourceStreakMilestone); !ok {
		t.Errorf("sources %v missing streak_milestone", res.Sources)
	}
}

func TestTrackMessage_ClampedToMax(t *testing.T) {
	svc, _ := newTestService(Config{MaxPerMessage: 12})
	u := models.NewUserRecord("1", "alice")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	// base 5 + first_of_day 10 exceeds the clamp.
	res := svc.TrackMessage(u, chatEvent("1", "alice", "hello chat", at), 0)

	if res.Total != 12 {
		t.Errorf("total = %d, want clamped 12", res.Total)
	}
}

func TestTrackMessage_LevelUpEventPublished(t *testing.T) {
	svc, pub := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	u.XP = 95
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	res := svc.TrackMessage(u, chatEvent("1", "alice", "hello chat", at), 0)

	if !res.LeveledUp {
		t.Fatalf("expected level up past 100 XP, got XP=%d level=%d", res.XP, res.Level)
	}
	if res.OldLevel != 1 || res.Level != 2 {
		t.Errorf("levels = %d -> %d, want 1 -> 2", res.OldLevel, res.Level)
	}
	if len(pub.topics) != 1 || pub.topics[0] != models.TopicLevelUp {
		t.Fatalf("topics = %v, want one level-up event", pub.topics)
	}
	ev, ok := pub.payloads[0].(models.LevelUpEvent)
	if !ok {
		t.Fatalf("payload type %T", pub.payloads[0])
	}
	if ev.NewLevel != 2 || ev.Title == "" {
		t.Errorf("event = %+v, want new level 2 with a title", ev)
	}
}

func TestTrackMessage_RecordsDailyActivity(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	res := svc.TrackMessage(u, chatEvent("1", "alice", "hello chat", at), 0)

	day := u.ActivityHistory[models.DateKey(at)]
	if day == nil || day.XP != res.Total {
		t.Errorf("day bucket = %+v, want XP %d", day, res.Total)
	}
	if !u.LastActivityAt.Equal(at) {
		t.Errorf("LastActivityAt = %v, want %v", u.LastActivityAt, at)
	}
}

func TestAddWatchTime(t *testing.T) {
	svc, _ := newTestService(Config{})
	u := models.NewUserRecord("1", "alice")
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	leveled := svc.AddWatchTime(u, 10, at)

	if u.WatchTimeMinutes != 10 {
		t.Errorf("watch time = %d, want 10", u.WatchTimeMinutes)
	}
	if u.XP != 20 {
		t.Errorf("XP = %d, want 20 at 2 XP per minute", u.XP)
	}
	if leveled {
		t.Error("20 XP should not level up")
	}
	if day := u.ActivityHistory[models.DateKey(at)]; day == nil || day.WatchTime != 10 {
		t.Errorf("day bucket = %+v, want 10 watch minutes", day)
	}

	// Enough accumulated minutes crosses the level threshold.
	if !svc.AddWatchTime(u, 50, at.Add(time.Hour)) {
		t.Error("expected level up after 120 total XP")
	}
}

func TestAddWatchTimeBatch(t *testing.T) {
	svc, _ := newTestService(Config{})
	at := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	near := models.NewUserRecord("1", "alice")
	near.XP = 99
	near.Level = 1
	fresh := models.NewUserRecord("2", "bob")

	leveled := svc.AddWatchTimeBatch([]*models.UserRecord{near, fresh}, 1, at)

	if len(leveled) != 1 || leveled[0].ID != "1" {
		t.Errorf("leveled = %v, want only alice", leveled)
	}
}
