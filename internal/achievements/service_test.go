// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package achievements

import (
	"testing"
	"time"

	"github.com/tomtom215/chatforge/internal/leveling"
	"github.com/tomtom215/chatforge/internal/models"
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

func newTestService(t *testing.T) (*Service, *capturingPublisher) {
	t.Helper()
	defs, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	pub := &capturingPublisher{}
	return NewService(defs, leveling.NewCalculator(), pub), pub
}

var noon = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestLoadCatalog_Valid(t *testing.T) {
	defs, err := LoadCatalog()
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(defs) < 15 {
		t.Errorf("catalog has %d definitions, want at least 15", len(defs))
	}

	// Deterministic order: sorted by ID.
	for i := 1; i < len(defs); i++ {
		if defs[i-1].ID >= defs[i].ID {
			t.Fatalf("catalog not sorted: %q before %q", defs[i-1].ID, defs[i].ID)
		}
	}
}

func TestParseCatalog_RejectsBadOperator(t *testing.T) {
	bad := []byte(`{"achievements":{"x":{"name":"X","rarity":"common",
		"rule":{"field":"xp","operator":"~=","value":1}}}}`)
	if _, err := parseCatalog(bad); err == nil {
		t.Error("expected error for unknown operator")
	}
}

func TestParseCatalog_RejectsUnknownField(t *testing.T) {
	bad := []byte(`{"achievements":{"x":{"name":"X","rarity":"common",
		"rule":{"field":"no_such_field","operator":">=","value":1}}}}`)
	if _, err := parseCatalog(bad); err == nil {
		t.Error("expected error for unknown rule field")
	}
}

func TestCheckMessage_UnlocksFirstMessage(t *testing.T) {
	svc, pub := newTestService(t)
	u := models.NewUserRecord("1", "alice")
	u.TotalMessages = 1

	unlocked := svc.CheckMessage(u, MessageContext{Text: "hi chat", Timestamp: noon})

	found := false
	for _, id := range unlocked {
		if id == "first_message" {
			found = true
		}
	}
	if !found {
		t.Fatalf("unlocked = %v, want first_message", unlocked)
	}
	if !u.HasAchievement("first_message") {
		t.Error("award not appended to record")
	}
	if len(pub.topics) == 0 || pub.topics[0] != models.TopicAchievementUnlocked {
		t.Errorf("expected unlock event on bus, got %v", pub.topics)
	}
	if u.XP != models.RarityCommon.XPReward() {
		t.Errorf("XP = %d, want rarity reward %d", u.XP, models.RarityCommon.XPReward())
	}
}

func TestCheckMessage_NeverUnlocksTwice(t *testing.T) {
	svc, _ := newTestService(t)
	u := models.NewUserRecord("1", "alice")
	u.TotalMessages = 1

	first := svc.CheckMessage(u, MessageContext{Text: "one", Timestamp: noon})
	second := svc.CheckMessage(u, MessageContext{Text: "two", Timestamp: noon.Add(time.Minute)})

	if len(first) == 0 {
		t.Fatal("first pass should unlock")
	}
	for _, id := range second {
		if id == "first_message" {
			t.Error("achievement unlocked twice")
		}
	}
}

func TestCheckBulk_SilentNoEventsNoXP(t *testing.T) {
	svc, pub := newTestService(t)
	u := models.NewUserRecord("1", "alice")
	u.TotalMessages = 150
	u.XP = 500
	u.Level = 3

	unlocked := svc.CheckBulk(u, noon)

	if len(unlocked) < 2 { // first_message and centurion at minimum
		t.Fatalf("bulk pass unlocked %v, want at least 2", unlocked)
	}
	if len(pub.topics) != 0 {
		t.Errorf("bulk pass must not emit events, got %v", pub.topics)
	}
	if u.XP != 500 {
		t.Errorf("bulk pass must not grant XP, XP = %d", u.XP)
	}
}

func TestUpdateStats_TimingAndKeywords(t *testing.T) {
	u := models.NewUserRecord("1", "alice")

	night := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	updateStats(u, MessageContext{Text: "gg everyone, was that real? kappa", EmoteCount: 2, Timestamp: night})

	stats := u.AchievementStats
	if stats["night_messages"] != 1 {
		t.Errorf("night_messages = %v, want 1", stats["night_messages"])
	}
	if stats["gg_count"] != 1 {
		t.Errorf("gg_count = %v, want 1", stats["gg_count"])
	}
	if stats["question_count"] != 1 {
		t.Errorf("question_count = %v, want 1", stats["question_count"])
	}
	if stats["emote_count"] != 2 {
		t.Errorf("emote_count = %v, want 2", stats["emote_count"])
	}

	kws, ok := stats["keywords_used"].([]string)
	if !ok || len(kws) != 2 {
		t.Errorf("keywords_used = %v, want [gg kappa]", stats["keywords_used"])
	}
}

func TestUpdateStats_HolidayFlag(t *testing.T) {
	u := models.NewUserRecord("1", "alice")
	xmas := time.Date(2026, 12, 25, 18, 0, 0, 0, time.UTC)

	updateStats(u, MessageContext{Text: "merry christmas", Timestamp: xmas})

	if u.AchievementStats["holiday_message"] != true {
		t.Error("holiday flag not set on December 25")
	}
}

func TestIncludesOperator_UnlocksKeywordAchievement(t *testing.T) {
	svc, _ := newTestService(t)
	u := models.NewUserRecord("1", "alice")
	u.TotalMessages = 5

	unlocked := svc.CheckMessage(u, MessageContext{Text: "kappa", Timestamp: noon})

	found := false
	for _, id := range unlocked {
		if id == "kappa_classic" {
			found = true
		}
	}
	if !found {
		t.Errorf("unlocked = %v, want kappa_classic via includes operator", unlocked)
	}
}

func TestUpdateRankStats_ClimbTracked(t *testing.T) {
	u := models.NewUserRecord("1", "alice")

	UpdateRankStats(u, 12, 4)
	if u.AchievementStats["rank_climbed"] != 8 {
		t.Errorf("rank_climbed = %v, want 8", u.AchievementStats["rank_climbed"])
	}

	// A smaller climb later must not overwrite the best climb.
	UpdateRankStats(u, 5, 4)
	if u.AchievementStats["rank_climbed"] != 8 {
		t.Errorf("rank_climbed overwritten: %v", u.AchievementStats["rank_climbed"])
	}

	if u.AchievementStats["best_rank"] != 4 {
		t.Errorf("best_rank = %v, want 4", u.AchievementStats["best_rank"])
	}
}

func TestCompare_Operators(t *testing.T) {
	tests := []struct {
		field interface{}
		op    models.RuleOperator
		want  interface{}
		match bool
	}{
		{10, models.OpGTE, float64(10), true},
		{9, models.OpGTE, float64(10), false},
		{5, models.OpLT, float64(10), true},
		{true, models.OpEQ, true, true},
		{nil, models.OpEQ, true, false},
		{nil, models.OpNEQ, true, true},
		{[]string{"a", "b"}, models.OpIncludes, "b", true},
		{[]string{"a"}, models.OpIncludes, "z", false},
		{"hello world", models.OpIncludes, "world", true},
	}

	for i, tt := range tests {
		if got := compare(tt.field, tt.op, tt.want); got != tt.match {
			t.Errorf("case %d: compare(%v %s %v) = %v, want %v", i, tt.field, tt.op, tt.want, got, tt.match)
		}
	}
}
