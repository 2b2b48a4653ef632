// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package snapshot

import (
	"testing"
	"time"

	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/state"
)

type capturingHub struct {
	types    []string
	payloads []interface{}
}

func (h *capturingHub) Broadcast(messageType string, data interface{}) {
	h.types = append(h.types, messageType)
	h.payloads = append(h.payloads, data)
}

var snapNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func seedUser(t *testing.T, states *state.Manager, id string, xpTotal, level, messages int) {
	t.Helper()
	states.GetOrCreate(id, id)
	ok := states.Mutate(id, snapNow, func(u *models.UserRecord) {
		u.XP = xpTotal
		u.Level = level
		u.TotalMessages = messages
	})
	if !ok {
		t.Fatalf("seed %s failed", id)
	}
}

func TestRecompute_LeaderboardAndStats(t *testing.T) {
	states := state.NewManager(state.Config{}, "test", nil)
	hub := &capturingHub{}
	svc := NewService(Config{TopN: 2}, states, hub)

	seedUser(t, states, "1", 500, 3, 40)
	seedUser(t, states, "2", 900, 4, 80)
	seedUser(t, states, "3", 100, 2, 10)

	svc.Recompute(snapNow)

	board := svc.Leaderboard()
	if board.Count != 3 || len(board.TopUsers) != 2 {
		t.Fatalf("board = %+v, want count 3 with top 2", board)
	}
	if board.TopUsers[0].ID != "2" || board.TopUsers[0].Rank != 1 {
		t.Errorf("top entry = %+v, want user 2 at rank 1", board.TopUsers[0])
	}
	if board.TopUsers[1].ID != "1" || board.TopUsers[1].Rank != 2 {
		t.Errorf("second entry = %+v", board.TopUsers[1])
	}

	stats := svc.Stats()
	if stats.TotalXP != 1500 || stats.TotalMessages != 130 || stats.TotalUsers != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AverageLevel != 3.0 {
		t.Errorf("average level = %v, want 3.0", stats.AverageLevel)
	}
	if !stats.LastCalculated.Equal(snapNow) {
		t.Errorf("LastCalculated = %v", stats.LastCalculated)
	}

	if len(hub.types) != 2 || hub.types[0] != "leaderboard" || hub.types[1] != "stats_update" {
		t.Errorf("broadcast types = %v", hub.types)
	}
}

func TestRecompute_RankClimbFeedsAchievementStats(t *testing.T) {
	states := state.NewManager(state.Config{}, "test", nil)
	svc := NewService(Config{}, states, nil)

	seedUser(t, states, "1", 500, 3, 10)
	seedUser(t, states, "2", 100, 1, 5)
	svc.Recompute(snapNow) // user 2 is rank 2

	// User 2 overtakes user 1 before the next round.
	states.Mutate("2", snapNow.Add(time.Minute), func(u *models.UserRecord) {
		u.XP = 900
	})
	svc.Recompute(snapNow.Add(10 * time.Minute))

	rec, _ := states.Get("2")
	if rec.AchievementStats["rank_climbed"] != 1 {
		t.Errorf("rank_climbed = %v, want 1", rec.AchievementStats["rank_climbed"])
	}
	if rec.AchievementStats["best_rank"] != 1 {
		t.Errorf("best_rank = %v, want 1", rec.AchievementStats["best_rank"])
	}
}

func TestRecompute_EmptyStateSafe(t *testing.T) {
	states := state.NewManager(state.Config{}, "test", nil)
	svc := NewService(Config{}, states, nil)

	svc.Recompute(snapNow)

	if board := svc.Leaderboard(); board.Count != 0 || len(board.TopUsers) != 0 {
		t.Errorf("board = %+v, want empty", board)
	}
	if stats := svc.Stats(); stats.AverageLevel != 0 {
		t.Errorf("stats = %+v", stats)
	}
}
