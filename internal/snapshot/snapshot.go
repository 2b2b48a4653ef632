// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package snapshot recomputes the derived aggregate documents: the top-N
// leaderboard and the community stats. Recomputation is a throttled
// background job, not a per-message cost; the read API serves the latest
// snapshot from memory.
package snapshot

import (
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/chatforge/internal/achievements"
	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
	"github.com/tomtom215/chatforge/internal/state"
)

// Broadcaster pushes snapshot frames to overlay clients.
type Broadcaster interface {
	Broadcast(messageType string, data interface{})
}

// Config holds snapshot tuning. Zero values take defaults.
type Config struct {
	// TopN is the leaderboard length.
	TopN int
}

// Service owns the latest snapshots and the rank bookkeeping between
// recomputations.
type Service struct {
	topN   int
	states *state.Manager
	hub    Broadcaster

	mu          sync.RWMutex
	leaderboard *models.LeaderboardSnapshot
	stats       *models.CommunityStats
	prevRanks   map[string]int
}

// NewService creates the snapshot service. hub may be nil; frames are
// then skipped.
func NewService(cfg Config, states *state.Manager, hub Broadcaster) *Service {
	if cfg.TopN <= 0 {
		cfg.TopN = 10
	}
	return &Service{
		topN:        cfg.TopN,
		states:      states,
		hub:         hub,
		leaderboard: &models.LeaderboardSnapshot{TopUsers: []models.LeaderboardEntry{}},
		stats:       &models.CommunityStats{},
		prevRanks:   map[string]int{},
	}
}

// Recompute rebuilds both snapshots from the resident records, feeds
// rank movement into the achievement stats, and broadcasts the results.
func (s *Service) Recompute(now time.Time) {
	users := s.states.All()

	sort.Slice(users, func(i, j int) bool {
		if users[i].XP != users[j].XP {
			return users[i].XP > users[j].XP
		}
		return users[i].ID < users[j].ID
	})

	board := &models.LeaderboardSnapshot{Count: len(users)}
	newRanks := make(map[string]int, len(users))
	stats := &models.CommunityStats{LastCalculated: now}
	var levelSum int

	for i, u := range users {
		rank := i + 1
		newRanks[u.ID] = rank

		stats.TotalXP += u.XP
		stats.TotalMessages += u.TotalMessages
		levelSum += u.Level

		if rank <= s.topN {
			board.TopUsers = append(board.TopUsers, models.LeaderboardEntry{
				ID:          u.ID,
				DisplayName: u.DisplayName,
				XP:          u.XP,
				Level:       u.Level,
				Rank:        rank,
			})
		}
	}
	if board.TopUsers == nil {
		board.TopUsers = []models.LeaderboardEntry{}
	}

	stats.TotalUsers = len(users)
	if len(users) > 0 {
		stats.AverageLevel = float64(levelSum) / float64(len(users))
	}

	s.applyRankMovement(newRanks, now)

	s.mu.Lock()
	s.leaderboard = board
	s.stats = stats
	s.prevRanks = newRanks
	s.mu.Unlock()

	if s.hub != nil {
		s.hub.Broadcast("leaderboard", board)
		s.hub.Broadcast("stats_update", stats)
	}

	logging.Debug().
		Int("users", len(users)).
		Int("top_n", len(board.TopUsers)).
		Msg("snapshots recomputed")
}

// applyRankMovement records climbs between rounds on the user records so
// rank-based achievements can fire on the next message.
func (s *Service) applyRankMovement(newRanks map[string]int, now time.Time) {
	s.mu.RLock()
	prev := s.prevRanks
	s.mu.RUnlock()

	for id, newRank := range newRanks {
		oldRank, seen := prev[id]
		if !seen {
			continue
		}
		if oldRank == newRank {
			continue
		}
		s.states.Mutate(id, now, func(u *models.UserRecord) {
			achievements.UpdateRankStats(u, oldRank, newRank)
		})
	}
}

// Leaderboard returns the latest leaderboard snapshot.
func (s *Service) Leaderboard() *models.LeaderboardSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.leaderboard
}

// Stats returns the latest community stats snapshot.
func (s *Service) Stats() *models.CommunityStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}
