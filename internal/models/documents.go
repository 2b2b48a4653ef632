// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

import "time"

// StateDocumentVersion identifies the persisted document schema.
const StateDocumentVersion = "2"

// StateDocument is the backend-agnostic persisted shape holding all user
// records for the channel.
type StateDocument struct {
	Users       map[string]*UserRecord `json:"users"`
	LastUpdated time.Time              `json:"lastUpdated"`
	Version     string                 `json:"version"`
}

// NewStateDocument returns an empty document with the current version.
func NewStateDocument() *StateDocument {
	return &StateDocument{
		Users:   map[string]*UserRecord{},
		Version: StateDocumentVersion,
	}
}

// LeaderboardEntry is one row of the top-N leaderboard snapshot.
type LeaderboardEntry struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	Rank        int    `json:"rank"`
}

// LeaderboardSnapshot is the auxiliary top-N document, recomputed on a
// throttled interval rather than on every save.
type LeaderboardSnapshot struct {
	TopUsers []LeaderboardEntry `json:"topUsers"`
	Count    int                `json:"count"`
}

// CommunityStats is the community-wide aggregate snapshot.
type CommunityStats struct {
	TotalXP        int       `json:"totalXP"`
	TotalMessages  int       `json:"totalMessages"`
	TotalUsers     int       `json:"totalUsers"`
	AverageLevel   float64   `json:"averageLevel"`
	LastCalculated time.Time `json:"lastCalculated"`
}
