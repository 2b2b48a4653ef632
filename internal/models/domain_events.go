// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package models

import "time"

// Topics for the in-process domain event bus. Rendering and audio
// collaborators subscribe to these via the websocket hub.
const (
	TopicLevelUp             = "progression.levelup"
	TopicAchievementUnlocked = "progression.achievement"
	TopicUserActivity        = "progression.activity"
	TopicMessageResult       = "progression.message"
	TopicCommand             = "chat.command"
)

// LevelUpEvent announces that a user crossed a level boundary.
type LevelUpEvent struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	OldLevel    int       `json:"old_level"`
	NewLevel    int       `json:"new_level"`
	XP          int       `json:"xp"`
	Title       string    `json:"title"`
	Timestamp   time.Time `json:"timestamp"`
}

// AchievementUnlockedEvent announces a live achievement unlock. Bulk/initial
// load passes never emit these.
type AchievementUnlockedEvent struct {
	Identity      string    `json:"identity"`
	DisplayName   string    `json:"display_name"`
	AchievementID string    `json:"achievement_id"`
	Name          string    `json:"name"`
	Rarity        Rarity    `json:"rarity"`
	Timestamp     time.Time `json:"timestamp"`
}

// UserActivityEvent is the generic per-message activity ping.
type UserActivityEvent struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageResultEvent is the rendering-ready per-message result with the
// itemized XP breakdown.
type MessageResultEvent struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	Text        string    `json:"text"`
	EmoteCount  int       `json:"emote_count"`
	XP          *XPResult `json:"xp,omitempty"`
	Unlocked    []string  `json:"unlocked,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// CommandEvent announces a detected chat command. Commands halt the
// pipeline before XP award; they are not chat content.
type CommandEvent struct {
	Identity    string    `json:"identity"`
	DisplayName string    `json:"display_name"`
	Command     string    `json:"command"`
	Args        []string  `json:"args,omitempty"`
	Tier        string    `json:"tier"`
	Timestamp   time.Time `json:"timestamp"`
}

// SyncEnvelope wraps a user record broadcast to sibling instances. Receivers
// drop envelopes from their own instance and any record not newer than the
// local copy.
type SyncEnvelope struct {
	InstanceID string      `json:"instance_id"`
	Record     *UserRecord `json:"record"`
	LogicalTS  int64       `json:"logical_ts"`
}
