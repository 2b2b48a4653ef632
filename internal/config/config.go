// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package config

import (
	"time"
)

// Config holds all application configuration loaded from environment
// variables and config files.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: Built-in sensible defaults for all optional settings
//  2. Config File: Optional YAML config file (config.yaml) for persistent settings
//  3. Environment Variables: Override any setting via environment variables
//
// Configuration Categories:
//
//  1. Chat Processing:
//     - Chat: command prefix, banned substrings, bot blacklist
//     - Spam: flood, repeat, and copypasta thresholds
//     - XP: award cooldown, per-message cap, watch-time credit
//
//  2. Infrastructure:
//     - Storage: Badger path, optional remote state endpoint, save debounce
//     - State: resident-cache eviction and reload intervals
//     - NATS: optional cross-instance state sync (disabled without a URL)
//     - Server: HTTP server configuration (port, host, timeout)
//
//  3. Derived Views:
//     - Snapshot: leaderboard depth and recompute interval
//
//  4. Observability:
//     - Logging: log levels and output formats
//
// Thread Safety:
// Config is immutable after Load() and safe for concurrent read access
// from multiple goroutines.
type Config struct {
	Chat     ChatConfig     `koanf:"chat"`
	XP       XPConfig       `koanf:"xp"`
	Spam     SpamConfig     `koanf:"spam"`
	Storage  StorageConfig  `koanf:"storage"`
	State    StateConfig    `koanf:"state"`
	NATS     NATSConfig     `koanf:"nats"` // Optional: cross-instance sync (disabled without a URL)
	Server   ServerConfig   `koanf:"server"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ChatConfig holds message-processing settings shared by the filtering
// stages of the pipeline.
//
// Environment Variables:
//   - COMMAND_PREFIX: Prefix that marks a message as a command (default: "!")
//   - BANNED_SUBSTRINGS: Comma-separated case-insensitive blocked substrings
//   - USER_BLACKLIST: Comma-separated identities or display names that never
//     earn progression (bots, known spam accounts)
type ChatConfig struct {
	CommandPrefix    string   `koanf:"command_prefix"`
	BannedSubstrings []string `koanf:"banned_substrings"`
	Blacklist        []string `koanf:"blacklist"`
}

// XPConfig holds award tuning. Source amounts themselves (base, first of
// day, emote, mention) are compile-time constants; these knobs bound how
// often and how much a single user can earn.
//
// Environment Variables:
//   - XP_AWARD_COOLDOWN: Minimum gap between XP-earning messages (default: 1s)
//   - XP_MAX_PER_MESSAGE: Per-message award clamp (default: 50)
//   - XP_WATCH_TIME_PER_MINUTE: XP credited per watched minute (default: 2)
//   - XP_WATCH_TIME_TICK: Watch-time crediting interval (default: 1m)
type XPConfig struct {
	AwardCooldown   time.Duration `koanf:"award_cooldown"`
	MaxPerMessage   int           `koanf:"max_per_message"`
	WatchTimePerMin int           `koanf:"watch_time_per_minute"`
	WatchTimeTick   time.Duration `koanf:"watch_time_tick"`
}

// SpamConfig holds the spam filter thresholds. Zero values fall back to
// the filter's production defaults.
//
// Environment Variables:
//   - SPAM_CHAR_FLOOD_MIN_LEN: Minimum length before char-flood applies (default: 8)
//   - SPAM_CHAR_FLOOD_RATIO: Blocking share of the dominant character (default: 0.8)
//   - SPAM_REPEAT_THRESHOLD: Consecutive identical messages that block (default: 3)
//   - SPAM_COPYPASTA_MIN_LEN: Minimum length for copypasta tracking (default: 15)
//   - SPAM_COPYPASTA_WINDOW: Identical-text rolling window (default: 10s)
//   - SPAM_COPYPASTA_USERS: Distinct posters that trigger a block (default: 3)
//   - SPAM_RATE_WINDOW: Per-user flood window (default: 10s)
//   - SPAM_RATE_THRESHOLD: Messages per window before throttling (default: 5)
//   - SPAM_SWEEP_INTERVAL: Stale-entry sweep interval (default: 30s)
type SpamConfig struct {
	CharFloodMinLen int           `koanf:"char_flood_min_len"`
	CharFloodRatio  float64       `koanf:"char_flood_ratio"`
	RepeatThreshold int           `koanf:"repeat_threshold"`
	CopypastaMinLen int           `koanf:"copypasta_min_len"`
	CopypastaWindow time.Duration `koanf:"copypasta_window"`
	CopypastaUsers  int           `koanf:"copypasta_users"`
	RateWindow      time.Duration `koanf:"rate_window"`
	RateThreshold   int           `koanf:"rate_threshold"`
	SweepInterval   time.Duration `koanf:"sweep_interval"`
}

// StorageConfig holds persistence settings. Badger is the primary local
// backend; the remote endpoint is an optional second backend written on
// every save round and consulted on load when Badger is empty.
//
// Environment Variables:
//   - BADGER_PATH: Local key-value store directory (default: /data/chatforge)
//   - REMOTE_STATE_URL: Optional remote state endpoint (disabled when empty)
//   - REMOTE_STATE_TOKEN: Bearer token for the remote endpoint
//   - REMOTE_STATE_TIMEOUT: Remote request timeout (default: 15s)
//   - SAVE_DEBOUNCE: Quiet period before a save round (default: 5s)
//   - SAVE_JITTER: Random addition to the debounce, spreads multi-instance
//     save storms (default: 2s)
//   - SAVE_TIMEOUT: Per-round save deadline (default: 30s)
type StorageConfig struct {
	BadgerPath    string        `koanf:"badger_path"`
	RemoteURL     string        `koanf:"remote_url"`
	RemoteToken   string        `koanf:"remote_token"`
	RemoteTimeout time.Duration `koanf:"remote_timeout"`
	SaveDebounce  time.Duration `koanf:"save_debounce"`
	SaveJitter    time.Duration `koanf:"save_jitter"`
	SaveTimeout   time.Duration `koanf:"save_timeout"`
}

// StateConfig holds resident-cache tuning for the in-memory user store.
//
// Environment Variables:
//   - STATE_EVICT_THRESHOLD: Resident records before idle eviction starts (default: 10000)
//   - STATE_EVICT_IDLE_AFTER: Idle age that makes a record evictable (default: 1h)
//   - STATE_EVICT_INTERVAL: Eviction sweep interval (default: 30m)
//   - STATE_RELOAD_INTERVAL: Full backing-store reload interval (default: 24h)
type StateConfig struct {
	EvictThreshold int           `koanf:"evict_threshold"`
	EvictIdleAfter time.Duration `koanf:"evict_idle_after"`
	EvictInterval  time.Duration `koanf:"evict_interval"`
	ReloadInterval time.Duration `koanf:"reload_interval"`
}

// NATSConfig holds cross-instance sync settings. Sync is disabled when
// URL is empty; a single instance needs none of this.
//
// Environment Variables:
//   - NATS_URL: NATS server URL (e.g., nats://127.0.0.1:4222)
//   - NATS_SUBJECT: Sync subject (default: chatforge.state.sync)
type NATSConfig struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
}

// ServerConfig holds HTTP server settings for the read API, the metrics
// endpoint, and the overlay WebSocket.
//
// Environment Variables:
//   - HTTP_HOST: Listen address (default: 0.0.0.0)
//   - HTTP_PORT: Listen port (default: 8710)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// SnapshotConfig holds derived-view tuning.
//
// Environment Variables:
//   - SNAPSHOT_TOP_N: Leaderboard length (default: 10)
//   - SNAPSHOT_INTERVAL: Recompute interval (default: 30s)
type SnapshotConfig struct {
	TopN     int           `koanf:"top_n"`
	Interval time.Duration `koanf:"interval"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error, fatal (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file and line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}
