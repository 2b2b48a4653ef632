// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/chatforge/config.yaml",
	"/etc/chatforge/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all sensible default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Chat: ChatConfig{
			CommandPrefix:    "!",
			BannedSubstrings: []string{},
			Blacklist:        []string{},
		},
		XP: XPConfig{
			AwardCooldown:   1 * time.Second,
			MaxPerMessage:   50,
			WatchTimePerMin: 2,
			WatchTimeTick:   1 * time.Minute,
		},
		Spam: SpamConfig{
			CharFloodMinLen: 8,
			CharFloodRatio:  0.8,
			RepeatThreshold: 3,
			CopypastaMinLen: 15,
			CopypastaWindow: 10 * time.Second,
			CopypastaUsers:  3,
			RateWindow:      10 * time.Second,
			RateThreshold:   5,
			SweepInterval:   30 * time.Second,
		},
		Storage: StorageConfig{
			BadgerPath:    "/data/chatforge",
			RemoteURL:     "", // Remote backend disabled by default
			RemoteToken:   "",
			RemoteTimeout: 15 * time.Second,
			SaveDebounce:  5 * time.Second,
			SaveJitter:    2 * time.Second,
			SaveTimeout:   30 * time.Second,
		},
		State: StateConfig{
			EvictThreshold: 10000,
			EvictIdleAfter: 1 * time.Hour,
			EvictInterval:  30 * time.Minute,
			ReloadInterval: 24 * time.Hour,
		},
		NATS: NATSConfig{
			URL:     "", // Sync disabled by default - single-instance mode
			Subject: "chatforge.state.sync",
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8710,
			Timeout: 30 * time.Second,
		},
		Snapshot: SnapshotConfig{
			TopN:     10,
			Interval: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in sensible defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
//
// This function is the preferred way to load configuration and provides:
//   - Type-safe configuration unmarshaling
//   - Clear precedence: ENV > File > Defaults
//   - Support for nested configuration via koanf struct tags
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	configPath := findConfigFile()
	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Load environment variables (highest priority)
	// Transform environment variable names to koanf paths:
	// HTTP_PORT -> server.port
	// SAVE_DEBOUNCE -> storage.save_debounce
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Post-process slice fields from comma-separated strings
	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	// Unmarshal into Config struct
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// Validate the configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	// Check environment variable first
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	// Search default paths
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"chat.banned_substrings",
	"chat.blacklist",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// This is necessary because env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// If it's already a slice (from YAML file), skip
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		// If it's a string, split by comma
		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// envTransformFunc transforms environment variable names to koanf config paths.
//
// Examples:
//   - COMMAND_PREFIX -> chat.command_prefix
//   - BADGER_PATH -> storage.badger_path
//   - NATS_URL -> nats.url
//   - HTTP_PORT -> server.port
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Chat mappings
		"command_prefix":    "chat.command_prefix",
		"banned_substrings": "chat.banned_substrings",
		"user_blacklist":    "chat.blacklist",

		// XP mappings
		"xp_award_cooldown":        "xp.award_cooldown",
		"xp_max_per_message":       "xp.max_per_message",
		"xp_watch_time_per_minute": "xp.watch_time_per_minute",
		"xp_watch_time_tick":       "xp.watch_time_tick",

		// Spam mappings
		"spam_char_flood_min_len": "spam.char_flood_min_len",
		"spam_char_flood_ratio":   "spam.char_flood_ratio",
		"spam_repeat_threshold":   "spam.repeat_threshold",
		"spam_copypasta_min_len":  "spam.copypasta_min_len",
		"spam_copypasta_window":   "spam.copypasta_window",
		"spam_copypasta_users":    "spam.copypasta_users",
		"spam_rate_window":        "spam.rate_window",
		"spam_rate_threshold":     "spam.rate_threshold",
		"spam_sweep_interval":     "spam.sweep_interval",

		// Storage mappings
		"badger_path":          "storage.badger_path",
		"remote_state_url":     "storage.remote_url",
		"remote_state_token":   "storage.remote_token",
		"remote_state_timeout": "storage.remote_timeout",
		"save_debounce":        "storage.save_debounce",
		"save_jitter":          "storage.save_jitter",
		"save_timeout":         "storage.save_timeout",

		// State cache mappings
		"state_evict_threshold":  "state.evict_threshold",
		"state_evict_idle_after": "state.evict_idle_after",
		"state_evict_interval":   "state.evict_interval",
		"state_reload_interval":  "state.reload_interval",

		// NATS mappings
		"nats_url":     "nats.url",
		"nats_subject": "nats.subject",

		// Server mappings
		"http_port":    "server.port",
		"http_host":    "server.host",
		"http_timeout": "server.timeout",

		// Snapshot mappings
		"snapshot_top_n":    "snapshot.top_n",
		"snapshot_interval": "snapshot.interval",

		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// For unmapped keys, return empty string to skip them
	// This prevents random environment variables from polluting config
	return ""
}

// WatchConfigFile sets up a file watcher for hot-reload capability.
// Note: The caller is responsible for mutex protection when accessing
// configuration during reloads.
func WatchConfigFile(path string, callback func()) error {
	provider := file.Provider(path)

	return provider.Watch(func(event interface{}, err error) {
		if err != nil {
			return
		}
		callback()
	})
}
