// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package config

import (
	"fmt"
	"strings"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := c.validateChat(); err != nil {
		return err
	}

	if err := c.validateXP(); err != nil {
		return err
	}

	if err := c.validateSpam(); err != nil {
		return err
	}

	if err := c.validateStorage(); err != nil {
		return err
	}

	if err := c.validateNATS(); err != nil {
		return err
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateSnapshot(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateChat validates chat pipeline settings
func (c *Config) validateChat() error {
	if c.Chat.CommandPrefix == "" {
		return fmt.Errorf("COMMAND_PREFIX must not be empty")
	}
	if len(c.Chat.CommandPrefix) > 3 {
		return fmt.Errorf("COMMAND_PREFIX must be at most 3 characters")
	}
	return nil
}

// validateXP validates award tuning
func (c *Config) validateXP() error {
	if c.XP.AwardCooldown < 0 {
		return fmt.Errorf("XP_AWARD_COOLDOWN must not be negative")
	}
	if c.XP.MaxPerMessage < 1 {
		return fmt.Errorf("XP_MAX_PER_MESSAGE must be at least 1")
	}
	if c.XP.WatchTimePerMin < 0 {
		return fmt.Errorf("XP_WATCH_TIME_PER_MINUTE must not be negative")
	}
	return nil
}

// validateSpam validates filter thresholds
func (c *Config) validateSpam() error {
	if c.Spam.CharFloodRatio <= 0 || c.Spam.CharFloodRatio > 1 {
		return fmt.Errorf("SPAM_CHAR_FLOOD_RATIO must be in (0, 1]")
	}
	if c.Spam.RepeatThreshold < 2 {
		return fmt.Errorf("SPAM_REPEAT_THRESHOLD must be at least 2")
	}
	if c.Spam.CopypastaUsers < 2 {
		return fmt.Errorf("SPAM_COPYPASTA_USERS must be at least 2")
	}
	if c.Spam.RateThreshold < 1 {
		return fmt.Errorf("SPAM_RATE_THRESHOLD must be at least 1")
	}
	return nil
}

// validateStorage validates persistence settings
func (c *Config) validateStorage() error {
	if c.Storage.BadgerPath == "" && c.Storage.RemoteURL == "" {
		return fmt.Errorf("at least one of BADGER_PATH or REMOTE_STATE_URL must be set")
	}
	if c.Storage.RemoteURL != "" {
		if !strings.HasPrefix(c.Storage.RemoteURL, "http://") && !strings.HasPrefix(c.Storage.RemoteURL, "https://") {
			return fmt.Errorf("REMOTE_STATE_URL must start with http:// or https://")
		}
	}
	if c.Storage.SaveDebounce <= 0 {
		return fmt.Errorf("SAVE_DEBOUNCE must be positive")
	}
	if c.Storage.SaveJitter < 0 {
		return fmt.Errorf("SAVE_JITTER must not be negative")
	}
	if c.Storage.SaveTimeout <= 0 {
		return fmt.Errorf("SAVE_TIMEOUT must be positive")
	}
	return nil
}

// validateNATS validates sync settings (only when a URL is configured)
func (c *Config) validateNATS() error {
	if c.NATS.URL == "" {
		return nil // Sync is optional - no validation needed when disabled
	}
	if !strings.HasPrefix(c.NATS.URL, "nats://") && !strings.HasPrefix(c.NATS.URL, "tls://") {
		return fmt.Errorf("NATS_URL must start with nats:// or tls://")
	}
	if c.NATS.Subject == "" {
		return fmt.Errorf("NATS_SUBJECT must not be empty when NATS_URL is set")
	}
	return nil
}

// validateServer validates HTTP server settings
func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535")
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	return nil
}

// validateSnapshot validates derived-view settings
func (c *Config) validateSnapshot() error {
	if c.Snapshot.TopN < 1 {
		return fmt.Errorf("SNAPSHOT_TOP_N must be at least 1")
	}
	if c.Snapshot.Interval <= 0 {
		return fmt.Errorf("SNAPSHOT_INTERVAL must be positive")
	}
	return nil
}

// validateLogging validates logging settings
func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error, fatal")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console")
	}

	return nil
}
