// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	if cfg.Chat.CommandPrefix != "!" {
		t.Errorf("command prefix = %q, want !", cfg.Chat.CommandPrefix)
	}
	if cfg.Storage.SaveDebounce != 5*time.Second {
		t.Errorf("save debounce = %v, want 5s", cfg.Storage.SaveDebounce)
	}
	if cfg.NATS.URL != "" {
		t.Errorf("sync should be disabled by default, got URL %q", cfg.NATS.URL)
	}
	if cfg.NATS.Subject != "chatforge.state.sync" {
		t.Errorf("subject = %q", cfg.NATS.Subject)
	}
}

func TestLoadWithKoanf_Defaults(t *testing.T) {
	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 8710 {
		t.Errorf("port = %d, want 8710", cfg.Server.Port)
	}
	if cfg.Snapshot.TopN != 10 {
		t.Errorf("top_n = %d, want 10", cfg.Snapshot.TopN)
	}
}

func TestLoadWithKoanf_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("COMMAND_PREFIX", "~")
	t.Setenv("SAVE_DEBOUNCE", "10s")
	t.Setenv("USER_BLACKLIST", "nightbot, streamelements ,moobot")
	t.Setenv("NATS_URL", "nats://127.0.0.1:4222")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Server.Port)
	}
	if cfg.Chat.CommandPrefix != "~" {
		t.Errorf("prefix = %q, want ~", cfg.Chat.CommandPrefix)
	}
	if cfg.Storage.SaveDebounce != 10*time.Second {
		t.Errorf("debounce = %v, want 10s", cfg.Storage.SaveDebounce)
	}
	want := []string{"nightbot", "streamelements", "moobot"}
	if len(cfg.Chat.Blacklist) != len(want) {
		t.Fatalf("blacklist = %v, want %v", cfg.Chat.Blacklist, want)
	}
	for i, name := range want {
		if cfg.Chat.Blacklist[i] != name {
			t.Errorf("blacklist[%d] = %q, want %q", i, cfg.Chat.Blacklist[i], name)
		}
	}
	if cfg.NATS.URL != "nats://127.0.0.1:4222" {
		t.Errorf("nats url = %q", cfg.NATS.URL)
	}
}

func TestLoadWithKoanf_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8888
chat:
  command_prefix: "?"
  banned_substrings:
    - badword
    - worse
snapshot:
  top_n: 25
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Server.Port != 8888 {
		t.Errorf("port = %d, want 8888 from file", cfg.Server.Port)
	}
	if cfg.Chat.CommandPrefix != "?" {
		t.Errorf("prefix = %q, want ?", cfg.Chat.CommandPrefix)
	}
	if len(cfg.Chat.BannedSubstrings) != 2 {
		t.Errorf("banned = %v", cfg.Chat.BannedSubstrings)
	}
	if cfg.Snapshot.TopN != 25 {
		t.Errorf("top_n = %d, want 25", cfg.Snapshot.TopN)
	}
	// Unset sections keep their defaults.
	if cfg.Storage.BadgerPath != "/data/chatforge" {
		t.Errorf("badger path = %q", cfg.Storage.BadgerPath)
	}
}

func TestLoadWithKoanf_EnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 8888\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("HTTP_PORT", "9100")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("port = %d, want env value 9100", cfg.Server.Port)
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty command prefix", func(c *Config) { c.Chat.CommandPrefix = "" }},
		{"zero max per message", func(c *Config) { c.XP.MaxPerMessage = 0 }},
		{"char flood ratio above 1", func(c *Config) { c.Spam.CharFloodRatio = 1.5 }},
		{"repeat threshold of 1", func(c *Config) { c.Spam.RepeatThreshold = 1 }},
		{"no storage at all", func(c *Config) {
			c.Storage.BadgerPath = ""
			c.Storage.RemoteURL = ""
		}},
		{"remote url without scheme", func(c *Config) { c.Storage.RemoteURL = "state.example.com" }},
		{"negative debounce", func(c *Config) { c.Storage.SaveDebounce = -1 }},
		{"nats url without scheme", func(c *Config) { c.NATS.URL = "127.0.0.1:4222" }},
		{"nats url without subject", func(c *Config) {
			c.NATS.URL = "nats://127.0.0.1:4222"
			c.NATS.Subject = ""
		}},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
		{"zero snapshot interval", func(c *Config) { c.Snapshot.Interval = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"COMMAND_PREFIX", "chat.command_prefix"},
		{"BADGER_PATH", "storage.badger_path"},
		{"REMOTE_STATE_URL", "storage.remote_url"},
		{"NATS_URL", "nats.url"},
		{"LOG_LEVEL", "logging.level"},
		{"SNAPSHOT_TOP_N", "snapshot.top_n"},
		{"PATH", ""},     // unrelated env vars are skipped
		{"HOSTNAME", ""}, // unrelated env vars are skipped
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
