// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package config provides centralized configuration management for Chatforge.

Configuration is loaded through Koanf v2 with three layered sources, in
increasing priority:

 1. Built-in defaults (defaultConfig)
 2. An optional YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

Environment variables use flat legacy-style names that are mapped onto the
nested structure, e.g. HTTP_PORT -> server.port and BADGER_PATH ->
storage.badger_path. Unrecognized environment variables are ignored rather
than guessed at. Slice-valued settings (BANNED_SUBSTRINGS, USER_BLACKLIST)
accept comma-separated values.

Sections:

  - chat: command prefix, banned substrings, progression blacklist
  - xp: award cooldown, per-message cap, watch-time credit
  - spam: flood, repeat, and copypasta thresholds
  - storage: Badger path, optional remote state endpoint, save debounce
  - state: resident-cache eviction and reload tuning
  - nats: optional cross-instance state sync
  - server: HTTP host, port, timeout
  - snapshot: leaderboard depth and recompute interval
  - logging: level, format, caller

Load configuration once at startup:

	cfg, err := config.LoadWithKoanf()
	if err != nil {
	    log.Fatal(err)
	}

The returned Config is validated and immutable; it is safe for concurrent
reads from every component.
*/
package config
