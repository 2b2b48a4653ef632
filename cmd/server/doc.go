// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Chatforge server binary.

Startup order matters: configuration and logging come first, then the
storage backends and the state manager (which loads the durable user
records), then the progression services, and finally the supervisor
tree that runs the long-lived pieces.

The tree has three child layers:

	chatforge
	├── jobs-layer        spam sweep, idle eviction, snapshots, watch time
	├── messaging-layer   overlay hub, event forwarder, optional NATS sync
	└── api-layer         HTTP server (REST, /ws, /metrics)

Configuration is koanf-layered: struct defaults, an optional YAML file
(CONFIG_PATH or a default path), then environment variables. See the
internal/config package for the full variable list.

SIGINT and SIGTERM cancel the root context; the supervisor drains its
services, the persistence manager performs a final flush, and the
process exits cleanly.
*/
package main
