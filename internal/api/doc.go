// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package api provides the HTTP read surface of Chatforge.

Endpoints:

	GET  /health                 component health and resident counts
	GET  /metrics                Prometheus exposition
	GET  /ws                     overlay WebSocket upgrade
	GET  /api/v1/leaderboard     latest top-N snapshot (?limit=1..100)
	GET  /api/v1/stats           latest community stats snapshot
	GET  /api/v1/users/{id}      user record plus derived level progress
	POST /api/v1/stream          toggle the stream-live flag
	POST /api/v1/events          feed one normalized chat event through the pipeline

All API responses use the APIResponse envelope with a success flag,
payload, and request ID. Handlers serve from in-memory state and the
latest snapshots; nothing here touches the persistence backends
directly.
*/
package api
