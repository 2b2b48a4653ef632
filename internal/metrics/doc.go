// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package metrics provides Prometheus metrics collection and export for observability.

The package instruments the chat pipeline, progression services, state
store, persistence layer, API, and overlay WebSocket hub. Metrics are
exposed at the /metrics endpoint in Prometheus text format.

# Available Metrics

Pipeline:
  - chat_events_processed_total: events through the pipeline (counter)
    Labels: outcome (passed, blocked, command)
  - chat_event_processing_duration_seconds: full pipeline latency (histogram)
  - chat_messages_blocked_total: blocked messages (counter)
    Labels: reason (char_flood, repeat, copypasta, rate_flood, blacklist, language)

Progression:
  - progression_xp_awarded_total: XP granted (counter)
  - progression_level_ups_total: level-up events (counter)
  - progression_achievements_unlocked_total: unlocks (counter)
    Labels: rarity
  - progression_streak_milestones_total: streak milestone awards (counter)

State:
  - state_resident_users: records in memory (gauge)
  - state_dirty_backlog: records awaiting the next save round (gauge)
  - state_sync_updates_applied_total / _dropped_total: cross-instance
    reconciliation outcomes (counters)

Persistence:
  - persist_save_rounds_total: save rounds (counter), Labels: result
  - persist_save_duration_seconds: save round latency (histogram)
  - persist_backend_errors_total: per-backend failures (counter)
    Labels: backend, operation

API and WebSocket:
  - api_requests_total, api_request_duration_seconds
  - websocket_connections, websocket_messages_sent_total

# Cardinality Management

Label values are fixed constants or normalized route patterns. User
identities never appear as labels.

# Thread Safety

All metric recording functions are safe for concurrent use; the
Prometheus client library handles synchronization internally.
*/
package metrics
