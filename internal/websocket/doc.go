// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package websocket implements the overlay fan-out hub.

Rendering and audio collaborators (browser-source overlays) connect here
and receive every progression event as a typed JSON frame:

	{"type": "level_up", "data": {...}}

Frame types: level_up, achievement, activity, message_result, command,
stats_update, leaderboard, plus ping/pong keepalives.

The Hub owns the client set and broadcast queue. The Forwarder bridges
the in-process domain event bus onto the hub, so services publish once
and every overlay sees it. Slow clients are dropped rather than
back-pressured; overlays reconnect and re-render from the read API.

Both Hub and Forwarder expose RunWithContext for suture supervision.
*/
package websocket
