// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package supervisor builds the suture v4 supervision tree for Chatforge.

The tree has a root supervisor with three child layers:

	chatforge
	├── jobs-layer        spam sweep, idle eviction, snapshots, watch time
	├── messaging-layer   overlay hub, event forwarder, state sync
	└── api-layer         HTTP server

A crashing service is restarted by its layer supervisor with exponential
backoff; repeated failures trip the layer into FailureBackoff without
taking down the siblings. Supervisor events are logged through
sutureslog, which adapts them onto the process slog handler.

Concrete service wrappers live in the services subpackage.
*/
package supervisor
