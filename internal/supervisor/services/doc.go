// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

/*
Package services provides suture.Service wrappers for Chatforge
components.

Each wrapper adapts one component lifecycle pattern to suture's Serve
contract:

  - HTTPServerService: blocking ListenAndServe plus graceful Shutdown
  - RunnerService: components exposing RunWithContext (hub, forwarder)
  - TickerService: periodic jobs (sweeps, eviction, snapshots)
  - SyncService: Start/Close lifecycle of the state sync channel

Wrappers depend on small local interfaces rather than the concrete
component packages, which keeps this package dependency-free and the
wrappers trivially testable with mocks.
*/
package services
