// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package models defines the shared data structures for Chatforge: inbound
// chat events, per-user progression records, XP results, achievement
// definitions, persisted document shapes, and outbound domain events.
//
// Types here are plain data with JSON tags and no behavior beyond small
// derived accessors. Services own all mutation logic.
package models
