// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package middleware provides HTTP middleware for the read API:
// request-ID propagation and Prometheus request instrumentation. All
// middleware uses the standard func(http.Handler) http.Handler shape so
// it composes with chi's Use().
package middleware
