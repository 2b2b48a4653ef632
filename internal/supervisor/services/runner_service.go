// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package services

import (
	"context"
)

// ContextRunner matches components whose lifetime is a single blocking
// RunWithContext call: the overlay hub and the event forwarder.
//
// This interface keeps the services package free of the websocket
// package, avoiding circular dependencies.
type ContextRunner interface {
	// RunWithContext runs the component's loop and returns when the
	// context is canceled.
	RunWithContext(ctx context.Context) error
}

// RunnerService wraps a ContextRunner as a supervised service.
//
// The wrapped component already implements the suture.Service pattern,
// so this wrapper simply delegates to it and provides a name for
// logging.
//
// Example usage:
//
//	hub := websocket.NewHub()
//	tree.AddMessagingService(services.NewRunnerService("overlay-hub", hub))
type RunnerService struct {
	runner ContextRunner
	name   string
}

// NewRunnerService creates a new runner service wrapper.
func NewRunnerService(name string, runner ContextRunner) *RunnerService {
	return &RunnerService{runner: runner, name: name}
}

// Serve implements suture.Service. It returns ctx.Err() on normal
// shutdown.
func (r *RunnerService) Serve(ctx context.Context) error {
	return r.runner.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (r *RunnerService) String() string {
	return r.name
}
