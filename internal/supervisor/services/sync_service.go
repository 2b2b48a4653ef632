// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package services

import (
	"context"
	"fmt"
)

// SyncChannel matches the cross-instance sync channel lifecycle.
//
// Satisfied by *syncbus.Channel. The nil-receiver no-op behavior of that
// type means a disabled sync setup should simply not add this service to
// the tree.
type SyncChannel interface {
	// Start subscribes to the sync subject.
	Start() error
	// Close drains the subscription and closes the connection.
	Close()
}

// SyncService wraps the sync channel as a supervised service.
//
// It adapts the Start/Close lifecycle to suture's Serve pattern:
//  1. Start() subscribes to the sync subject
//  2. Blocks until the context is canceled
//  3. Close() drains and disconnects
//
// If Start fails, the error is returned immediately, causing suture to
// retry with backoff. The underlying NATS connection also reconnects on
// its own, so a started service survives broker restarts.
type SyncService struct {
	channel SyncChannel
	name    string
}

// NewSyncService creates a new sync service wrapper.
func NewSyncService(channel SyncChannel) *SyncService {
	return &SyncService{channel: channel, name: "state-sync"}
}

// Serve implements suture.Service.
func (s *SyncService) Serve(ctx context.Context) error {
	if err := s.channel.Start(); err != nil {
		return fmt.Errorf("state sync start failed: %w", err)
	}

	<-ctx.Done()

	s.channel.Close()
	return ctx.Err()
}

// String implements fmt.Stringer for logging.
// Suture uses this to identify the service in log messages.
func (s *SyncService) String() string {
	return s.name
}
