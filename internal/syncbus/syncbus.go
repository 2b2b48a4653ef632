// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package syncbus broadcasts user record updates between instances over
// NATS core pub/sub. Each instance publishes the records it mutates and
// applies records published by peers under newer-wins reconciliation.
// The channel is optional: with no NATS URL configured, every method on
// a nil channel is a no-op.
package syncbus

import (
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/nats-io/nats.go"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/metrics"
	"github.com/tomtom215/chatforge/internal/models"
)

// SubjectStateSync is the default subject for record broadcasts.
const SubjectStateSync = "chatforge.state.sync"

// ErrDisabled reports that no sync channel is configured. A nil channel
// returns it from Healthy so health reporting can tell "disabled" from
// "broken".
var ErrDisabled = errors.New("state sync disabled")

// Applier is the slice of the state manager the channel needs.
type Applier interface {
	ApplySyncUpdate(env *models.SyncEnvelope) bool
}

// Config holds sync channel settings. An empty URL disables the channel.
type Config struct {
	URL     string
	Subject string
}

// Channel is one instance's connection to the sync subject.
type Channel struct {
	nc         *nats.Conn
	sub        *nats.Subscription
	subject    string
	instanceID string
	applier    Applier
}

// Connect establishes the NATS connection and returns the channel, or
// (nil, nil) when no URL is configured. A nil channel is safe to use.
func Connect(cfg Config, instanceID string, applier Applier) (*Channel, error) {
	if cfg.URL == "" {
		logging.Info().Msg("state sync disabled, no NATS URL configured")
		return nil, nil
	}
	if cfg.Subject == "" {
		cfg.Subject = SubjectStateSync
	}

	nc, err := nats.Connect(cfg.URL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return &Channel{
		nc:         nc,
		subject:    cfg.Subject,
		instanceID: instanceID,
		applier:    applier,
	}, nil
}

// Start subscribes to the sync subject and begins applying peer updates.
func (c *Channel) Start() error {
	if c == nil {
		return nil
	}

	sub, err := c.nc.Subscribe(c.subject, c.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", c.subject, err)
	}
	c.sub = sub

	logging.Info().Str("subject", c.subject).Str("instance", c.instanceID).Msg("state sync channel started")
	return nil
}

func (c *Channel) handle(msg *nats.Msg) {
	var env models.SyncEnvelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		logging.Warn().Err(err).Msg("malformed sync envelope dropped")
		metrics.SyncUpdatesDropped.Inc()
		return
	}

	if c.applier.ApplySyncUpdate(&env) {
		metrics.SyncUpdatesApplied.Inc()
		return
	}
	metrics.SyncUpdatesDropped.Inc()
}

// BroadcastRecord publishes one mutated record to peers. The record must
// already be a detached copy.
func (c *Channel) BroadcastRecord(rec *models.UserRecord) error {
	if c == nil || rec == nil {
		return nil
	}

	data, err := json.Marshal(models.SyncEnvelope{
		InstanceID: c.instanceID,
		Record:     rec,
		LogicalTS:  rec.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal sync envelope: %w", err)
	}
	if err := c.nc.Publish(c.subject, data); err != nil {
		return fmt.Errorf("publish sync envelope: %w", err)
	}
	return nil
}

// Healthy reports NATS connectivity, or ErrDisabled on a nil channel.
func (c *Channel) Healthy() error {
	if c == nil {
		return ErrDisabled
	}
	if !c.nc.IsConnected() {
		return fmt.Errorf("not connected to NATS")
	}
	return nil
}

// Close drains the subscription and releases the connection.
func (c *Channel) Close() {
	if c == nil {
		return
	}
	if c.sub != nil {
		if err := c.sub.Drain(); err != nil {
			logging.Warn().Err(err).Msg("sync subscription drain failed")
		}
	}
	c.nc.Close()
}
