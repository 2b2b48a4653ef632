// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package websocket

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// Subscriber is the slice of the domain event bus the forwarder needs.
type Subscriber interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// topicMessageTypes maps bus topics to overlay frame types.
var topicMessageTypes = map[string]string{
	models.TopicLevelUp:             MessageTypeLevelUp,
	models.TopicAchievementUnlocked: MessageTypeAchievement,
	models.TopicUserActivity:        MessageTypeActivity,
	models.TopicMessageResult:       MessageTypeMessageResult,
	models.TopicCommand:             MessageTypeCommand,
}

// Forwarder bridges the domain event bus to the overlay hub: every
// progression event published in-process becomes a typed frame for
// connected overlays.
type Forwarder struct {
	hub *Hub
	sub Subscriber
}

// NewForwarder creates the bridge.
func NewForwarder(hub *Hub, sub Subscriber) *Forwarder {
	return &Forwarder{hub: hub, sub: sub}
}

// RunWithContext subscribes to every forwarded topic and pumps events
// until the context is canceled. Designed for suture supervision.
func (f *Forwarder) RunWithContext(ctx context.Context) error {
	for topic, messageType := range topicMessageTypes {
		ch, err := f.sub.Subscribe(ctx, topic)
		if err != nil {
			return err
		}
		go f.pump(ch, messageType)
	}

	<-ctx.Done()
	return ctx.Err()
}

func (f *Forwarder) pump(ch <-chan *message.Message, messageType string) {
	for msg := range ch {
		var data interface{}
		if err := json.Unmarshal(msg.Payload, &data); err != nil {
			logging.Warn().Err(err).Str("type", messageType).Msg("undecodable domain event dropped")
			msg.Ack()
			continue
		}
		f.hub.Broadcast(messageType, data)
		msg.Ack()
	}
}
