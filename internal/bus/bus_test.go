// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package bus

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/models"
)

func TestPublishSubscribe(t *testing.T) {
	b := New()
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, models.TopicLevelUp)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	want := models.LevelUpEvent{Identity: "42", OldLevel: 4, NewLevel: 5, XP: 900}
	if err := b.Publish(models.TopicLevelUp, want); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-ch:
		var got models.LevelUpEvent
		if err := json.Unmarshal(msg.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		msg.Ack()
		if got.Identity != "42" || got.NewLevel != 5 {
			t.Errorf("got %+v, want %+v", got, want)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for published event")
	}
}

func TestPublish_MultipleSubscribersFanOut(t *testing.T) {
	b := New()
	defer func() { _ = b.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch1, _ := b.Subscribe(ctx, models.TopicUserActivity)
	ch2, _ := b.Subscribe(ctx, models.TopicUserActivity)

	if err := b.Publish(models.TopicUserActivity, models.UserActivityEvent{Identity: "7"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-ch1:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("subscriber 1 did not receive the event")
	}
	select {
	case msg := <-ch2:
		msg.Ack()
	case <-time.After(time.Second):
		t.Fatal("subscriber 2 did not receive the event")
	}
}
