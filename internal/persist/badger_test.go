// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/chatforge/internal/models"
)

func openTestBadger(t *testing.T) *BadgerBackend {
	t.Helper()
	db, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewBadgerBackend(db)
}

func TestBadgerBackend_RoundTrip(t *testing.T) {
	backend := openTestBadger(t)
	ctx := context.Background()

	if _, err := backend.Load(ctx); !errors.Is(err, ErrNotFound) {
		t.Fatalf("empty load err = %v, want ErrNotFound", err)
	}

	doc := testDoc("1", "2")
	doc.Users["1"].XP = 1234
	doc.Users["1"].Achievements = append(doc.Users["1"].Achievements,
		models.AchievementAward{ID: "first_message", UnlockedAt: doc.LastUpdated})

	if err := backend.Save(ctx, doc); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Users) != 2 {
		t.Fatalf("users = %d, want 2", len(loaded.Users))
	}
	if loaded.Users["1"].XP != 1234 {
		t.Errorf("XP = %d, want 1234", loaded.Users["1"].XP)
	}
	if !loaded.Users["1"].HasAchievement("first_message") {
		t.Error("achievement lost in round trip")
	}
	if !loaded.LastUpdated.Equal(doc.LastUpdated) {
		t.Errorf("LastUpdated = %v, want %v", loaded.LastUpdated, doc.LastUpdated)
	}
}

func TestBadgerBackend_SaveOverwrites(t *testing.T) {
	backend := openTestBadger(t)
	ctx := context.Background()

	doc := testDoc("1")
	if err := backend.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	doc.Users["1"].XP = 500
	doc.LastUpdated = doc.LastUpdated.Add(time.Minute)
	if err := backend.Save(ctx, doc); err != nil {
		t.Fatal(err)
	}

	loaded, err := backend.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Users["1"].XP != 500 {
		t.Errorf("XP = %d, want latest write 500", loaded.Users["1"].XP)
	}
}
