// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package state

import (
	"testing"
	"time"

	"github.com/tomtom215/chatforge/internal/models"
)

type stubLoader struct {
	doc   *models.StateDocument
	calls int
}

func (l *stubLoader) LoadState() (*models.StateDocument, error) {
	l.calls++
	return l.doc, nil
}

var stateNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestManager(loader Loader) *Manager {
	return NewManager(Config{}, "instance-a", loader)
}

func TestResolve_LegacyNameMigration(t *testing.T) {
	m := newTestManager(nil)

	// A legacy record keyed by display name, as written before stable IDs.
	legacy := models.NewUserRecord("bob", "bob")
	legacy.XP = 420
	m.users["bob"] = legacy

	rec, status := m.Resolve("123", "bob")

	if status != FoundByLegacyName {
		t.Fatalf("status = %v, want FoundByLegacyName", status)
	}
	if rec.ID != "123" || rec.XP != 420 {
		t.Errorf("migrated record = %+v, want ID 123 with XP intact", rec)
	}
	if _, ok := m.users["bob"]; ok {
		t.Error("legacy key still present after migration")
	}
	if _, ok := m.users["123"]; !ok {
		t.Error("record not re-keyed to stable identity")
	}
	if m.DirtyCount() != 1 {
		t.Error("migration must mark the record dirty")
	}

	// Subsequent lookups hit the stable key directly.
	if _, status := m.Resolve("123", "bob"); status != FoundByID {
		t.Errorf("second resolve status = %v, want FoundByID", status)
	}
}

func TestGetOrCreate(t *testing.T) {
	m := newTestManager(nil)

	rec, created := m.GetOrCreate("1", "alice")
	if !created {
		t.Fatal("first sighting should create")
	}
	if rec.Level != 1 || rec.ID != "1" {
		t.Errorf("fresh record = %+v", rec)
	}

	again, created := m.GetOrCreate("1", "Alice2")
	if created {
		t.Error("second sighting must not create")
	}
	if again.DisplayName != "Alice2" {
		t.Errorf("display name not refreshed: %q", again.DisplayName)
	}
}

func TestEnsureLoaded_SanitizesAndRespectsFreshness(t *testing.T) {
	corrupt := models.NewUserRecord("1", "alice")
	corrupt.XP = -50
	corrupt.Level = 0
	corrupt.Achievements = append(corrupt.Achievements,
		models.AchievementAward{ID: "first_message"},
		models.AchievementAward{ID: "first_message"},
	)
	corrupt.AchievementStats = nil

	loader := &stubLoader{doc: &models.StateDocument{
		Users:   map[string]*models.UserRecord{"1": corrupt},
		Version: models.StateDocumentVersion,
	}}
	m := newTestManager(loader)

	loaded, err := m.EnsureLoaded(stateNow)
	if err != nil || !loaded {
		t.Fatalf("EnsureLoaded = %v, %v", loaded, err)
	}

	rec, _ := m.Get("1")
	if rec.XP != 0 || rec.Level != 1 {
		t.Errorf("sanitize missed: XP=%d level=%d", rec.XP, rec.Level)
	}
	if len(rec.Achievements) != 1 {
		t.Errorf("duplicate award survived: %v", rec.Achievements)
	}
	if rec.AchievementStats == nil {
		t.Error("nil stats map not repaired")
	}

	// Fresh document: no reload inside the interval.
	if loaded, _ := m.EnsureLoaded(stateNow.Add(time.Hour)); loaded {
		t.Error("reloaded inside freshness interval")
	}
	if loaded, _ := m.EnsureLoaded(stateNow.Add(25 * time.Hour)); !loaded {
		t.Error("stale document not reloaded")
	}
	if loader.calls != 2 {
		t.Errorf("loader calls = %d, want 2", loader.calls)
	}
}

func TestDrainDirty_AndRequeue(t *testing.T) {
	m := newTestManager(nil)
	m.GetOrCreate("1", "alice")
	m.GetOrCreate("2", "bob")

	batch := m.DrainDirty()
	if len(batch) != 2 {
		t.Fatalf("drained %d, want 2", len(batch))
	}
	if m.DirtyCount() != 0 {
		t.Error("drain must clear the dirty set")
	}

	// Drained copies are detached from the live records.
	batch["1"].XP = 999
	live, _ := m.Get("1")
	if live.XP == 999 {
		t.Error("drained record shares memory with live record")
	}

	m.Requeue([]string{"1", "ghost"})
	if m.DirtyCount() != 1 {
		t.Errorf("requeue dirty count = %d, want 1 (unknown ids skipped)", m.DirtyCount())
	}
}

func TestEvictIdle(t *testing.T) {
	m := NewManager(Config{EvictThreshold: 2, EvictIdleAfter: time.Hour}, "instance-a", nil)

	m.GetOrCreate("1", "alice")
	m.GetOrCreate("2", "bob")
	m.GetOrCreate("3", "carol")
	m.DrainDirty()

	// Everyone was just touched: under the idle window, nothing goes.
	if n := m.EvictIdle(time.Now()); n != 0 {
		t.Errorf("evicted %d fresh records", n)
	}

	// Age everyone past the idle window, but keep one dirty.
	stale := time.Now().Add(-2 * time.Hour)
	for id := range m.lastSeen {
		m.lastSeen[id] = stale
	}
	m.dirty["1"] = struct{}{}

	evicted := m.EvictIdle(time.Now())
	if evicted != 1 {
		t.Fatalf("evicted %d, want 1 (down to threshold)", evicted)
	}
	if _, ok := m.users["1"]; !ok {
		t.Error("dirty record was evicted")
	}
	if m.ResidentCount() != 2 {
		t.Errorf("resident = %d, want threshold 2", m.ResidentCount())
	}
}

func TestApplySyncUpdate_NewerWins(t *testing.T) {
	m := newTestManager(nil)
	local, _ := m.GetOrCreate("1", "alice")
	local.XP = 100
	local.UpdatedAt = 2000

	older := models.NewUserRecord("1", "alice")
	older.XP = 50
	older.UpdatedAt = 1000

	if m.ApplySyncUpdate(&models.SyncEnvelope{InstanceID: "instance-b", Record: older}) {
		t.Error("older remote record accepted")
	}

	newer := models.NewUserRecord("1", "alice")
	newer.XP = 300
	newer.UpdatedAt = 3000

	if !m.ApplySyncUpdate(&models.SyncEnvelope{InstanceID: "instance-b", Record: newer}) {
		t.Fatal("newer remote record rejected")
	}
	got, _ := m.Get("1")
	if got.XP != 300 {
		t.Errorf("XP = %d, want remote 300", got.XP)
	}
}

func TestApplySyncUpdate_DropsOwnEcho(t *testing.T) {
	m := newTestManager(nil)
	rec := models.NewUserRecord("1", "alice")
	rec.UpdatedAt = 9999

	if m.ApplySyncUpdate(&models.SyncEnvelope{InstanceID: "instance-a", Record: rec}) {
		t.Error("own-instance echo applied")
	}
}

func TestMergeFull_MaximaAndAchievementUnion(t *testing.T) {
	m := newTestManager(nil)
	local, _ := m.GetOrCreate("1", "alice")
	local.XP = 500
	local.StreakDays = 3
	local.Achievements = append(local.Achievements, models.AchievementAward{ID: "a"})
	m.DrainDirty()

	remote := models.NewUserRecord("1", "alice")
	remote.XP = 400
	remote.StreakDays = 9
	remote.BestStreak = 9
	remote.Achievements = append(remote.Achievements,
		models.AchievementAward{ID: "a"},
		models.AchievementAward{ID: "b"},
	)

	merged := m.MergeFull(&models.StateDocument{
		Users: map[string]*models.UserRecord{
			"1": remote,
			"2": models.NewUserRecord("2", "bob"),
		},
	})

	if merged != 2 {
		t.Errorf("merged = %d, want 2", merged)
	}
	got, _ := m.Get("1")
	if got.XP != 500 {
		t.Errorf("XP = %d, want local max 500", got.XP)
	}
	if got.StreakDays != 9 || got.BestStreak != 9 {
		t.Errorf("streak = %d/%d, want remote max 9", got.StreakDays, got.BestStreak)
	}
	if len(got.Achievements) != 2 {
		t.Errorf("achievements = %v, want union of a and b", got.Achievements)
	}
	if _, ok := m.Get("2"); !ok {
		t.Error("remote-only user not adopted")
	}
	if m.DirtyCount() != 2 {
		t.Errorf("dirty = %d, want merged records queued for save", m.DirtyCount())
	}
}

func TestExport_Detached(t *testing.T) {
	m := newTestManager(nil)
	rec, _ := m.GetOrCreate("1", "alice")
	rec.XP = 10

	doc := m.Export(stateNow)
	if doc.Version != models.StateDocumentVersion {
		t.Errorf("version = %q", doc.Version)
	}
	doc.Users["1"].XP = 999

	live, _ := m.Get("1")
	if live.XP == 999 {
		t.Error("exported document shares memory with live records")
	}
}

func TestMutate(t *testing.T) {
	m := newTestManager(nil)
	m.GetOrCreate("1", "alice")
	m.DrainDirty()

	ok := m.Mutate("1", stateNow, func(u *models.UserRecord) {
		u.SubscriptionMonths = 12
	})
	if !ok {
		t.Fatal("mutate on resident record failed")
	}
	got, _ := m.Get("1")
	if got.SubscriptionMonths != 12 {
		t.Errorf("SubscriptionMonths = %d, want 12", got.SubscriptionMonths)
	}
	if got.UpdatedAt == 0 {
		t.Error("mutate must bump the logical timestamp")
	}
	if m.DirtyCount() != 1 {
		t.Error("mutate must mark dirty")
	}

	if m.Mutate("ghost", stateNow, func(*models.UserRecord) {}) {
		t.Error("mutate on unknown identity reported success")
	}
}

func TestUpdate_CreatesAndMarksDirty(t *testing.T) {
	m := newTestManager(nil)

	created := m.Update("1", "alice", stateNow, func(u *models.UserRecord) {
		u.XP = 40
	})
	if !created {
		t.Fatal("first update should create the record")
	}
	rec, _ := m.Get("1")
	if rec.XP != 40 || rec.DisplayName != "alice" {
		t.Errorf("record = %+v, want XP 40 for alice", rec)
	}
	if m.DirtyCount() != 1 {
		t.Error("update must mark dirty")
	}

	created = m.Update("1", "Alice2", stateNow.Add(time.Second), func(u *models.UserRecord) {
		u.XP = 55
	})
	if created {
		t.Error("second update must not create")
	}
	rec, _ = m.Get("1")
	if rec.XP != 55 || rec.DisplayName != "Alice2" {
		t.Errorf("record = %+v, want XP 55 with refreshed name", rec)
	}
}

func TestUpdate_MigratesLegacyKey(t *testing.T) {
	m := newTestManager(nil)

	legacy := models.NewUserRecord("bob", "bob")
	legacy.XP = 420
	m.users["bob"] = legacy

	m.Update("123", "bob", stateNow, func(u *models.UserRecord) {
		u.TotalMessages++
	})

	if _, ok := m.Get("bob"); ok {
		t.Error("legacy key still resident after update")
	}
	rec, ok := m.Get("123")
	if !ok {
		t.Fatal("record not re-keyed to stable identity")
	}
	if rec.XP != 420 || rec.TotalMessages != 1 {
		t.Errorf("migrated record = %+v, want XP intact and message counted", rec)
	}
}

func TestUpdate_ConcurrentWithSnapshotReads(t *testing.T) {
	m := newTestManager(nil)

	const writes = 500
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < writes; i++ {
			m.Update("1", "alice", stateNow.Add(time.Duration(i)*time.Millisecond), func(u *models.UserRecord) {
				u.TotalMessages++
			})
		}
	}()

	// Read the way the snapshot and watch-time timers do while the
	// writer runs.
	for {
		select {
		case <-done:
			rec, _ := m.Get("1")
			if rec.TotalMessages != writes {
				t.Fatalf("TotalMessages = %d, want %d", rec.TotalMessages, writes)
			}
			return
		default:
			m.All()
			m.Export(stateNow)
		}
	}
}
