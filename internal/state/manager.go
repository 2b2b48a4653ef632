// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package state holds the in-memory user record store: identity
// resolution with legacy-key migration, dirty tracking for the
// persistence layer, idle eviction, and cross-instance reconciliation.
package state

import (
	"sync"
	"time"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// ResolveStatus tags how an identity lookup was satisfied.
type ResolveStatus int

const (
	// NotFound means no record exists under the identity or any legacy key.
	NotFound ResolveStatus = iota

	// FoundByID means the record was keyed by the stable identity.
	FoundByID

	// FoundByLegacyName means the record was found under a display-name key
	// from before stable identities and has been re-keyed in place.
	FoundByLegacyName
)

// Loader supplies the persisted state document. Implemented by the
// storage fallback chain.
type Loader interface {
	LoadState() (*models.StateDocument, error)
}

// Config holds state manager tuning. Zero values take defaults.
type Config struct {
	// ReloadInterval is how long a loaded document stays fresh before
	// EnsureLoaded reloads from storage.
	ReloadInterval time.Duration

	// EvictThreshold is the resident record count above which the idle
	// sweep starts evicting.
	EvictThreshold int

	// EvictIdleAfter is how long a record must sit untouched before it is
	// eligible for eviction.
	EvictIdleAfter time.Duration
}

// DefaultConfig returns the production state settings.
func DefaultConfig() Config {
	return Config{
		ReloadInterval: 24 * time.Hour,
		EvictThreshold: 10000,
		EvictIdleAfter: time.Hour,
	}
}

// Manager owns the resident user records. All access goes through the
// manager's lock; callers must not retain returned pointers across
// goroutines without cloning.
type Manager struct {
	cfg        Config
	instanceID string
	loader     Loader

	mu       sync.RWMutex
	users    map[string]*models.UserRecord
	dirty    map[string]struct{}
	lastSeen map[string]time.Time
	loadedAt time.Time
}

// NewManager creates a state manager. loader may be nil in tests, in
// which case EnsureLoaded is a no-op.
func NewManager(cfg Config, instanceID string, loader Loader) *Manager {
	def := DefaultConfig()
	if cfg.ReloadInterval <= 0 {
		cfg.ReloadInterval = def.ReloadInterval
	}
	if cfg.EvictThreshold <= 0 {
		cfg.EvictThreshold = def.EvictThreshold
	}
	if cfg.EvictIdleAfter <= 0 {
		cfg.EvictIdleAfter = def.EvictIdleAfter
	}
	return &Manager{
		cfg:        cfg,
		instanceID: instanceID,
		loader:     loader,
		users:      map[string]*models.UserRecord{},
		dirty:      map[string]struct{}{},
		lastSeen:   map[string]time.Time{},
	}
}

// InstanceID returns this instance's sync identity.
func (m *Manager) InstanceID() string { return m.instanceID }

// EnsureLoaded loads the persisted document if none is resident or the
// resident copy is older than the reload interval. Records are sanitized
// on the way in. Returns true when a load happened.
func (m *Manager) EnsureLoaded(now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loader == nil {
		return false, nil
	}
	if !m.loadedAt.IsZero() && now.Sub(m.loadedAt) < m.cfg.ReloadInterval {
		return false, nil
	}

	doc, err := m.loader.LoadState()
	if err != nil {
		return false, err
	}

	users := make(map[string]*models.UserRecord, len(doc.Users))
	for id, rec := range doc.Users {
		if rec == nil {
			continue
		}
		if rec.ID == "" {
			rec.ID = id
		}
		sanitize(rec)
		users[rec.ID] = rec
	}

	// Locally dirty records survive a reload so unsaved progress is not
	// rolled back to the stored copy.
	for id := range m.dirty {
		if cur, ok := m.users[id]; ok {
			users[id] = cur
		}
	}

	m.users = users
	m.loadedAt = now

	logging.Info().Int("users", len(users)).Msg("state document loaded")
	return true, nil
}

// Resolve finds the record for an identity. Legacy records keyed by
// display name are migrated to the stable identity atomically and marked
// dirty so the re-key persists.
func (m *Manager) Resolve(identity, displayName string) (*models.UserRecord, ResolveStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resolveLocked(identity, displayName)
}

func (m *Manager) resolveLocked(identity, displayName string) (*models.UserRecord, ResolveStatus) {
	if rec, ok := m.users[identity]; ok {
		m.lastSeen[identity] = time.Now()
		return rec, FoundByID
	}

	if displayName != "" && displayName != identity {
		if rec, ok := m.users[displayName]; ok {
			delete(m.users, displayName)
			delete(m.dirty, displayName)
			delete(m.lastSeen, displayName)

			rec.ID = identity
			m.users[identity] = rec
			m.dirty[identity] = struct{}{}
			m.lastSeen[identity] = time.Now()

			logging.Info().
				Str("legacy_key", displayName).
				Str("identity", identity).
				Msg("migrated legacy user record")
			return rec, FoundByLegacyName
		}
	}

	return nil, NotFound
}

// GetOrCreate resolves an identity, creating a fresh record on first
// sighting. The created flag is true only for brand-new records.
func (m *Manager) GetOrCreate(identity, displayName string) (*models.UserRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrCreateLocked(identity, displayName)
}

func (m *Manager) getOrCreateLocked(identity, displayName string) (*models.UserRecord, bool) {
	if rec, status := m.resolveLocked(identity, displayName); status != NotFound {
		// Display names drift; the latest event carries the current one.
		if displayName != "" {
			rec.DisplayName = displayName
		}
		return rec, false
	}

	rec := models.NewUserRecord(identity, displayName)
	m.users[identity] = rec
	m.dirty[identity] = struct{}{}
	m.lastSeen[identity] = time.Now()
	return rec, true
}

// Update resolves or creates the record and runs fn against it under the
// write lock, then marks it dirty. This is the pipeline's write path:
// timer jobs reading through All or Export never observe a half-applied
// message. Returns true when this call created the record.
func (m *Manager) Update(identity, displayName string, now time.Time, fn func(*models.UserRecord)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, created := m.getOrCreateLocked(identity, displayName)
	fn(rec)
	rec.Touch(now)
	m.dirty[identity] = struct{}{}
	m.lastSeen[identity] = now
	return created
}

// Get returns a deep copy of one record for read paths.
func (m *Manager) Get(identity string) (*models.UserRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.users[identity]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// MarkDirty queues a record for the next save round and bumps its logical
// timestamp.
func (m *Manager) MarkDirty(identity string, now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[identity]
	if !ok {
		return
	}
	rec.Touch(now)
	m.dirty[identity] = struct{}{}
	m.lastSeen[identity] = now
}

// DirtyCount reports the pending save backlog.
func (m *Manager) DirtyCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.dirty)
}

// DrainDirty removes and returns deep copies of every dirty record, keyed
// by identity. The persistence layer re-queues failures via Requeue.
func (m *Manager) DrainDirty() map[string]*models.UserRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]*models.UserRecord, len(m.dirty))
	for id := range m.dirty {
		if rec, ok := m.users[id]; ok {
			out[id] = rec.Clone()
		}
	}
	m.dirty = map[string]struct{}{}
	return out
}

// Requeue marks identities dirty again after a failed save round.
func (m *Manager) Requeue(ids []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.users[id]; ok {
			m.dirty[id] = struct{}{}
		}
	}
}

// ResidentCount reports how many records are held in memory.
func (m *Manager) ResidentCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users)
}

// All returns deep copies of every resident record. Used by snapshot and
// watch-time jobs.
func (m *Manager) All() []*models.UserRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.UserRecord, 0, len(m.users))
	for _, rec := range m.users {
		out = append(out, rec.Clone())
	}
	return out
}

// Mutate runs fn against the live record under the write lock and marks
// it dirty. Returns false when the identity is not resident.
func (m *Manager) Mutate(identity string, now time.Time, fn func(*models.UserRecord)) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.users[identity]
	if !ok {
		return false
	}
	fn(rec)
	rec.Touch(now)
	m.dirty[identity] = struct{}{}
	m.lastSeen[identity] = now
	return true
}

// EvictIdle removes records untouched for longer than the idle window
// while the resident count exceeds the threshold. Dirty records are never
// evicted. Returns the number evicted.
func (m *Manager) EvictIdle(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.users) <= m.cfg.EvictThreshold {
		return 0
	}

	evicted := 0
	for id := range m.users {
		if len(m.users) <= m.cfg.EvictThreshold {
			break
		}
		if _, isDirty := m.dirty[id]; isDirty {
			continue
		}
		seen, ok := m.lastSeen[id]
		if ok && now.Sub(seen) <= m.cfg.EvictIdleAfter {
			continue
		}
		delete(m.users, id)
		delete(m.lastSeen, id)
		evicted++
	}

	if evicted > 0 {
		logging.Debug().Int("evicted", evicted).Int("resident", len(m.users)).Msg("idle records evicted")
	}
	return evicted
}

// ApplySyncUpdate reconciles one record broadcast by another instance.
// Own-instance echoes are dropped; otherwise the newer logical timestamp
// wins. Accepted updates are marked dirty so the merged state persists
// locally. Returns true when the record was accepted.
func (m *Manager) ApplySyncUpdate(env *models.SyncEnvelope) bool {
	if env == nil || env.Record == nil || env.InstanceID == m.instanceID {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	incoming := env.Record.Clone()
	sanitize(incoming)

	cur, ok := m.users[incoming.ID]
	if ok && cur.UpdatedAt >= incoming.UpdatedAt {
		return false
	}

	m.users[incoming.ID] = incoming
	m.dirty[incoming.ID] = struct{}{}
	m.lastSeen[incoming.ID] = time.Now()
	return true
}

// MergeFull folds a complete remote document into the resident state,
// taking the numeric maximum per field and the union of achievements.
// Used when two instances start from diverged stored copies.
func (m *Manager) MergeFull(doc *models.StateDocument) int {
	if doc == nil {
		return 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	merged := 0
	for id, remote := range doc.Users {
		if remote == nil {
			continue
		}
		if remote.ID == "" {
			remote.ID = id
		}
		incoming := remote.Clone()
		sanitize(incoming)

		cur, ok := m.users[incoming.ID]
		if !ok {
			m.users[incoming.ID] = incoming
			m.dirty[incoming.ID] = struct{}{}
			merged++
			continue
		}

		if mergeRecords(cur, incoming) {
			m.dirty[cur.ID] = struct{}{}
			merged++
		}
	}
	return merged
}

// Export builds a state document from every resident record. Deep copies
// throughout; the caller may serialize without holding any lock.
func (m *Manager) Export(now time.Time) *models.StateDocument {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := make(map[string]*models.UserRecord, len(m.users))
	for id, rec := range m.users {
		users[id] = rec.Clone()
	}
	return &models.StateDocument{
		Users:       users,
		LastUpdated: now,
		Version:     models.StateDocumentVersion,
	}
}

// mergeRecords folds remote into local taking per-field maxima and the
// achievement union. Reports whether local changed.
func mergeRecords(local, remote *models.UserRecord) bool {
	changed := false

	maxInt := func(dst *int, v int) {
		if v > *dst {
			*dst = v
			changed = true
		}
	}
	maxInt(&local.XP, remote.XP)
	maxInt(&local.Level, remote.Level)
	maxInt(&local.StreakDays, remote.StreakDays)
	maxInt(&local.BestStreak, remote.BestStreak)
	maxInt(&local.TotalMessages, remote.TotalMessages)
	maxInt(&local.WatchTimeMinutes, remote.WatchTimeMinutes)
	maxInt(&local.SubscriptionMonths, remote.SubscriptionMonths)

	if remote.LastStreakDate > local.LastStreakDate {
		local.LastStreakDate = remote.LastStreakDate
		changed = true
	}
	if remote.LastActivityAt.After(local.LastActivityAt) {
		local.LastActivityAt = remote.LastActivityAt
		changed = true
	}

	for _, award := range remote.Achievements {
		if !local.HasAchievement(award.ID) {
			local.Achievements = append(local.Achievements, award)
			changed = true
		}
	}

	if remote.UpdatedAt > local.UpdatedAt {
		local.UpdatedAt = remote.UpdatedAt
	}
	return changed
}
