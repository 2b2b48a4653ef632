// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package persist

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/metrics"
	"github.com/tomtom215/chatforge/internal/models"
)

// saveState is the scheduler's phase.
type saveState int

const (
	// stateIdle: nothing dirty, no save pending.
	stateIdle saveState = iota

	// stateScheduled: the debounce timer is armed.
	stateScheduled

	// stateSaving: a save round is in flight.
	stateSaving

	// stateSavingQueued: dirty work arrived during an in-flight round; a
	// follow-up round is owed.
	stateSavingQueued
)

// Store is the slice of the state manager the scheduler needs.
type Store interface {
	DrainDirty() map[string]*models.UserRecord
	Requeue(ids []string)
	Export(now time.Time) *models.StateDocument
	DirtyCount() int
}

// ManagerConfig holds save scheduler tuning. Zero values take defaults.
type ManagerConfig struct {
	// Debounce is the quiet period after a dirty notification before a
	// save round starts.
	Debounce time.Duration

	// Jitter is added randomly to the debounce so multiple instances
	// sharing a remote backend do not save in lockstep.
	Jitter time.Duration

	// SaveTimeout bounds one save round across the backend chain.
	SaveTimeout time.Duration
}

// DefaultManagerConfig returns the production save scheduler settings.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		Debounce:    5 * time.Second,
		Jitter:      2 * time.Second,
		SaveTimeout: 30 * time.Second,
	}
}

// Manager coalesces dirty notifications into debounced save rounds.
// At most one round runs at a time; work arriving mid-round queues
// exactly one follow-up round. Failed rounds requeue the drained
// records so nothing is lost.
type Manager struct {
	cfg     ManagerConfig
	storage *StorageManager
	store   Store

	mu     sync.Mutex
	st     saveState
	timer  *time.Timer
	closed bool

	// saveMu serializes save rounds so SaveNow never interleaves with a
	// background round.
	saveMu sync.Mutex
	wg     sync.WaitGroup
}

// NewManager creates the save scheduler.
func NewManager(cfg ManagerConfig, storage *StorageManager, store Store) *Manager {
	def := DefaultManagerConfig()
	if cfg.Debounce <= 0 {
		cfg.Debounce = def.Debounce
	}
	if cfg.SaveTimeout <= 0 {
		cfg.SaveTimeout = def.SaveTimeout
	}
	return &Manager{cfg: cfg, storage: storage, store: store}
}

// Notify tells the scheduler dirty work exists. Cheap and safe to call
// on every mutation; bursts collapse into one round.
func (m *Manager) Notify() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	switch m.st {
	case stateIdle:
		m.st = stateScheduled
		m.armTimerLocked()
	case stateSaving:
		m.st = stateSavingQueued
	case stateScheduled, stateSavingQueued:
		// Already covered by the pending round.
	}
}

// armTimerLocked starts the debounce timer. Caller holds mu.
func (m *Manager) armTimerLocked() {
	delay := m.cfg.Debounce
	if m.cfg.Jitter > 0 {
		delay += time.Duration(rand.Int64N(int64(m.cfg.Jitter)))
	}
	m.timer = time.AfterFunc(delay, m.timerFired)
}

func (m *Manager) timerFired() {
	m.mu.Lock()
	if m.closed || m.st != stateScheduled {
		m.mu.Unlock()
		return
	}
	m.st = stateSaving
	m.wg.Add(1)
	m.mu.Unlock()

	go func() {
		defer m.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), m.cfg.SaveTimeout)
		err := m.saveRound(ctx)
		cancel()
		if err != nil {
			logging.Error().Err(err).Msg("save round failed, records requeued")
		}

		m.mu.Lock()
		defer m.mu.Unlock()
		if m.closed {
			m.st = stateIdle
			return
		}
		if m.st == stateSavingQueued || err != nil {
			// More work arrived mid-round, or the failed round left its
			// records requeued. Either way another round is owed.
			m.st = stateScheduled
			m.armTimerLocked()
			return
		}
		m.st = stateIdle
	}()
}

// saveRound drains the dirty set, exports the document, and writes it
// through the chain. On failure the drained identities go back into the
// dirty set.
func (m *Manager) saveRound(ctx context.Context) error {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	drained := m.store.DrainDirty()
	if len(drained) == 0 {
		return nil
	}

	doc := m.store.Export(time.Now())
	start := time.Now()
	err := m.storage.SaveState(ctx, doc)
	metrics.RecordSaveRound(time.Since(start), err)
	metrics.DirtyBacklog.Set(float64(m.store.DirtyCount()))

	if err != nil {
		ids := make([]string, 0, len(drained))
		for id := range drained {
			ids = append(ids, id)
		}
		m.store.Requeue(ids)
		return err
	}

	logging.Debug().Int("records", len(drained)).Dur("took", time.Since(start)).Msg("save round complete")
	return nil
}

// SaveNow runs a synchronous save round, bypassing the debounce. Used at
// shutdown and by administrative flush.
func (m *Manager) SaveNow(ctx context.Context) error {
	return m.saveRound(ctx)
}

// Close stops the scheduler, waits for any in-flight round, and flushes
// remaining dirty records.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	if m.timer != nil {
		m.timer.Stop()
	}
	m.mu.Unlock()

	m.wg.Wait()
	return m.SaveNow(ctx)
}
