// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package persist

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/models"
)

// MemoryBackend keeps the state document in process memory. Used in
// tests and as a last-resort chain member so saves never have zero
// targets.
type MemoryBackend struct {
	mu    sync.Mutex
	data  []byte
	saves int
	fail  error
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Name identifies the backend.
func (m *MemoryBackend) Name() string { return "memory" }

// Available always reports true.
func (m *MemoryBackend) Available() bool { return true }

// FailWith makes subsequent operations return err. Pass nil to heal.
func (m *MemoryBackend) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// SaveCount reports how many saves have landed.
func (m *MemoryBackend) SaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Load returns the stored document, or ErrNotFound before any save.
func (m *MemoryBackend) Load(ctx context.Context) (*models.StateDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.fail != nil {
		return nil, m.fail
	}
	if m.data == nil {
		return nil, ErrNotFound
	}

	var doc models.StateDocument
	if err := json.Unmarshal(m.data, &doc); err != nil {
		return nil, err
	}
	if doc.Users == nil {
		doc.Users = map[string]*models.UserRecord{}
	}
	return &doc, nil
}

// Save serializes the document. The round trip through JSON keeps the
// backend's copy detached from live records.
func (m *MemoryBackend) Save(ctx context.Context, doc *models.StateDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.data = data
	m.saves++
	return nil
}
