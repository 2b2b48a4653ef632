// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

// Package persist implements durable state storage: an ordered fallback
// chain over pluggable backends and a debounced save scheduler that
// coalesces bursts of dirty records into single save rounds.
package persist

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/chatforge/internal/logging"
	"github.com/tomtom215/chatforge/internal/models"
)

// ErrNoBackend is returned when no configured backend can serve a
// request.
var ErrNoBackend = errors.New("persist: no available storage backend")

// ErrNotFound is returned by a backend when no state document has been
// stored yet. The chain treats it as "start fresh", not as a failure.
var ErrNotFound = errors.New("persist: state document not found")

// Backend is one durable store for the full state document.
type Backend interface {
	// Name identifies the backend in logs and metrics.
	Name() string

	// Available reports whether the backend is configured and usable.
	// Unavailable backends are skipped by the chain.
	Available() bool

	// Load fetches the most recent state document.
	Load(ctx context.Context) (*models.StateDocument, error)

	// Save stores the state document.
	Save(ctx context.Context, doc *models.StateDocument) error
}

// StorageManager runs an ordered backend chain. Loads take the first
// available backend that returns a document; saves go to every available
// backend and succeed when at least one write lands.
type StorageManager struct {
	backends []Backend
}

// NewStorageManager creates a chain over the given backends in priority
// order.
func NewStorageManager(backends ...Backend) *StorageManager {
	return &StorageManager{backends: backends}
}

// Backends returns the configured chain.
func (s *StorageManager) Backends() []Backend {
	return s.backends
}

// LoadState returns the first document any available backend can
// produce. A backend returning ErrNotFound falls through to the next; if
// every backend is empty, an empty document is returned so a cold start
// is not an error.
func (s *StorageManager) LoadState() (*models.StateDocument, error) {
	ctx := context.Background()
	sawBackend := false

	for _, b := range s.backends {
		if !b.Available() {
			continue
		}
		sawBackend = true

		doc, err := b.Load(ctx)
		if errors.Is(err, ErrNotFound) {
			continue
		}
		if err != nil {
			logging.Warn().Err(err).Str("backend", b.Name()).Msg("state load failed, trying next backend")
			continue
		}

		logging.Info().Str("backend", b.Name()).Int("users", len(doc.Users)).Msg("state loaded")
		return doc, nil
	}

	if !sawBackend {
		return nil, ErrNoBackend
	}
	return &models.StateDocument{
		Users:   map[string]*models.UserRecord{},
		Version: models.StateDocumentVersion,
	}, nil
}

// SaveState writes the document to every available backend. The round
// succeeds when at least one backend accepts the write; per-backend
// failures are logged and folded into the returned error only when all
// writes fail.
func (s *StorageManager) SaveState(ctx context.Context, doc *models.StateDocument) error {
	var firstErr error
	saved := 0
	attempted := 0

	for _, b := range s.backends {
		if !b.Available() {
			continue
		}
		attempted++

		if err := b.Save(ctx, doc); err != nil {
			logging.Warn().Err(err).Str("backend", b.Name()).Msg("state save failed")
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", b.Name(), err)
			}
			continue
		}
		saved++
	}

	if attempted == 0 {
		return ErrNoBackend
	}
	if saved == 0 {
		return firstErr
	}
	return nil
}
