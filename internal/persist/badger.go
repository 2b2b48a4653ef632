// Chatforge - Live Chat Progression and Moderation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chatforge

package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/chatforge/internal/models"
)

// Key prefixes for BadgerDB storage
const (
	userKeyPrefix = "user:"
	metaKey       = "meta:state"
)

type stateMeta struct {
	LastUpdated time.Time `json:"last_updated"`
	Version     string    `json:"version"`
}

// BadgerBackend stores the state document in a local BadgerDB, one key
// per user record plus a metadata key. The primary backend: fastest and
// always available once the database opens.
type BadgerBackend struct {
	db *badger.DB
}

// NewBadgerBackend wraps an open BadgerDB handle.
func NewBadgerBackend(db *badger.DB) *BadgerBackend {
	return &BadgerBackend{db: db}
}

// OpenBadger opens the database at dir with logging routed through the
// global logger.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", dir, err)
	}
	return db, nil
}

// Name identifies the backend.
func (b *BadgerBackend) Name() string { return "badger" }

// Available reports whether the database handle is open.
func (b *BadgerBackend) Available() bool { return b.db != nil && !b.db.IsClosed() }

// Load reconstructs the state document from the per-user keys.
func (b *BadgerBackend) Load(ctx context.Context) (*models.StateDocument, error) {
	doc := &models.StateDocument{
		Users:   map[string]*models.UserRecord{},
		Version: models.StateDocumentVersion,
	}
	sawMeta := false

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaKey))
		if err == nil {
			sawMeta = true
			var meta stateMeta
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &meta)
			}); err != nil {
				return fmt.Errorf("decode meta: %w", err)
			}
			doc.LastUpdated = meta.LastUpdated
			if meta.Version != "" {
				doc.Version = meta.Version
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get meta: %w", err)
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(userKeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var rec models.UserRecord
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode user record: %w", err)
			}
			r := rec
			doc.Users[r.ID] = &r
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !sawMeta && len(doc.Users) == 0 {
		return nil, ErrNotFound
	}
	return doc, nil
}

// Save writes every user record and the metadata key through a write
// batch so large documents do not exceed a single transaction.
func (b *BadgerBackend) Save(ctx context.Context, doc *models.StateDocument) error {
	wb := b.db.NewWriteBatch()
	defer wb.Cancel()

	for id, rec := range doc.Users {
		if rec == nil {
			continue
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal user %s: %w", id, err)
		}
		if err := wb.Set([]byte(userKeyPrefix+id), data); err != nil {
			return fmt.Errorf("batch set user %s: %w", id, err)
		}
	}

	meta, err := json.Marshal(stateMeta{LastUpdated: doc.LastUpdated, Version: doc.Version})
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}
	if err := wb.Set([]byte(metaKey), meta); err != nil {
		return fmt.Errorf("batch set meta: %w", err)
	}

	if err := wb.Flush(); err != nil {
		return fmt.Errorf("flush write batch: %w", err)
	}
	return nil
}
