// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
)

// prefsKeyPrefix namespaces preference records in BadgerDB.
const prefsKeyPrefix = "prefs:"

// BadgerPreferenceStore implements PreferenceStore on BadgerDB for durable
// storage across restarts.
type BadgerPreferenceStore struct {
	db *badger.DB
}

// NewBadgerPreferenceStore creates a BadgerDB-backed preference store.
func NewBadgerPreferenceStore(db *badger.DB) *BadgerPreferenceStore {
	return &BadgerPreferenceStore{db: db}
}

// OpenBadger opens a BadgerDB at the given path with logging disabled
// (ViewLens logs through zerolog, not badger's default logger).
func OpenBadger(path string) (*badger.DB, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %s: %w", path, err)
	}
	return db, nil
}

// Get implements PreferenceStore.
func (s *BadgerPreferenceStore) Get(ctx context.Context, userID string) (*UserPreferences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var prefs UserPreferences

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(prefsKeyPrefix + userID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrPreferencesNotFound
		}
		if err != nil {
			return fmt.Errorf("get preferences: %w", err)
		}

		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prefs)
		})
	})
	if err != nil {
		return nil, err
	}

	return &prefs, nil
}

// Put implements PreferenceStore.
func (s *BadgerPreferenceStore) Put(ctx context.Context, userID string, prefs *UserPreferences) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("marshal preferences: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(prefsKeyPrefix+userID), data); err != nil {
			return fmt.Errorf("set preferences: %w", err)
		}
		return nil
	})
}

// Delete implements PreferenceStore.
func (s *BadgerPreferenceStore) Delete(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Delete([]byte(prefsKeyPrefix + userID)); err != nil {
			return fmt.Errorf("delete preferences: %w", err)
		}
		return nil
	})
}
