// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"sync"
)

// PreferenceStore persists viewer preference profiles.
// Implementations must be safe for concurrent use.
type PreferenceStore interface {
	// Get returns the stored preferences for a viewer.
	// Returns ErrPreferencesNotFound when none exist.
	Get(ctx context.Context, userID string) (*UserPreferences, error)

	// Put stores the preferences for a viewer, replacing any existing profile.
	Put(ctx context.Context, userID string, prefs *UserPreferences) error

	// Delete removes the stored preferences for a viewer.
	Delete(ctx context.Context, userID string) error
}

// MemoryPreferenceStore is a non-durable PreferenceStore for tests and
// ephemeral deployments.
type MemoryPreferenceStore struct {
	mu    sync.RWMutex
	prefs map[string]UserPreferences
}

// NewMemoryPreferenceStore creates an empty in-memory store.
func NewMemoryPreferenceStore() *MemoryPreferenceStore {
	return &MemoryPreferenceStore{
		prefs: make(map[string]UserPreferences),
	}
}

// Get implements PreferenceStore.
func (s *MemoryPreferenceStore) Get(_ context.Context, userID string) (*UserPreferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.prefs[userID]
	if !ok {
		return nil, ErrPreferencesNotFound
	}

	// Return a copy so callers cannot mutate stored state.
	out := p
	out.TopCategories = append([]string(nil), p.TopCategories...)
	out.Languages = append([]string(nil), p.Languages...)
	return &out, nil
}

// Put implements PreferenceStore.
func (s *MemoryPreferenceStore) Put(_ context.Context, userID string, prefs *UserPreferences) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *prefs
	stored.TopCategories = append([]string(nil), prefs.TopCategories...)
	stored.Languages = append([]string(nil), prefs.Languages...)
	s.prefs[userID] = stored
	return nil
}

// Delete implements PreferenceStore.
func (s *MemoryPreferenceStore) Delete(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.prefs, userID)
	return nil
}
