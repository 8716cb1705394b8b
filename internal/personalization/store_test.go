// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"errors"
	"testing"
	"time"
)

func runStoreTests(t *testing.T, store PreferenceStore) {
	t.Helper()
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrPreferencesNotFound) {
		t.Errorf("expected ErrPreferencesNotFound, got %v", err)
	}

	prefs := &UserPreferences{
		Segment:       SegmentNewsEnthusiast,
		TopCategories: []string{"news", "movies"},
		Languages:     []string{"english"},
		Content: ContentPreferences{
			PreferredGenres:           []string{"drama"},
			PreferHD:                  true,
			MaxContentDurationSeconds: 7200,
		},
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}

	if err := store.Put(ctx, "u1", prefs); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Segment != prefs.Segment {
		t.Errorf("segment = %q, want %q", got.Segment, prefs.Segment)
	}
	if len(got.TopCategories) != 2 || got.TopCategories[0] != "news" {
		t.Errorf("top categories = %v, want %v", got.TopCategories, prefs.TopCategories)
	}
	if !got.Content.PreferHD {
		t.Error("expected PreferHD to round-trip")
	}

	// Replacing overwrites.
	prefs.Segment = SegmentGeneralViewer
	if err := store.Put(ctx, "u1", prefs); err != nil {
		t.Fatalf("Put replace: %v", err)
	}
	got, err = store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get after replace: %v", err)
	}
	if got.Segment != SegmentGeneralViewer {
		t.Errorf("expected replaced segment, got %q", got.Segment)
	}

	if err := store.Delete(ctx, "u1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.Get(ctx, "u1"); !errors.Is(err, ErrPreferencesNotFound) {
		t.Errorf("expected ErrPreferencesNotFound after delete, got %v", err)
	}
}

func TestMemoryPreferenceStore(t *testing.T) {
	t.Parallel()
	runStoreTests(t, NewMemoryPreferenceStore())
}

func TestMemoryPreferenceStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewMemoryPreferenceStore()
	ctx := context.Background()

	if err := store.Put(ctx, "u1", &UserPreferences{TopCategories: []string{"sports"}}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	got.TopCategories[0] = "mutated"

	fresh, err := store.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get again: %v", err)
	}
	if fresh.TopCategories[0] != "sports" {
		t.Error("Get must return a copy, stored state was mutated")
	}
}

func TestBadgerPreferenceStore(t *testing.T) {
	t.Parallel()

	db, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close badger: %v", err)
		}
	})

	runStoreTests(t, NewBadgerPreferenceStore(db))
}

func TestBadgerPreferenceStoreHonorsContext(t *testing.T) {
	t.Parallel()

	db, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	store := NewBadgerPreferenceStore(db)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Get(ctx, "u1"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
	if err := store.Put(ctx, "u1", &UserPreferences{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
