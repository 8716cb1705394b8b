// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"errors"
	"math"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

// mockScorer scores by category from a fixed table. It counts calls and can
// block on a gate to let tests race invalidations against computations.
type mockScorer struct {
	scores    map[string]float64
	calls     atomic.Int64
	gate      chan struct{}
	gateTaken atomic.Bool
}

func (m *mockScorer) Score(_ context.Context, req ScoreRequest) (ScoreResult, error) {
	if m.gate != nil && m.gateTaken.CompareAndSwap(false, true) {
		<-m.gate
	}
	m.calls.Add(1)

	score, ok := m.scores[req.Channel.Category]
	if !ok {
		score = 0.1
	}
	return ScoreResult{
		Score:      score,
		Confidence: score,
		ReasonCode: "similar_users_watched",
	}, nil
}

func defaultMockScorer() *mockScorer {
	return &mockScorer{
		scores: map[string]float64{
			"sports":        0.9,
			"news":          0.8,
			"entertainment": 0.7,
		},
	}
}

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.Jitter = 0
	cfg.Seed = 1
	cfg.DefaultLimit = 5
	cfg.MaxLimit = 20
	return cfg
}

func newTestEngine(t *testing.T, cfg *Config, scorer Scorer) (*Engine, *MemoryPreferenceStore) {
	t.Helper()

	store := NewMemoryPreferenceStore()
	engine, err := NewEngine(cfg, scorer, store, testLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, store
}

func TestChannelRecommendationsRanking(t *testing.T) {
	t.Parallel()

	scorer := defaultMockScorer()
	engine, _ := newTestEngine(t, testConfig(), scorer)

	resp, err := engine.ChannelRecommendations(context.Background(), "u1", "sess-1", 5)
	if err != nil {
		t.Fatalf("ChannelRecommendations: %v", err)
	}

	if len(resp.Recommendations) != 5 {
		t.Fatalf("expected 5 recommendations, got %d", len(resp.Recommendations))
	}

	// sports (0.9) in catalog order, then news (0.8), then entertainment (0.7).
	wantOrder := []string{"4", "5", "6", "7", "1"}
	for i, want := range wantOrder {
		if got := resp.Recommendations[i].Channel.ID; got != want {
			t.Errorf("position %d: expected channel %s, got %s", i, want, got)
		}
	}

	if resp.Context.UserSegment != SegmentSportsEntertainmentFan {
		t.Errorf("expected default segment in context, got %q", resp.Context.UserSegment)
	}
	if resp.Context.SessionID != "sess-1" {
		t.Errorf("expected session id in context, got %q", resp.Context.SessionID)
	}
	if resp.Metadata.ModelVersion != "viewlens-v2.1" {
		t.Errorf("expected model version in metadata, got %q", resp.Metadata.ModelVersion)
	}
	if resp.Metadata.Confidence < 0.75 || resp.Metadata.Confidence > 0.95 {
		t.Errorf("metadata confidence %v outside [0.75, 0.95]", resp.Metadata.Confidence)
	}
	if resp.Metadata.CacheHit {
		t.Error("first response must not be a cache hit")
	}
}

func TestChannelRecommendationsCacheHit(t *testing.T) {
	t.Parallel()

	scorer := defaultMockScorer()
	engine, _ := newTestEngine(t, testConfig(), scorer)
	ctx := context.Background()

	if _, err := engine.ChannelRecommendations(ctx, "u1", "", 5); err != nil {
		t.Fatalf("first call: %v", err)
	}
	callsAfterFirst := scorer.calls.Load()

	resp, err := engine.ChannelRecommendations(ctx, "u1", "", 5)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if scorer.calls.Load() != callsAfterFirst {
		t.Errorf("expected cached response, scorer calls went %d -> %d", callsAfterFirst, scorer.calls.Load())
	}
	if !resp.Metadata.CacheHit {
		t.Error("expected CacheHit on second response")
	}

	stats := engine.Stats()
	if stats.CacheHits != 1 {
		t.Errorf("expected 1 cache hit, got %d", stats.CacheHits)
	}
}

func TestChannelRecommendationsCacheExpiry(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.ChannelCacheTTL = 10 * time.Millisecond

	scorer := defaultMockScorer()
	engine, _ := newTestEngine(t, cfg, scorer)
	ctx := context.Background()

	if _, err := engine.ChannelRecommendations(ctx, "u1", "", 5); err != nil {
		t.Fatalf("first call: %v", err)
	}
	callsAfterFirst := scorer.calls.Load()

	time.Sleep(25 * time.Millisecond)

	resp, err := engine.ChannelRecommendations(ctx, "u1", "", 5)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if scorer.calls.Load() == callsAfterFirst {
		t.Error("expected recomputation after TTL expiry")
	}
	if resp.Metadata.CacheHit {
		t.Error("expired entry must not be served as a cache hit")
	}
}

func TestSetPreferencesInvalidatesCache(t *testing.T) {
	t.Parallel()

	scorer := defaultMockScorer()
	engine, _ := newTestEngine(t, testConfig(), scorer)
	ctx := context.Background()

	if _, err := engine.ChannelRecommendations(ctx, "u1", "", 5); err != nil {
		t.Fatalf("prime cache: %v", err)
	}
	if _, err := engine.ContentRecommendations(ctx, "u1", "movie", 5); err != nil {
		t.Fatalf("prime content cache: %v", err)
	}
	callsAfterPrime := scorer.calls.Load()

	prefs := &UserPreferences{
		TopCategories: []string{"news", "movies"},
		Languages:     []string{"english"},
	}
	if err := engine.SetPreferences(ctx, "u1", prefs); err != nil {
		t.Fatalf("SetPreferences: %v", err)
	}
	if prefs.Segment != SegmentNewsEnthusiast {
		t.Errorf("expected derived segment news_enthusiast, got %q", prefs.Segment)
	}

	resp, err := engine.ChannelRecommendations(ctx, "u1", "", 5)
	if err != nil {
		t.Fatalf("post-update call: %v", err)
	}

	if scorer.calls.Load() == callsAfterPrime {
		t.Error("expected recomputation after preference change")
	}
	if resp.Context.UserSegment != SegmentNewsEnthusiast {
		t.Errorf("expected updated segment in context, got %q", resp.Context.UserSegment)
	}

	// Content cache is invalidated too.
	contentCalls := scorer.calls.Load()
	if _, err := engine.ContentRecommendations(ctx, "u1", "movie", 5); err != nil {
		t.Fatalf("content after update: %v", err)
	}
	if scorer.calls.Load() == contentCalls {
		t.Error("expected content recomputation after preference change")
	}
}

func TestRefreshInvalidatesChannelCacheOnly(t *testing.T) {
	t.Parallel()

	scorer := defaultMockScorer()
	engine, _ := newTestEngine(t, testConfig(), scorer)
	ctx := context.Background()

	if _, err := engine.ChannelRecommendations(ctx, "u1", "", 5); err != nil {
		t.Fatalf("prime channel cache: %v", err)
	}
	if _, err := engine.ContentRecommendations(ctx, "u1", "movie", 5); err != nil {
		t.Fatalf("prime content cache: %v", err)
	}

	if _, err := engine.Refresh(ctx, "u1", ""); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	callsAfterRefresh := scorer.calls.Load()

	// Content cache survived the refresh.
	if _, err := engine.ContentRecommendations(ctx, "u1", "movie", 5); err != nil {
		t.Fatalf("content after refresh: %v", err)
	}
	if scorer.calls.Load() != callsAfterRefresh {
		t.Error("refresh must not invalidate the content cache")
	}
}

func TestStaleComputationIsNotCached(t *testing.T) {
	t.Parallel()

	scorer := defaultMockScorer()
	scorer.gate = make(chan struct{})

	engine, _ := newTestEngine(t, testConfig(), scorer)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := engine.ChannelRecommendations(ctx, "u1", "", 5)
		done <- err
	}()

	// Wait until the computation is blocked inside the scorer, then
	// invalidate mid-flight.
	deadline := time.After(2 * time.Second)
	for !scorer.gateTaken.Load() {
		select {
		case <-deadline:
			t.Fatal("scorer never entered the gate")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	if err := engine.SetPreferences(ctx, "u1", &UserPreferences{TopCategories: []string{"news"}}); err != nil {
		t.Fatalf("SetPreferences: %v", err)
	}
	close(scorer.gate)

	if err := <-done; err != nil {
		t.Fatalf("ChannelRecommendations: %v", err)
	}

	// The first pass raced the invalidation and was discarded, so the
	// engine computed at least two full catalog passes.
	if calls := scorer.calls.Load(); calls < 2*int64(len(channelCatalog)) {
		t.Errorf("expected a discarded pass plus a recomputation, got %d scorer calls", calls)
	}
}

func TestContentRecommendationsFilterAndBlend(t *testing.T) {
	t.Parallel()

	// Fixed 0.5 category score isolates the content preference blend.
	scorer := &mockScorer{scores: map[string]float64{}}
	for _, cat := range []string{"movies", "sports", "entertainment", "news", "kids", "regional", "music"} {
		scorer.scores[cat] = 0.5
	}

	engine, _ := newTestEngine(t, testConfig(), scorer)

	resp, err := engine.ContentRecommendations(context.Background(), "u1", "movie", 10)
	if err != nil {
		t.Fatalf("ContentRecommendations: %v", err)
	}

	for _, rec := range resp.Recommendations {
		if rec.Item.ContentType != "movie" {
			t.Errorf("expected only movies, got %s (%s)", rec.Item.ID, rec.Item.ContentType)
		}
	}

	// m2 (drama, HD, within duration budget): content score 1.0,
	// blended 0.6*0.5 + 0.4*1.0 = 0.7.
	// m1 (action, HD, over budget): content score 0.8,
	// blended 0.6*0.5 + 0.4*0.8 = 0.62.
	got := make(map[string]float64, len(resp.Recommendations))
	for _, rec := range resp.Recommendations {
		got[rec.Item.ID] = rec.Score
	}

	if math.Abs(got["m2"]-0.7) > scoreTolerance {
		t.Errorf("m2 blended score = %v, want 0.7", got["m2"])
	}
	if math.Abs(got["m1"]-0.62) > scoreTolerance {
		t.Errorf("m1 blended score = %v, want 0.62", got["m1"])
	}
	if resp.Recommendations[0].Item.ID != "m2" {
		t.Errorf("expected m2 ranked first, got %s", resp.Recommendations[0].Item.ID)
	}
}

func TestLimitClamping(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.DefaultLimit = 3
	cfg.MaxLimit = 4

	engine, _ := newTestEngine(t, cfg, defaultMockScorer())
	ctx := context.Background()

	resp, err := engine.ChannelRecommendations(ctx, "u1", "", 0)
	if err != nil {
		t.Fatalf("default limit call: %v", err)
	}
	if len(resp.Recommendations) != 3 {
		t.Errorf("expected default limit 3, got %d", len(resp.Recommendations))
	}

	resp, err = engine.ChannelRecommendations(ctx, "u1", "", 100)
	if err != nil {
		t.Fatalf("max limit call: %v", err)
	}
	if len(resp.Recommendations) != 4 {
		t.Errorf("expected max limit 4, got %d", len(resp.Recommendations))
	}
}

func TestPreferencesFallBackToDefaults(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t, testConfig(), defaultMockScorer())

	prefs, err := engine.Preferences(context.Background(), "unknown-user")
	if err != nil {
		t.Fatalf("Preferences: %v", err)
	}
	if prefs.Segment != SegmentSportsEntertainmentFan {
		t.Errorf("expected default segment, got %q", prefs.Segment)
	}
	if len(prefs.TopCategories) != 3 {
		t.Errorf("expected 3 default top categories, got %v", prefs.TopCategories)
	}
}

// failingStore returns a non-sentinel error on every operation.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (*UserPreferences, error) {
	return nil, errors.New("connection refused")
}
func (failingStore) Put(context.Context, string, *UserPreferences) error {
	return errors.New("connection refused")
}
func (failingStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func TestStoreFailureMapsToNetworkError(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(testConfig(), defaultMockScorer(), failingStore{}, testLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	_, err = engine.ChannelRecommendations(context.Background(), "u1", "", 5)
	if err == nil {
		t.Fatal("expected error from failing store")
	}

	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if netErr.Reason != "preference store" {
		t.Errorf("expected reason 'preference store', got %q", netErr.Reason)
	}
}

func TestCacheCapEvictsSoonestExpiring(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxCacheEntries = 3
	engine, _ := newTestEngine(t, cfg, defaultMockScorer())
	ctx := context.Background()

	users := []string{"u1", "u2", "u3", "u4", "u5", "u6", "u7", "u8", "u9", "u10"}
	for _, userID := range users {
		if _, err := engine.ChannelRecommendations(ctx, userID, "sess", 5); err != nil {
			t.Fatalf("ChannelRecommendations(%s): %v", userID, err)
		}
	}

	if size := engine.Stats().CacheSize; size > cfg.MaxCacheEntries {
		t.Errorf("cache size = %d, want <= %d", size, cfg.MaxCacheEntries)
	}
}

func TestEvictionPrunesGenerationCounters(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxCacheEntries = 2
	engine, _ := newTestEngine(t, cfg, defaultMockScorer())
	ctx := context.Background()

	// Give u1 a generation counter via invalidation, then a cached entry.
	if err := engine.SetPreferences(ctx, "u1", DefaultPreferences()); err != nil {
		t.Fatalf("SetPreferences: %v", err)
	}
	if _, err := engine.ChannelRecommendations(ctx, "u1", "sess", 5); err != nil {
		t.Fatalf("ChannelRecommendations: %v", err)
	}

	// Fill past capacity so u1's entry (the oldest) is evicted.
	for _, userID := range []string{"u2", "u3", "u4"} {
		if _, err := engine.ChannelRecommendations(ctx, userID, "sess", 5); err != nil {
			t.Fatalf("ChannelRecommendations(%s): %v", userID, err)
		}
	}

	engine.cacheMu.RLock()
	pending := len(engine.generations)
	floor := engine.genFloor
	engine.cacheMu.RUnlock()
	if pending != 0 {
		t.Errorf("generation counters = %d, want 0 after eviction", pending)
	}
	if floor == 0 {
		t.Error("genFloor = 0, want u1's pruned generation folded in")
	}

	// A pruned viewer still computes and caches normally.
	if _, err := engine.ChannelRecommendations(ctx, "u1", "sess", 5); err != nil {
		t.Fatalf("ChannelRecommendations after prune: %v", err)
	}
}

func TestScoreTiesKeepCatalogOrder(t *testing.T) {
	t.Parallel()

	// Every category scores identically, so ranking falls back entirely to
	// catalog order under the stable sort.
	flat := &mockScorer{scores: map[string]float64{}}
	engine, _ := newTestEngine(t, testConfig(), flat)

	resp, err := engine.ChannelRecommendations(context.Background(), "u1", "sess", 5)
	if err != nil {
		t.Fatalf("ChannelRecommendations: %v", err)
	}

	catalog := Channels()
	for i, rec := range resp.Recommendations {
		if rec.Channel.ID != catalog[i].ID {
			t.Errorf("position %d: channel %s, want catalog order %s", i, rec.Channel.ID, catalog[i].ID)
		}
	}
}

func TestEmptyUserIDIsCallerError(t *testing.T) {
	t.Parallel()

	engine, _ := newTestEngine(t, testConfig(), defaultMockScorer())
	ctx := context.Background()

	if _, err := engine.ChannelRecommendations(ctx, "", "sess", 5); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("ChannelRecommendations = %v, want ErrUserIDRequired", err)
	}
	if _, err := engine.ContentRecommendations(ctx, "", "movie", 5); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("ContentRecommendations = %v, want ErrUserIDRequired", err)
	}
	if err := engine.SetPreferences(ctx, "", DefaultPreferences()); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("SetPreferences = %v, want ErrUserIDRequired", err)
	}
	if _, err := engine.Refresh(ctx, "", "sess"); !errors.Is(err, ErrUserIDRequired) {
		t.Errorf("Refresh = %v, want ErrUserIDRequired", err)
	}

	// Caller-input errors never enter the upstream failure taxonomy.
	if _, err := engine.ChannelRecommendations(ctx, "", "sess", 5); errors.Is(err, ErrInvalidResponse) {
		t.Errorf("empty user id classified as upstream error: %v", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(testConfig(), nil, NewMemoryPreferenceStore(), testLogger()); err == nil {
		t.Error("expected error for nil scorer")
	}
	if _, err := NewEngine(testConfig(), defaultMockScorer(), nil, testLogger()); err == nil {
		t.Error("expected error for nil store")
	}

	bad := testConfig()
	bad.DefaultLimit = 0
	if _, err := NewEngine(bad, defaultMockScorer(), NewMemoryPreferenceStore(), testLogger()); err == nil {
		t.Error("expected error for invalid config")
	}
}
