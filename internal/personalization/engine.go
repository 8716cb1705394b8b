// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/viewlens/viewlens/internal/metrics"
)

// maxStaleRetries bounds recomputation when invalidations race a request.
const maxStaleRetries = 2

// Engine produces personalized channel and content recommendations.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger
	scorer Scorer
	store  PreferenceStore

	// clock is replaceable in tests; defaults to time.Now.
	clock func() time.Time

	// Response cache. generations tags in-flight computations per viewer
	// so results that raced an invalidation are discarded, never served
	// from cache. A viewer's counter is pruned when their last cache
	// entry is evicted; genFloor retains the highest pruned value so a
	// pruned viewer's generation never appears to rewind.
	cache       map[string]cacheEntry
	generations map[string]uint64
	genFloor    uint64
	cacheMu     sync.RWMutex

	// Random source for response metadata confidence.
	rng   *rand.Rand
	rngMu sync.Mutex

	requestCount atomic.Int64
	cacheHits    atomic.Int64
	cacheMisses  atomic.Int64
	errorCount   atomic.Int64
}

// cacheEntry holds one cached response of either kind.
type cacheEntry struct {
	channel   *RecommendationResponse
	content   *ContentRecommendationResponse
	userID    string
	expiresAt time.Time
}

// Stats is a snapshot of engine counters.
type Stats struct {
	Requests    int64 `json:"requests"`
	CacheHits   int64 `json:"cache_hits"`
	CacheMisses int64 `json:"cache_misses"`
	Errors      int64 `json:"errors"`
	CacheSize   int   `json:"cache_size"`
}

// NewEngine creates a recommendation engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, scorer Scorer, store PreferenceStore, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if scorer == nil {
		return nil, fmt.Errorf("scorer is required")
	}
	if store == nil {
		return nil, fmt.Errorf("preference store is required")
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = 42
	}

	return &Engine{
		config:      cfg,
		logger:      logger.With().Str("component", "personalization").Logger(),
		scorer:      scorer,
		store:       store,
		clock:       time.Now,
		cache:       make(map[string]cacheEntry),
		generations: make(map[string]uint64),
		rng:         rand.New(rand.NewSource(seed)), //nolint:gosec // metadata confidence only
	}, nil
}

// SetClock replaces the engine clock. Intended for tests.
func (e *Engine) SetClock(clock func() time.Time) {
	if clock != nil {
		e.clock = clock
	}
}

// ChannelRecommendations returns ranked channel recommendations for a viewer.
// Responses are cached per (viewer, limit) for the channel cache TTL.
func (e *Engine) ChannelRecommendations(ctx context.Context, userID, sessionID string, limit int) (*RecommendationResponse, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if userID == "" {
		e.errorCount.Add(1)
		return nil, ErrUserIDRequired
	}
	limit = e.clampLimit(limit)

	key := channelCacheKey(userID, limit)
	if resp := e.checkChannelCache(key); resp != nil {
		e.cacheHits.Add(1)
		metrics.RecordCacheHit("channel")
		resp.Metadata.CacheHit = true
		resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
		return resp, nil
	}
	e.cacheMisses.Add(1)
	metrics.RecordCacheMiss("channel")

	var resp *RecommendationResponse
	for attempt := 0; attempt <= maxStaleRetries; attempt++ {
		gen := e.generation(userID)

		prefs, err := e.Preferences(ctx, userID)
		if err != nil {
			e.errorCount.Add(1)
			metrics.RecordRecommendation("channel", err)
			return nil, err
		}

		recs, err := e.scoreChannels(ctx, *prefs, limit)
		if err != nil {
			e.errorCount.Add(1)
			metrics.RecordRecommendation("channel", err)
			return nil, fmt.Errorf("score channels: %w", err)
		}

		resp = e.buildChannelResponse(recs, *prefs, sessionID, start)

		if e.tryStoreChannel(key, userID, gen, resp) {
			metrics.RecordRecommendation("channel", nil)
			e.logger.Debug().
				Str("user_id", userID).
				Int("returned", len(recs)).
				Int64("latency_ms", resp.Metadata.ProcessingTimeMS).
				Msg("channel recommendations computed")
			return resp, nil
		}

		metrics.RecommendationStaleDiscards.Inc()
		e.logger.Debug().
			Str("user_id", userID).
			Int("attempt", attempt).
			Msg("discarding stale channel computation")
	}

	// Invalidations kept racing the computation. The final pass read the
	// freshest preferences available, so serve it without caching.
	metrics.RecordRecommendation("channel", nil)
	return resp, nil
}

// ContentRecommendations returns ranked content recommendations for a
// viewer, filtered by content type ("movie", "series" or "" for all).
// Responses are cached per (viewer, type, limit) for the content cache TTL.
func (e *Engine) ContentRecommendations(ctx context.Context, userID, contentType string, limit int) (*ContentRecommendationResponse, error) {
	start := time.Now()
	e.requestCount.Add(1)

	if userID == "" {
		e.errorCount.Add(1)
		return nil, ErrUserIDRequired
	}
	limit = e.clampLimit(limit)

	key := contentCacheKey(userID, contentType, limit)
	if resp := e.checkContentCache(key); resp != nil {
		e.cacheHits.Add(1)
		metrics.RecordCacheHit("content")
		resp.Metadata.CacheHit = true
		resp.Metadata.ProcessingTimeMS = time.Since(start).Milliseconds()
		return resp, nil
	}
	e.cacheMisses.Add(1)
	metrics.RecordCacheMiss("content")

	var resp *ContentRecommendationResponse
	for attempt := 0; attempt <= maxStaleRetries; attempt++ {
		gen := e.generation(userID)

		prefs, err := e.Preferences(ctx, userID)
		if err != nil {
			e.errorCount.Add(1)
			metrics.RecordRecommendation("content", err)
			return nil, err
		}

		recs, err := e.scoreContent(ctx, *prefs, contentType, limit)
		if err != nil {
			e.errorCount.Add(1)
			metrics.RecordRecommendation("content", err)
			return nil, fmt.Errorf("score content: %w", err)
		}

		resp = e.buildContentResponse(recs, *prefs, start)

		if e.tryStoreContent(key, userID, gen, resp) {
			metrics.RecordRecommendation("content", nil)
			return resp, nil
		}

		metrics.RecommendationStaleDiscards.Inc()
		e.logger.Debug().
			Str("user_id", userID).
			Int("attempt", attempt).
			Msg("discarding stale content computation")
	}

	metrics.RecordRecommendation("content", nil)
	return resp, nil
}

// Preferences returns the viewer's stored preferences, or the default
// profile when none exist.
func (e *Engine) Preferences(ctx context.Context, userID string) (*UserPreferences, error) {
	prefs, err := e.store.Get(ctx, userID)
	if errors.Is(err, ErrPreferencesNotFound) {
		return DefaultPreferences(), nil
	}
	if err != nil {
		return nil, NewNetworkError("preference store", err)
	}
	return prefs, nil
}

// SetPreferences stores a viewer's preferences and invalidates every cached
// response for that viewer. An empty segment is derived from the top
// categories.
func (e *Engine) SetPreferences(ctx context.Context, userID string, prefs *UserPreferences) error {
	if userID == "" {
		return ErrUserIDRequired
	}
	if prefs == nil {
		return fmt.Errorf("preferences required")
	}

	if prefs.Segment == "" {
		prefs.Segment = DeriveSegment(prefs.TopCategories)
	}
	prefs.UpdatedAt = e.clock().UTC()

	if err := e.store.Put(ctx, userID, prefs); err != nil {
		metrics.RecordStoreOperation("put", err)
		return NewNetworkError("preference store", err)
	}
	metrics.RecordStoreOperation("put", nil)

	e.invalidateUser(userID)
	e.logger.Info().
		Str("user_id", userID).
		Str("segment", prefs.Segment).
		Msg("preferences updated, cache invalidated")
	return nil
}

// Refresh drops the viewer's cached channel responses and recomputes with
// the default limit.
func (e *Engine) Refresh(ctx context.Context, userID, sessionID string) (*RecommendationResponse, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}

	e.invalidateChannels(userID)
	return e.ChannelRecommendations(ctx, userID, sessionID, 0)
}

// Stats returns a snapshot of engine counters.
func (e *Engine) Stats() Stats {
	e.cacheMu.RLock()
	size := len(e.cache)
	e.cacheMu.RUnlock()

	return Stats{
		Requests:    e.requestCount.Load(),
		CacheHits:   e.cacheHits.Load(),
		CacheMisses: e.cacheMisses.Load(),
		Errors:      e.errorCount.Load(),
		CacheSize:   size,
	}
}

// scoreChannels scores the whole catalog and returns the top entries,
// sorted by score descending with ties keeping catalog order.
func (e *Engine) scoreChannels(ctx context.Context, prefs UserPreferences, limit int) ([]Recommendation, error) {
	scoringStart := time.Now()
	hour := e.clock().Hour()

	recs := make([]Recommendation, 0, len(channelCatalog))
	for _, ch := range channelCatalog {
		result, err := e.scorer.Score(ctx, ScoreRequest{
			Channel: ch,
			Prefs:   prefs,
			Hour:    hour,
		})
		if err != nil {
			return nil, fmt.Errorf("channel %s: %w", ch.ID, err)
		}

		recs = append(recs, Recommendation{
			Channel:    ch,
			Score:      result.Score,
			Confidence: result.Confidence,
			ReasonCode: result.ReasonCode,
		})
	}

	// Stable sort: equally scored channels keep catalog order.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	metrics.ScoringDuration.Observe(time.Since(scoringStart).Seconds())
	return recs, nil
}

// Content blend weights. The category model dominates; content-level
// preferences (genres, HD, duration) refine the ranking.
const (
	contentCategoryWeight = 0.6
	contentPrefsWeight    = 0.4
)

// scoreContent scores the content catalog filtered by type.
func (e *Engine) scoreContent(ctx context.Context, prefs UserPreferences, contentType string, limit int) ([]ContentRecommendation, error) {
	scoringStart := time.Now()
	hour := e.clock().Hour()

	items := ContentByType(contentType)
	recs := make([]ContentRecommendation, 0, len(items))
	for _, item := range items {
		result, err := e.scorer.Score(ctx, ScoreRequest{
			Channel: Channel{
				ID:       item.ID,
				Name:     item.Title,
				Category: item.Category,
				IsHD:     item.IsHD,
				IsLive:   item.IsLive,
			},
			Prefs: prefs,
			Hour:  hour,
		})
		if err != nil {
			return nil, fmt.Errorf("content %s: %w", item.ID, err)
		}

		blended := clamp01(contentCategoryWeight*result.Score +
			contentPrefsWeight*prefs.Content.ScoreContent(item))

		recs = append(recs, ContentRecommendation{
			Item:       item,
			Score:      blended,
			Confidence: result.Confidence,
			ReasonCode: result.ReasonCode,
		})
	}

	// Stable sort: equally scored items keep catalog order.
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Score > recs[j].Score
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}

	metrics.ScoringDuration.Observe(time.Since(scoringStart).Seconds())
	return recs, nil
}

// buildChannelResponse assembles context and metadata around ranked channels.
func (e *Engine) buildChannelResponse(recs []Recommendation, prefs UserPreferences, sessionID string, start time.Time) *RecommendationResponse {
	return &RecommendationResponse{
		Recommendations: recs,
		Context:         e.buildContext(prefs, sessionID),
		Metadata:        e.buildMetadata(start),
	}
}

// buildContentResponse assembles context and metadata around ranked content.
func (e *Engine) buildContentResponse(recs []ContentRecommendation, prefs UserPreferences, start time.Time) *ContentRecommendationResponse {
	return &ContentRecommendationResponse{
		Recommendations: recs,
		Context:         e.buildContext(prefs, ""),
		Metadata:        e.buildMetadata(start),
	}
}

func (e *Engine) buildContext(prefs UserPreferences, sessionID string) PersonalizationContext {
	now := e.clock()
	return PersonalizationContext{
		UserSegment:   prefs.Segment,
		TimeOfDay:     TimeOfDayFor(now.Hour()).String(),
		TopCategories: prefs.TopCategories,
		SessionID:     sessionID,
		LastUpdated:   now.UTC(),
	}
}

func (e *Engine) buildMetadata(start time.Time) ResponseMetadata {
	e.rngMu.Lock()
	confidence := 0.75 + e.rng.Float64()*0.2
	e.rngMu.Unlock()

	return ResponseMetadata{
		ModelVersion:     e.config.ModelVersion,
		Confidence:       confidence,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	}
}

// clampLimit applies the default and maximum recommendation counts.
func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.config.DefaultLimit
	}
	if limit > e.config.MaxLimit {
		return e.config.MaxLimit
	}
	return limit
}

func channelCacheKey(userID string, limit int) string {
	return "chan:" + userID + ":" + strconv.Itoa(limit)
}

func contentCacheKey(userID, contentType string, limit int) string {
	return "content:" + userID + ":" + contentType + ":" + strconv.Itoa(limit)
}

// generation returns the viewer's current invalidation generation.
func (e *Engine) generation(userID string) uint64 {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()
	return e.generationLocked(userID)
}

// generationLocked resolves a viewer's generation against the prune floor.
// Caller holds cacheMu.
func (e *Engine) generationLocked(userID string) uint64 {
	if g, ok := e.generations[userID]; ok {
		return g
	}
	return e.genFloor
}

// checkChannelCache returns a copy of a live cached channel response.
func (e *Engine) checkChannelCache(key string) *RecommendationResponse {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || entry.channel == nil || time.Now().After(entry.expiresAt) {
		return nil
	}

	recs := make([]Recommendation, len(entry.channel.Recommendations))
	copy(recs, entry.channel.Recommendations)

	out := *entry.channel
	out.Recommendations = recs
	return &out
}

// checkContentCache returns a copy of a live cached content response.
func (e *Engine) checkContentCache(key string) *ContentRecommendationResponse {
	e.cacheMu.RLock()
	defer e.cacheMu.RUnlock()

	entry, ok := e.cache[key]
	if !ok || entry.content == nil || time.Now().After(entry.expiresAt) {
		return nil
	}

	recs := make([]ContentRecommendation, len(entry.content.Recommendations))
	copy(recs, entry.content.Recommendations)

	out := *entry.content
	out.Recommendations = recs
	return &out
}

// tryStoreChannel caches a channel response unless the viewer's generation
// moved since the computation started.
func (e *Engine) tryStoreChannel(key, userID string, gen uint64, resp *RecommendationResponse) bool {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if e.generationLocked(userID) != gen {
		return false
	}

	e.evictIfFullLocked()
	e.cache[key] = cacheEntry{
		channel:   resp,
		userID:    userID,
		expiresAt: time.Now().Add(e.config.ChannelCacheTTL),
	}
	return true
}

// tryStoreContent caches a content response unless the viewer's generation
// moved since the computation started.
func (e *Engine) tryStoreContent(key, userID string, gen uint64, resp *ContentRecommendationResponse) bool {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	if e.generationLocked(userID) != gen {
		return false
	}

	e.evictIfFullLocked()
	e.cache[key] = cacheEntry{
		content:   resp,
		userID:    userID,
		expiresAt: time.Now().Add(e.config.ContentCacheTTL),
	}
	return true
}

// invalidateUser drops every cached response for a viewer and bumps their
// generation so racing computations are discarded.
func (e *Engine) invalidateUser(userID string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.generations[userID] = e.generationLocked(userID) + 1
	e.deleteByPrefixLocked("chan:" + userID + ":")
	e.deleteByPrefixLocked("content:" + userID + ":")
}

// invalidateChannels drops only the viewer's channel responses. The
// generation still advances so racing computations never repopulate the
// cache with pre-refresh results.
func (e *Engine) invalidateChannels(userID string) {
	e.cacheMu.Lock()
	defer e.cacheMu.Unlock()

	e.generations[userID] = e.generationLocked(userID) + 1
	e.deleteByPrefixLocked("chan:" + userID + ":")
}

// deleteByPrefixLocked removes matching cache entries. Caller holds cacheMu.
func (e *Engine) deleteByPrefixLocked(prefix string) {
	for key := range e.cache {
		if strings.HasPrefix(key, prefix) {
			delete(e.cache, key)
		}
	}
}

// evictIfFullLocked makes room for one insert when the cache is at
// capacity. Expired entries go first; when nothing has expired, the
// soonest-expiring entry is evicted. Caller holds cacheMu.
func (e *Engine) evictIfFullLocked() {
	if len(e.cache) < e.config.MaxCacheEntries {
		return
	}

	now := time.Now()
	for key, entry := range e.cache {
		if now.After(entry.expiresAt) {
			e.removeEntryLocked(key, entry.userID)
		}
	}

	for len(e.cache) >= e.config.MaxCacheEntries {
		var victimKey, victimUser string
		var soonest time.Time
		for key, entry := range e.cache {
			if victimKey == "" || entry.expiresAt.Before(soonest) {
				victimKey, victimUser, soonest = key, entry.userID, entry.expiresAt
			}
		}
		if victimKey == "" {
			return
		}
		e.removeEntryLocked(victimKey, victimUser)
	}
}

// removeEntryLocked deletes one cache entry and prunes the viewer's
// generation counter once no cached entries reference the viewer. The
// counter folds into genFloor before removal, so a computation that raced
// the prune observes a generation change and is discarded rather than
// cached. Caller holds cacheMu.
func (e *Engine) removeEntryLocked(key, userID string) {
	delete(e.cache, key)
	for _, entry := range e.cache {
		if entry.userID == userID {
			return
		}
	}
	if g, ok := e.generations[userID]; ok {
		if g > e.genFloor {
			e.genFloor = g
		}
		delete(e.generations, userID)
	}
}
