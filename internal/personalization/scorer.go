// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
)

// ScoreRequest carries everything the scorer needs for one channel.
type ScoreRequest struct {
	Channel Channel
	Prefs   UserPreferences
	// Hour is the local hour of day (0-23) the request was made.
	Hour int
}

// ScoreResult is the scorer's verdict for one channel.
type ScoreResult struct {
	Score      float64
	Confidence float64
	ReasonCode string
}

// Scorer produces a relevance score for a channel given viewer preferences.
// Implementations must be safe for concurrent use.
type Scorer interface {
	Score(ctx context.Context, req ScoreRequest) (ScoreResult, error)
}

// timeBonuses grants a bonus when a category airs in its prime daypart.
var timeBonuses = map[TimeOfDay]map[string]float64{
	Morning:   {"news": 0.25},
	Afternoon: {"entertainment": 0.20},
	Evening:   {"sports": 0.30},
	Night:     {"movies": 0.25},
}

// segmentBonuses grants a bonus when a category matches the viewer segment.
var segmentBonuses = map[string]map[string]float64{
	SegmentSportsEntertainmentFan: {"sports": 0.20, "entertainment": 0.20},
	SegmentFamilyViewer:           {"kids": 0.25, "entertainment": 0.25},
	SegmentNewsEnthusiast:         {"news": 0.30},
}

const (
	baseScore         = 0.5
	categoryBoostBase = 0.3
	categoryBoostStep = 0.1
	premiumBonus      = 0.1
)

// LocalScorer is the production scorer. With Jitter disabled it is fully
// deterministic; confidence always draws from the seeded random source.
type LocalScorer struct {
	jitter float64

	rng   *rand.Rand
	rngMu sync.Mutex
}

// NewLocalScorer creates a scorer. jitter is the half-width of the uniform
// score jitter (0 disables it). seed 0 selects a fixed default.
func NewLocalScorer(jitter float64, seed int64) (*LocalScorer, error) {
	if jitter < 0 || jitter > 0.1 {
		return nil, fmt.Errorf("jitter must be in [0, 0.1], got %v", jitter)
	}
	if seed == 0 {
		seed = 42
	}

	return &LocalScorer{
		jitter: jitter,
		rng:    rand.New(rand.NewSource(seed)), //nolint:gosec // math/rand is fine for score jitter
	}, nil
}

// Score implements Scorer.
func (s *LocalScorer) Score(ctx context.Context, req ScoreRequest) (ScoreResult, error) {
	if err := ctx.Err(); err != nil {
		return ScoreResult{}, err
	}
	if req.Channel.ID == "" {
		return ScoreResult{}, fmt.Errorf("%w: channel has no ID", ErrInvalidResponse)
	}
	if req.Hour < 0 || req.Hour > 23 {
		return ScoreResult{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidResponse, req.Hour)
	}

	category := req.Channel.Category
	daypart := TimeOfDayFor(req.Hour)

	score := baseScore
	score += categoryBoost(category, req.Prefs.TopCategories)
	score += timeBonuses[daypart][category]
	score += segmentBonuses[req.Prefs.Segment][category]
	if IsPremiumChannel(req.Channel.ID) {
		score += premiumBonus
	}

	s.rngMu.Lock()
	if s.jitter > 0 {
		score += (s.rng.Float64()*2 - 1) * s.jitter
	}
	confidenceNoise := s.rng.Float64() * 0.1
	s.rngMu.Unlock()

	score = clamp01(score)

	confidence := score + confidenceNoise
	if confidence > 1 {
		confidence = 1
	}

	return ScoreResult{
		Score:      score,
		Confidence: confidence,
		ReasonCode: reasonCode(score, category, daypart),
	}, nil
}

// categoryBoost rewards the first matching position of the channel's
// category within the viewer's top categories. Positions beyond the third
// earn nothing.
func categoryBoost(category string, topCategories []string) float64 {
	for i, c := range topCategories {
		if c != category {
			continue
		}
		boost := categoryBoostBase - categoryBoostStep*float64(i)
		if boost < 0 {
			return 0
		}
		return boost
	}
	return 0
}

// reasonCode explains a score in terms a client can display.
func reasonCode(score float64, category string, daypart TimeOfDay) string {
	switch {
	case score > 0.8:
		return fmt.Sprintf("high_%s_affinity", category)
	case score > 0.6:
		switch daypart {
		case Morning:
			return fmt.Sprintf("morning_%s_preference", category)
		case Evening:
			return fmt.Sprintf("prime_time_%s", category)
		default:
			return fmt.Sprintf("%s_regular_viewer", category)
		}
	default:
		return "similar_users_watched"
	}
}
