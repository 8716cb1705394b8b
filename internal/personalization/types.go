// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"time"
)

// Channel is a single entry in the static channel catalog.
type Channel struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Language       string `json:"language"`
	IsHD           bool   `json:"is_hd"`
	IsLive         bool   `json:"is_live"`
	CurrentProgram string `json:"current_program,omitempty"`
}

// ContentItem is a single entry in the static content catalog.
type ContentItem struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	ContentType     string   `json:"content_type"` // "movie" or "series"
	Category        string   `json:"category"`
	Genres          []string `json:"genres"`
	DurationSeconds int      `json:"duration_seconds"`
	IsHD            bool     `json:"is_hd"`
	IsLive          bool     `json:"is_live"`
}

// Recommendation is a scored channel.
type Recommendation struct {
	Channel    Channel `json:"channel"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
	ReasonCode string  `json:"reason_code"`
}

// ContentRecommendation is a scored content item.
type ContentRecommendation struct {
	Item       ContentItem `json:"item"`
	Score      float64     `json:"score"`
	Confidence float64     `json:"confidence"`
	ReasonCode string      `json:"reason_code"`
}

// PersonalizationContext describes the viewer state a response was built from.
type PersonalizationContext struct {
	UserSegment   string    `json:"user_segment"`
	TimeOfDay     string    `json:"time_of_day"`
	TopCategories []string  `json:"top_categories"`
	SessionID     string    `json:"session_id,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
}

// ResponseMetadata carries model and timing information for a response.
type ResponseMetadata struct {
	ModelVersion     string  `json:"model_version"`
	Confidence       float64 `json:"confidence"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
	CacheHit         bool    `json:"cache_hit"`
}

// RecommendationResponse is the result of a channel recommendation request.
type RecommendationResponse struct {
	Recommendations []Recommendation       `json:"recommendations"`
	Context         PersonalizationContext `json:"context"`
	Metadata        ResponseMetadata       `json:"metadata"`
}

// ContentRecommendationResponse is the result of a content recommendation request.
type ContentRecommendationResponse struct {
	Recommendations []ContentRecommendation `json:"recommendations"`
	Context         PersonalizationContext  `json:"context"`
	Metadata        ResponseMetadata        `json:"metadata"`
}

// TimePreferences lists preferred categories per time-of-day bucket.
type TimePreferences struct {
	Morning   []string `json:"morning"`
	Afternoon []string `json:"afternoon"`
	Evening   []string `json:"evening"`
	Night     []string `json:"night"`
}

// ContentPreferences holds content-level viewing preferences.
type ContentPreferences struct {
	PreferredGenres           []string `json:"preferred_genres"`
	AvoidGenres               []string `json:"avoid_genres"`
	PreferHD                  bool     `json:"prefer_hd"`
	PreferLive                bool     `json:"prefer_live"`
	MaxContentDurationSeconds int      `json:"max_content_duration_seconds"`
}

// UserPreferences is the full preference profile stored per viewer.
type UserPreferences struct {
	Segment       string             `json:"segment"`
	TopCategories []string           `json:"top_categories"`
	Languages     []string           `json:"languages"`
	Time          TimePreferences    `json:"time"`
	Content       ContentPreferences `json:"content"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// TimeOfDay is a coarse daypart bucket.
type TimeOfDay string

// Daypart buckets. Hours are local to the request clock.
const (
	Morning   TimeOfDay = "morning"   // 06:00-11:59
	Afternoon TimeOfDay = "afternoon" // 12:00-16:59
	Evening   TimeOfDay = "evening"   // 17:00-21:59
	Night     TimeOfDay = "night"     // 22:00-05:59
)

// TimeOfDayFor returns the bucket for an hour of day (0-23).
func TimeOfDayFor(hour int) TimeOfDay {
	switch {
	case hour >= 6 && hour <= 11:
		return Morning
	case hour >= 12 && hour <= 16:
		return Afternoon
	case hour >= 17 && hour <= 21:
		return Evening
	default:
		return Night
	}
}

// String implements fmt.Stringer.
func (t TimeOfDay) String() string {
	return string(t)
}

// Viewer segments derived from top categories.
const (
	SegmentSportsEntertainmentFan = "sports_entertainment_fan"
	SegmentFamilyViewer           = "family_viewer"
	SegmentNewsEnthusiast         = "news_enthusiast"
	SegmentMovieSeriesLover       = "movie_series_lover"
	SegmentRegionalContentViewer  = "regional_content_viewer"
	SegmentGeneralViewer          = "general_viewer"
)

// DeriveSegment maps a viewer's top categories to a named segment.
// Rules are checked in order; the first match wins.
func DeriveSegment(topCategories []string) string {
	has := make(map[string]bool, len(topCategories))
	for _, c := range topCategories {
		has[c] = true
	}

	switch {
	case has["sports"] && has["entertainment"]:
		return SegmentSportsEntertainmentFan
	case has["kids"] && has["entertainment"]:
		return SegmentFamilyViewer
	case len(topCategories) > 0 && topCategories[0] == "news":
		return SegmentNewsEnthusiast
	case has["movies"] && has["series"]:
		return SegmentMovieSeriesLover
	case has["regional"]:
		return SegmentRegionalContentViewer
	default:
		return SegmentGeneralViewer
	}
}

// DefaultPreferences returns the profile used for viewers with no stored
// preferences.
func DefaultPreferences() *UserPreferences {
	return &UserPreferences{
		Segment:       SegmentSportsEntertainmentFan,
		TopCategories: []string{"sports", "entertainment", "news"},
		Languages:     []string{"hindi", "english"},
		Time: TimePreferences{
			Morning:   []string{"news", "entertainment"},
			Afternoon: []string{"entertainment", "sports"},
			Evening:   []string{"sports", "movies"},
			Night:     []string{"movies", "entertainment"},
		},
		Content: ContentPreferences{
			PreferredGenres:           []string{"drama", "action", "comedy"},
			AvoidGenres:               []string{},
			PreferHD:                  true,
			PreferLive:                true,
			MaxContentDurationSeconds: 7200,
		},
		UpdatedAt: time.Now().UTC(),
	}
}

// ScoreContent rates a content item against content-level preferences.
// Base 0.5, preferred genre +0.3, avoided genre -0.2, HD match +0.1,
// live match +0.1, duration within budget +0.1 else -0.1, clamped to [0, 1].
func (p *ContentPreferences) ScoreContent(item ContentItem) float64 {
	score := 0.5

	for _, g := range item.Genres {
		if containsString(p.PreferredGenres, g) {
			score += 0.3
			break
		}
	}
	for _, g := range item.Genres {
		if containsString(p.AvoidGenres, g) {
			score -= 0.2
			break
		}
	}

	if p.PreferHD && item.IsHD {
		score += 0.1
	}
	if p.PreferLive && item.IsLive {
		score += 0.1
	}

	if p.MaxContentDurationSeconds > 0 {
		if item.DurationSeconds <= p.MaxContentDurationSeconds {
			score += 0.1
		} else {
			score -= 0.1
		}
	}

	return clamp01(score)
}

// clamp01 clamps a score to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
