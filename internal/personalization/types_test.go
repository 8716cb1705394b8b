// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

import (
	"math"
	"testing"
)

func TestTimeOfDayFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		hour int
		want TimeOfDay
	}{
		{6, Morning},
		{9, Morning},
		{11, Morning},
		{12, Afternoon},
		{16, Afternoon},
		{17, Evening},
		{21, Evening},
		{22, Night},
		{23, Night},
		{0, Night},
		{5, Night},
	}

	for _, tt := range tests {
		if got := TimeOfDayFor(tt.hour); got != tt.want {
			t.Errorf("TimeOfDayFor(%d) = %s, want %s", tt.hour, got, tt.want)
		}
	}
}

func TestDeriveSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cats []string
		want string
	}{
		{"sports and entertainment", []string{"sports", "entertainment"}, SegmentSportsEntertainmentFan},
		{"order does not matter", []string{"entertainment", "news", "sports"}, SegmentSportsEntertainmentFan},
		{"kids and entertainment", []string{"kids", "entertainment"}, SegmentFamilyViewer},
		{"news leads", []string{"news", "movies"}, SegmentNewsEnthusiast},
		{"movies and series", []string{"movies", "series"}, SegmentMovieSeriesLover},
		{"regional anywhere", []string{"music", "regional"}, SegmentRegionalContentViewer},
		{"no match", []string{"music"}, SegmentGeneralViewer},
		{"empty", nil, SegmentGeneralViewer},
		{"news not first loses to regional", []string{"regional", "news"}, SegmentRegionalContentViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := DeriveSegment(tt.cats); got != tt.want {
				t.Errorf("DeriveSegment(%v) = %q, want %q", tt.cats, got, tt.want)
			}
		})
	}
}

func TestScoreContent(t *testing.T) {
	t.Parallel()

	prefs := ContentPreferences{
		PreferredGenres:           []string{"drama", "action"},
		AvoidGenres:               []string{"horror"},
		PreferHD:                  true,
		PreferLive:                true,
		MaxContentDurationSeconds: 7200,
	}

	tests := []struct {
		name string
		item ContentItem
		want float64
	}{
		{
			name: "everything matches",
			item: ContentItem{Genres: []string{"drama"}, IsHD: true, IsLive: true, DurationSeconds: 3600},
			want: 1.0, // 0.5 + 0.3 + 0.1 + 0.1 + 0.1 = 1.1 clamped
		},
		{
			name: "avoided genre and over budget",
			item: ContentItem{Genres: []string{"horror"}, DurationSeconds: 9000},
			want: 0.2, // 0.5 - 0.2 - 0.1
		},
		{
			name: "preferred and avoided both present",
			item: ContentItem{Genres: []string{"action", "horror"}, DurationSeconds: 3600},
			want: 0.7, // 0.5 + 0.3 - 0.2 + 0.1
		},
		{
			name: "neutral item within budget",
			item: ContentItem{Genres: []string{"documentary"}, DurationSeconds: 3600},
			want: 0.6, // 0.5 + 0.1
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := prefs.ScoreContent(tt.item); math.Abs(got-tt.want) > scoreTolerance {
				t.Errorf("ScoreContent = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreContentIgnoresDurationWhenUnlimited(t *testing.T) {
	t.Parallel()

	prefs := ContentPreferences{MaxContentDurationSeconds: 0}
	item := ContentItem{Genres: []string{"drama"}, DurationSeconds: 100000}

	if got := prefs.ScoreContent(item); math.Abs(got-0.5) > scoreTolerance {
		t.Errorf("expected 0.5 with no duration budget, got %v", got)
	}
}

func TestCatalogIntegrity(t *testing.T) {
	t.Parallel()

	channels := Channels()
	if len(channels) != 13 {
		t.Fatalf("expected 13 channels, got %d", len(channels))
	}

	seen := make(map[string]bool, len(channels))
	for _, ch := range channels {
		if seen[ch.ID] {
			t.Errorf("duplicate channel ID %s", ch.ID)
		}
		seen[ch.ID] = true
		if ch.Category == "" {
			t.Errorf("channel %s has no category", ch.ID)
		}
	}

	for _, id := range []string{"1", "4", "6", "8", "10"} {
		if !IsPremiumChannel(id) {
			t.Errorf("expected channel %s to be premium", id)
		}
	}
	if IsPremiumChannel("2") {
		t.Error("channel 2 must not be premium")
	}

	// Channels() returns a copy, not the backing array.
	channels[0].Name = "mutated"
	if fresh := Channels(); fresh[0].Name == "mutated" {
		t.Error("Channels() must return a copy")
	}

	movies := ContentByType("movie")
	for _, item := range movies {
		if item.ContentType != "movie" {
			t.Errorf("ContentByType returned %s with type %s", item.ID, item.ContentType)
		}
	}
	if len(ContentByType("")) != len(ContentByType("movie"))+len(ContentByType("series")) {
		t.Error("untyped catalog must cover movies and series")
	}
}
