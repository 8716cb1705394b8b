// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package personalization

// channelCatalog is the static channel lineup. A future catalog service
// would replace this; IDs are stable and referenced by premiumChannelIDs.
var channelCatalog = []Channel{
	{ID: "1", Name: "Star Plus", Category: "entertainment", Language: "hindi", IsHD: true, IsLive: true, CurrentProgram: "Anupamaa"},
	{ID: "2", Name: "Colors", Category: "entertainment", Language: "hindi", IsHD: true, IsLive: true, CurrentProgram: "Bigg Boss"},
	{ID: "3", Name: "Zee TV", Category: "entertainment", Language: "hindi", IsHD: false, IsLive: true, CurrentProgram: "Kumkum Bhagya"},
	{ID: "4", Name: "Star Sports 1", Category: "sports", Language: "english", IsHD: true, IsLive: true, CurrentProgram: "Live Cricket"},
	{ID: "5", Name: "Sony Sports", Category: "sports", Language: "english", IsHD: true, IsLive: true, CurrentProgram: "Football Highlights"},
	{ID: "6", Name: "Times Now", Category: "news", Language: "english", IsHD: true, IsLive: true, CurrentProgram: "Prime Debate"},
	{ID: "7", Name: "Republic TV", Category: "news", Language: "english", IsHD: false, IsLive: true, CurrentProgram: "News Hour"},
	{ID: "8", Name: "Cartoon Network", Category: "kids", Language: "english", IsHD: true, IsLive: true, CurrentProgram: "Ben 10"},
	{ID: "9", Name: "Disney Channel", Category: "kids", Language: "hindi", IsHD: false, IsLive: true, CurrentProgram: "Doraemon"},
	{ID: "10", Name: "Star Gold", Category: "movies", Language: "hindi", IsHD: true, IsLive: true, CurrentProgram: "Evening Blockbuster"},
	{ID: "11", Name: "Sony Max", Category: "movies", Language: "hindi", IsHD: false, IsLive: true, CurrentProgram: "Action Special"},
	{ID: "12", Name: "MTV", Category: "music", Language: "english", IsHD: false, IsLive: true, CurrentProgram: "Top 20 Countdown"},
	{ID: "13", Name: "Asianet", Category: "regional", Language: "malayalam", IsHD: false, IsLive: true, CurrentProgram: "Regional Prime"},
}

// premiumChannelIDs marks channels that receive the premium score bonus.
var premiumChannelIDs = map[string]struct{}{
	"1":  {},
	"4":  {},
	"6":  {},
	"8":  {},
	"10": {},
}

// contentCatalog is the static on-demand catalog used for content
// recommendations.
var contentCatalog = []ContentItem{
	{ID: "m1", Title: "Steel Border", ContentType: "movie", Category: "movies", Genres: []string{"action", "thriller"}, DurationSeconds: 7800, IsHD: true},
	{ID: "m2", Title: "Monsoon Letters", ContentType: "movie", Category: "movies", Genres: []string{"drama", "romance"}, DurationSeconds: 6900, IsHD: true},
	{ID: "m3", Title: "Laugh Riot", ContentType: "movie", Category: "movies", Genres: []string{"comedy"}, DurationSeconds: 6300, IsHD: false},
	{ID: "m4", Title: "Midnight Case Files", ContentType: "movie", Category: "movies", Genres: []string{"crime", "thriller"}, DurationSeconds: 8400, IsHD: true},
	{ID: "m5", Title: "Field of Dust", ContentType: "movie", Category: "sports", Genres: []string{"drama", "sports"}, DurationSeconds: 7200, IsHD: true},
	{ID: "s1", Title: "The Inheritance", ContentType: "series", Category: "entertainment", Genres: []string{"drama"}, DurationSeconds: 2700, IsHD: true},
	{ID: "s2", Title: "Campus Diaries", ContentType: "series", Category: "entertainment", Genres: []string{"comedy", "drama"}, DurationSeconds: 2400, IsHD: true},
	{ID: "s3", Title: "Newsroom 9", ContentType: "series", Category: "news", Genres: []string{"drama"}, DurationSeconds: 3000, IsHD: false},
	{ID: "s4", Title: "Junior Detectives", ContentType: "series", Category: "kids", Genres: []string{"adventure", "comedy"}, DurationSeconds: 1800, IsHD: true},
	{ID: "s5", Title: "League Insider", ContentType: "series", Category: "sports", Genres: []string{"sports"}, DurationSeconds: 2700, IsHD: true, IsLive: true},
	{ID: "s6", Title: "Village Kitchens", ContentType: "series", Category: "regional", Genres: []string{"lifestyle"}, DurationSeconds: 2100, IsHD: false},
	{ID: "s7", Title: "Chart Toppers Weekly", ContentType: "series", Category: "music", Genres: []string{"music"}, DurationSeconds: 2400, IsHD: false},
}

// Channels returns a copy of the channel catalog.
func Channels() []Channel {
	out := make([]Channel, len(channelCatalog))
	copy(out, channelCatalog)
	return out
}

// ChannelByID looks up a channel in the catalog.
func ChannelByID(id string) (Channel, bool) {
	for _, ch := range channelCatalog {
		if ch.ID == id {
			return ch, true
		}
	}
	return Channel{}, false
}

// ContentByType returns catalog items matching the given content type.
// An empty type returns the whole catalog.
func ContentByType(contentType string) []ContentItem {
	if contentType == "" {
		out := make([]ContentItem, len(contentCatalog))
		copy(out, contentCatalog)
		return out
	}

	out := make([]ContentItem, 0, len(contentCatalog))
	for _, item := range contentCatalog {
		if item.ContentType == contentType {
			out = append(out, item)
		}
	}
	return out
}

// IsPremiumChannel reports whether the channel receives the premium bonus.
func IsPremiumChannel(id string) bool {
	_, ok := premiumChannelIDs[id]
	return ok
}
