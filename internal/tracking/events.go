// ViewLens - Viewer Interaction Tracking and Channel Personalization
// Copyright 2026 ViewLens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/viewlens/viewlens

package tracking

import (
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// SchemaVersion is the current event schema version.
// Bump this when making breaking changes to Event or its payloads.
const SchemaVersion = "1.0.0"

// Event kinds. The kind selects the payload type and the NATS subject.
const (
	KindCategorySelected  = "category_selected"
	KindContentClicked    = "content_clicked"
	KindSearchQuery       = "search_query"
	KindSearchInteraction = "search_interaction"
	KindButtonClicked     = "button_clicked"
	KindViewAppeared      = "view_appeared"
	KindSearchViewAppear  = "search_view_appeared"
)

// knownKinds is the set of kinds Validate accepts.
var knownKinds = map[string]struct{}{
	KindCategorySelected:  {},
	KindContentClicked:    {},
	KindSearchQuery:       {},
	KindSearchInteraction: {},
	KindButtonClicked:     {},
	KindViewAppeared:      {},
	KindSearchViewAppear:  {},
}

// DeviceContext describes the device an event originated from.
type DeviceContext struct {
	DeviceType  string `json:"device_type,omitempty"`
	OSVersion   string `json:"os_version,omitempty"`
	AppVersion  string `json:"app_version,omitempty"`
	DeviceID    string `json:"device_id,omitempty"`
	NetworkType string `json:"network_type,omitempty"`
}

// ScreenContext describes where in the app an event was produced.
type ScreenContext struct {
	CurrentView    string   `json:"current_view,omitempty"`
	NavigationPath []string `json:"navigation_path,omitempty"`
	ViewLoadTimeMS int64    `json:"view_load_time_ms,omitempty"`
}

// Event is the canonical tracked interaction.
// Payload holds one of the typed payload structs below, selected by Kind.
// UserID is empty for anonymous viewers.
type Event struct {
	SchemaVersion string        `json:"schema_version"`
	ID            string        `json:"event_id"`
	Kind          string        `json:"kind"`
	Timestamp     time.Time     `json:"timestamp"`
	SessionID     string        `json:"session_id,omitempty"`
	UserID        string        `json:"user_id,omitempty"`
	Sequence      int           `json:"sequence"`
	Device        DeviceContext `json:"device,omitempty"`
	Screen        ScreenContext `json:"screen,omitempty"`
	Payload       any           `json:"payload,omitempty"`
}

// CategorySelectedPayload records a category tab change.
type CategorySelectedPayload struct {
	Selected            string   `json:"selected"`
	Previous            string   `json:"previous,omitempty"`
	CategoryType        string   `json:"category_type,omitempty"`
	AvailableCategories []string `json:"available_categories,omitempty"`
	SelectionIndex      int      `json:"selection_index"`
	TimeSinceLastMS     int64    `json:"time_since_last_ms,omitempty"`
}

// ContentRef identifies the content item an interaction targeted.
type ContentRef struct {
	ID          string `json:"id"`
	Title       string `json:"title,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ContentMetadata carries display attributes of the clicked item.
type ContentMetadata struct {
	IsHD            bool   `json:"is_hd,omitempty"`
	IsLive          bool   `json:"is_live,omitempty"`
	CurrentProgram  string `json:"current_program,omitempty"`
	Genre           string `json:"genre,omitempty"`
	Language        string `json:"language,omitempty"`
	Rating          string `json:"rating,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

// ClickPosition locates the click within the screen layout.
type ClickPosition struct {
	GridPosition        int    `json:"grid_position"`
	SectionName         string `json:"section_name,omitempty"`
	TotalItemsInSection int    `json:"total_items_in_section,omitempty"`
	IsAboveFold         bool   `json:"is_above_fold,omitempty"`
}

// ContextualData captures the state of the screen at click time.
type ContextualData struct {
	ActiveFilters        []string `json:"active_filters,omitempty"`
	SearchQuery          string   `json:"search_query,omitempty"`
	TimeSpentOnScreenMS  int64    `json:"time_spent_on_screen_ms,omitempty"`
	PreviousAction       string   `json:"previous_action,omitempty"`
	RecommendationSource string   `json:"recommendation_source,omitempty"`
}

// ContentClickedPayload records a click on a content item.
type ContentClickedPayload struct {
	Content  ContentRef      `json:"content"`
	Metadata ContentMetadata `json:"metadata"`
	Position ClickPosition   `json:"position"`
	Context  ContextualData  `json:"context"`
}

// SearchPayload records a search query or search surface interaction.
type SearchPayload struct {
	Query       string `json:"query,omitempty"`
	SearchType  string `json:"search_type"`
	ResultCount int    `json:"result_count"`
}

// ButtonClickedPayload records a generic button press.
type ButtonClickedPayload struct {
	ButtonID string `json:"button_id"`
	Screen   string `json:"screen,omitempty"`
}

// ViewAppearedPayload records a screen becoming visible.
type ViewAppearedPayload struct {
	View       string `json:"view"`
	LoadTimeMS int64  `json:"load_time_ms,omitempty"`
}

// searchTypeTextInput selects the search_query kind; every other
// search type is reported as a search_interaction.
const searchTypeTextInput = "text_input"

// searchView is the view name that maps to the search_view_appeared kind.
const searchView = "search"

func newEvent(kind string, payload any) *Event {
	return &Event{
		SchemaVersion: SchemaVersion,
		ID:            uuid.New().String(),
		Kind:          kind,
		Timestamp:     time.Now().UTC(),
		Payload:       payload,
	}
}

// NewCategorySelected creates a category_selected event.
func NewCategorySelected(selected, previous, categoryType string, available []string, index int, sinceLast time.Duration) *Event {
	return newEvent(KindCategorySelected, CategorySelectedPayload{
		Selected:            selected,
		Previous:            previous,
		CategoryType:        categoryType,
		AvailableCategories: available,
		SelectionIndex:      index,
		TimeSinceLastMS:     sinceLast.Milliseconds(),
	})
}

// NewContentClicked creates a content_clicked event.
func NewContentClicked(content ContentRef, meta ContentMetadata, pos ClickPosition, ctxd ContextualData) *Event {
	return newEvent(KindContentClicked, ContentClickedPayload{
		Content:  content,
		Metadata: meta,
		Position: pos,
		Context:  ctxd,
	})
}

// NewSearch creates a search event. Text input produces a search_query
// event; any other search type is a search_interaction.
func NewSearch(query, searchType string, resultCount int) *Event {
	kind := KindSearchInteraction
	if searchType == searchTypeTextInput {
		kind = KindSearchQuery
	}
	return newEvent(kind, SearchPayload{
		Query:       query,
		SearchType:  searchType,
		ResultCount: resultCount,
	})
}

// NewButtonClicked creates a button_clicked event.
func NewButtonClicked(buttonID, screen string) *Event {
	return newEvent(KindButtonClicked, ButtonClickedPayload{
		ButtonID: buttonID,
		Screen:   screen,
	})
}

// NewViewAppeared creates a view_appeared event, or search_view_appeared
// when the search surface becomes visible.
func NewViewAppeared(view string, loadMS int64) *Event {
	kind := KindViewAppeared
	if view == searchView {
		kind = KindSearchViewAppear
	}
	return newEvent(kind, ViewAppearedPayload{
		View:       view,
		LoadTimeMS: loadMS,
	})
}

// NewFromWire builds an event from a wire kind and raw JSON payload.
// The payload is decoded into the typed struct for the kind; an unknown
// kind or malformed payload yields a *ValidationError.
func NewFromWire(kind string, payload json.RawMessage) (*Event, error) {
	decoded, err := decodePayload(kind, payload)
	if err != nil {
		return nil, err
	}
	return newEvent(kind, decoded), nil
}

func decodePayload(kind string, payload json.RawMessage) (any, error) {
	unmarshal := func(dst any) (any, error) {
		if len(payload) == 0 {
			return dst, nil
		}
		if err := json.Unmarshal(payload, dst); err != nil {
			return nil, &ValidationError{Field: "payload", Message: err.Error()}
		}
		return dst, nil
	}

	switch kind {
	case KindCategorySelected:
		return unmarshal(&CategorySelectedPayload{})
	case KindContentClicked:
		return unmarshal(&ContentClickedPayload{})
	case KindSearchQuery, KindSearchInteraction:
		return unmarshal(&SearchPayload{})
	case KindButtonClicked:
		return unmarshal(&ButtonClickedPayload{})
	case KindViewAppeared, KindSearchViewAppear:
		return unmarshal(&ViewAppearedPayload{})
	default:
		return nil, &ValidationError{Field: "kind", Message: "unknown kind " + kind}
	}
}

// Validate checks required fields and returns an error if validation fails.
// Session fields are stamped by the tracker, so Validate runs after Track
// has taken the event.
func (e *Event) Validate() error {
	if e.ID == "" {
		return &ValidationError{Field: "event_id", Message: "required"}
	}
	if _, ok := knownKinds[e.Kind]; !ok {
		return &ValidationError{Field: "kind", Message: "unknown kind " + e.Kind}
	}
	if e.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Message: "required"}
	}
	if e.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "required"}
	}
	return nil
}

// Subject returns the NATS subject for this event under the given prefix.
// Format: <prefix>.<kind>, e.g. viewlens.events.content_clicked.
func (e *Event) Subject(prefix string) string {
	return prefix + "." + e.Kind
}

// ValidationError represents a field validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
