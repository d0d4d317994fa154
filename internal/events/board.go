package events

import "github.com/hugo-lorenzo-mato/pinlog/internal/core"

// Board event types.
const (
	TypeMarkerPlaced  = "marker_placed"
	TypeMarkerRemoved = "marker_removed"
	TypeEntryRendered = "entry_rendered"
	TypeEntryRemoved  = "entry_removed"
	TypeListRendered  = "list_rendered"
	TypeMapFocused    = "map_focused"
	TypeNotice        = "notice"
)

// MarkerPlacedEvent is emitted when a marker is drawn or redrawn.
type MarkerPlacedEvent struct {
	BaseEvent
	Revision uint64      `json:"revision"`
	Marker   core.Marker `json:"marker"`
}

func NewMarkerPlacedEvent(revision uint64, m core.Marker) MarkerPlacedEvent {
	return MarkerPlacedEvent{BaseEvent: newBase(TypeMarkerPlaced), Revision: revision, Marker: m}
}

// WorkoutRemovedEvent is emitted when a marker or a list entry goes away.
type WorkoutRemovedEvent struct {
	BaseEvent
	Revision  uint64 `json:"revision"`
	WorkoutID string `json:"workout_id"`
}

func NewMarkerRemovedEvent(revision uint64, workoutID string) WorkoutRemovedEvent {
	return WorkoutRemovedEvent{BaseEvent: newBase(TypeMarkerRemoved), Revision: revision, WorkoutID: workoutID}
}

func NewEntryRemovedEvent(revision uint64, workoutID string) WorkoutRemovedEvent {
	return WorkoutRemovedEvent{BaseEvent: newBase(TypeEntryRemoved), Revision: revision, WorkoutID: workoutID}
}

// EntryRenderedEvent carries the markup of one list entry.
type EntryRenderedEvent struct {
	BaseEvent
	Revision  uint64 `json:"revision"`
	WorkoutID string `json:"workout_id"`
	HTML      string `json:"html"`
}

func NewEntryRenderedEvent(revision uint64, workoutID, html string) EntryRenderedEvent {
	return EntryRenderedEvent{BaseEvent: newBase(TypeEntryRendered), Revision: revision, WorkoutID: workoutID, HTML: html}
}

// ListRenderedEvent tells clients to refetch the whole list.
type ListRenderedEvent struct {
	BaseEvent
	Revision uint64 `json:"revision"`
	Count    int    `json:"count"`
}

func NewListRenderedEvent(revision uint64, count int) ListRenderedEvent {
	return ListRenderedEvent{BaseEvent: newBase(TypeListRendered), Revision: revision, Count: count}
}

// MapFocusedEvent asks clients to center the map.
type MapFocusedEvent struct {
	BaseEvent
	Revision uint64        `json:"revision"`
	Position core.Position `json:"position"`
	Zoom     int           `json:"zoom"`
}

func NewMapFocusedEvent(revision uint64, pos core.Position, zoom int) MapFocusedEvent {
	return MapFocusedEvent{BaseEvent: newBase(TypeMapFocused), Revision: revision, Position: pos, Zoom: zoom}
}

// NoticeEvent is a message for the user.
type NoticeEvent struct {
	BaseEvent
	Message string `json:"message"`
}

func NewNoticeEvent(message string) NoticeEvent {
	return NoticeEvent{BaseEvent: newBase(TypeNotice), Message: message}
}
