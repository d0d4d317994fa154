package api

import (
	"context"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/events"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
)

// Focus is where the map was last centered.
type Focus struct {
	Position core.Position `json:"position"`
	Zoom     int           `json:"zoom"`
}

// Notice is a message waiting to be shown by the front-end.
type Notice struct {
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// BoardState is what the front-end polls to redraw the map and the list.
type BoardState struct {
	Revision uint64         `json:"revision"`
	Markers  []core.Marker  `json:"markers"`
	Entries  []render.Entry `json:"entries"`
	Focus    *Focus         `json:"focus,omitempty"`
}

// Board holds the map and list as the server would draw them. It implements
// core.MapService, core.ListView and core.Notifier. Every change bumps the
// revision so clients can skip redraws. With a bus, every change is also
// published for streaming clients.
type Board struct {
	mu       sync.Mutex
	revision uint64
	markers  []core.Marker
	entries  []render.Entry
	focus    *Focus
	notices  []Notice
	now      func() time.Time
	bus      *events.Bus
}

// BoardOption configures a Board.
type BoardOption func(*Board)

// WithBus publishes board changes on bus.
func WithBus(bus *events.Bus) BoardOption {
	return func(b *Board) {
		b.bus = bus
	}
}

// NewBoard creates an empty board.
func NewBoard(opts ...BoardOption) *Board {
	b := &Board{now: time.Now}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bus returns the bus the board publishes on, or nil.
func (b *Board) Bus() *events.Bus {
	return b.bus
}

func (b *Board) publish(ev events.Event) {
	if b.bus != nil {
		b.bus.Publish(ev)
	}
}

func (b *Board) PlaceMarker(_ context.Context, m core.Marker) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.markers {
		if b.markers[i].WorkoutID == m.WorkoutID {
			b.markers[i] = m
			b.revision++
			b.publish(events.NewMarkerPlacedEvent(b.revision, m))
			return nil
		}
	}
	b.markers = append(b.markers, m)
	b.revision++
	b.publish(events.NewMarkerPlacedEvent(b.revision, m))
	return nil
}

func (b *Board) RemoveMarker(_ context.Context, workoutID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.markers {
		if b.markers[i].WorkoutID == workoutID {
			b.markers = append(b.markers[:i:i], b.markers[i+1:]...)
			b.revision++
			b.publish(events.NewMarkerRemovedEvent(b.revision, workoutID))
			return nil
		}
	}
	return nil
}

func (b *Board) Focus(_ context.Context, pos core.Position, zoom int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.focus = &Focus{Position: pos, Zoom: zoom}
	b.revision++
	b.publish(events.NewMapFocusedEvent(b.revision, pos, zoom))
	return nil
}

// RenderWorkout replaces the entry with the same id, or appends a new one.
func (b *Board) RenderWorkout(_ context.Context, w *core.Workout) error {
	e := render.NewEntry(w)
	html, err := render.HTML(e)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		if b.entries[i].ID == e.ID {
			b.entries[i] = e
			b.revision++
			b.publish(events.NewEntryRenderedEvent(b.revision, e.ID, html))
			return nil
		}
	}
	b.entries = append(b.entries, e)
	b.revision++
	b.publish(events.NewEntryRenderedEvent(b.revision, e.ID, html))
	return nil
}

func (b *Board) RemoveWorkout(_ context.Context, workoutID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.entries {
		if b.entries[i].ID == workoutID {
			b.entries = append(b.entries[:i:i], b.entries[i+1:]...)
			b.revision++
			b.publish(events.NewEntryRemovedEvent(b.revision, workoutID))
			return nil
		}
	}
	return nil
}

func (b *Board) RenderAll(_ context.Context, workouts []*core.Workout) error {
	entries := render.Entries(workouts)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = entries
	b.revision++
	b.publish(events.NewListRenderedEvent(b.revision, len(entries)))
	return nil
}

// Notify queues a notice until the next DrainNotices.
func (b *Board) Notify(_ context.Context, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notices = append(b.notices, Notice{Message: message, At: b.now().UTC()})
	b.publish(events.NewNoticeEvent(message))
}

// DrainNotices returns queued notices and empties the queue.
func (b *Board) DrainNotices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := b.notices
	b.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

// State returns a copy of the board.
func (b *Board) State() BoardState {
	b.mu.Lock()
	defer b.mu.Unlock()

	st := BoardState{
		Revision: b.revision,
		Markers:  append([]core.Marker{}, b.markers...),
		Entries:  append([]render.Entry{}, b.entries...),
	}
	if b.focus != nil {
		f := *b.focus
		st.Focus = &f
	}
	return st
}
