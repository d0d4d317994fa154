package core

import "context"

// KeyValueStore is the durable store the snapshot is written to.
// Values are opaque byte strings.
type KeyValueStore interface {
	// Get returns the value for key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set overwrites the value for key.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// Marker is what the map boundary draws for one workout.
type Marker struct {
	WorkoutID  string   `json:"workout_id"`
	Position   Position `json:"position"`
	Label      string   `json:"label"`
	Variant    Variant  `json:"type"`
	PopupClass string   `json:"popup_class"`
}

// MapService is the map boundary: markers, and centering on a coordinate.
type MapService interface {
	PlaceMarker(ctx context.Context, marker Marker) error
	RemoveMarker(ctx context.Context, workoutID string) error
	Focus(ctx context.Context, pos Position, zoom int) error
}

// ListView is the list boundary. Implementations render their own markup.
type ListView interface {
	RenderWorkout(ctx context.Context, w *Workout) error
	RemoveWorkout(ctx context.Context, workoutID string) error
	RenderAll(ctx context.Context, workouts []*Workout) error
}

// Notifier shows a blocking notice to the user.
type Notifier interface {
	Notify(ctx context.Context, message string)
}
