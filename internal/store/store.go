// Package store holds the in-memory ordered collection of workouts.
package store

import (
	"sync"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// WorkoutStore owns the ordered workout collection. Insertion order is
// display order. Every read returns clones; no caller ever holds a pointer
// into the collection.
type WorkoutStore struct {
	mu       sync.RWMutex
	workouts []*core.Workout
}

// New creates an empty store.
func New() *WorkoutStore {
	return &WorkoutStore{}
}

// Add appends a workout. The record is validated and copied before insertion.
func (s *WorkoutStore) Add(w *core.Workout) error {
	if w == nil {
		return core.ErrValidation(core.CodeInvalidID, "workout is nil")
	}
	if err := w.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(w.ID) >= 0 {
		return core.ErrDuplicateID(w.ID)
	}
	s.workouts = append(s.workouts, w.Clone())
	return nil
}

// FindByID returns a copy of the workout with the given id.
func (s *WorkoutStore) FindByID(id string) (*core.Workout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, core.ErrNotFound("workout", id)
	}
	return s.workouts[i].Clone(), nil
}

// UpdateFields applies patch to the workout with the given id and re-derives
// its metric and description. The patch is applied to a copy which replaces
// the stored record only when every check passes.
func (s *WorkoutStore) UpdateFields(id string, patch Patch) (*core.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, core.ErrNotFound("workout", id)
	}

	next := s.workouts[i].Clone()
	if err := patch.applyTo(next); err != nil {
		return nil, err
	}
	core.Recompute(next)
	if err := next.Validate(); err != nil {
		return nil, err
	}

	s.workouts[i] = next
	return next.Clone(), nil
}

// Activate increments the interaction count of a workout.
func (s *WorkoutStore) Activate(id string) (*core.Workout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return nil, core.ErrNotFound("workout", id)
	}
	s.workouts[i].Activate()
	return s.workouts[i].Clone(), nil
}

// Remove deletes the workout with the given id. Removing an id that is no
// longer present returns a not found error and leaves the collection as is.
func (s *WorkoutStore) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound("workout", id)
	}
	s.workouts = append(s.workouts[:i:i], s.workouts[i+1:]...)
	return nil
}

// Insert places a workout at position i, clamped to the collection bounds.
// It is used to undo a removal that could not be persisted.
func (s *WorkoutStore) Insert(i int, w *core.Workout) error {
	if err := w.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(w.ID) >= 0 {
		return core.ErrDuplicateID(w.ID)
	}
	if i < 0 {
		i = 0
	}
	if i > len(s.workouts) {
		i = len(s.workouts)
	}
	next := make([]*core.Workout, 0, len(s.workouts)+1)
	next = append(next, s.workouts[:i]...)
	next = append(next, w.Clone())
	next = append(next, s.workouts[i:]...)
	s.workouts = next
	return nil
}

// IndexOf returns the display position of id, or -1.
func (s *WorkoutStore) IndexOf(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.indexOf(id)
}

// All returns copies of every workout in display order.
func (s *WorkoutStore) All() []*core.Workout {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*core.Workout, len(s.workouts))
	for i, w := range s.workouts {
		out[i] = w.Clone()
	}
	return out
}

// Len returns the number of workouts.
func (s *WorkoutStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.workouts)
}

// Replace swaps the whole collection. Either every record is accepted or the
// store is left unchanged.
func (s *WorkoutStore) Replace(workouts []*core.Workout) error {
	next := make([]*core.Workout, 0, len(workouts))
	seen := make(map[string]struct{}, len(workouts))
	for _, w := range workouts {
		if w == nil {
			return core.ErrValidation(core.CodeInvalidID, "workout is nil")
		}
		if err := w.Validate(); err != nil {
			return err
		}
		if _, dup := seen[w.ID]; dup {
			return core.ErrDuplicateID(w.ID)
		}
		seen[w.ID] = struct{}{}
		next = append(next, w.Clone())
	}

	s.mu.Lock()
	s.workouts = next
	s.mu.Unlock()
	return nil
}

// Clear removes every workout.
func (s *WorkoutStore) Clear() {
	s.mu.Lock()
	s.workouts = nil
	s.mu.Unlock()
}

func (s *WorkoutStore) indexOf(id string) int {
	for i, w := range s.workouts {
		if w.ID == id {
			return i
		}
	}
	return -1
}
