// Package controller coordinates form interactions, the workout store, the
// snapshot and the views.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/logging"
	"github.com/hugo-lorenzo-mato/pinlog/internal/metrics"
	"github.com/hugo-lorenzo-mato/pinlog/internal/render"
	"github.com/hugo-lorenzo-mato/pinlog/internal/store"
)

// User facing notices.
const (
	NoticeInvalidInput = "Inputs have to be positive numbers!"
	NoticeNoPosition   = "Could not get your position"
	NoticeSaveFailed   = "Could not save your workouts, please try again"
)

// DefaultZoom is the map zoom used when no zoom is configured.
const DefaultZoom = 13

// Mutation operation labels.
const (
	OpCreate   = "create"
	OpEdit     = "edit"
	OpDelete   = "delete"
	OpActivate = "activate"
	OpReset    = "reset"
)

// Snapshotter persists the whole collection.
type Snapshotter interface {
	Save(ctx context.Context, workouts []*core.Workout) error
	Load(ctx context.Context) ([]*core.Workout, error)
	Clear(ctx context.Context) error
}

// Controller runs one interaction at a time. The store and the snapshot only
// ever change together: a mutation that cannot be saved is undone.
type Controller struct {
	mu      sync.Mutex
	pending *Interaction

	store     *store.WorkoutStore
	snapshots Snapshotter
	ids       core.IDGenerator
	now       func() time.Time
	zoom      int

	mapView  core.MapService
	list     core.ListView
	notifier core.Notifier
	metrics  *metrics.Manager
	logger   *logging.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithIDGenerator sets the source of new workout ids.
func WithIDGenerator(g core.IDGenerator) Option {
	return func(c *Controller) { c.ids = g }
}

// WithClock sets the clock used to stamp new workouts.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMap sets the map the controller places markers on.
func WithMap(m core.MapService) Option {
	return func(c *Controller) { c.mapView = m }
}

// WithList sets the view that renders the workout list.
func WithList(l core.ListView) Option {
	return func(c *Controller) { c.list = l }
}

// WithNotifier sets where user-facing notices go.
func WithNotifier(n core.Notifier) Option {
	return func(c *Controller) { c.notifier = n }
}

// WithMetrics records mutations and store size on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(c *Controller) { c.metrics = m }
}

// WithLogger sets the controller logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithZoom sets the zoom level used when centering the map.
func WithZoom(zoom int) Option {
	return func(c *Controller) {
		if zoom > 0 {
			c.zoom = zoom
		}
	}
}

// New creates a controller. Views default to no-ops.
func New(st *store.WorkoutStore, snapshots Snapshotter, opts ...Option) *Controller {
	c := &Controller{
		store:     st,
		snapshots: snapshots,
		ids:       core.NewClockIDGenerator(),
		now:       time.Now,
		zoom:      DefaultZoom,
		mapView:   nopMap{},
		list:      nopList{},
		notifier:  nopNotifier{},
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Start loads the snapshot into the store and renders it. A corrupt snapshot
// is reported and replaced by an empty collection; the next save overwrites it.
func (c *Controller) Start(ctx context.Context) (LoadReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var report LoadReport
	workouts, err := c.snapshots.Load(ctx)
	switch {
	case core.IsCorruptData(err):
		c.logger.Warn("discarding corrupt snapshot", slog.Any("error", err))
		c.metrics.LoadFailure()
		report.Discarded = true
		report.Reason = err.Error()
		workouts = nil
	case err != nil:
		return report, fmt.Errorf("loading workouts: %w", err)
	}

	if err := c.store.Replace(workouts); err != nil {
		return report, fmt.Errorf("restoring workouts: %w", err)
	}
	report.Loaded = len(workouts)

	all := c.store.All()
	c.view("render list", c.list.RenderAll(ctx, all))
	for _, w := range all {
		c.view("place marker", c.mapView.PlaceMarker(ctx, render.Marker(w)))
	}
	c.metrics.SetWorkouts(len(all))
	c.logger.Info("workouts loaded", slog.Int("count", report.Loaded), slog.Bool("discarded", report.Discarded))
	return report, nil
}

// Locate centers the map on the user's position. A failed lookup only shows
// a notice.
func (c *Controller) Locate(ctx context.Context, pos core.Position, lookupErr error) error {
	if lookupErr != nil {
		c.notifier.Notify(ctx, NoticeNoPosition)
		return fmt.Errorf("locating user: %w", lookupErr)
	}
	if err := pos.Validate(); err != nil {
		c.notifier.Notify(ctx, NoticeNoPosition)
		return err
	}
	return c.mapView.Focus(ctx, pos, c.zoom)
}

// BeginCreate opens the form for a new workout at pos. Any pending
// interaction is replaced.
func (c *Controller) BeginCreate(pos core.Position) error {
	if err := pos.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPending(&Interaction{Mode: ModeCreate, Position: pos})
	return nil
}

// BeginEdit opens the form prefilled with the workout's values.
func (c *Controller) BeginEdit(id string) (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	w, err := c.store.FindByID(id)
	if err != nil {
		return Form{}, err
	}
	c.setPending(&Interaction{Mode: ModeEdit, Position: w.Position, WorkoutID: w.ID})
	return formFor(w), nil
}

// Pending returns the current interaction, if any.
func (c *Controller) Pending() (Interaction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return Interaction{}, false
	}
	return *c.pending, true
}

// Cancel drops the pending interaction. The store is not touched.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setPending(nil)
}

// Submit completes the pending interaction with in. Invalid input keeps the
// interaction open so the form can be corrected.
func (c *Controller) Submit(ctx context.Context, in Input) (*core.Workout, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil, core.ErrState(core.CodeNoPending, "no form is open")
	}

	var (
		w   *core.Workout
		err error
	)
	switch c.pending.Mode {
	case ModeCreate:
		w, err = c.create(ctx, c.pending.Position, in)
		c.metrics.Mutation(OpCreate, err)
	case ModeEdit:
		w, err = c.edit(ctx, c.pending.WorkoutID, in)
		c.metrics.Mutation(OpEdit, err)
		if core.IsNotFound(err) {
			c.setPending(nil)
		}
	default:
		return nil, core.ErrState("UNKNOWN_MODE", fmt.Sprintf("unknown interaction mode %q", c.pending.Mode))
	}
	if err != nil {
		if core.IsValidation(err) {
			c.notifier.Notify(ctx, NoticeInvalidInput)
		}
		return nil, err
	}

	c.setPending(nil)
	return w, nil
}

func (c *Controller) create(ctx context.Context, pos core.Position, in Input) (*core.Workout, error) {
	// Rejected input must not consume an id.
	if err := core.ValidateMeasurements(in.Variant, in.DistanceKm, in.DurationMin, in.extra()); err != nil {
		return nil, err
	}
	id := c.ids.NewID()
	createdAt := c.now().Round(0)

	var (
		w   *core.Workout
		err error
	)
	if in.Variant == core.VariantCycling {
		w, err = core.NewCycling(id, createdAt, pos, in.DistanceKm, in.DurationMin, in.ElevationGainM)
	} else {
		w, err = core.NewRunning(id, createdAt, pos, in.DistanceKm, in.DurationMin, in.CadenceSpm)
	}
	if err != nil {
		return nil, err
	}

	if err := c.store.Add(w); err != nil {
		return nil, err
	}
	if err := c.save(ctx); err != nil {
		if rbErr := c.store.Remove(w.ID); rbErr != nil {
			c.logger.Error("rollback failed", slog.String("workout_id", w.ID), slog.Any("error", rbErr))
		}
		return nil, err
	}

	c.view("place marker", c.mapView.PlaceMarker(ctx, render.Marker(w)))
	c.view("render workout", c.list.RenderWorkout(ctx, w))
	c.logger.WithWorkout(w.ID).Info("workout created", slog.String("type", string(w.Variant)))
	return w, nil
}

func (c *Controller) edit(ctx context.Context, id string, in Input) (*core.Workout, error) {
	prev, err := c.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if in.Variant != "" && in.Variant != prev.Variant {
		return nil, core.ErrTypeMismatch("type", prev.Variant)
	}

	updated, err := c.store.UpdateFields(id, patchFor(prev.Variant, in))
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx); err != nil {
		if _, rbErr := c.store.UpdateFields(id, restoreFor(prev)); rbErr != nil {
			c.logger.Error("rollback failed", slog.String("workout_id", id), slog.Any("error", rbErr))
		}
		return nil, err
	}

	c.view("remove marker", c.mapView.RemoveMarker(ctx, id))
	c.view("place marker", c.mapView.PlaceMarker(ctx, render.Marker(updated)))
	c.view("render workout", c.list.RenderWorkout(ctx, updated))
	c.logger.WithWorkout(id).Info("workout edited")
	return updated, nil
}

func patchFor(v core.Variant, in Input) store.Patch {
	p := store.Patch{
		DistanceKm:  store.Float(in.DistanceKm),
		DurationMin: store.Float(in.DurationMin),
	}
	if v == core.VariantRunning {
		p.CadenceSpm = store.Float(in.CadenceSpm)
	} else {
		p.ElevationGainM = store.Float(in.ElevationGainM)
	}
	return p
}

func restoreFor(w *core.Workout) store.Patch {
	return patchFor(w.Variant, formFor(w).Input)
}

// Delete removes a workout together with its marker and list entry.
func (c *Controller) Delete(ctx context.Context, id string) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.metrics.Mutation(OpDelete, err) }()

	idx := c.store.IndexOf(id)
	prev, err := c.store.FindByID(id)
	if err != nil {
		return err
	}
	if err := c.store.Remove(id); err != nil {
		return err
	}
	if err := c.save(ctx); err != nil {
		if rbErr := c.store.Insert(idx, prev); rbErr != nil {
			c.logger.Error("rollback failed", slog.String("workout_id", id), slog.Any("error", rbErr))
		}
		return err
	}

	if c.pending != nil && c.pending.Mode == ModeEdit && c.pending.WorkoutID == id {
		c.setPending(nil)
	}
	c.view("remove marker", c.mapView.RemoveMarker(ctx, id))
	c.view("remove workout", c.list.RemoveWorkout(ctx, id))
	c.logger.WithWorkout(id).Info("workout deleted")
	return nil
}

// Activate records an interaction with a workout and centers the map on it.
func (c *Controller) Activate(ctx context.Context, id string) (w *core.Workout, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.metrics.Mutation(OpActivate, err) }()

	idx := c.store.IndexOf(id)
	prev, err := c.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	w, err = c.store.Activate(id)
	if err != nil {
		return nil, err
	}
	if err := c.save(ctx); err != nil {
		c.restore(idx, prev)
		return nil, err
	}

	c.view("focus", c.mapView.Focus(ctx, w.Position, c.zoom))
	c.view("render workout", c.list.RenderWorkout(ctx, w))
	return w, nil
}

func (c *Controller) restore(idx int, prev *core.Workout) {
	if err := c.store.Remove(prev.ID); err != nil {
		c.logger.Error("rollback failed", slog.String("workout_id", prev.ID), slog.Any("error", err))
		return
	}
	if err := c.store.Insert(idx, prev); err != nil {
		c.logger.Error("rollback failed", slog.String("workout_id", prev.ID), slog.Any("error", err))
	}
}

// Focus centers the map on a workout without counting an interaction.
func (c *Controller) Focus(ctx context.Context, id string) error {
	w, err := c.store.FindByID(id)
	if err != nil {
		return err
	}
	return c.mapView.Focus(ctx, w.Position, c.zoom)
}

// Reset deletes the snapshot and empties the collection.
func (c *Controller) Reset(ctx context.Context) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	defer func() { c.metrics.Mutation(OpReset, err) }()

	if err := c.snapshots.Clear(ctx); err != nil {
		return fmt.Errorf("clearing workouts: %w", err)
	}

	prev := c.store.All()
	c.store.Clear()
	c.setPending(nil)
	for _, w := range prev {
		c.view("remove marker", c.mapView.RemoveMarker(ctx, w.ID))
	}
	c.view("render list", c.list.RenderAll(ctx, nil))
	c.metrics.SetWorkouts(0)
	c.logger.Info("workouts reset", slog.Int("removed", len(prev)))
	return nil
}

// Workouts returns copies of every workout in display order.
func (c *Controller) Workouts() []*core.Workout {
	return c.store.All()
}

// Workout returns a copy of one workout.
func (c *Controller) Workout(id string) (*core.Workout, error) {
	return c.store.FindByID(id)
}

func (c *Controller) save(ctx context.Context) error {
	start := time.Now()
	err := c.snapshots.Save(ctx, c.store.All())
	c.metrics.Save(time.Since(start).Seconds(), err)
	if err != nil {
		c.logger.Error("saving workouts failed", slog.Any("error", err))
		c.notifier.Notify(ctx, NoticeSaveFailed)
		return fmt.Errorf("saving workouts: %w", err)
	}
	c.metrics.SetWorkouts(c.store.Len())
	return nil
}

func (c *Controller) setPending(in *Interaction) {
	c.pending = in
	c.metrics.SetPending(in != nil)
}

// view logs a failed view update. The state change has already been saved.
func (c *Controller) view(what string, err error) {
	if err != nil {
		c.logger.Warn("view update failed", slog.String("update", what), slog.Any("error", err))
	}
}

type nopMap struct{}

func (nopMap) PlaceMarker(context.Context, core.Marker) error { return nil }
func (nopMap) RemoveMarker(context.Context, string) error { return nil }
func (nopMap) Focus(context.Context, core.Position, int) error { return nil }

type nopList struct{}

func (nopList) RenderWorkout(context.Context, *core.Workout) error { return nil }
func (nopList) RemoveWorkout(context.Context, string) error { return nil }
func (nopList) RenderAll(context.Context, []*core.Workout) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, string) {}
