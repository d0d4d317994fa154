package controller

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/pinlog/internal/adapters/kv"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/metrics"
	"github.com/hugo-lorenzo-mato/pinlog/internal/persistence"
	"github.com/hugo-lorenzo-mato/pinlog/internal/store"
)

var (
	clickPos = core.Position{Lat: 40.7, Lng: -74.0}
	fixedNow = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
)

// memSnapshots keeps the last saved collection and can be told to fail.
type memSnapshots struct {
	mu       sync.Mutex
	saved    []*core.Workout
	saves    int
	failSave bool
	loadErr  error
	cleared  bool
}

func (m *memSnapshots) Save(_ context.Context, ws []*core.Workout) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSave {
		return core.ErrStorage("kv set workouts", errors.New("disk full"))
	}
	m.saves++
	m.saved = ws
	return nil
}

func (m *memSnapshots) Load(context.Context) ([]*core.Workout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.saved, nil
}

func (m *memSnapshots) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = nil
	m.cleared = true
	return nil
}

func (m *memSnapshots) ids() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.saved))
	for i, w := range m.saved {
		out[i] = w.ID
	}
	return out
}

type recorder struct {
	mu      sync.Mutex
	markers map[string]core.Marker
	entries []string
	focused []core.Position
	notices []string
}

func newRecorder() *recorder {
	return &recorder{markers: make(map[string]core.Marker)}
}

func (r *recorder) PlaceMarker(_ context.Context, m core.Marker) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.markers[m.WorkoutID] = m
	return nil
}

func (r *recorder) RemoveMarker(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.markers, id)
	return nil
}

func (r *recorder) Focus(_ context.Context, pos core.Position, _ int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.focused = append(r.focused, pos)
	return nil
}

func (r *recorder) RenderWorkout(_ context.Context, w *core.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range r.entries {
		if id == w.ID {
			return nil
		}
	}
	r.entries = append(r.entries, w.ID)
	return nil
}

func (r *recorder) RemoveWorkout(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e == id {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			break
		}
	}
	return nil
}

func (r *recorder) RenderAll(_ context.Context, ws []*core.Workout) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = r.entries[:0]
	for _, w := range ws {
		r.entries = append(r.entries, w.ID)
	}
	return nil
}

func (r *recorder) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

type fixture struct {
	ctl   *Controller
	snaps *memSnapshots
	views *recorder
	met   *metrics.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	n := 0
	f := &fixture{snaps: &memSnapshots{}, views: newRecorder(), met: metrics.NewTestManager()}
	f.ctl = New(store.New(), f.snaps,
		WithIDGenerator(core.IDGeneratorFunc(func() string {
			n++
			return fmt.Sprintf("w%d", n)
		})),
		WithClock(func() time.Time { return fixedNow }),
		WithMap(f.views),
		WithList(f.views),
		WithNotifier(f.views),
		WithMetrics(f.met),
	)
	return f
}

func runInput(distance, duration, cadence float64) Input {
	return Input{Variant: core.VariantRunning, DistanceKm: distance, DurationMin: duration, CadenceSpm: cadence}
}

func (f *fixture) create(t *testing.T, in Input) *core.Workout {
	t.Helper()
	require.NoError(t, f.ctl.BeginCreate(clickPos))
	w, err := f.ctl.Submit(context.Background(), in)
	require.NoError(t, err)
	return w
}

func TestSubmit_CreateRunning(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.ctl.BeginCreate(clickPos))
	p, ok := f.ctl.Pending()
	require.True(t, ok)
	assert.Equal(t, ModeCreate, p.Mode)

	w, err := f.ctl.Submit(context.Background(), runInput(5, 25, 180))
	require.NoError(t, err)

	assert.Equal(t, "w1", w.ID)
	assert.Equal(t, clickPos, w.Position)
	assert.InDelta(t, 5.0, w.PaceMinPerKm, 1e-12)
	assert.Equal(t, "Running on March 5", w.Description)

	_, ok = f.ctl.Pending()
	assert.False(t, ok, "submit returns to idle")
	assert.Equal(t, []string{"w1"}, f.snaps.ids())
	assert.Equal(t, "🏃 Running on March 5", f.views.markers["w1"].Label)
	assert.Equal(t, []string{"w1"}, f.views.entries)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.GaugeWorkouts))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CounterMutations.WithLabelValues(OpCreate, metrics.ResultOK)))
}

func TestSubmit_CreateCyclingWithZeroElevation(t *testing.T) {
	f := newFixture(t)

	w := f.create(t, Input{Variant: core.VariantCycling, DistanceKm: 20, DurationMin: 60, ElevationGainM: 0})
	assert.InDelta(t, 20.0, w.SpeedKmPerH, 1e-12)
	assert.Equal(t, "cycling-popup", f.views.markers[w.ID].PopupClass)
}

func TestSubmit_InvalidInputKeepsPending(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.BeginCreate(clickPos))

	_, err := f.ctl.Submit(context.Background(), runInput(-5, 25, 180))
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))

	_, ok := f.ctl.Pending()
	assert.True(t, ok)
	assert.Empty(t, f.ctl.Workouts())
	assert.Zero(t, f.snaps.saves)
	assert.Equal(t, []string{NoticeInvalidInput}, f.views.notices)

	_, err = f.ctl.Submit(context.Background(), runInput(math.NaN(), 25, 180))
	assert.True(t, core.IsValidation(err))

	w, err := f.ctl.Submit(context.Background(), runInput(5, 25, 180))
	require.NoError(t, err)
	assert.Equal(t, "w1", w.ID)
}

func TestSubmit_UnknownTypeKeepsIDSequence(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.ctl.BeginCreate(clickPos))

	_, err := f.ctl.Submit(context.Background(), Input{Variant: "swimming", DistanceKm: 1, DurationMin: 30})
	assert.True(t, core.IsValidation(err))

	w, err := f.ctl.Submit(context.Background(), Input{Variant: core.VariantCycling, DistanceKm: 20, DurationMin: 60})
	require.NoError(t, err)
	assert.Equal(t, "w1", w.ID)
}

func TestSubmit_WithoutPending(t *testing.T) {
	f := newFixture(t)

	_, err := f.ctl.Submit(context.Background(), runInput(5, 25, 180))
	require.Error(t, err)
	assert.ErrorIs(t, err, &core.DomainError{Category: core.ErrCatState, Code: core.CodeNoPending})
}

func TestCancel_LeavesStoreUntouched(t *testing.T) {
	f := newFixture(t)
	f.create(t, runInput(5, 25, 180))
	saves := f.snaps.saves

	require.NoError(t, f.ctl.BeginCreate(clickPos))
	f.ctl.Cancel()

	_, ok := f.ctl.Pending()
	assert.False(t, ok)
	assert.Len(t, f.ctl.Workouts(), 1)
	assert.Equal(t, saves, f.snaps.saves)
}

func TestBeginCreate_RejectsBadPosition(t *testing.T) {
	f := newFixture(t)
	assert.True(t, core.IsValidation(f.ctl.BeginCreate(core.Position{Lat: 95})))
	_, ok := f.ctl.Pending()
	assert.False(t, ok)
}

func TestEdit_UpdatesInPlace(t *testing.T) {
	f := newFixture(t)
	f.create(t, runInput(5, 25, 180))
	second := f.create(t, runInput(3, 18, 170))

	form, err := f.ctl.BeginEdit(second.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"type": "running", "distance": "3", "duration": "18", "cadence": "170"}, form.Values())

	p, ok := f.ctl.Pending()
	require.True(t, ok)
	assert.Equal(t, Interaction{Mode: ModeEdit, Position: clickPos, WorkoutID: second.ID}, p)

	updated, err := f.ctl.Submit(context.Background(), runInput(6, 18, 170))
	require.NoError(t, err)

	assert.Equal(t, second.ID, updated.ID)
	assert.Equal(t, second.CreatedAt, updated.CreatedAt)
	assert.InDelta(t, 3.0, updated.PaceMinPerKm, 1e-12)
	assert.Equal(t, []string{"w1", "w2"}, f.snaps.ids(), "order preserved")
	assert.Equal(t, []string{"w1", "w2"}, f.views.entries)
}

func TestEdit_VariantChangeRejected(t *testing.T) {
	f := newFixture(t)
	w := f.create(t, runInput(5, 25, 180))

	_, err := f.ctl.BeginEdit(w.ID)
	require.NoError(t, err)

	_, err = f.ctl.Submit(context.Background(), Input{Variant: core.VariantCycling, DistanceKm: 5, DurationMin: 25, ElevationGainM: 10})
	assert.True(t, core.IsTypeMismatch(err))

	got, err := f.ctl.Workout(w.ID)
	require.NoError(t, err)
	assert.Equal(t, core.VariantRunning, got.Variant)
}

func TestBeginEdit_UnknownID(t *testing.T) {
	f := newFixture(t)
	_, err := f.ctl.BeginEdit("missing")
	assert.True(t, core.IsNotFound(err))
}

func TestEdit_TargetDeletedMeanwhile(t *testing.T) {
	f := newFixture(t)
	w := f.create(t, runInput(5, 25, 180))

	_, err := f.ctl.BeginEdit(w.ID)
	require.NoError(t, err)
	require.NoError(t, f.ctl.Delete(context.Background(), w.ID))

	_, ok := f.ctl.Pending()
	assert.False(t, ok, "deleting the edited workout closes the form")

	_, err = f.ctl.Submit(context.Background(), runInput(6, 25, 180))
	assert.ErrorIs(t, err, &core.DomainError{Category: core.ErrCatState, Code: core.CodeNoPending})
}

func TestDelete_RemovesEverywhere(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, runInput(5, 25, 180))
	b := f.create(t, runInput(3, 18, 170))

	require.NoError(t, f.ctl.Delete(context.Background(), a.ID))

	assert.Equal(t, []string{b.ID}, f.snaps.ids())
	assert.NotContains(t, f.views.markers, a.ID)
	assert.Equal(t, []string{b.ID}, f.views.entries)

	err := f.ctl.Delete(context.Background(), a.ID)
	assert.True(t, core.IsNotFound(err))
}

func TestSaveFailure_RollsBack(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		f := newFixture(t)
		f.snaps.failSave = true
		require.NoError(t, f.ctl.BeginCreate(clickPos))

		_, err := f.ctl.Submit(context.Background(), runInput(5, 25, 180))
		require.Error(t, err)
		assert.Equal(t, core.ErrCatStorage, core.GetCategory(err))
		assert.Empty(t, f.ctl.Workouts())
		assert.Empty(t, f.views.markers)
		_, ok := f.ctl.Pending()
		assert.True(t, ok)
	})

	t.Run("edit", func(t *testing.T) {
		f := newFixture(t)
		w := f.create(t, runInput(5, 25, 180))
		_, err := f.ctl.BeginEdit(w.ID)
		require.NoError(t, err)

		f.snaps.failSave = true
		_, err = f.ctl.Submit(context.Background(), runInput(10, 25, 180))
		require.Error(t, err)

		got, err := f.ctl.Workout(w.ID)
		require.NoError(t, err)
		assert.Equal(t, 5.0, got.DistanceKm)
		assert.InDelta(t, 5.0, got.PaceMinPerKm, 1e-12)
	})

	t.Run("delete", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, runInput(5, 25, 180))
		b := f.create(t, runInput(3, 18, 170))

		f.snaps.failSave = true
		require.Error(t, f.ctl.Delete(context.Background(), a.ID))

		ws := f.ctl.Workouts()
		require.Len(t, ws, 2)
		assert.Equal(t, a.ID, ws[0].ID)
		assert.Equal(t, b.ID, ws[1].ID)
		assert.Contains(t, f.views.markers, a.ID)
	})

	t.Run("activate", func(t *testing.T) {
		f := newFixture(t)
		a := f.create(t, runInput(5, 25, 180))
		f.create(t, runInput(3, 18, 170))

		f.snaps.failSave = true
		_, err := f.ctl.Activate(context.Background(), a.ID)
		require.Error(t, err)

		ws := f.ctl.Workouts()
		assert.Equal(t, a.ID, ws[0].ID)
		assert.Equal(t, 0, ws[0].Clicks)
	})
}

func TestActivate_CountsAndFocuses(t *testing.T) {
	f := newFixture(t)
	w := f.create(t, runInput(5, 25, 180))

	got, err := f.ctl.Activate(context.Background(), w.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Clicks)
	assert.Equal(t, []core.Position{clickPos}, f.views.focused)
	assert.Equal(t, 1, f.snaps.saved[0].Clicks)

	_, err = f.ctl.Activate(context.Background(), "missing")
	assert.True(t, core.IsNotFound(err))
}

func TestFocus(t *testing.T) {
	f := newFixture(t)
	w := f.create(t, runInput(5, 25, 180))

	require.NoError(t, f.ctl.Focus(context.Background(), w.ID))
	assert.Len(t, f.views.focused, 1)

	got, err := f.ctl.Workout(w.ID)
	require.NoError(t, err)
	assert.Zero(t, got.Clicks)
}

func TestLocate(t *testing.T) {
	f := newFixture(t)

	err := f.ctl.Locate(context.Background(), core.Position{}, errors.New("permission denied"))
	require.Error(t, err)
	assert.Equal(t, []string{NoticeNoPosition}, f.views.notices)
	assert.Empty(t, f.views.focused)

	require.NoError(t, f.ctl.Locate(context.Background(), clickPos, nil))
	assert.Equal(t, []core.Position{clickPos}, f.views.focused)
}

func TestReset(t *testing.T) {
	f := newFixture(t)
	f.create(t, runInput(5, 25, 180))
	f.create(t, runInput(3, 18, 170))
	require.NoError(t, f.ctl.BeginCreate(clickPos))

	require.NoError(t, f.ctl.Reset(context.Background()))

	assert.True(t, f.snaps.cleared)
	assert.Empty(t, f.ctl.Workouts())
	assert.Empty(t, f.views.markers)
	assert.Empty(t, f.views.entries)
	_, ok := f.ctl.Pending()
	assert.False(t, ok)
}

func TestStart_RendersLoadedWorkouts(t *testing.T) {
	f := newFixture(t)
	a, err := core.NewRunning("a", fixedNow, clickPos, 5, 25, 180)
	require.NoError(t, err)
	b, err := core.NewCycling("b", fixedNow, clickPos, 20, 60, 100)
	require.NoError(t, err)
	f.snaps.saved = []*core.Workout{a, b}

	report, err := f.ctl.Start(context.Background())
	require.NoError(t, err)
	assert.Equal(t, LoadReport{Loaded: 2}, report)
	assert.Equal(t, []string{"a", "b"}, f.views.entries)
	assert.Len(t, f.views.markers, 2)
}

func TestStart_CorruptSnapshotFallsBackToEmpty(t *testing.T) {
	f := newFixture(t)
	f.snaps.loadErr = core.ErrCorruptData("checksum mismatch")

	report, err := f.ctl.Start(context.Background())
	require.NoError(t, err)
	assert.True(t, report.Discarded)
	assert.Zero(t, report.Loaded)
	assert.Empty(t, f.ctl.Workouts())
	assert.Equal(t, 1.0, testutil.ToFloat64(f.met.CounterLoadFailures))
}

func TestStart_StorageErrorIsReturned(t *testing.T) {
	f := newFixture(t)
	f.snaps.loadErr = core.ErrStorage("kv get workouts", errors.New("connection refused"))

	_, err := f.ctl.Start(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsRetryable(err))
}

func TestController_RoundTripThroughKV(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemoryStore()
	adapter := persistence.New(mem)

	first := New(store.New(), adapter, WithClock(func() time.Time { return fixedNow }))
	_, err := first.Start(ctx)
	require.NoError(t, err)
	require.NoError(t, first.BeginCreate(clickPos))
	_, err = first.Submit(ctx, runInput(5, 25, 180))
	require.NoError(t, err)
	require.NoError(t, first.BeginCreate(core.Position{Lat: 1, Lng: 1}))
	_, err = first.Submit(ctx, Input{Variant: core.VariantCycling, DistanceKm: 27, DurationMin: 95, ElevationGainM: 523})
	require.NoError(t, err)

	second := New(store.New(), adapter)
	report, err := second.Start(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Loaded)

	want := first.Workouts()
	got := second.Workouts()
	require.Len(t, got, 2)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.Equal(t, want[i].Description, got[i].Description)
	}
}

func TestController_ConcurrentSubmits(t *testing.T) {
	f := newFixture(t)
	var gen sync.Mutex
	n := 0
	f.ctl.ids = core.IDGeneratorFunc(func() string {
		gen.Lock()
		defer gen.Unlock()
		n++
		return fmt.Sprintf("c%d", n)
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.ctl.BeginCreate(clickPos)
			_, _ = f.ctl.Submit(context.Background(), runInput(5, 25, 180))
		}()
	}
	wg.Wait()

	assert.Equal(t, len(f.ctl.Workouts()), len(f.snaps.ids()))
}

func TestParseInput(t *testing.T) {
	in, err := ParseInput(map[string]string{"type": "running", "distance": "5", "duration": " 25 ", "cadence": "180", "elevation": "99"})
	require.NoError(t, err)
	assert.Equal(t, runInput(5, 25, 180), in)

	in, err = ParseInput(map[string]string{"type": "cycling", "distance": "", "duration": "abc", "elevation": "0"})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(in.DistanceKm))
	assert.True(t, math.IsNaN(in.DurationMin))
	assert.Zero(t, in.ElevationGainM)

	_, err = ParseInput(map[string]string{"type": "rowing"})
	assert.True(t, core.IsValidation(err))
}
