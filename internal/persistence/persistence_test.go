package persistence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hugo-lorenzo-mato/pinlog/internal/adapters/kv"
	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
	"github.com/hugo-lorenzo-mato/pinlog/internal/logging"
)

var (
	created = time.Date(2024, time.March, 5, 9, 30, 0, 0, time.UTC)
	savedAt = time.Date(2024, time.March, 6, 10, 0, 0, 0, time.UTC)
)

func fixedClock() time.Time { return savedAt }

func mixedWorkouts(t *testing.T) []*core.Workout {
	t.Helper()
	r1, err := core.NewRunning("r1", created, core.Position{Lat: 40.7, Lng: -74.0}, 5, 25, 180)
	require.NoError(t, err)
	c1, err := core.NewCycling("c1", created.Add(time.Hour), core.Position{Lat: 51.5, Lng: -0.12}, 20, 60, 300)
	require.NoError(t, err)
	r2, err := core.NewRunning("r2", created.AddDate(0, 1, 3), core.Position{Lat: -33.9, Lng: 151.2}, 10.3, 61.7, 172)
	require.NoError(t, err)
	r2.Activate()
	r2.Activate()
	c2, err := core.NewCycling("c2", created.AddDate(0, 2, 0), core.Position{Lat: 0, Lng: 0}, 42.2, 95, 0)
	require.NoError(t, err)
	return []*core.Workout{r1, c1, r2, c2}
}

func TestAdapter_RoundTrip(t *testing.T) {
	all := mixedWorkouts(t)
	for _, n := range []int{0, 1, len(all)} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			a := New(kv.NewMemoryStore(), WithClock(fixedClock))
			ctx := context.Background()

			require.NoError(t, a.Save(ctx, all[:n]))
			got, err := a.Load(ctx)
			require.NoError(t, err)
			require.Len(t, got, n)
			for i := range got {
				assert.Equal(t, all[i], got[i])
			}
		})
	}
}

func TestAdapter_LoadAbsentKey(t *testing.T) {
	a := New(kv.NewMemoryStore())
	got, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestAdapter_SaveOverwrites(t *testing.T) {
	store := kv.NewMemoryStore()
	a := New(store, WithKey("log"))
	ctx := context.Background()
	all := mixedWorkouts(t)

	require.NoError(t, a.Save(ctx, all))
	require.NoError(t, a.Save(ctx, all[:1]))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, "log", a.Key())

	_, found, _ := store.Get(ctx, "log")
	assert.True(t, found)
	_, found, _ = store.Get(ctx, DefaultKey)
	assert.False(t, found)
}

func TestAdapter_Clear(t *testing.T) {
	store := kv.NewMemoryStore()
	a := New(store)
	ctx := context.Background()

	require.NoError(t, a.Save(ctx, mixedWorkouts(t)))
	require.NoError(t, a.Clear(ctx))

	got, err := a.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestEncode_EnvelopeLayout(t *testing.T) {
	data, err := Encode(mixedWorkouts(t)[:2], savedAt)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.JSONEq(t, `1`, string(raw["version"]))
	assert.JSONEq(t, `"2024-03-06T10:00:00Z"`, string(raw["updated_at"]))
	assert.Len(t, strings.Trim(string(raw["checksum"]), `"`), 64)

	var records []map[string]interface{}
	require.NoError(t, json.Unmarshal(raw["workouts"], &records))
	require.Len(t, records, 2)
	assert.Equal(t, "running", records[0]["variant"])
	assert.Equal(t, 5.0, records[0]["pace_min_per_km"])
	assert.NotContains(t, records[0], "speed_km_per_h")
	assert.NotContains(t, records[0], "elevation_gain_m")
	assert.Equal(t, "cycling", records[1]["variant"])
	assert.Equal(t, 20.0, records[1]["speed_km_per_h"])
	assert.NotContains(t, records[1], "cadence_spm")
	assert.Equal(t, "Running on March 5", records[0]["description"])
}

// envelopeWith builds a well-formed envelope around an arbitrary workouts
// array, with a correct checksum.
func envelopeWith(t *testing.T, workouts string) []byte {
	t.Helper()
	data, err := json.Marshal(envelope{
		Version:   SnapshotVersion,
		Checksum:  checksum([]byte(workouts)),
		UpdatedAt: savedAt,
		Workouts:  json.RawMessage(workouts),
	})
	require.NoError(t, err)
	return data
}

const validRunning = `{"variant":"running","id":"r1","created_at":"2024-03-05T09:30:00Z","lat":40.7,"lng":-74,` +
	`"distance_km":5,"duration_min":25,"cadence_spm":180,"pace_min_per_km":5,"description":"Running on March 5","clicks":0}`

func TestDecode_Valid(t *testing.T) {
	got, err := Decode(envelopeWith(t, "["+validRunning+"]"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 5.0, got[0].PaceMinPerKm, 1e-12)
}

func TestDecode_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte("  ")},
		{"not json", []byte("{not json")},
		{"unknown version", []byte(strings.Replace(string(envelopeWith(t, "[]")), `"version":1`, `"version":7`, 1))},
		{"no workouts field", []byte(`{"version":1,"checksum":"x"}`)},
		{"checksum mismatch", []byte(strings.Replace(string(envelopeWith(t, "["+validRunning+"]")), `"distance_km":5`, `"distance_km":6`, 1))},
		{"missing distance", envelopeWith(t, "["+strings.Replace(validRunning, `"distance_km":5,`, "", 1)+"]")},
		{"missing clicks", envelopeWith(t, "["+strings.Replace(validRunning, `,"clicks":0`, "", 1)+"]")},
		{"wrong tag", envelopeWith(t, "["+strings.Replace(validRunning, `"running"`, `"swimming"`, 1)+"]")},
		{"negative distance", envelopeWith(t, "["+strings.Replace(validRunning, `"distance_km":5`, `"distance_km":-5`, 1)+"]")},
		{"overflowing number", envelopeWith(t, "["+strings.Replace(validRunning, `"duration_min":25`, `"duration_min":1e999`, 1)+"]")},
		{"string number", envelopeWith(t, "["+strings.Replace(validRunning, `"cadence_spm":180`, `"cadence_spm":"180"`, 1)+"]")},
		{"stale pace", envelopeWith(t, "["+strings.Replace(validRunning, `"pace_min_per_km":5`, `"pace_min_per_km":4`, 1)+"]")},
		{"stale description", envelopeWith(t, "["+strings.Replace(validRunning, `March 5`, `March 6`, 1)+"]")},
		{"cycling field on running", envelopeWith(t, "["+strings.Replace(validRunning, `"clicks":0`, `"clicks":0,"speed_km_per_h":3`, 1)+"]")},
		{"negative clicks", envelopeWith(t, "["+strings.Replace(validRunning, `"clicks":0`, `"clicks":-1`, 1)+"]")},
		{"duplicate id", envelopeWith(t, "["+validRunning+","+validRunning+"]")},
		{"workouts not array", envelopeWith(t, `{"a":1}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode(tt.data)
			require.Error(t, err)
			assert.True(t, core.IsCorruptData(err), "want corrupt data, got %v", err)
			assert.Nil(t, got)
		})
	}
}

func TestDecode_ChecksumIgnoresWhitespace(t *testing.T) {
	data := envelopeWith(t, "["+validRunning+"]")
	var pretty map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &pretty))
	indented, err := json.MarshalIndent(pretty, "", "    ")
	require.NoError(t, err)

	got, err := Decode(indented)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAdapter_LoadMissingDistanceIsCorrupt(t *testing.T) {
	store := kv.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, DefaultKey, envelopeWith(t, "["+strings.Replace(validRunning, `"distance_km":5,`, "", 1)+"]")))

	got, err := New(store).Load(ctx)
	assert.True(t, core.IsCorruptData(err))
	assert.Nil(t, got)
}

func TestDecode_Legacy(t *testing.T) {
	legacy := `[
		{"date":"2024-03-05T09:30:00.000Z","id":"9612345678","clicks":3,"coords":[40.7,-74],
		 "distance":5,"duration":25,"type":"running","cadence":180,"pace":5,"description":"Running on March 5"},
		{"date":"2024-03-06T18:00:00.000Z","id":"9612399999","clicks":0,"coords":[51.5,-0.12],
		 "distance":20,"duration":60,"type":"cycling","elevationGain":300,"speed":20,"description":"Cycling on March 6"}
	]`

	got, err := Decode([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "9612345678", got[0].ID)
	assert.Equal(t, core.VariantRunning, got[0].Variant)
	assert.Equal(t, 3, got[0].Clicks)
	assert.Equal(t, core.Position{Lat: 40.7, Lng: -74}, got[0].Position)
	assert.Equal(t, core.VariantCycling, got[1].Variant)
	assert.InDelta(t, 20.0, got[1].SpeedKmPerH, 1e-12)
	for _, w := range got {
		assert.NoError(t, w.Validate())
	}
}

func TestDecode_LegacyNegativeElevation(t *testing.T) {
	legacy := `[{"date":"2024-03-06T18:00:00.000Z","id":"9612399999","coords":[51.5,-0.12],
		"distance":20,"duration":60,"type":"cycling","elevationGain":-15,"speed":20}]`

	got, err := Decode([]byte(legacy))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, got[0].ElevationGainM)
	assert.InDelta(t, 20.0, got[0].SpeedKmPerH, 1e-12)
	assert.NoError(t, got[0].Validate())
}

func TestAdapter_LoadWarnsOnClampedElevation(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, []byte(`[
		{"date":"2024-03-06T18:00:00Z","id":"ride","coords":[1,2],"distance":20,"duration":60,"type":"cycling","elevationGain":-3}
	]`)))

	var buf bytes.Buffer
	a := New(store, WithLogger(logging.New(logging.Config{Level: "warn", Format: "json", Output: &buf})))
	got, err := a.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, buf.String(), "negative legacy elevation gain")
	assert.Contains(t, buf.String(), `"workout_id":"ride"`)
}

func TestDecode_LegacyCorrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing distance", `[{"date":"2024-03-05T09:30:00Z","id":"1","coords":[1,2],"duration":25,"type":"running","cadence":180}]`},
		{"bad coords", `[{"date":"2024-03-05T09:30:00Z","id":"1","coords":[1],"distance":5,"duration":25,"type":"running","cadence":180}]`},
		{"missing cadence", `[{"date":"2024-03-05T09:30:00Z","id":"1","coords":[1,2],"distance":5,"duration":25,"type":"running"}]`},
		{"wrong pace", `[{"date":"2024-03-05T09:30:00Z","id":"1","coords":[1,2],"distance":5,"duration":25,"type":"running","cadence":180,"pace":9}]`},
		{"unknown type", `[{"date":"2024-03-05T09:30:00Z","id":"1","coords":[1,2],"distance":5,"duration":25,"type":"hiking"}]`},
		{"not objects", `[1,2,3]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			assert.True(t, core.IsCorruptData(err), "want corrupt data, got %v", err)
		})
	}
}

// flakyStore fails the first n calls with a transport error.
type flakyStore struct {
	*kv.MemoryStore
	failures atomic.Int32
	calls    atomic.Int32
}

func (f *flakyStore) fail() error {
	f.calls.Add(1)
	if f.failures.Add(-1) >= 0 {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (f *flakyStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := f.fail(); err != nil {
		return nil, false, err
	}
	return f.MemoryStore.Get(ctx, key)
}

func (f *flakyStore) Set(ctx context.Context, key string, value []byte) error {
	if err := f.fail(); err != nil {
		return err
	}
	return f.MemoryStore.Set(ctx, key, value)
}

func TestAdapter_RetriesTransientFailures(t *testing.T) {
	store := &flakyStore{MemoryStore: kv.NewMemoryStore()}
	store.failures.Store(2)
	a := New(store, WithRetryPolicy(NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))))

	require.NoError(t, a.Save(context.Background(), mixedWorkouts(t)))
	assert.Equal(t, int32(3), store.calls.Load())

	got, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 4)
}

func TestAdapter_GivesUpAfterMaxAttempts(t *testing.T) {
	store := &flakyStore{MemoryStore: kv.NewMemoryStore()}
	store.failures.Store(100)
	a := New(store, WithRetryPolicy(NewRetryPolicy(WithMaxAttempts(2), WithBaseDelay(time.Millisecond))))

	err := a.Save(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, IsRetryExhausted(err))
	assert.True(t, core.IsCategory(err, core.ErrCatStorage))
	assert.Equal(t, int32(2), store.calls.Load())
}

func TestAdapter_CorruptSnapshotIsNotRetried(t *testing.T) {
	store := &flakyStore{MemoryStore: kv.NewMemoryStore()}
	ctx := context.Background()
	require.NoError(t, store.MemoryStore.Set(ctx, DefaultKey, []byte("garbage")))

	_, err := New(store).Load(ctx)
	assert.True(t, core.IsCorruptData(err))
	assert.Equal(t, int32(1), store.calls.Load())
}

func TestAdapter_InvalidKeyIsNotRetried(t *testing.T) {
	store := &flakyStore{MemoryStore: kv.NewMemoryStore()}
	a := New(store, WithKey("a/b"), WithRetryPolicy(NewRetryPolicy(WithMaxAttempts(3), WithBaseDelay(time.Millisecond))))

	err := a.Save(context.Background(), nil)
	require.Error(t, err)
	assert.True(t, core.IsValidation(err))
	assert.False(t, IsRetryExhausted(err))
	assert.Equal(t, int32(1), store.calls.Load())
}
