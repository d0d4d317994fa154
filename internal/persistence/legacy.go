package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// legacyRecord is the bare-array layout written by the browser version of the
// log, where a workout object was serialized as is.
type legacyRecord struct {
	Type          *string    `json:"type"`
	ID            *string    `json:"id"`
	Date          *time.Time `json:"date"`
	Coords        []float64  `json:"coords"`
	Distance      *float64   `json:"distance"`
	Duration      *float64   `json:"duration"`
	Cadence       *float64   `json:"cadence"`
	Pace          *float64   `json:"pace"`
	ElevationGain *float64   `json:"elevationGain"`
	Speed         *float64   `json:"speed"`
	Clicks        *int       `json:"clicks"`
}

// decodeLegacy upgrades a bare JSON array. The description is recomputed
// rather than compared because the browser formatted it in local time.
// The browser accepted negative elevation gain; such rides are kept with the
// gain clamped to zero and their ids returned.
func decodeLegacy(data []byte) ([]*core.Workout, []string, error) {
	var raw []legacyRecord
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, core.ErrCorruptData("legacy snapshot is not a workout array").WithCause(err)
	}

	out := make([]*core.Workout, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	var clamped []string
	for i, lr := range raw {
		if lr.clampElevation() {
			clamped = append(clamped, *lr.ID)
		}
		w, err := lr.toWorkout(i)
		if err != nil {
			return nil, nil, err
		}
		if _, dup := seen[w.ID]; dup {
			return nil, nil, corrupt(i, fmt.Sprintf("duplicate id %q", w.ID))
		}
		seen[w.ID] = struct{}{}
		out = append(out, w)
	}
	return out, clamped, nil
}

// clampElevation zeroes a negative elevation gain on a cycling record.
func (lr *legacyRecord) clampElevation() bool {
	if lr.Type == nil || lr.ID == nil || core.Variant(*lr.Type) != core.VariantCycling {
		return false
	}
	if lr.ElevationGain == nil || *lr.ElevationGain >= 0 {
		return false
	}
	zero := 0.0
	lr.ElevationGain = &zero
	return true
}

func (lr legacyRecord) toWorkout(index int) (*core.Workout, error) {
	missing := func(field string) error {
		return corrupt(index, fmt.Sprintf("missing field %q", field))
	}
	switch {
	case lr.Type == nil:
		return nil, missing("type")
	case lr.ID == nil:
		return nil, missing("id")
	case lr.Date == nil:
		return nil, missing("date")
	case len(lr.Coords) != 2:
		return nil, corrupt(index, "coords must be a [lat, lng] pair")
	case lr.Distance == nil:
		return nil, missing("distance")
	case lr.Duration == nil:
		return nil, missing("duration")
	}

	pos := core.Position{Lat: lr.Coords[0], Lng: lr.Coords[1]}
	var (
		w       *core.Workout
		err     error
		derived *float64
	)
	switch core.Variant(*lr.Type) {
	case core.VariantRunning:
		if lr.Cadence == nil {
			return nil, missing("cadence")
		}
		w, err = core.NewRunning(*lr.ID, *lr.Date, pos, *lr.Distance, *lr.Duration, *lr.Cadence)
		derived = lr.Pace
	case core.VariantCycling:
		if lr.ElevationGain == nil {
			return nil, missing("elevationGain")
		}
		w, err = core.NewCycling(*lr.ID, *lr.Date, pos, *lr.Distance, *lr.Duration, *lr.ElevationGain)
		derived = lr.Speed
	default:
		return nil, corrupt(index, fmt.Sprintf("unknown type %q", *lr.Type))
	}
	if err != nil {
		return nil, corrupt(index, "invalid values").WithCause(err)
	}

	if derived != nil {
		if v, _ := w.DerivedMetric(); !core.ApproxEqual(v, *derived) {
			return nil, corrupt(index, fmt.Sprintf("stored metric %v disagrees with recomputed %v", *derived, v))
		}
	}
	if lr.Clicks != nil {
		if *lr.Clicks < 0 {
			return nil, corrupt(index, fmt.Sprintf("negative interaction count %d", *lr.Clicks))
		}
		w.Clicks = *lr.Clicks
	}
	return w, nil
}
