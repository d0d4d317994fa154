package persistence

import (
	"fmt"
	"time"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// record is the flat persisted shape of one workout. Pointer fields let the
// decoder tell a missing field from a zero value.
type record struct {
	Variant        *string    `json:"variant"`
	ID             *string    `json:"id"`
	CreatedAt      *time.Time `json:"created_at"`
	Lat            *float64   `json:"lat"`
	Lng            *float64   `json:"lng"`
	DistanceKm     *float64   `json:"distance_km"`
	DurationMin    *float64   `json:"duration_min"`
	CadenceSpm     *float64   `json:"cadence_spm,omitempty"`
	ElevationGainM *float64   `json:"elevation_gain_m,omitempty"`
	PaceMinPerKm   *float64   `json:"pace_min_per_km,omitempty"`
	SpeedKmPerH    *float64   `json:"speed_km_per_h,omitempty"`
	Description    *string    `json:"description"`
	Clicks         *int       `json:"clicks"`
}

func toRecord(w *core.Workout) record {
	variant := string(w.Variant)
	id := w.ID
	createdAt := w.CreatedAt
	lat, lng := w.Position.Lat, w.Position.Lng
	distance, duration := w.DistanceKm, w.DurationMin
	description := w.Description
	clicks := w.Clicks

	r := record{
		Variant:     &variant,
		ID:          &id,
		CreatedAt:   &createdAt,
		Lat:         &lat,
		Lng:         &lng,
		DistanceKm:  &distance,
		DurationMin: &duration,
		Description: &description,
		Clicks:      &clicks,
	}
	switch w.Variant {
	case core.VariantRunning:
		cadence, pace := w.CadenceSpm, w.PaceMinPerKm
		r.CadenceSpm, r.PaceMinPerKm = &cadence, &pace
	case core.VariantCycling:
		elevation, speed := w.ElevationGainM, w.SpeedKmPerH
		r.ElevationGainM, r.SpeedKmPerH = &elevation, &speed
	}
	return r
}

// toWorkout validates the structural shape of r and rebuilds the workout
// through the model constructors. The persisted derived fields must agree
// with the recomputed ones.
func (r record) toWorkout(index int) (*core.Workout, error) {
	missing := func(field string) error {
		return corrupt(index, fmt.Sprintf("missing field %q", field))
	}
	switch {
	case r.Variant == nil:
		return nil, missing("variant")
	case r.ID == nil:
		return nil, missing("id")
	case r.CreatedAt == nil:
		return nil, missing("created_at")
	case r.Lat == nil:
		return nil, missing("lat")
	case r.Lng == nil:
		return nil, missing("lng")
	case r.DistanceKm == nil:
		return nil, missing("distance_km")
	case r.DurationMin == nil:
		return nil, missing("duration_min")
	case r.Description == nil:
		return nil, missing("description")
	case r.Clicks == nil:
		return nil, missing("clicks")
	}

	pos := core.Position{Lat: *r.Lat, Lng: *r.Lng}
	var (
		w   *core.Workout
		err error
	)
	switch core.Variant(*r.Variant) {
	case core.VariantRunning:
		if r.CadenceSpm == nil {
			return nil, missing("cadence_spm")
		}
		if r.PaceMinPerKm == nil {
			return nil, missing("pace_min_per_km")
		}
		if r.ElevationGainM != nil || r.SpeedKmPerH != nil {
			return nil, corrupt(index, "running record carries cycling fields")
		}
		w, err = core.NewRunning(*r.ID, *r.CreatedAt, pos, *r.DistanceKm, *r.DurationMin, *r.CadenceSpm)
		if err == nil && !core.ApproxEqual(w.PaceMinPerKm, *r.PaceMinPerKm) {
			return nil, corrupt(index, fmt.Sprintf("stored pace %v disagrees with recomputed %v", *r.PaceMinPerKm, w.PaceMinPerKm))
		}
	case core.VariantCycling:
		if r.ElevationGainM == nil {
			return nil, missing("elevation_gain_m")
		}
		if r.SpeedKmPerH == nil {
			return nil, missing("speed_km_per_h")
		}
		if r.CadenceSpm != nil || r.PaceMinPerKm != nil {
			return nil, corrupt(index, "cycling record carries running fields")
		}
		w, err = core.NewCycling(*r.ID, *r.CreatedAt, pos, *r.DistanceKm, *r.DurationMin, *r.ElevationGainM)
		if err == nil && !core.ApproxEqual(w.SpeedKmPerH, *r.SpeedKmPerH) {
			return nil, corrupt(index, fmt.Sprintf("stored speed %v disagrees with recomputed %v", *r.SpeedKmPerH, w.SpeedKmPerH))
		}
	default:
		return nil, corrupt(index, fmt.Sprintf("unknown variant %q", *r.Variant))
	}
	if err != nil {
		return nil, corrupt(index, "invalid values").WithCause(err)
	}

	if w.Description != *r.Description {
		return nil, corrupt(index, fmt.Sprintf("stored description %q disagrees with %q", *r.Description, w.Description))
	}
	if *r.Clicks < 0 {
		return nil, corrupt(index, fmt.Sprintf("negative interaction count %d", *r.Clicks))
	}
	w.Clicks = *r.Clicks
	return w, nil
}

func corrupt(index int, msg string) *core.DomainError {
	return core.ErrCorruptData(fmt.Sprintf("record %d: %s", index, msg)).WithDetail("index", index)
}
