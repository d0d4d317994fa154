package store

import "github.com/hugo-lorenzo-mato/pinlog/internal/core"

// Patch lists the numeric fields an edit may change. Nil fields are left alone.
// Identity, creation time, position and variant are never patched.
type Patch struct {
	DistanceKm     *float64
	DurationMin    *float64
	CadenceSpm     *float64
	ElevationGainM *float64
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.DistanceKm == nil && p.DurationMin == nil && p.CadenceSpm == nil && p.ElevationGainM == nil
}

// Float returns a pointer to v, for building patches.
func Float(v float64) *float64 {
	return &v
}

func (p Patch) applyTo(w *core.Workout) error {
	switch w.Variant {
	case core.VariantRunning:
		if p.ElevationGainM != nil {
			return core.ErrTypeMismatch("elevation", w.Variant)
		}
	case core.VariantCycling:
		if p.CadenceSpm != nil {
			return core.ErrTypeMismatch("cadence", w.Variant)
		}
	}

	if p.DistanceKm != nil {
		w.DistanceKm = *p.DistanceKm
	}
	if p.DurationMin != nil {
		w.DurationMin = *p.DurationMin
	}
	if p.CadenceSpm != nil {
		w.CadenceSpm = *p.CadenceSpm
	}
	if p.ElevationGainM != nil {
		w.ElevationGainM = *p.ElevationGainM
	}
	return nil
}
