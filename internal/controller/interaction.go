package controller

import (
	"math"
	"strconv"
	"strings"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// Mode tells what a pending interaction will do on submit.
type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// Interaction is the pending form session. A create interaction carries the
// clicked position; an edit interaction carries the id of the workout being
// edited. Interactions are only built by BeginCreate and BeginEdit.
type Interaction struct {
	Mode      Mode          `json:"mode"`
	Position  core.Position `json:"position"`
	WorkoutID string        `json:"workout_id,omitempty"`
}

// Form field names, as the form posts them.
const (
	FieldType      = "type"
	FieldDistance  = "distance"
	FieldDuration  = "duration"
	FieldCadence   = "cadence"
	FieldElevation = "elevation"
)

// Input is a submitted form, converted to numbers. Fields that did not parse
// hold NaN and fail validation.
type Input struct {
	Variant        core.Variant `json:"type"`
	DistanceKm     float64      `json:"distance"`
	DurationMin    float64      `json:"duration"`
	CadenceSpm     float64      `json:"cadence,omitempty"`
	ElevationGainM float64      `json:"elevation,omitempty"`
}

// extra returns the variant-specific measurement.
func (in Input) extra() float64 {
	if in.Variant == core.VariantCycling {
		return in.ElevationGainM
	}
	return in.CadenceSpm
}

// ParseInput converts raw form values. Only the fields of the selected
// variant are read.
func ParseInput(values map[string]string) (Input, error) {
	v, err := core.ParseVariant(values[FieldType])
	if err != nil {
		return Input{}, err
	}

	in := Input{
		Variant:     v,
		DistanceKm:  parseNumber(values[FieldDistance]),
		DurationMin: parseNumber(values[FieldDuration]),
	}
	switch v {
	case core.VariantRunning:
		in.CadenceSpm = parseNumber(values[FieldCadence])
	case core.VariantCycling:
		in.ElevationGainM = parseNumber(values[FieldElevation])
	}
	return in, nil
}

func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// Form is an edit form prefilled from a stored workout.
type Form struct {
	WorkoutID string `json:"workout_id"`
	Input
}

func formFor(w *core.Workout) Form {
	f := Form{
		WorkoutID: w.ID,
		Input: Input{
			Variant:     w.Variant,
			DistanceKm:  w.DistanceKm,
			DurationMin: w.DurationMin,
		},
	}
	if w.Variant == core.VariantRunning {
		f.CadenceSpm = w.CadenceSpm
	} else {
		f.ElevationGainM = w.ElevationGainM
	}
	return f
}

// Values returns the form as raw field strings.
func (f Form) Values() map[string]string {
	vals := map[string]string{
		FieldType:     string(f.Variant),
		FieldDistance: formatNumber(f.DistanceKm),
		FieldDuration: formatNumber(f.DurationMin),
	}
	if f.Variant == core.VariantRunning {
		vals[FieldCadence] = formatNumber(f.CadenceSpm)
	} else {
		vals[FieldElevation] = formatNumber(f.ElevationGainM)
	}
	return vals
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// LoadReport describes what Start restored.
type LoadReport struct {
	Loaded    int    `json:"loaded"`
	Discarded bool   `json:"discarded"`
	Reason    string `json:"reason,omitempty"`
}
