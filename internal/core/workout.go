package core

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Variant is the workout kind. Each variant carries its own derived metric.
type Variant string

const (
	VariantRunning Variant = "running"
	VariantCycling Variant = "cycling"
)

// Variants is the ordered list of supported variants.
var Variants = []Variant{VariantRunning, VariantCycling}

// IsValid reports whether v is a known variant.
func (v Variant) IsValid() bool {
	switch v {
	case VariantRunning, VariantCycling:
		return true
	default:
		return false
	}
}

func (v Variant) String() string {
	return string(v)
}

// Title returns the variant name with its first letter capitalized.
func (v Variant) Title() string {
	s := string(v)
	if s == "" {
		return ""
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseVariant converts a raw form value into a Variant.
func ParseVariant(s string) (Variant, error) {
	v := Variant(strings.ToLower(strings.TrimSpace(s)))
	if !v.IsValid() {
		return "", ErrValidation(CodeInvalidVariant, fmt.Sprintf("unknown workout type %q", s))
	}
	return v, nil
}

// Position is a geographic coordinate pair.
type Position struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// Validate checks that the position is a finite coordinate on the globe.
func (p Position) Validate() error {
	if !isFinite(p.Lat) || !isFinite(p.Lng) || p.Lat < -90 || p.Lat > 90 || p.Lng < -180 || p.Lng > 180 {
		return ErrValidation(CodeInvalidPosition, fmt.Sprintf("invalid position [%v, %v]", p.Lat, p.Lng)).
			WithDetail("lat", p.Lat).
			WithDetail("lng", p.Lng)
	}
	return nil
}

func (p Position) String() string {
	return fmt.Sprintf("[%.5f, %.5f]", p.Lat, p.Lng)
}

// Workout is a single logged activity.
//
// ID, CreatedAt and Position are fixed at creation. PaceMinPerKm, SpeedKmPerH and
// Description are derived and must be refreshed with Recompute after any change to
// the numeric fields.
type Workout struct {
	ID             string    `json:"id" yaml:"id"`
	Variant        Variant   `json:"type" yaml:"type"`
	CreatedAt      time.Time `json:"created_at" yaml:"created_at"`
	Position       Position  `json:"position" yaml:"position"`
	DistanceKm     float64   `json:"distance_km" yaml:"distance_km"`
	DurationMin    float64   `json:"duration_min" yaml:"duration_min"`
	CadenceSpm     float64   `json:"cadence_spm,omitempty" yaml:"cadence_spm,omitempty"`
	ElevationGainM float64   `json:"elevation_gain_m,omitempty" yaml:"elevation_gain_m,omitempty"`
	PaceMinPerKm   float64   `json:"pace_min_per_km,omitempty" yaml:"pace_min_per_km,omitempty"`
	SpeedKmPerH    float64   `json:"speed_km_per_h,omitempty" yaml:"speed_km_per_h,omitempty"`
	Description    string    `json:"description" yaml:"description"`
	Clicks         int       `json:"clicks" yaml:"clicks"`
}

// NewRunning creates a running workout and derives its pace.
func NewRunning(id string, createdAt time.Time, pos Position, distanceKm, durationMin, cadenceSpm float64) (*Workout, error) {
	if err := validateIdentity(id, createdAt, pos); err != nil {
		return nil, err
	}
	if err := ValidateMeasurements(VariantRunning, distanceKm, durationMin, cadenceSpm); err != nil {
		return nil, err
	}

	w := &Workout{
		ID:          id,
		Variant:     VariantRunning,
		CreatedAt:   createdAt,
		Position:    pos,
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
		CadenceSpm:  cadenceSpm,
	}
	Recompute(w)
	return w, nil
}

// NewCycling creates a cycling workout and derives its speed.
// Elevation gain may be zero but not negative.
func NewCycling(id string, createdAt time.Time, pos Position, distanceKm, durationMin, elevationGainM float64) (*Workout, error) {
	if err := validateIdentity(id, createdAt, pos); err != nil {
		return nil, err
	}
	if err := ValidateMeasurements(VariantCycling, distanceKm, durationMin, elevationGainM); err != nil {
		return nil, err
	}

	w := &Workout{
		ID:             id,
		Variant:        VariantCycling,
		CreatedAt:      createdAt,
		Position:       pos,
		DistanceKm:     distanceKm,
		DurationMin:    durationMin,
		ElevationGainM: elevationGainM,
	}
	Recompute(w)
	return w, nil
}

// Recompute refreshes the derived metric and the description from the current fields.
func Recompute(w *Workout) {
	switch w.Variant {
	case VariantRunning:
		w.PaceMinPerKm = w.DurationMin / w.DistanceKm
		w.SpeedKmPerH = 0
	case VariantCycling:
		w.SpeedKmPerH = w.DistanceKm / (w.DurationMin / 60)
		w.PaceMinPerKm = 0
	}
	w.Description = Describe(w.Variant, w.CreatedAt)
}

// Validate checks every invariant of the record, derived fields included.
func (w *Workout) Validate() error {
	if err := validateBase(w.ID, w.CreatedAt, w.Position, w.DistanceKm, w.DurationMin); err != nil {
		return err
	}
	if w.Clicks < 0 {
		return ErrValidation("INVALID_CLICKS", fmt.Sprintf("interaction count must not be negative, got %d", w.Clicks))
	}

	switch w.Variant {
	case VariantRunning:
		if !isFinitePositive(w.CadenceSpm) {
			return invalidNumber(CodeInvalidCadence, "cadence", w.CadenceSpm)
		}
		if w.ElevationGainM != 0 {
			return ErrTypeMismatch("elevation", w.Variant)
		}
		if !ApproxEqual(w.PaceMinPerKm, w.DurationMin/w.DistanceKm) {
			return ErrValidation("DERIVED_MISMATCH", fmt.Sprintf("pace %v does not match duration/distance", w.PaceMinPerKm))
		}
	case VariantCycling:
		if !isFinite(w.ElevationGainM) || w.ElevationGainM < 0 {
			return ErrValidation(CodeInvalidElevation, fmt.Sprintf("elevation gain must be a finite non-negative number, got %v", w.ElevationGainM))
		}
		if w.CadenceSpm != 0 {
			return ErrTypeMismatch("cadence", w.Variant)
		}
		if !ApproxEqual(w.SpeedKmPerH, w.DistanceKm/(w.DurationMin/60)) {
			return ErrValidation("DERIVED_MISMATCH", fmt.Sprintf("speed %v does not match distance/duration", w.SpeedKmPerH))
		}
	default:
		return ErrValidation(CodeInvalidVariant, fmt.Sprintf("unknown workout type %q", w.Variant))
	}

	if w.Description != Describe(w.Variant, w.CreatedAt) {
		return ErrValidation("DERIVED_MISMATCH", fmt.Sprintf("description %q does not match type and date", w.Description))
	}
	return nil
}

// DerivedMetric returns the variant's computed metric and its unit.
func (w *Workout) DerivedMetric() (float64, string) {
	if w.Variant == VariantCycling {
		return w.SpeedKmPerH, "km/h"
	}
	return w.PaceMinPerKm, "min/km"
}

// Activate records one explicit interaction with the workout.
func (w *Workout) Activate() {
	w.Clicks++
}

// Clone returns an independent copy of the workout.
func (w *Workout) Clone() *Workout {
	if w == nil {
		return nil
	}
	c := *w
	return &c
}

// ValidateMeasurements checks the user-entered numbers of a workout. extra is
// the cadence for running and the elevation gain for cycling.
func ValidateMeasurements(v Variant, distanceKm, durationMin, extra float64) error {
	if !isFinitePositive(distanceKm) {
		return invalidNumber(CodeInvalidDistance, "distance", distanceKm)
	}
	if !isFinitePositive(durationMin) {
		return invalidNumber(CodeInvalidDuration, "duration", durationMin)
	}
	switch v {
	case VariantRunning:
		if !isFinitePositive(extra) {
			return invalidNumber(CodeInvalidCadence, "cadence", extra)
		}
	case VariantCycling:
		if !isFinite(extra) || extra < 0 {
			return ErrValidation(CodeInvalidElevation,
				fmt.Sprintf("elevation gain must be a finite non-negative number, got %v", extra)).
				WithDetail("field", "elevation")
		}
	default:
		return ErrValidation(CodeInvalidVariant, fmt.Sprintf("unknown workout type %q", v))
	}
	return nil
}

func validateBase(id string, createdAt time.Time, pos Position, distanceKm, durationMin float64) error {
	if err := validateIdentity(id, createdAt, pos); err != nil {
		return err
	}
	if !isFinitePositive(distanceKm) {
		return invalidNumber(CodeInvalidDistance, "distance", distanceKm)
	}
	if !isFinitePositive(durationMin) {
		return invalidNumber(CodeInvalidDuration, "duration", durationMin)
	}
	return nil
}

func validateIdentity(id string, createdAt time.Time, pos Position) error {
	if strings.TrimSpace(id) == "" {
		return ErrValidation(CodeInvalidID, "workout id is empty")
	}
	if createdAt.IsZero() {
		return ErrValidation("INVALID_CREATED_AT", "creation time is not set")
	}
	return pos.Validate()
}

func invalidNumber(code, field string, v float64) *DomainError {
	return ErrValidation(code, fmt.Sprintf("%s must be a finite positive number, got %v", field, v)).
		WithDetail("field", field)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func isFinitePositive(v float64) bool {
	return isFinite(v) && v > 0
}

// ApproxEqual compares derived values with a relative tolerance.
func ApproxEqual(a, b float64) bool {
	if !isFinite(a) || !isFinite(b) {
		return false
	}
	scale := math.Max(1, math.Max(math.Abs(a), math.Abs(b)))
	return math.Abs(a-b) <= 1e-9*scale
}
