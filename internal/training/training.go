// Package training turns raw workout sensor readings into distance,
// mean speed and calorie figures for running, sports walking and swimming.
package training

import (
	"fmt"
	"math"
)

const (
	// lenStep is the distance covered by one running or walking step, in meters.
	lenStep = 0.65
	mInKm   = 1000
	minInH  = 60
)

// Session is what every activity exposes to the reporting side.
type Session interface {
	TrainingType() string
	Hours() float64
	Distance() float64
	MeanSpeed() float64
	SpentCalories() (float64, error)
}

// Training is the base workout session. It knows distance and speed but has
// no calorie formula; concrete activities embed it and add one.
type Training struct {
	action   int
	duration float64
	weight   float64
}

// NewTraining validates the readings shared by every activity.
func NewTraining(action int, duration, weight float64) (Training, error) {
	if action < 0 {
		return Training{}, invalid("action", float64(action), "must not be negative")
	}
	if err := positive("duration", duration); err != nil {
		return Training{}, err
	}
	if err := positive("weight", weight); err != nil {
		return Training{}, err
	}
	return Training{action: action, duration: duration, weight: weight}, nil
}

func (t Training) TrainingType() string { return "Training" }

// Action returns the raw step or stroke count.
func (t Training) Action() int { return t.action }

// Hours returns the session length in hours.
func (t Training) Hours() float64 { return t.duration }

// Weight returns the participant mass in kilograms.
func (t Training) Weight() float64 { return t.weight }

// Distance returns the covered distance in km.
func (t Training) Distance() float64 {
	return distance(t.action, lenStep)
}

// MeanSpeed returns the average speed in km/h. A zero-value session
// reports 0 instead of dividing by zero.
func (t Training) MeanSpeed() float64 {
	if t.duration <= 0 {
		return 0
	}
	return t.Distance() / t.duration
}

// SpentCalories has no formula on the base session.
func (t Training) SpentCalories() (float64, error) {
	return 0, ErrNotImplemented
}

func (t Training) minutes() float64 {
	return t.duration * minInH
}

func distance(action int, step float64) float64 {
	return float64(action) * step / mInKm
}

func positive(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return invalid(field, v, "must be finite")
	}
	if v <= 0 {
		return invalid(field, v, "must be positive")
	}
	return nil
}

func invalid(field string, v float64, reason string) error {
	return fmt.Errorf("%w: %s=%v %s", ErrInvalidInput, field, v, reason)
}

// floorDiv divides a by b rounding toward negative infinity, computed from
// the exact remainder so that 1 // 0.1 yields 9 rather than 10.
func floorDiv(a, b float64) float64 {
	mod := math.Mod(a, b)
	div := (a - mod) / b
	if mod != 0 && (b < 0) != (mod < 0) {
		div--
	}
	if div == 0 {
		return math.Copysign(0, a/b)
	}
	floor := math.Floor(div)
	if div-floor > 0.5 {
		floor++
	}
	return floor
}
