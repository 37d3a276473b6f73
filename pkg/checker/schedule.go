package checker

import (
	"errors"
	"math"

	"github.com/dd0wney/cluso-bigraph/pkg/validation"
)

// Schedule lowers the annealing temperature at the end of each epoch.
// Epochs are numbered from 1.
type Schedule interface {
	Next(t float64, epoch int) float64
	validate(cv *validation.ConfigValidator)
}

// Geometric multiplies the temperature by Alpha, never going below Floor.
type Geometric struct {
	Alpha float64
	Floor float64
}

func (g Geometric) Next(t float64, _ int) float64 {
	return math.Max(g.Floor, g.Alpha*t)
}

func (g Geometric) validate(cv *validation.ConfigValidator) {
	cv.OpenUnit("Schedule.Alpha", g.Alpha).NonNegativeFloat("Schedule.Floor", g.Floor)
}

// Linear subtracts Beta from the temperature, stopping at zero.
type Linear struct {
	Beta float64
}

func (l Linear) Next(t float64, _ int) float64 {
	return math.Max(0, t-l.Beta)
}

func (l Linear) validate(cv *validation.ConfigValidator) {
	cv.PositiveFloat("Schedule.Beta", l.Beta)
}

// Logarithmic sets the temperature to T0/ln(epoch+1), capped at the current
// temperature. The numerator is the fixed T0, not the current temperature:
// dividing the current temperature by ln 2 < 1 would heat the search at
// epoch 1 and compound on every later epoch.
type Logarithmic struct {
	// T0 is the fixed numerator, normally the initial temperature.
	T0 float64
}

func (l Logarithmic) Next(t float64, epoch int) float64 {
	if epoch < 1 {
		return t
	}
	return math.Min(t, l.T0/math.Log(float64(epoch)+1))
}

func (l Logarithmic) validate(cv *validation.ConfigValidator) {
	cv.PositiveFloat("Schedule.T0", l.T0)
}

var errNoSchedule = errors.New("no cooling schedule")
