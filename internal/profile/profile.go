package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
)

// Axis names one of the four path sequences of a Profile.
type Axis int

const (
	AxisLinear Axis = iota
	AxisRoll
	AxisPitch
	AxisYaw
)

// Axes lists every axis in output order.
var Axes = [...]Axis{AxisLinear, AxisRoll, AxisPitch, AxisYaw}

func (a Axis) String() string {
	switch a {
	case AxisLinear:
		return "linear"
	case AxisRoll:
		return "roll"
	case AxisPitch:
		return "pitch"
	case AxisYaw:
		return "yaw"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Parameters are the values derived while generating a profile. Peak
// velocity and acceleration refer to the dominant axis.
type Parameters struct {
	Shape            Shape
	VelocityPeak     float64
	AccelerationPeak float64
	AccelSteps       int
	PlateauSteps     int
	DecelSteps       int
	TotalSteps       int
	Duration         float64 // seconds
	StepPeriod       float64 // seconds
}

// Profile is the output of a profile calculation. Each path holds
// TotalSteps cumulative positions; sample i is the position at
// (i+1)*StepPeriod, the last sample equals the axis displacement.
// The caller owns the slices.
type Profile struct {
	Linear []float64
	Roll   []float64
	Pitch  []float64
	Yaw    []float64

	Displacement Displacement
	Parameters   Parameters
}

// Path returns the samples of one axis.
func (p *Profile) Path(a Axis) []float64 {
	switch a {
	case AxisLinear:
		return p.Linear
	case AxisRoll:
		return p.Roll
	case AxisPitch:
		return p.Pitch
	case AxisYaw:
		return p.Yaw
	}
	return nil
}

func (p *Profile) target(a Axis) float64 {
	switch a {
	case AxisLinear:
		return p.Displacement.Linear
	case AxisRoll:
		return p.Displacement.Roll
	case AxisPitch:
		return p.Displacement.Pitch
	case AxisYaw:
		return p.Displacement.Yaw
	}
	return 0
}

// Times returns the sample timestamps in seconds.
func (p *Profile) Times() []float64 {
	n := p.Parameters.TotalSteps
	switch n {
	case 0:
		return nil
	case 1:
		return []float64{p.Parameters.StepPeriod}
	}
	ts := make([]float64, n)
	floats.Span(ts, p.Parameters.StepPeriod, float64(n)*p.Parameters.StepPeriod)
	return ts
}

// Velocities returns the per-step average velocity of an axis, starting
// from rest.
func (p *Profile) Velocities(a Axis) []float64 {
	return differentiate(p.Path(a), p.Parameters.StepPeriod)
}

// Accelerations returns the per-step change of Velocities.
func (p *Profile) Accelerations(a Axis) []float64 {
	return differentiate(p.Velocities(a), p.Parameters.StepPeriod)
}

// differentiate returns first differences of series divided by period,
// taking the value before the first sample as zero.
func differentiate(series []float64, period float64) []float64 {
	n := len(series)
	if n == 0 || period <= 0 {
		return nil
	}
	out := make([]float64, n)
	out[0] = series[0]
	floats.SubTo(out[1:], series[1:], series[:n-1])
	floats.Scale(1/period, out)
	return out
}

// Check verifies the invariants every generated profile satisfies: phase
// step counts add up, paths have TotalSteps samples, magnitudes never
// decrease and the per-step increments sum to the requested displacement.
func (p *Profile) Check() error {
	pp := p.Parameters
	if sum := pp.AccelSteps + pp.PlateauSteps + pp.DecelSteps; sum != pp.TotalSteps {
		return fmt.Errorf("phase steps %d+%d+%d=%d, total %d", pp.AccelSteps, pp.PlateauSteps, pp.DecelSteps, sum, pp.TotalSteps)
	}
	if pp.TotalSteps > 0 && math.Abs(pp.Duration-float64(pp.TotalSteps)*pp.StepPeriod) > pp.StepPeriod*1e-6 {
		return fmt.Errorf("duration %.9g does not match %d steps of %.9g", pp.Duration, pp.TotalSteps, pp.StepPeriod)
	}

	for _, a := range Axes {
		path := p.Path(a)
		if len(path) != pp.TotalSteps {
			return fmt.Errorf("%s path has %d samples, want %d", a, len(path), pp.TotalSteps)
		}
		if len(path) == 0 {
			continue
		}
		target := p.target(a)
		tol := 1e-6*math.Abs(target) + 1e-12

		prev := 0.0
		for i, s := range path {
			if math.Abs(s) < math.Abs(prev)-tol {
				return fmt.Errorf("%s path magnitude decreases at step %d: %g after %g", a, i, s, prev)
			}
			prev = s
		}

		increments := differentiate(path, 1)
		if got := floats.Sum(increments); !scalar.EqualWithinAbsOrRel(got, target, 1e-12, 1e-6) {
			return fmt.Errorf("%s path covers %.12g, want %.12g", a, got, target)
		}
	}
	return nil
}
