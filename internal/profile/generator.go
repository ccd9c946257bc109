package profile

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

const (
	// minDisplacement treats smaller dominant displacements as no motion.
	minDisplacement = 1e-9

	// stepEpsilon absorbs floating error when converting seconds to steps,
	// so 0.5s at 100Hz is 50 steps rather than 51.
	stepEpsilon = 1e-9

	// velocityTolerance is the relative slack allowed on the velocity limit
	// when back-solving a fixed duration.
	velocityTolerance = 1e-9

	// maxSteps bounds the sample count of a single profile.
	maxSteps = 1 << 24
)

// Generator produces discretized motion profiles for one validated request.
// It holds no mutable state and is safe for concurrent use.
type Generator struct {
	req   Request
	model shapeModel
}

// NewGenerator validates req and returns a Generator for it.
func NewGenerator(req Request) (*Generator, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &Generator{req: req, model: shapes[req.Shape]}, nil
}

// Calculate is a convenience wrapper around NewGenerator and
// Generator.Calculate.
func Calculate(d Displacement, req Request) (*Profile, error) {
	g, err := NewGenerator(req)
	if err != nil {
		return nil, err
	}
	return g.Calculate(d)
}

// Request returns the request the generator was built for.
func (g *Generator) Request() Request { return g.req }

// Calculate computes the path samples for every axis of d. Timing is driven
// by the axis with the largest displacement; the other axes reuse its step
// counts with amplitudes scaled to their own displacement, so all axes
// finish together. On error no profile is returned.
func (g *Generator) Calculate(d Displacement) (*Profile, error) {
	if err := d.validate(); err != nil {
		return nil, err
	}

	period := g.req.StepPeriod()
	se := d.dominant()
	if se < minDisplacement {
		return g.stationary(d, period)
	}

	var (
		tm  timing
		err error
	)
	if g.req.FixedDuration() {
		tm, err = g.fixedTiming(se, period)
	} else {
		tm, err = g.optimalTiming(se, period)
	}
	if err != nil {
		return nil, err
	}

	unit := g.unitPath(tm, se)
	return &Profile{
		Linear:       scaled(unit, d.Linear),
		Roll:         scaled(unit, d.Roll),
		Pitch:        scaled(unit, d.Pitch),
		Yaw:          scaled(unit, d.Yaw),
		Displacement: d,
		Parameters:   tm.parameters(g.req.Shape),
	}, nil
}

// timing is a quantized profile: whole acceleration and total step counts
// with the peak velocity and acceleration re-derived from them.
type timing struct {
	period       float64
	accelSteps   int
	totalSteps   int
	velocity     float64
	acceleration float64
}

func (t timing) tb() float64 { return float64(t.accelSteps) * t.period }
func (t timing) te() float64 { return float64(t.totalSteps) * t.period }

func (t timing) parameters(shape Shape) Parameters {
	return Parameters{
		Shape:            shape,
		VelocityPeak:     t.velocity,
		AccelerationPeak: t.acceleration,
		AccelSteps:       t.accelSteps,
		PlateauSteps:     t.totalSteps - 2*t.accelSteps,
		DecelSteps:       t.accelSteps,
		TotalSteps:       t.totalSteps,
		Duration:         t.te(),
		StepPeriod:       t.period,
	}
}

// stepsFor rounds a duration up to whole control steps.
func stepsFor(seconds, period float64) (int, error) {
	steps := math.Ceil(seconds/period - stepEpsilon)
	if math.IsNaN(steps) || steps > maxSteps {
		return 0, fmt.Errorf("%w: %.6gs at %.6gs steps exceeds %d samples", ErrInvalidRequest, seconds, period, maxSteps)
	}
	if steps < 0 {
		steps = 0
	}
	return int(steps), nil
}

// quantize fixes the step counts and re-derives velocity and acceleration so
// the closed-form path covers exactly se at the last step.
func (g *Generator) quantize(se float64, accelSteps, totalSteps int, period float64) timing {
	t := timing{period: period, accelSteps: accelSteps, totalSteps: totalSteps}
	t.velocity = se / (t.te() - t.tb())
	t.acceleration = g.model.peakAcceleration(t.velocity, t.tb())
	return t
}

func (g *Generator) optimalTiming(se, period float64) (timing, error) {
	v, tb := g.model.timeOptimal(se, g.req.MaxVelocity, g.req.MaxAcceleration)

	nb, err := stepsFor(tb, period)
	if err != nil {
		return timing{}, err
	}
	nb = max(nb, 1)

	// Rounding the constant-velocity span up on its own keeps the
	// re-derived velocity at or below the limit.
	nv, err := stepsFor(se/v, period)
	if err != nil {
		return timing{}, err
	}
	n := max(nb+nv, 2*nb)
	if n > maxSteps {
		return timing{}, fmt.Errorf("%w: profile needs %d samples, limit %d", ErrInvalidRequest, n, maxSteps)
	}
	return g.quantize(se, nb, n, period), nil
}

func (g *Generator) fixedTiming(se, period float64) (timing, error) {
	te := g.req.Duration
	v, tb, ok := g.model.fixedDuration(se, te, g.req.MaxAcceleration)
	if !ok || v > g.req.MaxVelocity*(1+velocityTolerance) {
		return timing{}, fmt.Errorf("%w: %s profile over %.6g needs at least %.4gs, requested %.4gs",
			ErrDurationUnachievable, g.req.Shape, se, g.minimumDuration(se), te)
	}

	n, err := stepsFor(te, period)
	if err != nil {
		return timing{}, err
	}
	nb, err := stepsFor(tb, period)
	if err != nil {
		return timing{}, err
	}
	nb = max(nb, 1)
	if 2*nb > n {
		nb = n / 2
	}
	if nb < 1 {
		return timing{}, fmt.Errorf("%w: %.4gs is shorter than two control steps", ErrDurationUnachievable, te)
	}
	return g.quantize(se, nb, n, period), nil
}

// minimumDuration is the continuous-time duration of the time-optimal
// profile, used for error messages.
func (g *Generator) minimumDuration(se float64) float64 {
	v, tb := g.model.timeOptimal(se, g.req.MaxVelocity, g.req.MaxAcceleration)
	return se/v + tb
}

// stationary handles a request with no displacement on any axis.
func (g *Generator) stationary(d Displacement, period float64) (*Profile, error) {
	n := 0
	if g.req.FixedDuration() {
		var err error
		if n, err = stepsFor(g.req.Duration, period); err != nil {
			return nil, err
		}
	}
	return &Profile{
		Linear:       make([]float64, n),
		Roll:         make([]float64, n),
		Pitch:        make([]float64, n),
		Yaw:          make([]float64, n),
		Displacement: d,
		Parameters: Parameters{
			Shape:        g.req.Shape,
			PlateauSteps: n,
			TotalSteps:   n,
			Duration:     float64(n) * period,
			StepPeriod:   period,
		},
	}, nil
}

// unitPath samples the profile normalized to a displacement of one.
// Sample i is the position at t = (i+1)*period.
func (g *Generator) unitPath(t timing, se float64) []float64 {
	tb, te := t.tb(), t.te()
	unit := make([]float64, t.totalSteps)
	for i := range unit {
		unit[i] = g.model.position(float64(i+1)*t.period, tb, te, t.velocity) / se
	}
	correctResidual(unit, 1, t.totalSteps-t.accelSteps)
	return unit
}

// correctResidual spreads the gap between the last sample and target
// linearly over path[start:], so the final sample lands on target without
// a jump.
func correctResidual(path []float64, target float64, start int) {
	n := len(path)
	if n == 0 {
		return
	}
	if start < 0 || start >= n {
		start = n - 1
	}
	residual := target - path[n-1]
	if residual != 0 {
		span := float64(n - start)
		for i := start; i < n; i++ {
			path[i] += residual * float64(i-start+1) / span
		}
	}
	path[n-1] = target
}

func scaled(unit []float64, amplitude float64) []float64 {
	return floats.ScaleTo(make([]float64, len(unit)), amplitude, unit)
}
