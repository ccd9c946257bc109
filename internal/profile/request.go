package profile

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/motionref/internal/units"
)

var (
	// ErrInvalidRequest is returned for non-positive limits or rates and
	// malformed displacements.
	ErrInvalidRequest = errors.New("invalid motion request")

	// ErrDurationUnachievable is returned when a fixed duration cannot be
	// met within the velocity and acceleration limits.
	ErrDurationUnachievable = errors.New("duration not achievable within limits")
)

// Shape selects the velocity profile.
type Shape int

const (
	// Ramp is a trapezoidal velocity profile: constant acceleration,
	// constant velocity, constant deceleration.
	Ramp Shape = iota
	// Sinoid is an S-curve velocity profile with continuous acceleration.
	Sinoid
)

func (s Shape) String() string {
	switch s {
	case Ramp:
		return "ramp"
	case Sinoid:
		return "sinoid"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape converts "ramp" or "sinoid" (case-insensitive) to a Shape.
func ParseShape(s string) (Shape, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "ramp", "trapezoid", "trapezoidal":
		return Ramp, nil
	case "sinoid", "s-curve", "scurve":
		return Sinoid, nil
	}
	return Ramp, fmt.Errorf("%w: unknown profile shape %q", ErrInvalidRequest, s)
}

// Request carries the kinematic limits and timing for one motion segment.
type Request struct {
	Shape           Shape
	MaxVelocity     float64 // units/s
	MaxAcceleration float64 // units/s^2
	UpdateRate      float64 // Hz

	// Duration fixes the total motion time in seconds. Zero selects the
	// time-optimal profile.
	Duration float64
}

// FixedDuration reports whether the request asks for a fixed total time.
func (r Request) FixedDuration() bool { return r.Duration > 0 }

// StepPeriod returns the sample spacing in seconds.
func (r Request) StepPeriod() float64 { return units.StepPeriod(r.UpdateRate) }

// Validate rejects physically inconsistent requests.
func (r Request) Validate() error {
	if !(r.MaxVelocity > 0) || math.IsInf(r.MaxVelocity, 0) {
		return fmt.Errorf("%w: max velocity must be positive and finite, got %g", ErrInvalidRequest, r.MaxVelocity)
	}
	if !(r.MaxAcceleration > 0) || math.IsInf(r.MaxAcceleration, 0) {
		return fmt.Errorf("%w: max acceleration must be positive and finite, got %g", ErrInvalidRequest, r.MaxAcceleration)
	}
	if !(r.UpdateRate > 0) || math.IsInf(r.UpdateRate, 0) {
		return fmt.Errorf("%w: update rate must be positive and finite, got %g", ErrInvalidRequest, r.UpdateRate)
	}
	if r.Duration < 0 || math.IsNaN(r.Duration) || math.IsInf(r.Duration, 0) {
		return fmt.Errorf("%w: duration must be zero or positive, got %g", ErrInvalidRequest, r.Duration)
	}
	if r.Shape != Ramp && r.Shape != Sinoid {
		return fmt.Errorf("%w: unknown profile shape %v", ErrInvalidRequest, r.Shape)
	}
	return nil
}

// Displacement is the net motion requested for one segment.
type Displacement struct {
	Linear float64
	Roll   float64
	Pitch  float64
	Yaw    float64
}

func (d Displacement) validate() error {
	for _, v := range [...]float64{d.Linear, d.Roll, d.Pitch, d.Yaw} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: displacement must be finite, got %+v", ErrInvalidRequest, d)
		}
	}
	return nil
}

// dominant returns the largest absolute displacement over all axes.
func (d Displacement) dominant() float64 {
	return math.Max(math.Max(math.Abs(d.Linear), math.Abs(d.Roll)),
		math.Max(math.Abs(d.Pitch), math.Abs(d.Yaw)))
}
