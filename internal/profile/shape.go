package profile

import "math"

// shapeModel captures what differs between the two profiles. Both are
// symmetric, so for acceleration time tb and total time te the distance
// covered is v*(te-tb), and the peak velocity relates to the peak
// acceleration as v = peakRatio*a*tb.
type shapeModel struct {
	peakRatio float64
	position  func(t, tb, te, v float64) float64
}

var shapes = map[Shape]shapeModel{
	Ramp:   {peakRatio: 1, position: rampPosition},
	Sinoid: {peakRatio: 0.5, position: sinoidPosition},
}

// timeOptimal returns the peak velocity and acceleration time that cover se
// in minimum time. When se is too short to reach vMax, the plateau vanishes
// and the peak velocity drops accordingly.
func (m shapeModel) timeOptimal(se, vMax, aMax float64) (v, tb float64) {
	v = vMax
	// Acceleration plus deceleration distance is v*tb = v^2/(peakRatio*a).
	if v*v/(m.peakRatio*aMax) > se {
		v = math.Sqrt(se * m.peakRatio * aMax)
	}
	return v, v / (m.peakRatio * aMax)
}

// fixedDuration solves se = v*(te-tb), v = peakRatio*aMax*tb for the
// smaller acceleration time, which gives the lowest peak velocity.
func (m shapeModel) fixedDuration(se, te, aMax float64) (v, tb float64, ok bool) {
	disc := te*te/4 - se/(m.peakRatio*aMax)
	if disc < 0 || math.IsNaN(disc) {
		return 0, 0, false
	}
	tb = te/2 - math.Sqrt(disc)
	v = m.peakRatio * aMax * tb
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, 0, false
	}
	return v, tb, true
}

func (m shapeModel) peakAcceleration(v, tb float64) float64 {
	return v / (m.peakRatio * tb)
}

// rampPosition evaluates a trapezoidal profile with peak velocity v.
func rampPosition(t, tb, te, v float64) float64 {
	a := v / tb
	switch {
	case t <= 0:
		return 0
	case t < tb:
		return 0.5 * a * t * t
	case t <= te-tb:
		return v * (t - 0.5*tb)
	case t < te:
		r := te - t
		return v*(te-tb) - 0.5*a*r*r
	default:
		return v * (te - tb)
	}
}

// sinoidAccelPosition is the distance covered after t seconds of a sin^2
// acceleration phase that reaches v at tb.
func sinoidAccelPosition(t, tb, v float64) float64 {
	a := 2 * v / tb
	return a * (t*t/4 + tb*tb/(8*math.Pi*math.Pi)*(math.Cos(2*math.Pi*t/tb)-1))
}

// sinoidPosition evaluates an S-curve profile with peak velocity v. The
// deceleration phase mirrors the acceleration phase.
func sinoidPosition(t, tb, te, v float64) float64 {
	switch {
	case t <= 0:
		return 0
	case t < tb:
		return sinoidAccelPosition(t, tb, v)
	case t <= te-tb:
		return v * (t - 0.5*tb)
	case t < te:
		return v*(te-tb) - sinoidAccelPosition(te-t, tb, v)
	default:
		return v * (te - tb)
	}
}
