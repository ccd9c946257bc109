// Package replay drives the velocity integrator through a simulated control
// loop on a mock clock. Cycle periods jitter around a nominal value and a
// single long gap can be injected, so reset and warm-up behaviour can be
// inspected offline and reproduced from a seed.
package replay

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/motionref/internal/integrator"
	"github.com/banshee-data/motionref/internal/timeutil"
)

// Config describes one replay.
type Config struct {
	Joints int           `json:"joints"`
	Cycles int           `json:"cycles"`
	Period time.Duration `json:"period"`
	// Jitter is the largest deviation from Period, drawn uniformly.
	Jitter time.Duration `json:"jitter"`
	// GapAt is the cycle preceded by an extra Gap. Zero disables the gap.
	GapAt int           `json:"gap_at"`
	Gap   time.Duration `json:"gap"`
	Seed  uint64        `json:"seed"`

	// Joint j is commanded Amplitude*sin(2*pi*Frequency*t + j*pi/Joints).
	Amplitude float64 `json:"amplitude"`
	Frequency float64 `json:"frequency_hz"`
}

// DefaultConfig returns a six-joint, ten-second replay at 100 Hz.
func DefaultConfig() Config {
	return Config{
		Joints:    6,
		Cycles:    1000,
		Period:    10 * time.Millisecond,
		Jitter:    time.Millisecond,
		Amplitude: 0.5,
		Frequency: 0.5,
		Seed:      1,
	}
}

// Validate rejects configurations that cannot be replayed.
func (c Config) Validate() error {
	switch {
	case c.Joints < 1:
		return fmt.Errorf("replay needs at least one joint, got %d", c.Joints)
	case c.Cycles < 1:
		return fmt.Errorf("replay needs at least one cycle, got %d", c.Cycles)
	case c.Period <= 0:
		return fmt.Errorf("period must be positive, got %s", c.Period)
	case c.Jitter < 0 || c.Jitter >= c.Period:
		return fmt.Errorf("jitter must be in [0, %s), got %s", c.Period, c.Jitter)
	case c.Gap < 0:
		return fmt.Errorf("gap must not be negative, got %s", c.Gap)
	case c.GapAt < 0:
		return fmt.Errorf("gap_at must not be negative, got %d", c.GapAt)
	case math.IsNaN(c.Amplitude) || math.IsInf(c.Amplitude, 0):
		return fmt.Errorf("amplitude must be finite, got %g", c.Amplitude)
	case !(c.Frequency >= 0) || math.IsInf(c.Frequency, 0):
		return fmt.Errorf("frequency must be finite and non-negative, got %g", c.Frequency)
	}
	return nil
}

// Command returns the velocity command of a joint at t seconds.
func (c Config) Command(joint int, t float64) float64 {
	phase := float64(joint) * math.Pi / float64(c.Joints)
	return c.Amplitude * math.Sin(2*math.Pi*c.Frequency*t+phase)
}

// Cycle is the trace of one control cycle.
type Cycle struct {
	Index    int
	Time     float64 // seconds since the first cycle
	Period   time.Duration
	Valid    bool
	Command  []float64
	Measured []float64
	Output   integrator.Output
}

// Lead returns the reference position minus the measured position of a
// joint, and false if the joint has no reference this cycle.
func (c *Cycle) Lead(joint int) (float64, bool) {
	for k, j := range c.Output.Joints {
		if j == joint {
			return c.Output.Positions[k] - c.Measured[joint], true
		}
	}
	return 0, false
}

// Summary aggregates a replay.
type Summary struct {
	Cycles          int     `json:"cycles"`
	ValidCycles     int     `json:"valid_cycles"`
	FirstValidCycle int     `json:"first_valid_cycle"` // -1 if none
	StaleResets     uint64  `json:"stale_resets"`
	MeanPeriod      float64 `json:"mean_period_s"`
	LeadMean        float64 `json:"lead_mean"`
	LeadStdDev      float64 `json:"lead_stddev"`
	LeadMaxAbs      float64 `json:"lead_max_abs"`
}

// Result is a complete replay.
type Result struct {
	Config  Config
	Trace   []Cycle
	Summary Summary
}

// Run replays cfg. The integrator is always driven by a mock clock; opts
// may tune everything else.
func Run(cfg Config, opts ...integrator.Option) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Unix(0, 0).Add(24 * time.Hour)
	clock := timeutil.NewMockClock(start)
	all := make([]integrator.Option, 0, len(opts)+1)
	all = append(all, opts...)
	all = append(all, integrator.WithClock(clock))
	in, err := integrator.New(cfg.Joints, all...)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	q := make([]float64, cfg.Joints)
	qDot := make([]float64, cfg.Joints)
	trace := make([]Cycle, 0, cfg.Cycles)

	for i := 0; i < cfg.Cycles; i++ {
		var period time.Duration
		if i > 0 {
			period = cfg.Period + jitter(rng, cfg.Jitter)
			if i == cfg.GapAt {
				period += cfg.Gap
			}
			clock.Advance(period)

			// The plant follows the previous command for the elapsed period.
			for j := range q {
				q[j] += qDot[j] * period.Seconds()
			}
		}

		t := clock.Since(start).Seconds()
		for j := range qDot {
			qDot[j] = cfg.Command(j, t)
		}

		out, ok := in.Update(qDot, q)
		trace = append(trace, Cycle{
			Index:    i,
			Time:     t,
			Period:   period,
			Valid:    ok,
			Command:  append([]float64(nil), qDot...),
			Measured: append([]float64(nil), q...),
			Output:   out,
		})
	}

	return &Result{
		Config:  cfg,
		Trace:   trace,
		Summary: summarize(trace, in.StaleResets()),
	}, nil
}

func jitter(rng *rand.Rand, limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration((rng.Float64()*2 - 1) * float64(limit))
}

func summarize(trace []Cycle, resets uint64) Summary {
	s := Summary{
		Cycles:          len(trace),
		FirstValidCycle: -1,
		StaleResets:     resets,
	}

	var periods, leads []float64
	for i := range trace {
		c := &trace[i]
		if c.Index > 0 {
			periods = append(periods, c.Period.Seconds())
		}
		if !c.Valid {
			continue
		}
		s.ValidCycles++
		if s.FirstValidCycle < 0 {
			s.FirstValidCycle = c.Index
		}
		for _, j := range c.Output.Joints {
			if lead, ok := c.Lead(j); ok {
				leads = append(leads, lead)
			}
		}
	}

	if len(periods) > 0 {
		s.MeanPeriod = stat.Mean(periods, nil)
	}
	switch len(leads) {
	case 0:
	case 1:
		s.LeadMean = leads[0]
		s.LeadMaxAbs = math.Abs(leads[0])
	default:
		s.LeadMean, s.LeadStdDev = stat.MeanStdDev(leads, nil)
		s.LeadMaxAbs = floats.Norm(leads, math.Inf(1))
	}
	return s
}

// Series returns, per joint, the cycle times and reference positions of
// every cycle that produced one.
func (r *Result) Series(joint int) (times, positions []float64) {
	for i := range r.Trace {
		c := &r.Trace[i]
		for k, j := range c.Output.Joints {
			if j == joint {
				times = append(times, c.Time)
				positions = append(positions, c.Output.Positions[k])
			}
		}
	}
	return times, positions
}

// Measured returns the cycle times and measured positions of a joint.
func (r *Result) Measured(joint int) (times, positions []float64) {
	times = make([]float64, len(r.Trace))
	positions = make([]float64, len(r.Trace))
	for i := range r.Trace {
		times[i] = r.Trace[i].Time
		positions[i] = r.Trace[i].Measured[joint]
	}
	return times, positions
}
