// Package smoothing provides small moving-average filters for control-loop
// signals.
package smoothing

// DefaultFactor is the weight given to the newest sample.
const DefaultFactor = 0.2

// Exponential is an exponential moving average. The first sample after
// construction or Reset seeds the average; later samples are blended in with
// the fixed factor. The filter reports a valid average once warmup samples
// have been observed.
type Exponential struct {
	factor  float64
	warmup  int
	average float64
	count   int
}

// NewExponential creates a filter. A factor outside (0, 1] falls back to
// DefaultFactor and a warmup below one is treated as one.
func NewExponential(factor float64, warmup int) *Exponential {
	if !(factor > 0 && factor <= 1) {
		factor = DefaultFactor
	}
	if warmup < 1 {
		warmup = 1
	}
	return &Exponential{factor: factor, warmup: warmup}
}

// Add records a raw sample.
func (e *Exponential) Add(v float64) {
	if e.count == 0 {
		e.average = v
	} else {
		e.average = e.factor*v + (1.0-e.factor)*e.average
	}
	if e.count < e.warmup {
		e.count++
	}
}

// Average returns the current average and whether enough samples have been
// seen for it to be used.
func (e *Exponential) Average() (float64, bool) {
	if e.count < e.warmup {
		return e.average, false
	}
	return e.average, true
}

// Reset clears the average and the warm-up counter. The factor is kept.
func (e *Exponential) Reset() {
	e.average = 0
	e.count = 0
}

// Factor returns the construction-time smoothing factor.
func (e *Exponential) Factor() float64 { return e.factor }
