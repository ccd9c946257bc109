package smoothing

import (
	"math"
	"testing"
)

func TestExponential_SeedsWithFirstSample(t *testing.T) {
	e := NewExponential(0.2, 1)

	if _, ok := e.Average(); ok {
		t.Fatal("empty filter reported a valid average")
	}

	e.Add(5)
	avg, ok := e.Average()
	if !ok {
		t.Fatal("expected valid average after first sample")
	}
	if avg != 5 {
		t.Errorf("Average() = %v, want 5", avg)
	}
}

func TestExponential_Blend(t *testing.T) {
	e := NewExponential(0.2, 1)
	e.Add(10)
	e.Add(0)

	avg, _ := e.Average()
	if math.Abs(avg-8) > 1e-12 {
		t.Errorf("Average() = %v, want 8", avg)
	}

	e.Add(0)
	avg, _ = e.Average()
	if math.Abs(avg-6.4) > 1e-12 {
		t.Errorf("Average() = %v, want 6.4", avg)
	}
}

func TestExponential_Warmup(t *testing.T) {
	e := NewExponential(0.5, 3)

	for i := 0; i < 2; i++ {
		e.Add(1)
		if _, ok := e.Average(); ok {
			t.Fatalf("valid after %d samples, want warm-up of 3", i+1)
		}
	}
	e.Add(1)
	if _, ok := e.Average(); !ok {
		t.Fatal("expected valid average after warm-up")
	}

	// Once warm, stays valid.
	for i := 0; i < 10; i++ {
		e.Add(float64(i))
		if _, ok := e.Average(); !ok {
			t.Fatalf("lost validity at sample %d", i)
		}
	}
}

func TestExponential_ResetKeepsFactor(t *testing.T) {
	e := NewExponential(0.3, 2)
	e.Add(4)
	e.Add(4)
	e.Reset()

	if _, ok := e.Average(); ok {
		t.Error("expected invalid average after reset")
	}
	if e.Factor() != 0.3 {
		t.Errorf("Factor() = %v after reset, want 0.3", e.Factor())
	}

	// Next sample seeds again instead of blending with the stale average.
	e.Add(-2)
	e.Add(-2)
	avg, ok := e.Average()
	if !ok || avg != -2 {
		t.Errorf("Average() = %v, %v; want -2, true", avg, ok)
	}
}

func TestNewExponential_Defaults(t *testing.T) {
	tests := []struct {
		name       string
		factor     float64
		warmup     int
		wantFactor float64
	}{
		{"zero factor", 0, 1, DefaultFactor},
		{"negative factor", -0.5, 1, DefaultFactor},
		{"factor above one", 1.5, 1, DefaultFactor},
		{"NaN factor", math.NaN(), 1, DefaultFactor},
		{"factor one", 1, 1, 1},
		{"zero warmup", 0.4, 0, 0.4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewExponential(tt.factor, tt.warmup)
			if e.Factor() != tt.wantFactor {
				t.Errorf("Factor() = %v, want %v", e.Factor(), tt.wantFactor)
			}
			e.Add(1)
			if _, ok := e.Average(); !ok {
				t.Error("expected a single sample to warm up the filter")
			}
		})
	}
}
