// Package testutil provides shared test utilities and fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math"
	"testing"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// Near reports whether got is within tol of want.
func Near(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol
}

// AssertNear checks that got is within tol of want.
func AssertNear(t testing.TB, name string, got, want, tol float64) {
	t.Helper()
	if !Near(got, want, tol) {
		t.Errorf("%s = %.12g, want %.12g (tol %g)", name, got, want, tol)
	}
}

// AssertSliceNear checks that got and want have the same length and agree
// element-wise within tol. Only the first mismatch is reported.
func AssertSliceNear(t testing.TB, name string, got, want []float64, tol float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Errorf("%s has %d samples, want %d", name, len(got), len(want))
		return
	}
	for i := range got {
		if !Near(got[i], want[i], tol) {
			t.Errorf("%s[%d] = %.12g, want %.12g (tol %g)", name, i, got[i], want[i], tol)
			return
		}
	}
}

// MaxStep returns the largest absolute difference between consecutive
// samples, taking the value before the first sample as zero.
func MaxStep(series []float64) float64 {
	var prev, worst float64
	for _, v := range series {
		if d := math.Abs(v - prev); d > worst {
			worst = d
		}
		prev = v
	}
	return worst
}

// AssertNonDecreasingMagnitude checks that |series| never shrinks by more
// than tol from one sample to the next.
func AssertNonDecreasingMagnitude(t testing.TB, name string, series []float64, tol float64) {
	t.Helper()
	prev := 0.0
	for i, v := range series {
		if math.Abs(v) < math.Abs(prev)-tol {
			t.Errorf("%s magnitude decreases at %d: %.12g after %.12g", name, i, v, prev)
			return
		}
		prev = v
	}
}
