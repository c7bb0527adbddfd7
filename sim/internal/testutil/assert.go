// Package testutil provides shared assertion helpers used across the sim/
// and sim/network/ test packages.
package testutil

import (
	"math"
	"testing"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
// Two NaNs compare equal.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if math.IsNaN(want) || math.IsNaN(got) {
		if math.IsNaN(want) != math.IsNaN(got) {
			t.Errorf("%s: got %v, want %v", name, got, want)
		}
		return
	}
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// RecordTimes extracts the timestamps of a customer log, for comparing
// against an expected timeline.
func RecordTimes[R any](log []R, timeOf func(R) float64) []float64 {
	out := make([]float64, len(log))
	for i, r := range log {
		out[i] = timeOf(r)
	}
	return out
}
