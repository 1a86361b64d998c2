package metrics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{80.0}, 80.0},
		{"multiple", []float64{60, 70, 80, 90, 100}, 80.0},
		{"bonus over 100", []float64{105, 95}, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Mean(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestStdDev(t *testing.T) {
	if got := StdDev(nil); got != 0 {
		t.Errorf("StdDev(nil) = %f, want 0", got)
	}
	if got := StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}); !approxEqual(got, 2) {
		t.Errorf("StdDev = %f, want 2", got)
	}
}

func TestConfidenceInterval95(t *testing.T) {
	low, high := ConfidenceInterval95([]float64{50})
	if low != 50 || high != 50 {
		t.Errorf("single value CI = (%f, %f), want (50, 50)", low, high)
	}

	low, high = ConfidenceInterval95([]float64{70, 90})
	// sample sd = 14.142..., margin = 1.96 * 14.142 / sqrt(2) = 19.6
	if !approxEqual(low, 60.4) || !approxEqual(high, 99.6) {
		t.Errorf("CI = (%f, %f), want (60.4, 99.6)", low, high)
	}
}

func TestDescribe(t *testing.T) {
	s := Describe([]float64{90, math.NaN(), 70, 80, 100})
	if s.Count != 4 {
		t.Fatalf("Count = %d, want 4", s.Count)
	}
	if !approxEqual(s.Mean, 85) || !approxEqual(s.Median, 85) {
		t.Errorf("Mean/Median = %f/%f, want 85/85", s.Mean, s.Median)
	}
	if s.Min != 70 || s.Max != 100 {
		t.Errorf("Min/Max = %f/%f, want 70/100", s.Min, s.Max)
	}
	if s.CILow >= s.Mean || s.CIHigh <= s.Mean {
		t.Errorf("CI (%f, %f) should contain mean %f", s.CILow, s.CIHigh, s.Mean)
	}

	odd := Describe([]float64{3, 1, 2})
	if odd.Median != 2 {
		t.Errorf("Median = %f, want 2", odd.Median)
	}

	if empty := Describe([]float64{math.NaN()}); empty != (Stats{}) {
		t.Errorf("Describe(NaN) = %+v, want zero", empty)
	}
}

func TestDistribution(t *testing.T) {
	got := Distribution([]float64{100, 95, 89.99, 80, 72, 60, 0, math.NaN(), 105}, nil)

	want := map[string]int{"A": 3, "B": 2, "C": 1, "D": 1, "F": 1}
	for _, b := range got {
		if b.Count != want[b.Label] {
			t.Errorf("band %s = %d, want %d", b.Label, b.Count, want[b.Label])
		}
	}

	// the defaults are not mutated
	for _, b := range DefaultBands {
		if b.Count != 0 {
			t.Errorf("DefaultBands[%s] mutated", b.Label)
		}
	}
}
