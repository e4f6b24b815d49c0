package aggregate

import (
	"math"
	"testing"
)

func TestConfidenceInterval(t *testing.T) {
	tests := []struct {
		name       string
		values     []float64
		confidence float64
		wantLo     float64
		wantHi     float64
	}{
		{
			name:       "empty",
			values:     nil,
			confidence: 0.95,
			wantLo:     0.0,
			wantHi:     0.0,
		},
		{
			name:       "single value",
			values:     []float64{0.8},
			confidence: 0.95,
			wantLo:     0.8,
			wantHi:     0.8,
		},
		{
			name:       "identical values have zero width",
			values:     []float64{0.5, 0.5, 0.5},
			confidence: 0.95,
			wantLo:     0.5,
			wantHi:     0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lo, hi := ConfidenceInterval(tt.values, tt.confidence)
			if lo != tt.wantLo || hi != tt.wantHi {
				t.Errorf("ConfidenceInterval() = (%f, %f), want (%f, %f)", lo, hi, tt.wantLo, tt.wantHi)
			}
		})
	}
}

func TestConfidenceIntervalBounds(t *testing.T) {
	values := []float64{0.1, 0.9, 0.5, 0.7, 0.3}
	for _, confidence := range []float64{0.90, 0.95, 0.99, 0.42} {
		lo, hi := ConfidenceInterval(values, confidence)
		if lo < 0 || hi > 1 || lo > hi {
			t.Errorf("confidence %.2f: interval (%f, %f) violates 0 <= lo <= hi <= 1", confidence, lo, hi)
		}
	}
}

func TestConfidenceIntervalWidensWithConfidence(t *testing.T) {
	values := []float64{0.4, 0.5, 0.6, 0.55, 0.45}
	lo90, hi90 := ConfidenceInterval(values, 0.90)
	lo99, hi99 := ConfidenceInterval(values, 0.99)
	if hi99-lo99 < hi90-lo90 {
		t.Errorf("99%% interval (%f, %f) narrower than 90%% interval (%f, %f)", lo99, hi99, lo90, hi90)
	}
}

func TestConfidenceIntervalKnownValues(t *testing.T) {
	// mean 0.5, stdev 0.1 over 4 samples: margin = 1.96*0.1/2 = 0.098
	values := []float64{0.4, 0.6, 0.4, 0.6}
	lo, hi := ConfidenceInterval(values, 0.95)

	stdev := Stdev(values)
	margin := 1.96 * stdev / 2
	wantLo := Round3(0.5 - margin)
	wantHi := Round3(0.5 + margin)
	if lo != wantLo || hi != wantHi {
		t.Errorf("ConfidenceInterval() = (%f, %f), want (%f, %f)", lo, hi, wantLo, wantHi)
	}
}

func TestStdev(t *testing.T) {
	if got := Stdev([]float64{0.5}); got != 0 {
		t.Errorf("Stdev(single) = %f, want 0", got)
	}
	got := Stdev([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	want := math.Sqrt(32.0 / 7.0) // sample stdev
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Stdev() = %f, want %f", got, want)
	}
}

func TestRound3(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.12345, 0.123},
		{0.9995, 1.0},
		{-0.0004, -0.0},
		{0.6, 0.6},
	}
	for _, tt := range tests {
		if got := Round3(tt.in); got != tt.want {
			t.Errorf("Round3(%f) = %f, want %f", tt.in, got, tt.want)
		}
	}
}
