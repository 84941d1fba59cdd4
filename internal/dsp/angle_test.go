package dsp

import (
	"math"
	"testing"
)

func TestPhaseDeg(t *testing.T) {
	tests := []struct {
		cycles float64 // delay in periods of freq
		freq   float64
		want   float64
	}{
		{cycles: 0, freq: 2.3e9, want: 0},
		{cycles: 0.125, freq: 150e6, want: -45},
		{cycles: -0.25, freq: 50e6, want: 90},
		{cycles: 0.75, freq: 100e6, want: 90},
		{cycles: 10.25, freq: 1e9, want: -90},
	}
	for _, tt := range tests {
		delay := tt.cycles / tt.freq
		if got := PhaseDeg(delay, tt.freq); math.Abs(got-tt.want) > 1e-6 {
			t.Fatalf("PhaseDeg(%g periods) = %.9f, want %g", tt.cycles, got, tt.want)
		}
	}
}

func TestWrapPhase(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0, want: 0},
		{in: math.Pi, want: math.Pi},
		{in: -math.Pi, want: math.Pi},
		{in: 3 * math.Pi / 2, want: -math.Pi / 2},
		{in: -5 * math.Pi / 2, want: -math.Pi / 2},
	}
	for _, tt := range tests {
		if got := WrapPhase(tt.in); math.Abs(got-tt.want) > 1e-12 {
			t.Fatalf("WrapPhase(%g) = %g, want %g", tt.in, got, tt.want)
		}
	}
}

func TestDegRad(t *testing.T) {
	if got := DegToRad(180); got != math.Pi {
		t.Fatalf("DegToRad(180) = %g", got)
	}
	if got := RadToDeg(math.Pi / 2); math.Abs(got-90) > 1e-12 {
		t.Fatalf("RadToDeg(pi/2) = %g", got)
	}
}
