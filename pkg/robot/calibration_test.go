package robot

import (
	"math"
	"testing"
)

func TestCalibration_Normalize(t *testing.T) {
	cal := Calibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		raw      int
		expected float64
	}{
		{1000, 0},   // min -> 0
		{3000, 180}, // max -> 180
		{2000, 90},  // mid -> 90
		{1500, 45},  // quarter
		{2500, 135}, // three-quarter
	}

	for _, tt := range tests {
		got := cal.Normalize(tt.raw)
		if math.Abs(got-tt.expected) > 0.001 {
			t.Errorf("Normalize(%d) = %f, want %f", tt.raw, got, tt.expected)
		}
	}
}

func TestCalibration_Denormalize(t *testing.T) {
	cal := Calibration{
		RangeMin: 1000,
		RangeMax: 3000,
	}

	tests := []struct {
		deg      float64
		expected int
	}{
		{0, 1000},
		{180, 3000},
		{90, 2000},
		{45, 1500},
		{135, 2500},
	}

	for _, tt := range tests {
		got := cal.Denormalize(tt.deg)
		if got != tt.expected {
			t.Errorf("Denormalize(%f) = %d, want %d", tt.deg, got, tt.expected)
		}
	}
}

func TestCalibration_RoundTrip(t *testing.T) {
	cal := Calibration{
		RangeMin: 823,
		RangeMax: 3540,
	}

	// raw -> degrees -> raw
	for raw := cal.RangeMin; raw <= cal.RangeMax; raw += 100 {
		deg := cal.Normalize(raw)
		back := cal.Denormalize(deg)
		if math.Abs(float64(back-raw)) > 1 {
			t.Errorf("Round-trip failed: %d -> %f -> %d", raw, deg, back)
		}
	}
}

func TestCalibration_Normalize_ZeroRange(t *testing.T) {
	if got := (Calibration{}).Normalize(1234); got != 0 {
		t.Errorf("Normalize() with zero range = %f, want 0", got)
	}
}

func TestCalibration_Angle(t *testing.T) {
	tests := []struct {
		name string
		cal  Calibration
		deg  float64
		want float64
	}{
		{"plain", Calibration{}, 30, 30},
		{"trim", Calibration{Trim: 5}, 30, 35},
		{"invert", Calibration{Invert: true}, 30, 150},
		{"invert trim", Calibration{Invert: true, Trim: 5}, 30, 155},
		{"clamp high", Calibration{Trim: 10}, 175, 180},
		{"clamp low", Calibration{Trim: -10}, 5, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cal.Angle(tt.deg); got != tt.want {
				t.Errorf("Angle(%v) = %v, want %v", tt.deg, got, tt.want)
			}
		})
	}
}

func TestCalibration_SceneAngle(t *testing.T) {
	for _, cal := range []Calibration{{}, {Trim: 5}, {Invert: true}, {Invert: true, Trim: -7}} {
		for _, deg := range []float64{20, 90, 160} {
			if got := cal.SceneAngle(cal.Angle(deg)); math.Abs(got-deg) > 0.001 {
				t.Errorf("%+v: SceneAngle(Angle(%v)) = %v", cal, deg, got)
			}
		}
	}
}

func TestCalibration_Pulse(t *testing.T) {
	tests := []struct {
		cal  Calibration
		deg  float64
		want int
	}{
		{Calibration{}, 0, 500},
		{Calibration{}, 90, 1500},
		{Calibration{}, 180, 2500},
		{Calibration{}, 200, 2500},
		{Calibration{}, -5, 500},
		{Calibration{MinPulse: 1000, MaxPulse: 2000}, 90, 1500},
	}
	for _, tt := range tests {
		if got := tt.cal.Pulse(tt.deg); got != tt.want {
			t.Errorf("%+v.Pulse(%v) = %d, want %d", tt.cal, tt.deg, got, tt.want)
		}
	}
}
