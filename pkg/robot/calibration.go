package robot

// Default servo pulse widths in microseconds at 0 and 180 degrees.
const (
	DefaultMinPulse = 500
	DefaultMaxPulse = 2500
)

// Calibration maps a logical servo angle in degrees [0, 180] to what the
// hardware expects: a pulse width for PWM servos on the board, or a raw
// position for bus servos.
type Calibration struct {
	Trim     float64 `json:"trim"`   // degrees added after inversion
	Invert   bool    `json:"invert"` // mounted mirrored: 0 becomes 180
	MinPulse int     `json:"min_pulse,omitempty"`
	MaxPulse int     `json:"max_pulse,omitempty"`
	RangeMin int     `json:"range_min,omitempty"` // bus servo raw position at 0
	RangeMax int     `json:"range_max,omitempty"` // bus servo raw position at 180
}

// Angle applies inversion and trim and clamps the result to [0, 180].
func (c Calibration) Angle(deg float64) float64 {
	if c.Invert {
		deg = 180 - deg + c.Trim
	} else {
		deg += c.Trim
	}
	return clampAngle(deg)
}

// SceneAngle undoes Angle: it maps a hardware angle back to the angle the
// caller asked for. Clamped hardware angles do not round-trip.
func (c Calibration) SceneAngle(hw float64) float64 {
	if c.Invert {
		return 180 - hw + c.Trim
	}
	return hw - c.Trim
}

// Pulse converts a hardware angle to a pulse width in microseconds.
func (c Calibration) Pulse(deg float64) int {
	lo, hi := c.MinPulse, c.MaxPulse
	if lo == 0 && hi == 0 {
		lo, hi = DefaultMinPulse, DefaultMaxPulse
	}
	return int(float64(hi-lo)*clampAngle(deg)/180) + lo
}

// Normalize converts a raw bus servo position to degrees in [0, 180].
func (c Calibration) Normalize(raw int) float64 {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	if rangeSize == 0 {
		return 0
	}
	return float64(raw-c.RangeMin) / rangeSize * 180
}

// Denormalize converts degrees to a raw bus servo position.
func (c Calibration) Denormalize(deg float64) int {
	rangeSize := float64(c.RangeMax - c.RangeMin)
	return int(deg/180*rangeSize) + c.RangeMin
}

func clampAngle(deg float64) float64 {
	return min(max(deg, 0), 180)
}
