package dsp

import "math"

// SpeedOfLight is the propagation speed used for geometric delays (m/s).
const SpeedOfLight = 299792458.0

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// DegToRad converts degrees to radians.
func DegToRad(deg float64) float64 { return deg * degToRad }

// RadToDeg converts radians to degrees.
func RadToDeg(rad float64) float64 { return rad * radToDeg }

// WrapPhase folds a phase in radians into (-pi, pi].
func WrapPhase(rad float64) float64 {
	w := math.Mod(rad, 2*math.Pi)
	switch {
	case w > math.Pi:
		w -= 2 * math.Pi
	case w <= -math.Pi:
		w += 2 * math.Pi
	}
	return w
}

// PhaseDeg returns the phase of Phasor(delay, freqHz) in degrees, wrapped
// into (-180, 180].
func PhaseDeg(delay, freqHz float64) float64 {
	return RadToDeg(WrapPhase(-2 * math.Pi * freqHz * delay))
}
