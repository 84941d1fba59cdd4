package dsp

import "math"

// Phasor returns the unit-magnitude steering weight exp(-2πi·f·τ) for a
// delay τ in seconds evaluated at freqHz.
//
// The cycle count f·τ is reduced to its fractional part before scaling by
// 2π so that large products keep full precision in the sine and cosine.
func Phasor(delay, freqHz float64) complex128 {
	cycles := freqHz * delay
	_, frac := math.Modf(cycles)
	s, c := math.Sincos(-2 * math.Pi * frac)
	return complex(c, s)
}

// Phasors fills dst with Phasor(delays[i], freqHz) and returns it. dst is
// allocated when it is too short.
func Phasors(dst []complex128, delays []float64, freqHz float64) []complex128 {
	if cap(dst) < len(delays) {
		dst = make([]complex128, len(delays))
	}
	dst = dst[:len(delays)]
	for i, d := range delays {
		dst[i] = Phasor(d, freqHz)
	}
	return dst
}
