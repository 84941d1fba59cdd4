package gain

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rjboer/gainmodel/internal/dsp"
	"github.com/rjboer/gainmodel/internal/station"
)

// Response returns the normalized array response of time step t and fine
// channel f towards unit vector dir:
//
//	(1/N) Σ_a g[t,f,a] · exp(+2πi·fc·(p_a·dir)/c)
//
// where fc is the coarse centre frequency the channel was steered at. A
// plane wave from dir reaches antenna a (p_a·dir)/c seconds early, which is
// the exp(+2πi…) term. In the steered direction the magnitude is 1.
func Response(st *station.Station, c *Cube, t, f int, dir r3.Vec) complex128 {
	fc := st.CoarseFrequencyOfFineChannelHz()[f]
	var sum complex128
	for a, pos := range st.Positions() {
		arrival := r3.Dot(pos, dir) / dsp.SpeedOfLight
		sum += c.At(t, f, a) * dsp.Phasor(-arrival, fc)
	}
	return sum / complex(float64(st.NumAntennas()), 0)
}
