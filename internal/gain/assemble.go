package gain

import (
	"fmt"
	"math"

	"github.com/rjboer/gainmodel/internal/dsp"
	"github.com/rjboer/gainmodel/internal/station"
)

// Pointing is a sky direction in radians, using the station convention
// (zenith from vertical, azimuth from east towards north).
type Pointing struct {
	Azimuth float64
	Zenith  float64
}

// PointingDeg builds a Pointing from angles in degrees.
func PointingDeg(azDeg, zeDeg float64) Pointing {
	return Pointing{Azimuth: dsp.DegToRad(azDeg), Zenith: dsp.DegToRad(zeDeg)}
}

// Assemble computes the gain cube for a single static pointing replicated
// over nTime time steps.
//
// Every fine channel is steered at the centre frequency of its coarse
// channel, not at its own frequency.
func Assemble(st *station.Station, p Pointing, nTime int) (*Cube, error) {
	if nTime < 1 {
		return nil, ErrTimeAxis
	}
	delays, err := st.RequiredDigitalDelay(p.Azimuth, p.Zenith)
	if err != nil {
		return nil, fmt.Errorf("pointing delay: %w", err)
	}
	b := newBuilder(nTime, st.NumFineChannels(), st.NumAntennas())
	if err := b.fillStep(0, delays, st.CoarseFrequencyOfFineChannelHz()); err != nil {
		return nil, err
	}
	for t := 1; t < nTime; t++ {
		b.repeatStep(t, 0)
	}
	return b.cube(), nil
}

// Unity returns an unsteered reference cube: every cell is 1+0i.
func Unity(st *station.Station, nTime int) (*Cube, error) {
	if nTime < 1 {
		return nil, ErrTimeAxis
	}
	b := newBuilder(nTime, st.NumFineChannels(), st.NumAntennas())
	for i := range b.c.data {
		b.c.data[i] = 1
	}
	for t := range b.filled {
		b.filled[t] = true
	}
	return b.cube(), nil
}

// AssembleTrack computes one time step per pointing, recomputing the delays
// for each step.
func AssembleTrack(st *station.Station, track []Pointing) (*Cube, error) {
	if len(track) == 0 {
		return nil, ErrTimeAxis
	}
	coarseHz := st.CoarseFrequencyOfFineChannelHz()
	b := newBuilder(len(track), st.NumFineChannels(), st.NumAntennas())
	for t, p := range track {
		delays, err := st.RequiredDigitalDelay(p.Azimuth, p.Zenith)
		if err != nil {
			return nil, fmt.Errorf("pointing delay at time step %d: %w", t, err)
		}
		if err := b.fillStep(t, delays, coarseHz); err != nil {
			return nil, err
		}
	}
	return b.cube(), nil
}

// builder owns the cube storage until every time step has been written.
type builder struct {
	c      *Cube
	filled []bool
}

func newBuilder(nTime, nFreq, nAnt int) *builder {
	return &builder{
		c: &Cube{
			nTime: nTime,
			nFreq: nFreq,
			nAnt:  nAnt,
			data:  make([]complex128, nTime*nFreq*nAnt),
		},
		filled: make([]bool, nTime),
	}
}

func (b *builder) fillStep(t int, delays, freqHz []float64) error {
	c := b.c
	if len(delays) != c.nAnt || len(freqHz) != c.nFreq {
		return fmt.Errorf("gain: step %d has %d delays and %d frequencies, want %d and %d",
			t, len(delays), len(freqHz), c.nAnt, c.nFreq)
	}
	for f, hz := range freqHz {
		start := c.index(t, f, 0)
		row := dsp.Phasors(c.data[start:start+c.nAnt], delays, hz)
		for a, g := range row {
			if math.IsNaN(real(g)) || math.IsNaN(imag(g)) {
				return &CellError{Time: t, Channel: f, Antenna: a, Delay: delays[a], FreqHz: hz}
			}
		}
	}
	b.filled[t] = true
	return nil
}

func (b *builder) repeatStep(dst, src int) {
	n := b.c.nFreq * b.c.nAnt
	copy(b.c.data[dst*n:(dst+1)*n], b.c.data[src*n:(src+1)*n])
	b.filled[dst] = b.filled[src]
}

// cube hands out the finished cube. It panics if a time step was never
// written; callers only reach it after filling every step.
func (b *builder) cube() *Cube {
	for t, ok := range b.filled {
		if !ok {
			panic(fmt.Sprintf("gain: time step %d left unpopulated", t))
		}
	}
	c := b.c
	b.c = nil
	return c
}
