package station

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Antenna is a single receiving element. Its identity is its index in the
// station's antenna sequence.
type Antenna struct {
	Position r3.Vec // metres, station ENU frame
}

// Station is the immutable station model: antenna positions, sampling
// interval and the derived channelization. It is safe for concurrent use.
type Station struct {
	antennas       []Antenna
	sampleInterval float64

	nCoarse      int
	selected     []int
	oversampling float64
	nFine        int
	nKept        int

	fineFreq     []float64 // fs units
	coarseOfFine []float64 // fs units
}

// FromConfig validates cfg and builds the station model. It performs no I/O.
func FromConfig(cfg Config) (*Station, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	st := &Station{
		antennas:       make([]Antenna, len(cfg.Antennas)),
		sampleInterval: cfg.Interval(),
		nCoarse:        cfg.Coarse.NChannels,
		selected:       append([]int(nil), cfg.Coarse.Selected...),
		oversampling:   cfg.Coarse.oversampling(),
		nFine:          cfg.Fine.NChannels,
		nKept:          cfg.Fine.kept(),
	}
	for i, p := range cfg.Antennas {
		st.antennas[i] = Antenna{Position: r3.Vec{X: p[0], Y: p[1], Z: p[2]}}
	}
	st.fineFreq, st.coarseOfFine = channelGrid(st.nCoarse, st.selected, st.oversampling, st.nFine, st.nKept)
	if len(st.fineFreq) == 0 {
		return nil, configErr("fine.n_kept", "channelization yields no fine channels")
	}
	return st, nil
}

// Antennas returns a copy of the antenna sequence in index order.
func (s *Station) Antennas() []Antenna {
	return append([]Antenna(nil), s.antennas...)
}

// Positions returns the antenna positions in index order.
func (s *Station) Positions() []r3.Vec {
	out := make([]r3.Vec, len(s.antennas))
	for i, a := range s.antennas {
		out[i] = a.Position
	}
	return out
}

func (s *Station) NumAntennas() int { return len(s.antennas) }

// SampleInterval returns the sample interval in seconds. It is the single
// constant converting fs-normalized frequencies to Hz.
func (s *Station) SampleInterval() float64 { return s.sampleInterval }

// SampleRate returns the sampling frequency in Hz.
func (s *Station) SampleRate() float64 { return 1 / s.sampleInterval }

// NumCoarseChannels returns the number of selected coarse channels.
func (s *Station) NumCoarseChannels() int { return len(s.selected) }

// NumFineChannels returns the total number of fine channels kept.
func (s *Station) NumFineChannels() int { return len(s.fineFreq) }

// FineChannelsPerCoarse returns the number of fine channels kept per coarse channel.
func (s *Station) FineChannelsPerCoarse() int { return s.nKept }
