package gain

import (
	"gonum.org/v1/gonum/mat"
)

// Cube is a fully populated (time × frequency × antenna) gain model.
// Values are read-only once a Cube is returned by Assemble or AssembleTrack.
type Cube struct {
	nTime, nFreq, nAnt int
	data               []complex128 // row-major (t, f, a)
}

// Dims returns the time, frequency and antenna axis lengths.
func (c *Cube) Dims() (nTime, nFreq, nAnt int) {
	return c.nTime, c.nFreq, c.nAnt
}

// Len returns the number of cells.
func (c *Cube) Len() int { return len(c.data) }

// At returns the gain for time step t, fine channel f and antenna a.
func (c *Cube) At(t, f, a int) complex128 {
	if t < 0 || t >= c.nTime || f < 0 || f >= c.nFreq || a < 0 || a >= c.nAnt {
		panic("gain: index out of range")
	}
	return c.data[c.index(t, f, a)]
}

// Snapshot returns a copy of time step t as a frequency × antenna matrix.
func (c *Cube) Snapshot(t int) *mat.CDense {
	if t < 0 || t >= c.nTime {
		panic("gain: time index out of range")
	}
	n := c.nFreq * c.nAnt
	data := make([]complex128, n)
	copy(data, c.data[t*n:(t+1)*n])
	return mat.NewCDense(c.nFreq, c.nAnt, data)
}

// Equal reports whether both cubes have the same shape and identical cells.
func (c *Cube) Equal(o *Cube) bool {
	if c.nTime != o.nTime || c.nFreq != o.nFreq || c.nAnt != o.nAnt {
		return false
	}
	for i := range c.data {
		if c.data[i] != o.data[i] {
			return false
		}
	}
	return true
}

func (c *Cube) index(t, f, a int) int {
	return (t*c.nFreq+f)*c.nAnt + a
}

// FromValues builds a Cube from row-major (t, f, a) values, for readers that
// load a previously written model. values must hold exactly
// nTime*nFreq*nAnt cells.
func FromValues(nTime, nFreq, nAnt int, values []complex128) (*Cube, error) {
	if nTime <= 0 || nFreq <= 0 || nAnt <= 0 {
		return nil, &ShapeError{NTime: nTime, NFreq: nFreq, NAnt: nAnt, Got: len(values)}
	}
	if len(values) != nTime*nFreq*nAnt {
		return nil, &ShapeError{NTime: nTime, NFreq: nFreq, NAnt: nAnt, Got: len(values)}
	}
	return &Cube{
		nTime: nTime,
		nFreq: nFreq,
		nAnt:  nAnt,
		data:  append([]complex128(nil), values...),
	}, nil
}
