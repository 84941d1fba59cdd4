package gain

import (
	"errors"
	"fmt"
)

// ErrTimeAxis is returned when a cube is requested with no time steps.
var ErrTimeAxis = errors.New("gain: time axis must have at least one step")

// ShapeError reports values that do not fill a cube of the given shape.
type ShapeError struct {
	NTime, NFreq, NAnt int
	Got                int
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("gain: %d values do not fill a %dx%dx%d cube", e.Got, e.NTime, e.NFreq, e.NAnt)
}

// CellError reports a gain cell that could not be computed.
type CellError struct {
	Time, Channel, Antenna int
	Delay, FreqHz          float64
}

func (e *CellError) Error() string {
	return fmt.Sprintf("gain: non-finite phasor at t=%d channel=%d antenna=%d (delay=%g s, freq=%g Hz)",
		e.Time, e.Channel, e.Antenna, e.Delay, e.FreqHz)
}
