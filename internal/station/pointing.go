package station

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/rjboer/gainmodel/internal/dsp"
)

// Direction converts a pointing (azimuth, zenith) in radians to a unit vector
// in the station ENU frame.
//
// Zenith is measured from +Z (up). Azimuth is measured from +X (east)
// towards +Y (north):
//
//	u = (sin ze cos az, sin ze sin az, cos ze)
//
// At ze = 0 the result is exactly (0, 0, 1) whatever the azimuth.
func Direction(az, ze float64) (r3.Vec, error) {
	if math.IsNaN(az) || math.IsInf(az, 0) || math.IsNaN(ze) || math.IsInf(ze, 0) {
		return r3.Vec{}, &GeometryError{Azimuth: az, Zenith: ze, Reason: "non-finite angle"}
	}
	if ze < 0 || ze > math.Pi {
		return r3.Vec{}, &GeometryError{Azimuth: az, Zenith: ze, Reason: "zenith outside [0, pi]"}
	}
	sinZe, cosZe := math.Sincos(ze)
	sinAz, cosAz := math.Sincos(az)
	return r3.Vec{X: sinZe * cosAz, Y: sinZe * sinAz, Z: cosZe}, nil
}

// GeometricDelay returns, per antenna, the wavefront arrival time relative
// to the phase centre (the frame origin) for a source in direction (az, ze):
// -(p·u)/c seconds. Antennas displaced towards the source see it earlier.
func (s *Station) GeometricDelay(az, ze float64) ([]float64, error) {
	u, err := Direction(az, ze)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(s.antennas))
	for i, a := range s.antennas {
		out[i] = -r3.Dot(a.Position, u) / dsp.SpeedOfLight
	}
	return out, nil
}

// RequiredDigitalDelay returns the delay in seconds each antenna must apply
// so that a wavefront from (az, ze) adds coherently: the negated geometric
// delay, (p·u)/c. The slice is indexed like Antennas and freshly allocated.
func (s *Station) RequiredDigitalDelay(az, ze float64) ([]float64, error) {
	geo, err := s.GeometricDelay(az, ze)
	if err != nil {
		return nil, err
	}
	for i := range geo {
		geo[i] = -geo[i]
	}
	return geo, nil
}

// RequiredDigitalDelayInSamples is RequiredDigitalDelay in units of the
// sample interval.
func (s *Station) RequiredDigitalDelayInSamples(az, ze float64) ([]float64, error) {
	d, err := s.RequiredDigitalDelay(az, ze)
	if err != nil {
		return nil, err
	}
	for i := range d {
		d[i] /= s.sampleInterval
	}
	return d, nil
}
