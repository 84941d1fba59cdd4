// Package h5 stores gain models in HDF5 files.
//
// A file holds, at the root group:
//
//	"freq (Hz)"  1-D float, one value per fine channel
//	"gain_xpol"  3-D compound {re, im} (time, freq, antenna)
//	"gain_ypol"  same shape as gain_xpol
//
// The frequency axis and the compound members are float32 or float64
// depending on the requested precision. Pointing metadata is attached to
// "freq (Hz)" as float64 attributes.
package h5

import (
	"errors"
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/rjboer/gainmodel/internal/gain"
	"github.com/rjboer/gainmodel/internal/gainio"
)

const (
	FreqDataset  = "freq (Hz)"
	XPolDataset  = "gain_xpol"
	YPolDataset  = "gain_ypol"
	attrInterval = "sample_interval"
	attrAzimuth  = "azimuth_deg"
	attrZenith   = "zenith_deg"
)

type cell64 struct {
	Re float64 `hdf5:"re"`
	Im float64 `hdf5:"im"`
}

type cell32 struct {
	Re float32 `hdf5:"re"`
	Im float32 `hdf5:"im"`
}

// Attributes is the pointing metadata stored with the frequency axis.
type Attributes struct {
	SampleInterval float64
	AzimuthDeg     float64
	ZenithDeg      float64
}

// Model is the content of a gain model file.
type Model struct {
	FreqHz    []float64
	XPol      *gain.Cube
	YPol      *gain.Cube
	Precision gainio.Precision
	Attrs     Attributes
}

func (m Model) validate() error {
	if m.XPol == nil || m.YPol == nil {
		return errors.New("h5: both polarizations are required")
	}
	xt, xf, xa := m.XPol.Dims()
	yt, yf, ya := m.YPol.Dims()
	if xt != yt || xf != yf || xa != ya {
		return fmt.Errorf("h5: polarization shapes differ: %dx%dx%d vs %dx%dx%d", xt, xf, xa, yt, yf, ya)
	}
	if xf != len(m.FreqHz) {
		return fmt.Errorf("h5: frequency axis has %d values, cube has %d channels", len(m.FreqHz), xf)
	}
	return nil
}

// Write commits m to path. The file only appears at path once every dataset
// has been written and closed.
func Write(path string, m Model) error {
	if err := m.validate(); err != nil {
		return err
	}
	return gainio.Commit(path, func(tmpPath string) error {
		return writeFile(tmpPath, m)
	})
}

func writeFile(path string, m Model) (err error) {
	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("create hdf5 file: %w", err)
	}
	defer closeInto(&err, f.Close)

	if err := writeFreq(f, m.FreqHz, m.Precision, m.Attrs); err != nil {
		return err
	}
	if err := writeCube(f, XPolDataset, m.XPol, m.Precision); err != nil {
		return err
	}
	return writeCube(f, YPolDataset, m.YPol, m.Precision)
}

func writeFreq(f *hdf5.File, freq []float64, p gainio.Precision, attrs Attributes) (err error) {
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(len(freq))}, nil)
	if err != nil {
		return fmt.Errorf("dataspace %q: %w", FreqDataset, err)
	}
	defer closeInto(&err, space.Close)

	dtype, data := hdf5.T_NATIVE_DOUBLE, any(nil)
	switch p {
	case gainio.Float32:
		narrow := make([]float32, len(freq))
		for i, v := range freq {
			narrow[i] = float32(v)
		}
		dtype, data = hdf5.T_NATIVE_FLOAT, &narrow
	default:
		wide := append([]float64(nil), freq...)
		data = &wide
	}

	ds, err := f.CreateDataset(FreqDataset, dtype, space)
	if err != nil {
		return fmt.Errorf("create dataset %q: %w", FreqDataset, err)
	}
	defer closeInto(&err, ds.Close)

	if err := ds.Write(data); err != nil {
		return fmt.Errorf("write dataset %q: %w", FreqDataset, err)
	}
	for _, a := range []struct {
		name  string
		value float64
	}{
		{attrInterval, attrs.SampleInterval},
		{attrAzimuth, attrs.AzimuthDeg},
		{attrZenith, attrs.ZenithDeg},
	} {
		if err := writeScalarAttr(ds, a.name, a.value); err != nil {
			return err
		}
	}
	return nil
}

func writeScalarAttr(ds *hdf5.Dataset, name string, value float64) (err error) {
	space, err := hdf5.CreateDataspace(hdf5.S_SCALAR)
	if err != nil {
		return fmt.Errorf("attribute %q dataspace: %w", name, err)
	}
	defer closeInto(&err, space.Close)

	attr, err := ds.CreateAttribute(name, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return fmt.Errorf("create attribute %q: %w", name, err)
	}
	defer closeInto(&err, attr.Close)

	v := value
	if err := attr.Write(&v, hdf5.T_NATIVE_DOUBLE); err != nil {
		return fmt.Errorf("write attribute %q: %w", name, err)
	}
	return nil
}

func writeCube(f *hdf5.File, name string, c *gain.Cube, p gainio.Precision) (err error) {
	nt, nf, na := c.Dims()
	space, err := hdf5.CreateSimpleDataspace([]uint{uint(nt), uint(nf), uint(na)}, nil)
	if err != nil {
		return fmt.Errorf("dataspace %q: %w", name, err)
	}
	defer closeInto(&err, space.Close)

	var (
		sample any
		data   any
		cells  = make([]cell64, 0, c.Len())
	)
	for t := 0; t < nt; t++ {
		snap := c.Snapshot(t)
		for fi := 0; fi < nf; fi++ {
			for a := 0; a < na; a++ {
				v := snap.At(fi, a)
				cells = append(cells, cell64{Re: real(v), Im: imag(v)})
			}
		}
	}
	switch p {
	case gainio.Float32:
		narrow := make([]cell32, len(cells))
		for i, v := range cells {
			narrow[i] = cell32{Re: float32(v.Re), Im: float32(v.Im)}
		}
		sample, data = cell32{}, &narrow
	default:
		sample, data = cell64{}, &cells
	}

	dtype, err := hdf5.NewDatatypeFromValue(sample)
	if err != nil {
		return fmt.Errorf("compound type for %q: %w", name, err)
	}
	defer closeInto(&err, dtype.Close)

	ds, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return fmt.Errorf("create dataset %q: %w", name, err)
	}
	defer closeInto(&err, ds.Close)

	if err := ds.Write(data); err != nil {
		return fmt.Errorf("write dataset %q: %w", name, err)
	}
	return nil
}

// closeInto runs closeFn and records its error in *err unless an earlier
// error is already set.
func closeInto(err *error, closeFn func() error) {
	if cerr := closeFn(); cerr != nil && *err == nil {
		*err = cerr
	}
}
