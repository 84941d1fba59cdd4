package h5

import (
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/rjboer/gainmodel/internal/gain"
	"github.com/rjboer/gainmodel/internal/gainio"
)

// Read loads a gain model written by Write. The stored precision is
// detected from the compound element size.
func Read(path string) (m Model, err error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return Model{}, &gainio.IoError{Op: "open gain model", Path: path, Err: err}
	}
	defer closeInto(&err, f.Close)

	if m.FreqHz, m.Attrs, err = readFreq(f); err != nil {
		return Model{}, err
	}
	if m.XPol, m.Precision, err = readCube(f, XPolDataset); err != nil {
		return Model{}, err
	}
	if m.YPol, _, err = readCube(f, YPolDataset); err != nil {
		return Model{}, err
	}
	return m, nil
}

func readFreq(f *hdf5.File) (freq []float64, attrs Attributes, err error) {
	ds, err := f.OpenDataset(FreqDataset)
	if err != nil {
		return nil, Attributes{}, fmt.Errorf("open dataset %q: %w", FreqDataset, err)
	}
	defer closeInto(&err, ds.Close)

	dims, err := datasetDims(ds)
	if err != nil {
		return nil, Attributes{}, fmt.Errorf("dataset %q: %w", FreqDataset, err)
	}
	if len(dims) != 1 {
		return nil, Attributes{}, fmt.Errorf("dataset %q: rank %d, want 1", FreqDataset, len(dims))
	}
	dtype, err := ds.Datatype()
	if err != nil {
		return nil, Attributes{}, fmt.Errorf("dataset %q datatype: %w", FreqDataset, err)
	}
	size := dtype.Size()
	if cerr := dtype.Close(); cerr != nil {
		return nil, Attributes{}, cerr
	}
	switch size {
	case 4:
		narrow := make([]float32, dims[0])
		if err := ds.Read(&narrow); err != nil {
			return nil, Attributes{}, fmt.Errorf("read dataset %q: %w", FreqDataset, err)
		}
		freq = make([]float64, len(narrow))
		for i, v := range narrow {
			freq[i] = float64(v)
		}
	case 8:
		freq = make([]float64, dims[0])
		if err := ds.Read(&freq); err != nil {
			return nil, Attributes{}, fmt.Errorf("read dataset %q: %w", FreqDataset, err)
		}
	default:
		return nil, Attributes{}, fmt.Errorf("dataset %q: unsupported element size %d", FreqDataset, size)
	}
	for _, a := range []struct {
		name string
		dst  *float64
	}{
		{attrInterval, &attrs.SampleInterval},
		{attrAzimuth, &attrs.AzimuthDeg},
		{attrZenith, &attrs.ZenithDeg},
	} {
		if err := readScalarAttr(ds, a.name, a.dst); err != nil {
			return nil, Attributes{}, err
		}
	}
	return freq, attrs, nil
}

func readScalarAttr(ds *hdf5.Dataset, name string, dst *float64) (err error) {
	attr, err := ds.OpenAttribute(name)
	if err != nil {
		return fmt.Errorf("open attribute %q: %w", name, err)
	}
	defer closeInto(&err, attr.Close)
	if err := attr.Read(dst, hdf5.T_NATIVE_DOUBLE); err != nil {
		return fmt.Errorf("read attribute %q: %w", name, err)
	}
	return nil
}

func readCube(f *hdf5.File, name string) (c *gain.Cube, p gainio.Precision, err error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, 0, fmt.Errorf("open dataset %q: %w", name, err)
	}
	defer closeInto(&err, ds.Close)

	dims, err := datasetDims(ds)
	if err != nil {
		return nil, 0, fmt.Errorf("dataset %q: %w", name, err)
	}
	if len(dims) != 3 {
		return nil, 0, fmt.Errorf("dataset %q: rank %d, want 3", name, len(dims))
	}
	n := int(dims[0] * dims[1] * dims[2])

	dtype, err := ds.Datatype()
	if err != nil {
		return nil, 0, fmt.Errorf("dataset %q datatype: %w", name, err)
	}
	size := dtype.Size()
	if cerr := dtype.Close(); cerr != nil {
		return nil, 0, cerr
	}

	values := make([]complex128, n)
	switch size {
	case 8:
		p = gainio.Float32
		cells := make([]cell32, n)
		if err := ds.Read(&cells); err != nil {
			return nil, 0, fmt.Errorf("read dataset %q: %w", name, err)
		}
		for i, v := range cells {
			values[i] = complex(float64(v.Re), float64(v.Im))
		}
	case 16:
		p = gainio.Float64
		cells := make([]cell64, n)
		if err := ds.Read(&cells); err != nil {
			return nil, 0, fmt.Errorf("read dataset %q: %w", name, err)
		}
		for i, v := range cells {
			values[i] = complex(v.Re, v.Im)
		}
	default:
		return nil, 0, fmt.Errorf("dataset %q: unsupported element size %d", name, size)
	}

	c, err = gain.FromValues(int(dims[0]), int(dims[1]), int(dims[2]), values)
	if err != nil {
		return nil, 0, fmt.Errorf("dataset %q: %w", name, err)
	}
	return c, p, nil
}

func datasetDims(ds *hdf5.Dataset) (dims []uint, err error) {
	space := ds.Space()
	defer closeInto(&err, space.Close)
	dims, _, err = space.SimpleExtentDims()
	return dims, err
}
