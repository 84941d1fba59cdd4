package h5

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rjboer/gainmodel/internal/gain"
	"github.com/rjboer/gainmodel/internal/gainio"
	"github.com/rjboer/gainmodel/internal/station"
)

func testModel(t *testing.T, p gainio.Precision) Model {
	t.Helper()
	st, err := station.FromConfig(station.Config{
		SampleRate: 800e6,
		Coarse:     station.CoarseConfig{NChannels: 512, Selected: []int{204, 205}},
		Fine:       station.FineConfig{NChannels: 4},
		Antennas:   [][]float64{{0, 0, 0}, {2.1, 0.4, 0}, {-1.3, 3.3, 0.05}},
	})
	if err != nil {
		t.Fatalf("FromConfig failed: %v", err)
	}
	cube, err := gain.Assemble(st, gain.PointingDeg(45, 30), 2)
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return Model{
		FreqHz:    st.FineChannelFrequenciesHz(),
		XPol:      cube,
		YPol:      cube,
		Precision: p,
		Attrs:     Attributes{SampleInterval: st.SampleInterval(), AzimuthDeg: 45, ZenithDeg: 30},
	}
}

func TestRoundTripFloat64(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gain_model.h5")
	want := testModel(t, gainio.Float64)
	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Precision != gainio.Float64 {
		t.Fatalf("precision %v, want f64", got.Precision)
	}
	if len(got.FreqHz) != len(want.FreqHz) {
		t.Fatalf("freq length %d, want %d", len(got.FreqHz), len(want.FreqHz))
	}
	for i := range want.FreqHz {
		if got.FreqHz[i] != want.FreqHz[i] {
			t.Fatalf("freq[%d] = %v, want %v", i, got.FreqHz[i], want.FreqHz[i])
		}
	}
	if !got.XPol.Equal(want.XPol) || !got.YPol.Equal(want.YPol) {
		t.Fatalf("gain cubes differ after round trip")
	}
	if got.Attrs != want.Attrs {
		t.Fatalf("attributes %+v, want %+v", got.Attrs, want.Attrs)
	}
}

func TestRoundTripFloat32(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gain_model.h5")
	want := testModel(t, gainio.Float32)
	if err := Write(path, want); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, err := Read(path)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if got.Precision != gainio.Float32 {
		t.Fatalf("precision %v, want f32", got.Precision)
	}
	nt, nf, na := want.XPol.Dims()
	for ti := 0; ti < nt; ti++ {
		for f := 0; f < nf; f++ {
			for a := 0; a < na; a++ {
				w, v := want.XPol.At(ti, f, a), got.XPol.At(ti, f, a)
				if float32(real(w)) != float32(real(v)) || float32(imag(w)) != float32(imag(v)) {
					t.Fatalf("cell (%d,%d,%d): %v, want %v at float32 precision", ti, f, a, v, w)
				}
				if math.Abs(real(v)-real(w)) > 1e-6 || math.Abs(imag(v)-imag(w)) > 1e-6 {
					t.Fatalf("cell (%d,%d,%d) drifted: %v vs %v", ti, f, a, v, w)
				}
			}
		}
	}
	if len(got.FreqHz) != len(want.FreqHz) {
		t.Fatalf("freq length %d, want %d", len(got.FreqHz), len(want.FreqHz))
	}
	for i, f := range got.FreqHz {
		if f != float64(float32(want.FreqHz[i])) {
			t.Fatalf("freq[%d] = %v, want the float32 value of %v", i, f, want.FreqHz[i])
		}
	}
}

func TestWriteRejectsMismatchedShapes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gain_model.h5")
	m := testModel(t, gainio.Float64)
	m.FreqHz = m.FreqHz[:3]
	if err := Write(path, m); err == nil {
		t.Fatalf("expected shape error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("failed write left %d files behind", len(entries))
	}
}
