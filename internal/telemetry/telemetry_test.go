package telemetry

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/rjboer/gainmodel/internal/logging"
)

func sampleSummary() Summary {
	return Summary{
		RunID:          "2f1c6c1e-8d4e-4a55-9a53-0d5c3c1f6e11",
		AzimuthDeg:     30,
		ZenithDeg:      10,
		Antennas:       4,
		FineChannels:   96,
		CoarseChannels: 3,
		TimeSteps:      1,
		MaxDelay:       2.5e-9,
		Duration:       1500 * time.Microsecond,
		Finished:       time.Unix(1700000000, 0),
	}
}

func TestPromReporterWritesTextfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gainmodel.prom")
	r := NewPromReporter(path)
	if err := r.Report(sampleSummary()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}

	if got := testutil.ToFloat64(r.antennas); got != 4 {
		t.Fatalf("antennas gauge = %v", got)
	}
	n, err := testutil.GatherAndCount(r.Gatherer(), "gainmodel_pointing_degrees")
	if err != nil || n != 2 {
		t.Fatalf("pointing series = %d, %v", n, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)
	for _, want := range []string{
		"gainmodel_antennas 4",
		"gainmodel_fine_channels 96",
		`gainmodel_pointing_degrees{angle="zenith"} 10`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("textfile missing %q:\n%s", want, out)
		}
	}
}

func TestStdoutReporterLogsSummary(t *testing.T) {
	buf := &strings.Builder{}
	r := NewStdoutReporter(logging.New(logging.Info, logging.Text, buf))
	if err := r.Report(sampleSummary()); err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "gain model written") || !strings.Contains(out, "antennas=4") {
		t.Fatalf("unexpected log output: %q", out)
	}
}

type failingReporter struct{ err error }

func (f failingReporter) Report(Summary) error { return f.err }

type countingReporter struct{ n int }

func (c *countingReporter) Report(Summary) error {
	c.n++
	return nil
}

func TestMultiReporterJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	counter := &countingReporter{}
	m := MultiReporter{failingReporter{err: boom}, nil, counter}
	err := m.Report(sampleSummary())
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if counter.n != 1 {
		t.Fatalf("later reporters should still run, got %d calls", counter.n)
	}
}
