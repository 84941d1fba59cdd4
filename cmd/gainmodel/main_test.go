package main

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rjboer/gainmodel/internal/gainio"
	"github.com/rjboer/gainmodel/internal/gainio/h5"
	"github.com/rjboer/gainmodel/internal/logging"
	"github.com/rjboer/gainmodel/internal/station"
)

const stationYAML = `sample_interval: 1.25e-9
coarse:
  n_channels: 512
  selected: [120, 121]
fine:
  n_channels: 4
antennas:
  - [0, 0, 0]
  - [1.5, 0, 0]
  - [0, 2, 0.1]
`

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := parseConfig([]string{"-cfg", "s.yaml", "-out", "out", "-az", "30", "-ze", "10"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.stationPath != "s.yaml" || cfg.outDir != "out" || cfg.azimuthDeg != 30 || cfg.zenithDeg != 10 {
		t.Fatalf("unexpected config: %#v", cfg)
	}
	if cfg.precision != gainio.Float64 || cfg.nTime != 1 || cfg.logLevel != "info" || cfg.logFormat != "text" {
		t.Fatalf("unexpected defaults: %#v", cfg)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("GAINMODEL_CFG", "env.yaml")
	t.Setenv("GAINMODEL_OUT", "env-out")
	t.Setenv("GAINMODEL_AZ", "12.5")
	t.Setenv("GAINMODEL_ZE", "5")
	t.Setenv("GAINMODEL_PRECISION", "f32")
	t.Setenv("GAINMODEL_METRICS_FILE", "run.prom")

	cfg, err := parseConfig([]string{"-ze", "7"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.stationPath != "env.yaml" || cfg.outDir != "env-out" || cfg.azimuthDeg != 12.5 {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
	if cfg.zenithDeg != 7 {
		t.Fatalf("flag should win over env, got ze=%v", cfg.zenithDeg)
	}
	if cfg.precision != gainio.Float32 || cfg.metricsFile != "run.prom" {
		t.Fatalf("unexpected precision/metrics: %#v", cfg)
	}
}

func TestParseConfigProfile(t *testing.T) {
	profile := filepath.Join(t.TempDir(), "run.toml")
	content := "cfg = \"profile.yaml\"\nout = \"profile-out\"\naz = 270\nze = 45\nntime = 4\nlog-level = \"debug\"\n"
	if err := os.WriteFile(profile, []byte(content), 0o644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	cfg, err := parseConfig([]string{"-profile", profile, "-out", "flag-out"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.stationPath != "profile.yaml" || cfg.azimuthDeg != 270 || cfg.zenithDeg != 45 || cfg.nTime != 4 || cfg.logLevel != "debug" {
		t.Fatalf("profile values not applied: %#v", cfg)
	}
	if cfg.outDir != "flag-out" {
		t.Fatalf("flag should win over profile, got %q", cfg.outDir)
	}
}

func TestParseConfigUnityMakesPointingOptional(t *testing.T) {
	cfg, err := parseConfig([]string{"-cfg", "s.yaml", "-out", "out", "-unity"}, io.Discard)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if !cfg.unity || cfg.azimuthDeg != 0 || cfg.zenithDeg != 0 {
		t.Fatalf("unexpected unity config: %#v", cfg)
	}
}

func TestParseConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "missing cfg", args: []string{"-out", "o", "-az", "0", "-ze", "0"}},
		{name: "missing out", args: []string{"-cfg", "c", "-az", "0", "-ze", "0"}},
		{name: "missing ze", args: []string{"-cfg", "c", "-out", "o", "-az", "0"}},
		{name: "bad az", args: []string{"-cfg", "c", "-out", "o", "-az", "north", "-ze", "0"}},
		{name: "bad precision", args: []string{"-cfg", "c", "-out", "o", "-az", "0", "-ze", "0", "-precision", "f16"}},
		{name: "zero ntime", args: []string{"-cfg", "c", "-out", "o", "-az", "0", "-ze", "0", "-ntime", "0"}},
		{name: "positional", args: []string{"-cfg", "c", "-out", "o", "-az", "0", "-ze", "0", "extra"}},
		{name: "missing profile", args: []string{"-profile", "/nonexistent/run.toml"}},
	}
	for _, tt := range tests {
		if _, err := parseConfig(tt.args, io.Discard); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func writeStation(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "station.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write station config: %v", err)
	}
	return path
}

func TestGenerateWritesCompleteOutput(t *testing.T) {
	out := filepath.Join(t.TempDir(), "nested", "out")
	metrics := filepath.Join(t.TempDir(), "gainmodel.prom")
	cfg := cliConfig{
		stationPath: writeStation(t, stationYAML),
		outDir:      out,
		azimuthDeg:  30,
		zenithDeg:   20,
		precision:   gainio.Float64,
		nTime:       1,
		metricsFile: metrics,
	}
	logs := &strings.Builder{}
	logger := logging.New(logging.Debug, logging.Text, logs)
	if err := generate(cfg, logger, time.Now); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	layout, err := os.ReadFile(filepath.Join(out, layoutName))
	if err != nil {
		t.Fatalf("read layout: %v", err)
	}
	if string(layout) != "0,0,0\n1.5,0,0\n0,2,0.1\n" {
		t.Fatalf("unexpected layout:\n%s", layout)
	}

	model, err := h5.Read(filepath.Join(out, modelName))
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	nt, nf, na := model.XPol.Dims()
	if nt != 1 || nf != 8 || na != 3 || len(model.FreqHz) != nf {
		t.Fatalf("unexpected model shape %dx%dx%d, %d freqs", nt, nf, na, len(model.FreqHz))
	}
	if !model.XPol.Equal(model.YPol) {
		t.Fatalf("polarizations should be identical")
	}

	m, err := gainio.ReadManifest(filepath.Join(out, gainio.ManifestName))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	if m.Antennas != 3 || m.FineChannels != 8 || m.Precision != "f64" {
		t.Fatalf("unexpected manifest: %#v", m)
	}
	if _, err := os.Stat(metrics); err != nil {
		t.Fatalf("metrics textfile missing: %v", err)
	}
	if !strings.Contains(logs.String(), "gain model written") {
		t.Fatalf("summary not logged: %s", logs.String())
	}
	for _, want := range []string{"steering phase", "coarse_channel=120", "coarse_channel=121", "phase_deg=["} {
		if !strings.Contains(logs.String(), want) {
			t.Fatalf("debug log missing %q: %s", want, logs.String())
		}
	}
}

func TestGenerateConfigurationErrorWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	bad := strings.Replace(stationYAML, "sample_interval: 1.25e-9", "sample_interval: -1", 1)
	cfg := cliConfig{stationPath: writeStation(t, bad), outDir: out, nTime: 1}
	err := generate(cfg, logging.New(logging.Info, logging.Text, io.Discard), time.Now)
	if !errors.Is(err, station.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output directory should not exist after a configuration error")
	}
}

func TestGenerateGeometryError(t *testing.T) {
	cfg := cliConfig{stationPath: writeStation(t, stationYAML), outDir: t.TempDir(), zenithDeg: 200, nTime: 1}
	err := generate(cfg, logging.New(logging.Info, logging.Text, io.Discard), time.Now)
	if !errors.Is(err, station.ErrGeometry) {
		t.Fatalf("expected geometry error, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(cfg.outDir, gainio.ManifestName)); !os.IsNotExist(err) {
		t.Fatalf("manifest written for a failed run")
	}
}

func TestGenerateUnityModel(t *testing.T) {
	out := t.TempDir()
	cfg := cliConfig{stationPath: writeStation(t, stationYAML), outDir: out, nTime: 2, unity: true}
	if err := generate(cfg, logging.New(logging.Info, logging.Text, io.Discard), time.Now); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	model, err := h5.Read(filepath.Join(out, modelName))
	if err != nil {
		t.Fatalf("read model: %v", err)
	}
	nt, nf, na := model.XPol.Dims()
	for ti := 0; ti < nt; ti++ {
		for f := 0; f < nf; f++ {
			for a := 0; a < na; a++ {
				if g := model.XPol.At(ti, f, a); g != 1 {
					t.Fatalf("cell (%d,%d,%d) = %v, want 1+0i", ti, f, a, g)
				}
			}
		}
	}
	m, err := gainio.ReadManifest(filepath.Join(out, gainio.ManifestName))
	if err != nil || !m.Unity || m.TimeSteps != 2 {
		t.Fatalf("unexpected manifest %#v (%v)", m, err)
	}
}

func TestGenerateFailedRerunRemovesManifest(t *testing.T) {
	out := t.TempDir()
	cfg := cliConfig{
		stationPath: writeStation(t, stationYAML),
		outDir:      out,
		azimuthDeg:  30,
		zenithDeg:   20,
		nTime:       1,
	}
	logger := logging.New(logging.Info, logging.Text, io.Discard)
	if err := generate(cfg, logger, time.Now); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	manifestPath := filepath.Join(out, gainio.ManifestName)
	if _, err := os.Stat(manifestPath); err != nil {
		t.Fatalf("first run left no manifest: %v", err)
	}

	// A non-empty directory in place of the model makes the final rename fail.
	modelPath := filepath.Join(out, modelName)
	if err := os.Remove(modelPath); err != nil {
		t.Fatalf("remove model: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(modelPath, "blocker"), 0o755); err != nil {
		t.Fatalf("create blocker: %v", err)
	}

	err := generate(cfg, logger, time.Now)
	var ioErr *gainio.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IoError, got %v", err)
	}
	if _, err := os.Stat(manifestPath); !os.IsNotExist(err) {
		t.Fatalf("stale manifest survived a failed rerun: %v", err)
	}
	leftovers, err := filepath.Glob(filepath.Join(out, ".gain_model.h5.*.tmp"))
	if err != nil || len(leftovers) != 0 {
		t.Fatalf("temporary files left behind: %v (%v)", leftovers, err)
	}
	if _, err := os.Stat(filepath.Join(out, layoutName)); err != nil {
		t.Fatalf("layout missing after rerun: %v", err)
	}
}

func TestRunLogsFailure(t *testing.T) {
	stderr := &strings.Builder{}
	missing := filepath.Join(t.TempDir(), "missing.yaml")
	err := run([]string{"-cfg", missing, "-out", t.TempDir(), "-az", "0", "-ze", "0", "-log-format", "json"}, stderr)
	var ioErr *gainio.IoError
	if !errors.As(err, &ioErr) {
		t.Fatalf("expected IoError, got %v", err)
	}
	if !strings.Contains(stderr.String(), `"msg":"gain model not written"`) || !strings.Contains(stderr.String(), `"error":`) {
		t.Fatalf("failure not logged: %s", stderr.String())
	}
}
