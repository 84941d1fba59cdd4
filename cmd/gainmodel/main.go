package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rjboer/gainmodel/internal/dsp"
	"github.com/rjboer/gainmodel/internal/gain"
	"github.com/rjboer/gainmodel/internal/gainio"
	"github.com/rjboer/gainmodel/internal/gainio/h5"
	"github.com/rjboer/gainmodel/internal/logging"
	"github.com/rjboer/gainmodel/internal/station"
	"github.com/rjboer/gainmodel/internal/telemetry"
)

const (
	layoutName = "layout.txt"
	modelName  = "gain_model.h5"
	envPrefix  = "GAINMODEL"
)

func main() {
	if err := run(os.Args[1:], os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(2)
		}
		log.Fatalf("gainmodel: %v", err)
	}
}

func run(args []string, stderr io.Writer) error {
	cfg, err := parseConfig(args, stderr)
	if err != nil {
		return err
	}
	logger, err := logging.Parse(cfg.logLevel, cfg.logFormat, stderr)
	if err != nil {
		return err
	}
	logging.SetDefault(logger)
	if err := generate(cfg, logger, time.Now); err != nil {
		logger.Error("gain model not written", logging.F("out", cfg.outDir), logging.Err(err))
		return err
	}
	return nil
}

type cliConfig struct {
	stationPath string
	outDir      string
	azimuthDeg  float64
	zenithDeg   float64
	precision   gainio.Precision
	nTime       int
	unity       bool
	profile     string
	metricsFile string
	logLevel    string
	logFormat   string
}

// parseConfig merges, in increasing priority: built-in defaults, an optional
// profile file, GAINMODEL_* environment variables and explicitly set flags.
func parseConfig(args []string, stderr io.Writer) (cliConfig, error) {
	fs := flag.NewFlagSet("gainmodel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.String("cfg", "", "Station configuration file (YAML)")
	fs.String("out", "", "Output directory")
	fs.String("az", "", "Pointing azimuth in degrees (from east towards north)")
	fs.String("ze", "", "Pointing zenith angle in degrees")
	fs.String("precision", "f64", "Stored gain precision (f32|f64)")
	fs.Int("ntime", 1, "Length of the time axis")
	fs.Bool("unity", false, "Write an unsteered reference model (every gain 1+0i); -az and -ze become optional")
	fs.String("profile", "", "Optional run profile (toml, yaml or json) providing any of these options")
	fs.String("metrics-file", "", "Optional Prometheus textfile to write run metrics to")
	fs.String("log-level", "info", "Log level (debug|info|warn|error)")
	fs.String("log-format", "text", "Log format (text|json)")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}
	if fs.NArg() > 0 {
		return cliConfig{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	v := viper.New()
	v.SetDefault("precision", "f64")
	v.SetDefault("ntime", 1)
	v.SetDefault("unity", false)
	v.SetDefault("log-level", "info")
	v.SetDefault("log-format", "text")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	fs.Visit(func(f *flag.Flag) {
		v.Set(f.Name, f.Value.String())
	})

	cfg := cliConfig{profile: v.GetString("profile")}
	if cfg.profile != "" {
		v.SetConfigFile(cfg.profile)
		if err := v.ReadInConfig(); err != nil {
			return cliConfig{}, fmt.Errorf("read profile %s: %w", cfg.profile, err)
		}
	}

	cfg.stationPath = v.GetString("cfg")
	cfg.outDir = v.GetString("out")
	cfg.metricsFile = v.GetString("metrics-file")
	cfg.logLevel = v.GetString("log-level")
	cfg.logFormat = v.GetString("log-format")
	cfg.unity = v.GetBool("unity")
	if cfg.stationPath == "" {
		return cliConfig{}, errors.New("missing station configuration (-cfg)")
	}
	if cfg.outDir == "" {
		return cliConfig{}, errors.New("missing output directory (-out)")
	}

	var err error
	if cfg.azimuthDeg, err = angle(v, "az", !cfg.unity); err != nil {
		return cliConfig{}, err
	}
	if cfg.zenithDeg, err = angle(v, "ze", !cfg.unity); err != nil {
		return cliConfig{}, err
	}
	if cfg.precision, err = gainio.ParsePrecision(v.GetString("precision")); err != nil {
		return cliConfig{}, err
	}
	if cfg.nTime, err = strconv.Atoi(v.GetString("ntime")); err != nil {
		return cliConfig{}, fmt.Errorf("ntime: %w", err)
	}
	if cfg.nTime < 1 {
		return cliConfig{}, fmt.Errorf("ntime must be at least 1, got %d", cfg.nTime)
	}
	return cfg, nil
}

// angle reads a pointing angle in degrees. An absent optional angle is 0.
func angle(v *viper.Viper, key string, required bool) (float64, error) {
	raw := strings.TrimSpace(v.GetString(key))
	if raw == "" {
		if !required {
			return 0, nil
		}
		return 0, fmt.Errorf("missing -%s", key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: non-finite angle %q", key, raw)
	}
	return f, nil
}

// generate runs the pipeline: station model, delays, gain cube, outputs.
// The manifest is written last so an interrupted run never looks complete.
func generate(cfg cliConfig, logger logging.Logger, now func() time.Time) error {
	start := now()
	logger = logger.With(logging.F("subsystem", "gainmodel"))

	stCfg, err := station.Load(cfg.stationPath)
	if err != nil {
		return err
	}
	st, err := station.FromConfig(stCfg)
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.stationPath, err)
	}
	logger.Info("station loaded",
		logging.F("config", cfg.stationPath),
		logging.F("antennas", st.NumAntennas()),
		logging.F("coarse_channels", st.NumCoarseChannels()),
		logging.F("fine_channels", st.NumFineChannels()),
		logging.F("sample_rate_hz", st.SampleRate()),
	)

	cube, delays, err := buildCube(cfg, st, logger)
	if err != nil {
		return err
	}
	logger.Debug("gain cube assembled", logging.F("time_steps", cfg.nTime), logging.Since("elapsed", start))
	freqHz := st.FineChannelFrequenciesHz()
	logger.Debug("frequency axis",
		logging.F("first_hz", freqHz[0]),
		logging.F("fine_spacing_hz", st.FineChannelSpacingInFs()/st.SampleInterval()),
		logging.F("channels", len(freqHz)),
	)

	if err := gainio.EnsureDir(cfg.outDir); err != nil {
		return err
	}
	manifestPath := filepath.Join(cfg.outDir, gainio.ManifestName)
	if err := os.Remove(manifestPath); err != nil && !os.IsNotExist(err) {
		return &gainio.IoError{Op: "remove stale manifest", Path: manifestPath, Err: err}
	}

	layoutPath := filepath.Join(cfg.outDir, layoutName)
	if err := gainio.CommitFile(layoutPath, func(f *os.File) error {
		return gainio.WriteLayout(f, st.Positions())
	}); err != nil {
		return err
	}

	modelPath := filepath.Join(cfg.outDir, modelName)
	if err := h5.Write(modelPath, h5.Model{
		FreqHz:    freqHz,
		XPol:      cube,
		YPol:      cube,
		Precision: cfg.precision,
		Attrs: h5.Attributes{
			SampleInterval: st.SampleInterval(),
			AzimuthDeg:     cfg.azimuthDeg,
			ZenithDeg:      cfg.zenithDeg,
		},
	}); err != nil {
		return fmt.Errorf("write gain model: %w", err)
	}

	manifest := gainio.NewManifest(start)
	manifest.StationConfig = cfg.stationPath
	manifest.AzimuthDeg = cfg.azimuthDeg
	manifest.ZenithDeg = cfg.zenithDeg
	manifest.Precision = cfg.precision.String()
	manifest.SampleInterval = st.SampleInterval()
	manifest.Antennas = st.NumAntennas()
	manifest.FineChannels = st.NumFineChannels()
	manifest.CoarseChannels = st.NumCoarseChannels()
	manifest.TimeSteps = cfg.nTime
	manifest.Unity = cfg.unity
	manifest.Files = []string{layoutName, modelName}

	reporters := telemetry.MultiReporter{telemetry.NewStdoutReporter(logger)}
	if cfg.metricsFile != "" {
		reporters = append(reporters, telemetry.NewPromReporter(cfg.metricsFile))
	}
	finished := now()
	if err := reporters.Report(telemetry.Summary{
		RunID:          manifest.RunID,
		AzimuthDeg:     cfg.azimuthDeg,
		ZenithDeg:      cfg.zenithDeg,
		Antennas:       manifest.Antennas,
		FineChannels:   manifest.FineChannels,
		CoarseChannels: manifest.CoarseChannels,
		TimeSteps:      manifest.TimeSteps,
		MaxDelay:       maxAbs(delays) * st.SampleInterval(),
		Duration:       finished.Sub(start),
		Finished:       finished,
	}); err != nil {
		return err
	}

	return gainio.WriteManifest(manifestPath, manifest)
}

// buildCube returns the steered cube for the configured pointing, or the
// unity reference cube, together with the per-antenna delays in samples.
func buildCube(cfg cliConfig, st *station.Station, logger logging.Logger) (*gain.Cube, []float64, error) {
	if cfg.unity {
		logger.Info("writing unsteered reference model")
		cube, err := gain.Unity(st, cfg.nTime)
		return cube, make([]float64, st.NumAntennas()), err
	}

	if cfg.zenithDeg > 90 {
		logger.Warn("pointing below the horizon", logging.F("zenith_deg", cfg.zenithDeg))
	}
	pointing := gain.PointingDeg(cfg.azimuthDeg, cfg.zenithDeg)
	delays, err := st.RequiredDigitalDelayInSamples(pointing.Azimuth, pointing.Zenith)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("required digital delay", logging.F("delay_samples", delays))
	logSteeringPhases(st, delays, logger)

	cube, err := gain.Assemble(st, pointing, cfg.nTime)
	if err != nil {
		return nil, nil, err
	}
	if dir, err := station.Direction(pointing.Azimuth, pointing.Zenith); err == nil {
		logger.Debug("steering check", logging.F("response_magnitude", cmplx.Abs(gain.Response(st, cube, 0, 0, dir))))
	}
	return cube, delays, nil
}

// logSteeringPhases logs, per selected coarse channel, the phase in degrees
// each antenna is rotated by.
func logSteeringPhases(st *station.Station, delaySamples []float64, logger logging.Logger) {
	coarseHz := st.CoarseFrequencyOfFineChannelHz()
	for i := 0; i < st.NumFineChannels(); i += st.FineChannelsPerCoarse() {
		phases := make([]float64, len(delaySamples))
		for a, d := range delaySamples {
			phases[a] = dsp.PhaseDeg(d*st.SampleInterval(), coarseHz[i])
		}
		logger.Debug("steering phase",
			logging.F("coarse_channel", st.CoarseChannelOfFineChannel(i)),
			logging.F("freq_hz", coarseHz[i]),
			logging.F("phase_deg", phases),
		)
	}
}

func maxAbs(values []float64) float64 {
	var m float64
	for _, v := range values {
		m = math.Max(m, math.Abs(v))
	}
	return m
}
