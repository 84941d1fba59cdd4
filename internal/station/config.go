package station

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/rjboer/gainmodel/internal/gainio"
)

// Config is the declarative station description read from YAML.
type Config struct {
	// SampleInterval is the reciprocal of the sampling frequency in seconds.
	// Exactly one of SampleInterval and SampleRate must be set.
	SampleInterval float64 `yaml:"sample_interval"`
	// SampleRate is the sampling frequency in Hz.
	SampleRate float64 `yaml:"sample_rate"`

	Coarse CoarseConfig `yaml:"coarse"`
	Fine   FineConfig   `yaml:"fine"`

	// Antennas holds x, y, z positions in metres in the station ENU frame.
	Antennas [][]float64 `yaml:"antennas"`
	// AntennaLayout optionally points at a layout listing (x,y,z per line)
	// to read the positions from. Relative paths are resolved against the
	// directory of the config file.
	AntennaLayout string `yaml:"antenna_layout"`
}

// CoarseConfig describes the first (coarse) polyphase filter bank.
type CoarseConfig struct {
	// NChannels is the number of coarse channels tiling [0, fs/2).
	NChannels int `yaml:"n_channels"`
	// Selected lists the coarse channel indices kept, in output order.
	Selected []int `yaml:"selected"`
	// Oversampling is the coarse output rate divided by the channel spacing.
	// Zero means critically sampled.
	Oversampling float64 `yaml:"oversampling"`
}

// FineConfig describes the second (fine) filter bank applied to every
// selected coarse channel.
type FineConfig struct {
	NChannels int `yaml:"n_channels"`
	// NKept is the number of central fine channels kept per coarse channel.
	// Zero keeps all of them.
	NKept int `yaml:"n_kept"`
}

func (c CoarseConfig) oversampling() float64 {
	if c.Oversampling == 0 {
		return 1
	}
	return c.Oversampling
}

func (f FineConfig) kept() int {
	if f.NKept == 0 {
		return f.NChannels
	}
	return f.NKept
}

// Interval returns the sample interval in seconds, derived from SampleRate
// when SampleInterval is not given. It does not validate.
func (c Config) Interval() float64 {
	if c.SampleInterval != 0 {
		return c.SampleInterval
	}
	if c.SampleRate != 0 {
		return 1 / c.SampleRate
	}
	return 0
}

// Load reads and decodes a station configuration file. Positions referenced
// through antenna_layout are read and merged into Antennas.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &gainio.IoError{Op: "read station config", Path: path, Err: err}
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	if cfg.AntennaLayout == "" {
		return cfg, nil
	}
	if len(cfg.Antennas) > 0 {
		return Config{}, configErr("antenna_layout", "cannot be combined with an inline antennas list")
	}
	layout := cfg.AntennaLayout
	if !filepath.IsAbs(layout) {
		layout = filepath.Join(filepath.Dir(path), layout)
	}
	positions, err := gainio.ReadLayoutFile(layout)
	if err != nil {
		var ioErr *gainio.IoError
		if errors.As(err, &ioErr) {
			return Config{}, err
		}
		return Config{}, &ConfigurationError{Field: "antenna_layout", Err: err}
	}
	cfg.AntennaLayout = layout
	cfg.Antennas = make([][]float64, len(positions))
	for i, p := range positions {
		cfg.Antennas[i] = []float64{p.X, p.Y, p.Z}
	}
	return cfg, nil
}

// Parse decodes a YAML station configuration. Unknown keys are rejected.
func Parse(data []byte) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, configErr("", "empty document")
		}
		return Config{}, &ConfigurationError{Reason: "decode yaml", Err: err}
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency. Every failure
// is returned as a *ConfigurationError.
func (c Config) Validate() error {
	if len(c.Antennas) == 0 {
		return configErr("antennas", "no antennas defined")
	}
	for i, pos := range c.Antennas {
		if len(pos) != 3 {
			return configErr(fmt.Sprintf("antennas[%d]", i), "want 3 coordinates, got %d", len(pos))
		}
		for _, v := range pos {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return configErr(fmt.Sprintf("antennas[%d]", i), "non-finite coordinate %v", pos)
			}
		}
	}

	switch {
	case c.SampleInterval != 0 && c.SampleRate != 0:
		return configErr("sample_interval", "sample_interval and sample_rate are mutually exclusive")
	case c.SampleInterval == 0 && c.SampleRate == 0:
		return configErr("sample_interval", "one of sample_interval or sample_rate is required")
	case c.SampleRate != 0:
		if !(c.SampleRate > 0) || math.IsInf(c.SampleRate, 0) {
			return configErr("sample_rate", "must be positive and finite, got %g", c.SampleRate)
		}
	default:
		if !(c.SampleInterval > 0) || math.IsInf(c.SampleInterval, 0) {
			return configErr("sample_interval", "must be positive and finite, got %g", c.SampleInterval)
		}
	}

	if c.Coarse.NChannels <= 0 {
		return configErr("coarse.n_channels", "must be positive, got %d", c.Coarse.NChannels)
	}
	if len(c.Coarse.Selected) == 0 {
		return configErr("coarse.selected", "no coarse channels selected")
	}
	seen := make(map[int]int, len(c.Coarse.Selected))
	for i, ch := range c.Coarse.Selected {
		field := fmt.Sprintf("coarse.selected[%d]", i)
		if ch < 0 || ch >= c.Coarse.NChannels {
			return configErr(field, "channel %d outside [0, %d)", ch, c.Coarse.NChannels)
		}
		if prev, ok := seen[ch]; ok {
			return configErr(field, "channel %d already selected at index %d", ch, prev)
		}
		seen[ch] = i
	}
	if r := c.Coarse.Oversampling; r != 0 && (!(r >= 1) || math.IsInf(r, 0)) {
		return configErr("coarse.oversampling", "must be finite and >= 1, got %g", r)
	}

	if c.Fine.NChannels <= 0 {
		return configErr("fine.n_channels", "must be positive, got %d", c.Fine.NChannels)
	}
	if c.Fine.NKept < 0 || c.Fine.NKept > c.Fine.NChannels {
		return configErr("fine.n_kept", "must be in (0, %d], got %d", c.Fine.NChannels, c.Fine.NKept)
	}
	return nil
}
