package telemetry

import (
	"errors"
	"time"

	"github.com/rjboer/gainmodel/internal/logging"
)

// Summary describes one completed gain model run.
type Summary struct {
	RunID          string
	AzimuthDeg     float64
	ZenithDeg      float64
	Antennas       int
	FineChannels   int
	CoarseChannels int
	TimeSteps      int
	MaxDelay       float64 // seconds, largest |delay| over antennas
	Duration       time.Duration
	Finished       time.Time
}

// Reporter captures run summaries.
type Reporter interface {
	Report(s Summary) error
}

// MultiReporter fans a summary out to every reporter and joins their errors.
type MultiReporter []Reporter

func (m MultiReporter) Report(s Summary) error {
	var errs []error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Report(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// StdoutReporter logs run summaries.
type StdoutReporter struct {
	logger logging.Logger
}

// NewStdoutReporter builds a stdout reporter with the provided logger.
func NewStdoutReporter(logger logging.Logger) StdoutReporter {
	if logger == nil {
		logger = logging.Default()
	}
	return StdoutReporter{logger: logger}
}

func (r StdoutReporter) Report(s Summary) error {
	fields := []logging.Field{
		{Key: "subsystem", Value: "telemetry"},
		{Key: "run_id", Value: s.RunID},
		{Key: "azimuth_deg", Value: s.AzimuthDeg},
		{Key: "zenith_deg", Value: s.ZenithDeg},
		{Key: "antennas", Value: s.Antennas},
		{Key: "fine_channels", Value: s.FineChannels},
		{Key: "coarse_channels", Value: s.CoarseChannels},
		{Key: "time_steps", Value: s.TimeSteps},
	}
	if s.MaxDelay != 0 {
		fields = append(fields, logging.Field{Key: "max_delay_ns", Value: s.MaxDelay * 1e9})
	}
	if s.Duration != 0 {
		fields = append(fields, logging.Field{Key: "duration_ms", Value: float64(s.Duration.Microseconds()) / 1000})
	}
	r.logger.Info("gain model written", fields...)
	return nil
}
