package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// PromReporter writes run summaries to a Prometheus textfile, for pick-up by
// the node exporter textfile collector. Each report replaces the file.
type PromReporter struct {
	path     string
	registry *prometheus.Registry

	antennas     prometheus.Gauge
	fineChannels prometheus.Gauge
	timeSteps    prometheus.Gauge
	maxDelay     prometheus.Gauge
	duration     prometheus.Gauge
	lastSuccess  prometheus.Gauge
	pointing     *prometheus.GaugeVec
}

// NewPromReporter builds a reporter writing to path with a private registry.
func NewPromReporter(path string) *PromReporter {
	r := &PromReporter{
		path:     path,
		registry: prometheus.NewRegistry(),
		antennas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_antennas",
			Help: "Number of antennas in the last generated gain model.",
		}),
		fineChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_fine_channels",
			Help: "Number of fine channels in the last generated gain model.",
		}),
		timeSteps: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_time_steps",
			Help: "Length of the time axis of the last generated gain model.",
		}),
		maxDelay: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_max_delay_seconds",
			Help: "Largest absolute per-antenna steering delay.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_run_duration_seconds",
			Help: "Wall time spent computing and writing the gain model.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gainmodel_last_success_timestamp_seconds",
			Help: "Unix time of the last successful run.",
		}),
		pointing: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gainmodel_pointing_degrees",
			Help: "Pointing direction of the last generated gain model.",
		}, []string{"angle"}),
	}
	r.registry.MustRegister(r.antennas, r.fineChannels, r.timeSteps, r.maxDelay, r.duration, r.lastSuccess, r.pointing)
	return r
}

// Gatherer exposes the underlying registry.
func (r *PromReporter) Gatherer() prometheus.Gatherer { return r.registry }

func (r *PromReporter) Report(s Summary) error {
	r.antennas.Set(float64(s.Antennas))
	r.fineChannels.Set(float64(s.FineChannels))
	r.timeSteps.Set(float64(s.TimeSteps))
	r.maxDelay.Set(s.MaxDelay)
	r.duration.Set(s.Duration.Seconds())
	r.lastSuccess.Set(float64(s.Finished.UnixNano()) / 1e9)
	r.pointing.WithLabelValues("azimuth").Set(s.AzimuthDeg)
	r.pointing.WithLabelValues("zenith").Set(s.ZenithDeg)
	if err := prometheus.WriteToTextfile(r.path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", r.path, err)
	}
	return nil
}
