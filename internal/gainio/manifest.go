package gainio

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
)

// ManifestName is the file written last into an output directory; its
// presence marks the directory as a complete gain model.
const ManifestName = "manifest.json"

// Manifest describes one generated gain model.
type Manifest struct {
	RunID          string    `json:"run_id"`
	CreatedAt      time.Time `json:"created_at"`
	StationConfig  string    `json:"station_config"`
	AzimuthDeg     float64   `json:"azimuth_deg"`
	ZenithDeg      float64   `json:"zenith_deg"`
	Precision      string    `json:"precision"`
	SampleInterval float64   `json:"sample_interval_s"`
	Antennas       int       `json:"antennas"`
	FineChannels   int       `json:"fine_channels"`
	CoarseChannels int       `json:"coarse_channels"`
	TimeSteps      int       `json:"time_steps"`
	Unity          bool      `json:"unity,omitempty"`
	Files          []string  `json:"files"`
}

// NewManifest returns a Manifest with a fresh run id and creation time.
func NewManifest(now time.Time) Manifest {
	return Manifest{
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC(),
	}
}

// WriteManifest commits m as indented JSON to path.
func WriteManifest(path string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return CommitFile(path, func(f *os.File) error {
		_, err := f.Write(append(data, '\n'))
		return err
	})
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) (Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, &IoError{Op: "read manifest", Path: path, Err: err}
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if _, err := uuid.Parse(m.RunID); err != nil {
		return Manifest{}, fmt.Errorf("parse manifest %s: run id: %w", path, err)
	}
	return m, nil
}
