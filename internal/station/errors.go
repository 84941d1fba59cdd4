package station

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration matches every *ConfigurationError via errors.Is.
	ErrConfiguration = errors.New("station configuration")
	// ErrGeometry matches every *GeometryError via errors.Is.
	ErrGeometry = errors.New("pointing geometry")
)

// ConfigurationError reports a malformed or inconsistent station configuration.
// Field names the offending configuration key using its YAML path.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := "invalid station configuration"
	if e.Field != "" {
		msg += fmt.Sprintf(" (%s)", e.Field)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

func configErr(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// GeometryError reports a pointing direction that cannot be turned into a
// unit vector. Angles are in radians.
type GeometryError struct {
	Azimuth float64
	Zenith  float64
	Reason  string
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("degenerate pointing az=%g rad ze=%g rad: %s", e.Azimuth, e.Zenith, e.Reason)
}

func (e *GeometryError) Is(target error) bool { return target == ErrGeometry }
