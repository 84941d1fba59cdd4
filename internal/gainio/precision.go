package gainio

import (
	"fmt"
	"strings"
)

// Precision selects the floating-point width of the stored gain values.
// In-memory computation is always float64.
type Precision int

const (
	Float64 Precision = iota
	Float32
)

func (p Precision) String() string {
	switch p {
	case Float64:
		return "f64"
	case Float32:
		return "f32"
	default:
		return "unknown"
	}
}

// ParsePrecision converts a string to a Precision. The empty string selects Float64.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f64", "float64", "double", "":
		return Float64, nil
	case "f32", "float32", "single":
		return Float32, nil
	default:
		return Precision(0), fmt.Errorf("unsupported precision %q", s)
	}
}
