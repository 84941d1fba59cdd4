package gainio

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestLayoutRoundTrip(t *testing.T) {
	positions := []r3.Vec{
		{X: 0, Y: 0, Z: 0},
		{X: 1.5, Y: -2.25, Z: 0.1},
		{X: 1.0 / 3, Y: 123456.789, Z: -1e-7},
	}
	var buf bytes.Buffer
	if err := WriteLayout(&buf, positions); err != nil {
		t.Fatalf("WriteLayout failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(positions) || lines[1] != "1.5,-2.25,0.1" {
		t.Fatalf("unexpected listing:\n%s", buf.String())
	}

	got, err := ReadLayout(&buf)
	if err != nil {
		t.Fatalf("ReadLayout failed: %v", err)
	}
	if len(got) != len(positions) {
		t.Fatalf("read %d positions, want %d", len(got), len(positions))
	}
	for i := range positions {
		if got[i] != positions[i] {
			t.Fatalf("position %d: %v, want %v", i, got[i], positions[i])
		}
	}
}

func TestReadLayoutErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{name: "two fields", in: "1,2\n"},
		{name: "not a number", in: "1,2,x\n"},
		{name: "nan", in: "0,0,0\n1,NaN,0\n"},
	}
	for _, tt := range tests {
		if _, err := ReadLayout(strings.NewReader(tt.in)); err == nil {
			t.Fatalf("%s: expected error", tt.name)
		}
	}
}

func TestReadLayoutFileMissing(t *testing.T) {
	_, err := ReadLayoutFile(filepath.Join(t.TempDir(), "missing.txt"))
	var ioErr *IoError
	if !errors.As(err, &ioErr) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected IoError wrapping ErrNotExist, got %v", err)
	}
}
