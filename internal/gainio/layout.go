package gainio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"
)

// WriteLayout writes one "x,y,z" line per antenna position, in order.
// Values use the shortest representation that parses back to the same float64.
func WriteLayout(w io.Writer, positions []r3.Vec) error {
	bw := bufio.NewWriter(w)
	for _, p := range positions {
		line := formatFloat(p.X) + "," + formatFloat(p.Y) + "," + formatFloat(p.Z) + "\n"
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLayout parses a layout listing written by WriteLayout. Blank lines and
// lines starting with '#' are skipped.
func ReadLayout(r io.Reader) ([]r3.Vec, error) {
	var out []r3.Vec
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("layout line %d: want 3 fields, got %d", lineNo, len(parts))
		}
		var v [3]float64
		for i, s := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("layout line %d field %d: %w", lineNo, i+1, err)
			}
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, fmt.Errorf("layout line %d field %d: non-finite value", lineNo, i+1)
			}
			v[i] = f
		}
		out = append(out, r3.Vec{X: v[0], Y: v[1], Z: v[2]})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ReadLayoutFile opens path and parses it with ReadLayout. Open and read
// failures are returned as *IoError; malformed content is returned as is.
func ReadLayoutFile(path string) ([]r3.Vec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &IoError{Op: "open antenna layout", Path: path, Err: err}
	}
	defer f.Close()
	return ReadLayout(f)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
