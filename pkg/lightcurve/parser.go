package lightcurve

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var fieldSep = regexp.MustCompile(`[,\s]+`)

// Series is a parsed (time, flux) pair of columns.
type Series struct {
	Time []float64
	Flux []float64
}

// Len returns the number of rows.
func (s *Series) Len() int {
	return len(s.Time)
}

// ParseUpload dispatches on the file extension. Text formats go to ParseText;
// FITS and anything unknown are rejected.
func ParseUpload(fileName string, r io.Reader) (*Series, error) {
	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv", ".txt", ".dat":
		return ParseText(r)
	case ".fits", ".fit":
		return nil, fmt.Errorf("%w: FITS files are not supported, export the light curve as CSV", ErrUnsupportedFormat)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// ParseText reads comma or whitespace separated columns. The first non-blank
// line is treated as a header, the first two tokens of every other line are
// read as (time, flux) and lines that do not parse are skipped.
func ParseText(r io.Reader) (*Series, error) {
	series := &Series{}
	reader := bufio.NewReader(r)

	header := true
	for {
		raw, readErr := reader.ReadString('\n')
		if line := strings.TrimSpace(raw); line != "" {
			if header {
				header = false
			} else if t, f, ok := parseRow(line); ok {
				series.Time = append(series.Time, t)
				series.Flux = append(series.Flux, f)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read light curve: %w", readErr)
		}
	}

	if series.Len() < MinParsedRows {
		return nil, &InsufficientDataError{Count: series.Len(), Required: MinParsedRows}
	}
	return series, nil
}

func parseRow(line string) (t, f float64, ok bool) {
	parts := fieldSep.Split(line, 3)
	if len(parts) < 2 {
		return 0, 0, false
	}
	t, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, 0, false
	}
	f, err = strconv.ParseFloat(parts[1], 64)
	if err != nil || math.IsNaN(t) || math.IsNaN(f) {
		return 0, 0, false
	}
	return t, f, true
}
