package lightcurve

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// CSVHeader is the first line of every exported curve.
const CSVHeader = "Time (days),Phase,Flux,Flux Error"

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFileName returns the download name for a star's curve.
func ExportFileName(starName string) string {
	return "light-curve-data-" + whitespaceRun.ReplaceAllString(starName, "-") + ".csv"
}

// WriteCSV serializes the curve with 6 decimals for time and phase and 8 for
// flux and error. Rows are separated by "\n" with no trailing newline.
func (d *LightCurveData) WriteCSV(w io.Writer, period float64) error {
	if err := d.Validate(); err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(CSVHeader); err != nil {
		return err
	}
	row := make([]byte, 0, 64)
	for i, t := range d.Time {
		row = row[:0]
		row = append(row, '\n')
		row = strconv.AppendFloat(row, t, 'f', 6, 64)
		row = append(row, ',')
		row = strconv.AppendFloat(row, Phase(t, period), 'f', 6, 64)
		row = append(row, ',')
		row = strconv.AppendFloat(row, d.Flux[i], 'f', 8, 64)
		row = append(row, ',')
		row = strconv.AppendFloat(row, d.FluxError[i], 'f', 8, 64)
		if _, err := bw.Write(row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// CSV returns the serialized curve as a string.
func (d *LightCurveData) CSV(period float64) (string, error) {
	var sb strings.Builder
	if err := d.WriteCSV(&sb, period); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// ReadCSV parses a file produced by WriteCSV back into time, flux and error
// columns. Metadata is not part of the export and comes back empty.
func ReadCSV(r io.Reader) (*LightCurveData, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if strings.Join(header, ",") != CSVHeader {
		return nil, fmt.Errorf("unexpected header %q", strings.Join(header, ","))
	}

	data := &LightCurveData{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		var vals [4]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}
		data.Time = append(data.Time, vals[0])
		data.Flux = append(data.Flux, vals[2])
		data.FluxError = append(data.FluxError, vals[3])
	}
	return data, nil
}
