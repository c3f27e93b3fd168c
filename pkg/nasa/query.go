package nasa

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PlanetColumns are the ps columns requested for a planet lookup.
var PlanetColumns = []string{
	"pl_name", "pl_letter", "hostname", "discoverymethod", "disc_year",
	"pl_orbper", "pl_orbpererr1", "pl_orbpererr2",
	"pl_orbsmax", "pl_orbsmaxerr1", "pl_orbsmaxerr2",
	"pl_rade", "pl_radeerr1", "pl_radeerr2",
	"pl_masse", "pl_masseerr1", "pl_masseerr2",
	"pl_eqt", "pl_eqterr1", "pl_eqterr2",
	"pl_insol", "pl_insolerr1", "pl_insolerr2",
	"st_teff", "st_tefferr1", "st_tefferr2",
	"st_rad", "st_raderr1", "st_raderr2",
	"st_mass", "st_masserr1", "st_masserr2",
	"sy_dist", "sy_disterr1", "sy_disterr2",
	"pl_controv_flag", "pl_pubdate", "rowupdate",
}

// quoteADQL renders s as an ADQL string literal.
func quoteADQL(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// BuildPlanetQuery returns the ADQL selecting one planet by name.
func BuildPlanetQuery(name string) string {
	return fmt.Sprintf("select %s from ps where pl_name=%s",
		strings.Join(PlanetColumns, ","), quoteADQL(name))
}

// BuildSystemQuery returns the ADQL selecting every planet of a host star.
func BuildSystemQuery(host string) string {
	return fmt.Sprintf("select %s from ps where hostname=%s",
		strings.Join(PlanetColumns, ","), quoteADQL(host))
}

// ParseTAPCSV decodes a TAP csv response into rows. A response with no
// data line yields an empty slice and no error.
func ParseTAPCSV(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Row{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read TAP header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.ReplaceAll(header[i], `"`, ""))
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read TAP row %d: %w", len(rows)+1, err)
		}
		if len(record) == 1 && strings.TrimSpace(record[0]) == "" {
			continue
		}

		row := make(Row, len(header))
		for j, col := range header {
			value := ""
			if j < len(record) {
				value = strings.ReplaceAll(record[j], `"`, "")
			}
			row[col] = coerceCell(value)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func coerceCell(value string) any {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return value
	}
	return f
}
