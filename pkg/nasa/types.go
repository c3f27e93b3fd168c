package nasa

import (
	"fmt"
	"math"
)

// Row is one archive record keyed by column name. Numeric cells hold
// float64, everything else holds the unquoted string.
type Row map[string]any

// LookupResult mirrors the archive proxy response: rows on success, a
// human readable message when the archive had nothing to return.
type LookupResult struct {
	Data  []Row  `json:"data"`
	Error string `json:"error,omitempty"`
}

// Empty reports whether the lookup produced no rows.
func (r *LookupResult) Empty() bool {
	return r == nil || len(r.Data) == 0
}

// Measurement is a value with its upper and lower archive uncertainties.
type Measurement struct {
	Value *float64 `json:"value,omitempty"`
	Err1  *float64 `json:"err1,omitempty"`
	Err2  *float64 `json:"err2,omitempty"`
}

// Planet is the typed view of a planetary systems (ps) row.
type Planet struct {
	Name            string      `json:"pl_name"`
	Letter          string      `json:"pl_letter,omitempty"`
	HostName        string      `json:"hostname"`
	DiscoveryMethod string      `json:"discoverymethod,omitempty"`
	DiscoveryYear   int         `json:"disc_year,omitempty"`
	OrbitalPeriod   Measurement `json:"pl_orbper"`
	SemiMajorAxis   Measurement `json:"pl_orbsmax"`
	Radius          Measurement `json:"pl_rade"`
	Mass            Measurement `json:"pl_masse"`
	EqTemperature   Measurement `json:"pl_eqt"`
	Insolation      Measurement `json:"pl_insol"`
	StellarTeff     Measurement `json:"st_teff"`
	StellarRadius   Measurement `json:"st_rad"`
	StellarMass     Measurement `json:"st_mass"`
	Distance        Measurement `json:"sy_dist"`
	Controversial   bool        `json:"pl_controv_flag"`
	PublishedAt     string      `json:"pl_pubdate,omitempty"`
	RowUpdate       string      `json:"rowupdate,omitempty"`
}

// PlanetFromRow decodes a ps row into a Planet. Missing or non numeric
// cells leave the corresponding field unset.
func PlanetFromRow(row Row) Planet {
	p := Planet{
		Name:            row.String("pl_name"),
		Letter:          row.String("pl_letter"),
		HostName:        row.String("hostname"),
		DiscoveryMethod: row.String("discoverymethod"),
		OrbitalPeriod:   row.Measurement("pl_orbper"),
		SemiMajorAxis:   row.Measurement("pl_orbsmax"),
		Radius:          row.Measurement("pl_rade"),
		Mass:            row.Measurement("pl_masse"),
		EqTemperature:   row.Measurement("pl_eqt"),
		Insolation:      row.Measurement("pl_insol"),
		StellarTeff:     row.Measurement("st_teff"),
		StellarRadius:   row.Measurement("st_rad"),
		StellarMass:     row.Measurement("st_mass"),
		Distance:        row.Measurement("sy_dist"),
		PublishedAt:     row.String("pl_pubdate"),
		RowUpdate:       row.String("rowupdate"),
	}
	if year := row.Float("disc_year"); year != nil {
		p.DiscoveryYear = int(*year)
	}
	if flag := row.Float("pl_controv_flag"); flag != nil {
		p.Controversial = *flag != 0
	}
	return p
}

// Float returns the numeric cell for col, or nil when absent or textual.
func (r Row) Float(col string) *float64 {
	v, ok := r[col].(float64)
	if !ok || math.IsNaN(v) {
		return nil
	}
	return &v
}

// String returns the cell for col formatted as text.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// Measurement collects col, colerr1 and colerr2.
func (r Row) Measurement(col string) Measurement {
	return Measurement{
		Value: r.Float(col),
		Err1:  r.Float(col + "err1"),
		Err2:  r.Float(col + "err2"),
	}
}

// ValidationError reports a lookup that cannot be sent to the archive.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidInput marks the error as a caller mistake.
func (e *ValidationError) InvalidInput() {}

// APIError is returned when the archive answers with a non 2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("NASA API error: %d - %s", e.StatusCode, e.Body)
}
