package nasa

import (
	"math"

	"github.com/shopspring/decimal"
)

const (
	NotAvailable        = "N/A"
	LightYearsPerParsec = 3.26156
	kelvinOffset        = 273.15
)

// Display units used by FormatValueWithError.
const (
	UnitDays        = " days"
	UnitAU          = " AU"
	UnitEarthRadius = " R⊕"
	UnitEarthMass   = " M⊕"
	UnitEarthFlux   = " S⊕"
	UnitKelvin      = " K"
	UnitSolarRadius = " R☉"
	UnitSolarMass   = " M☉"
)

func missing(v *float64) bool {
	return v == nil || *v == 0 || math.IsNaN(*v) || math.IsInf(*v, 0)
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// FormatValueWithError renders value with two decimals and, when either
// uncertainty is present, a ± term using err1 before err2.
func FormatValueWithError(value, err1, err2 *float64, unit string) string {
	if missing(value) {
		return NotAvailable
	}

	var uncertainty float64
	switch {
	case !missing(err1):
		uncertainty = *err1
	case !missing(err2):
		uncertainty = *err2
	}

	if uncertainty == 0 {
		return fixed(*value, 2) + unit
	}
	return fixed(*value, 2) + "±" + fixed(math.Abs(uncertainty), 2) + unit
}

// FormatMeasurement is FormatValueWithError for a Measurement.
func FormatMeasurement(m Measurement, unit string) string {
	return FormatValueWithError(m.Value, m.Err1, m.Err2, unit)
}

// FormatTemperature renders kelvin as "C°C (KK)".
func FormatTemperature(kelvin *float64) string {
	if missing(kelvin) {
		return NotAvailable
	}
	return fixed(*kelvin-kelvinOffset, 1) + "°C (" + fixed(*kelvin, 1) + "K)"
}

// FormatDistance renders parsecs with the light year equivalent.
func FormatDistance(parsecs *float64) string {
	if missing(parsecs) {
		return NotAvailable
	}
	ly := decimal.NewFromFloat(*parsecs).Mul(decimal.NewFromFloat(LightYearsPerParsec))
	return fixed(*parsecs, 2) + " pc (" + ly.StringFixed(2) + " ly)"
}

// Summary is the display-ready rendering of a Planet.
type Summary struct {
	OrbitalPeriod string `json:"orbital_period"`
	SemiMajorAxis string `json:"semi_major_axis"`
	Radius        string `json:"radius"`
	Mass          string `json:"mass"`
	EqTemperature string `json:"equilibrium_temperature"`
	Insolation    string `json:"insolation"`
	StellarTeff   string `json:"stellar_temperature"`
	StellarRadius string `json:"stellar_radius"`
	StellarMass   string `json:"stellar_mass"`
	Distance      string `json:"distance"`
}

func Summarize(p Planet) Summary {
	return Summary{
		OrbitalPeriod: FormatMeasurement(p.OrbitalPeriod, UnitDays),
		SemiMajorAxis: FormatMeasurement(p.SemiMajorAxis, UnitAU),
		Radius:        FormatMeasurement(p.Radius, UnitEarthRadius),
		Mass:          FormatMeasurement(p.Mass, UnitEarthMass),
		EqTemperature: FormatTemperature(p.EqTemperature.Value),
		Insolation:    FormatMeasurement(p.Insolation, UnitEarthFlux),
		StellarTeff:   FormatMeasurement(p.StellarTeff, UnitKelvin),
		StellarRadius: FormatMeasurement(p.StellarRadius, UnitSolarRadius),
		StellarMass:   FormatMeasurement(p.StellarMass, UnitSolarMass),
		Distance:      FormatDistance(p.Distance.Value),
	}
}
