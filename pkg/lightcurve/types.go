package lightcurve

import (
	"errors"
	"fmt"
	"math"
)

const (
	// TimeStep is the sampling cadence of synthesized curves in days.
	TimeStep = 0.01

	// FluxMin and FluxMax bound every synthesized flux sample.
	FluxMin = 0.95
	FluxMax = 1.05

	// TransitPhase is the orbital phase at which the synthetic transit is centred.
	TransitPhase = 0.5

	// MinDetectionPoints is the smallest series the detector will analyse.
	MinDetectionPoints = 100
	// MinParsedRows is the smallest number of valid rows an upload must yield.
	MinParsedRows = 50

	// DipThreshold is the normalized flux below which a local minimum counts as a dip.
	DipThreshold = 0.995

	// MaxSamples caps the synthesizer grid.
	MaxSamples = 2_000_000
)

var (
	ErrLengthMismatch    = errors.New("time and flux series must have the same length")
	ErrUnsupportedFormat = errors.New("unsupported light curve format")
)

// InsufficientDataError reports an upload that did not yield enough numeric rows.
type InsufficientDataError struct {
	Count    int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data points: found %d, need at least %d", e.Count, e.Required)
}

// Params are the synthesizer inputs.
type Params struct {
	Period       float64 `json:"period"`        // days
	Duration     float64 `json:"duration"`      // hours
	Depth        float64 `json:"depth"`         // ppm
	NoiseLevel   float64 `json:"noise_level"`   // fractional
	TransitCount int     `json:"transit_count"` // cycles
	StarName     string  `json:"star_name"`
}

// DefaultParams mirrors the simulator form defaults.
func DefaultParams() Params {
	return Params{
		Period:       3.5,
		Duration:     2.5,
		Depth:        1000,
		NoiseLevel:   0.001,
		TransitCount: 3,
		StarName:     "Kepler-452",
	}
}

// SampleCount returns the number of grid points Synthesize will produce.
func (p Params) SampleCount() int {
	total := p.Period * float64(p.TransitCount)
	if math.IsNaN(total) || total <= 0 {
		return 1
	}
	steps := math.Floor(total/TimeStep + 1e-9)
	if steps >= MaxSamples-1 {
		return MaxSamples
	}
	return int(steps) + 1
}

// Validate checks the ranges accepted at the API and CLI boundary.
// Synthesize itself tolerates anything.
func (p Params) Validate(maxSamples int) error {
	switch {
	case !(p.Period > 0) || math.IsInf(p.Period, 0):
		return fmt.Errorf("period must be a positive number of days, got %v", p.Period)
	case !(p.Duration > 0) || math.IsInf(p.Duration, 0):
		return fmt.Errorf("duration must be a positive number of hours, got %v", p.Duration)
	case !(p.Depth > 0) || math.IsInf(p.Depth, 0):
		return fmt.Errorf("depth must be a positive number of ppm, got %v", p.Depth)
	case !(p.NoiseLevel >= 0) || math.IsInf(p.NoiseLevel, 0):
		return fmt.Errorf("noise level must be non-negative, got %v", p.NoiseLevel)
	case p.TransitCount < 1:
		return fmt.Errorf("transit count must be at least 1, got %d", p.TransitCount)
	}
	if maxSamples > 0 && p.SampleCount() > maxSamples {
		return fmt.Errorf("period*transit_count yields %d samples, limit is %d", p.SampleCount(), maxSamples)
	}
	return nil
}

// Metadata describes how a curve was produced.
type Metadata struct {
	Period       float64 `json:"period"`
	Duration     float64 `json:"duration"`
	Depth        float64 `json:"depth"`
	NoiseLevel   float64 `json:"noise_level"`
	TransitCount int     `json:"transit_count"`
	StarName     string  `json:"star_name"`
}

// LightCurveData is a normalized photometric time series.
type LightCurveData struct {
	Time      []float64 `json:"time"`
	Flux      []float64 `json:"flux"`
	FluxError []float64 `json:"flux_error"`
	Metadata  Metadata  `json:"metadata"`
}

// Len returns the number of samples.
func (d *LightCurveData) Len() int {
	return len(d.Time)
}

// Validate checks the array invariants of the curve.
func (d *LightCurveData) Validate() error {
	if len(d.Flux) != len(d.Time) || len(d.FluxError) != len(d.Time) {
		return fmt.Errorf("%w: time=%d flux=%d flux_error=%d",
			ErrLengthMismatch, len(d.Time), len(d.Flux), len(d.FluxError))
	}
	for i := 1; i < len(d.Time); i++ {
		if d.Time[i] < d.Time[i-1] {
			return fmt.Errorf("time must be non-decreasing: t[%d]=%v < t[%d]=%v", i, d.Time[i], i-1, d.Time[i-1])
		}
	}
	for i, e := range d.FluxError {
		if e < 0 {
			return fmt.Errorf("flux error must be non-negative: flux_error[%d]=%v", i, e)
		}
	}
	return nil
}

// DetectionResult summarises the periodic dips found in a series.
// Depth is (1 - flux) * 10000 averaged over dips, see DepthFraction.
type DetectionResult struct {
	Period       float64 `json:"period"`
	Depth        float64 `json:"depth"`
	Duration     float64 `json:"duration"`
	Significance float64 `json:"significance"`
	TransitCount int     `json:"transit_count"`
	SNR          float64 `json:"snr"`

	// DipTimes are the sample times of the detected minima.
	DipTimes []float64 `json:"dip_times,omitempty"`
}

// DepthFraction returns the depth in the fractional unit used by reports.
func (r *DetectionResult) DepthFraction() float64 {
	return r.Depth / 10000
}
