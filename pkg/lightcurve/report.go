package lightcurve

import (
	"fmt"
	"math"
	"strings"
)

const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// AnalysisOptions are the user-facing knobs sent with an upload. Only
// Detrending reaches the report body; the others are recorded as flags.
type AnalysisOptions struct {
	Detrending string  `json:"detrending"`
	MinPeriod  float64 `json:"min_period"`
	MaxPeriod  float64 `json:"max_period"`
	Threshold  float64 `json:"threshold"`
}

// DefaultAnalysisOptions returns the upload form defaults.
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		Detrending: "auto",
		MinPeriod:  0.5,
		MaxPeriod:  50,
		Threshold:  7.0,
	}
}

var detrendingMethods = map[string]bool{
	"auto":       true,
	"linear":     true,
	"polynomial": true,
	"spline":     true,
	"none":       true,
}

// Normalize fills zero values with defaults and validates the rest.
func (o AnalysisOptions) Normalize() (AnalysisOptions, error) {
	def := DefaultAnalysisOptions()
	o.Detrending = strings.ToLower(strings.TrimSpace(o.Detrending))
	if o.Detrending == "" {
		o.Detrending = def.Detrending
	}
	if !detrendingMethods[o.Detrending] {
		return o, fmt.Errorf("unknown detrending method %q", o.Detrending)
	}
	if o.MinPeriod == 0 {
		o.MinPeriod = def.MinPeriod
	}
	if o.MaxPeriod == 0 {
		o.MaxPeriod = def.MaxPeriod
	}
	if o.Threshold == 0 {
		o.Threshold = def.Threshold
	}
	if o.MinPeriod < 0 || o.MaxPeriod < o.MinPeriod {
		return o, fmt.Errorf("invalid period bounds [%v, %v]", o.MinPeriod, o.MaxPeriod)
	}
	if o.Threshold < 0 {
		return o, fmt.Errorf("threshold must be non-negative, got %v", o.Threshold)
	}
	return o, nil
}

type DetectedPeriod struct {
	Period       float64 `json:"period"`
	Significance float64 `json:"significance"`
	Depth        float64 `json:"depth"`
}

type TransitCandidate struct {
	Epoch    float64 `json:"epoch"`
	Duration float64 `json:"duration"`
	Depth    float64 `json:"depth"`
	Period   float64 `json:"period"`
}

type QualityMetrics struct {
	SNR              float64 `json:"snr"`
	DetrendingMethod string  `json:"detrending_method"`
	DataPoints       int     `json:"data_points"`
	TransitCount     int     `json:"transit_count"`
}

// ReportFlags compare a detection against the options it was run with.
type ReportFlags struct {
	WithinPeriodBounds bool `json:"within_period_bounds"`
	AboveThreshold     bool `json:"above_threshold"`
}

// Report is the analysis summary handed to report consumers.
type Report struct {
	UploadID          string             `json:"upload_id"`
	FileName          string             `json:"file_name"`
	AnalysisStatus    string             `json:"analysis_status"`
	DataPoints        int                `json:"data_points"`
	DetectedPeriods   []DetectedPeriod   `json:"detected_periods"`
	TransitCandidates []TransitCandidate `json:"transit_candidates"`
	QualityMetrics    QualityMetrics     `json:"quality_metrics"`
	Options           AnalysisOptions    `json:"options"`
	Flags             ReportFlags        `json:"flags"`
}

// Detected reports whether the analysis found a periodic signal.
func (r *Report) Detected() bool {
	return len(r.DetectedPeriods) > 0
}

// BuildReport projects a detection into the report contract. A nil result
// yields empty period and candidate lists rather than an error.
func BuildReport(uploadID, fileName string, series *Series, result *DetectionResult, opts AnalysisOptions) *Report {
	report := &Report{
		UploadID:          uploadID,
		FileName:          fileName,
		AnalysisStatus:    StatusCompleted,
		DataPoints:        series.Len(),
		DetectedPeriods:   []DetectedPeriod{},
		TransitCandidates: []TransitCandidate{},
		QualityMetrics: QualityMetrics{
			DetrendingMethod: opts.Detrending,
			DataPoints:       series.Len(),
		},
		Options: opts,
	}
	if result == nil {
		return report
	}

	depth := result.DepthFraction()
	report.DetectedPeriods = append(report.DetectedPeriods, DetectedPeriod{
		Period:       result.Period,
		Significance: finiteOrZero(result.Significance),
		Depth:        depth,
	})

	epoch := result.Period * 0.5
	if series.Len() > 0 {
		epoch += series.Time[0]
	}
	report.TransitCandidates = append(report.TransitCandidates, TransitCandidate{
		Epoch:    epoch,
		Duration: result.Duration,
		Depth:    depth,
		Period:   result.Period,
	})

	report.QualityMetrics.SNR = finiteOrZero(result.SNR)
	report.QualityMetrics.TransitCount = result.TransitCount
	report.Flags = ReportFlags{
		WithinPeriodBounds: result.Period >= opts.MinPeriod && result.Period <= opts.MaxPeriod,
		AboveThreshold:     result.Significance >= opts.Threshold,
	}
	return report
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
