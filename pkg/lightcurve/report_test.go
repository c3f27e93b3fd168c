package lightcurve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildReport_NoDetection(t *testing.T) {
	series := &Series{Time: []float64{1, 2, 3}, Flux: []float64{1, 1, 1}}

	report := BuildReport("analysis_1", "flat.csv", series, nil, DefaultAnalysisOptions())

	assert.Equal(t, StatusCompleted, report.AnalysisStatus)
	assert.Equal(t, 3, report.DataPoints)
	assert.False(t, report.Detected())
	assert.Equal(t, 0, report.QualityMetrics.TransitCount)
	assert.Equal(t, "auto", report.QualityMetrics.DetrendingMethod)

	raw, err := json.Marshal(report)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"detected_periods":[]`)
	assert.Contains(t, string(raw), `"transit_candidates":[]`)
}

func TestBuildReport_WithDetection(t *testing.T) {
	series := &Series{Time: []float64{100, 101, 102}, Flux: []float64{1, 0.98, 1}}
	result := &DetectionResult{
		Period:       4,
		Depth:        200,
		Duration:     2.5,
		Significance: 9,
		TransitCount: 3,
		SNR:          9,
	}
	opts := DefaultAnalysisOptions()
	opts.Detrending = "linear"

	report := BuildReport("analysis_2", "kepler.csv", series, result, opts)

	require.True(t, report.Detected())
	assert.Equal(t, []DetectedPeriod{{Period: 4, Significance: 9, Depth: 0.02}}, report.DetectedPeriods)
	assert.Equal(t, []TransitCandidate{{Epoch: 102, Duration: 2.5, Depth: 0.02, Period: 4}}, report.TransitCandidates)
	assert.Equal(t, QualityMetrics{SNR: 9, DetrendingMethod: "linear", DataPoints: 3, TransitCount: 3}, report.QualityMetrics)
	assert.True(t, report.Flags.WithinPeriodBounds)
	assert.True(t, report.Flags.AboveThreshold)
}

func TestBuildReport_Flags(t *testing.T) {
	series := &Series{Time: []float64{0}, Flux: []float64{1}}
	result := &DetectionResult{Period: 80, Depth: 100, Significance: 3, SNR: 3, TransitCount: 2}

	report := BuildReport("id", "f.csv", series, result, DefaultAnalysisOptions())

	assert.False(t, report.Flags.WithinPeriodBounds)
	assert.False(t, report.Flags.AboveThreshold)
	assert.Len(t, report.DetectedPeriods, 1, "options never suppress a detection")
}

func TestAnalysisOptions_Normalize(t *testing.T) {
	opts, err := AnalysisOptions{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, DefaultAnalysisOptions(), opts)

	opts, err = AnalysisOptions{Detrending: " Spline ", MinPeriod: 1, MaxPeriod: 10, Threshold: 5}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, "spline", opts.Detrending)
	assert.Equal(t, 10.0, opts.MaxPeriod)

	_, err = AnalysisOptions{Detrending: "fourier"}.Normalize()
	assert.Error(t, err)

	_, err = AnalysisOptions{MinPeriod: 20, MaxPeriod: 5}.Normalize()
	assert.Error(t, err)

	_, err = AnalysisOptions{Threshold: -1}.Normalize()
	assert.Error(t, err)
}
