package lightcurve

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	detrendSlope = 0.0001
	depthScale   = 10000.0
)

// Detect runs the dip heuristic over a (time, flux) series.
//
// A nil result with a nil error means no periodic signal: fewer than
// MinDetectionPoints samples, fewer than two dips, or a series whose mean
// flux cannot normalize it. Only mismatched lengths are an error.
func Detect(t, flux []float64) (*DetectionResult, error) {
	if len(t) != len(flux) {
		return nil, ErrLengthMismatch
	}
	n := len(t)
	if n < MinDetectionPoints {
		return nil, nil
	}

	mean := stat.Mean(flux, nil)
	if mean == 0 || math.IsNaN(mean) || math.IsInf(mean, 0) {
		return nil, nil
	}

	detrended := Detrend(t, flux, mean)

	dips := findDips(detrended)
	if len(dips) < 2 {
		return nil, nil
	}

	var periodSum float64
	for i := 1; i < len(dips); i++ {
		periodSum += t[dips[i]] - t[dips[i-1]]
	}
	avgPeriod := periodSum / float64(len(dips)-1)

	depths := make([]float64, len(dips))
	durations := make([]float64, len(dips))
	dipTimes := make([]float64, len(dips))
	for k, idx := range dips {
		f := detrended[idx]
		depths[k] = (1 - f) * depthScale
		durations[k] = halfDepthWidth(t, detrended, idx) * hoursPerDay
		dipTimes[k] = t[idx]
	}
	avgDepth := stat.Mean(depths, nil)
	avgDuration := stat.Mean(durations, nil)

	significance := avgDepth / (residualStd(detrended) * depthScale)

	return &DetectionResult{
		Period:       avgPeriod,
		Depth:        avgDepth,
		Duration:     avgDuration,
		Significance: significance,
		TransitCount: len(dips),
		SNR:          significance,
		DipTimes:     dipTimes,
	}, nil
}

// Detrend normalizes flux by mean and removes the fixed 1e-4 slope term
// centred on the middle of the time span. A zero span removes nothing.
func Detrend(t, flux []float64, mean float64) []float64 {
	out := make([]float64, len(flux))
	copy(out, flux)
	floats.Scale(1/mean, out)

	if len(t) == 0 {
		return out
	}
	lo, hi := floats.Min(t), floats.Max(t)
	span := hi - lo
	if span == 0 {
		return out
	}
	center := (hi + lo) / 2
	for i := range out {
		out[i] -= detrendSlope * (t[i] - center) / span
	}
	return out
}

// findDips returns the interior strict local minima below DipThreshold.
func findDips(f []float64) []int {
	var idx []int
	for i := 1; i < len(f)-1; i++ {
		if f[i] < DipThreshold && f[i] < f[i-1] && f[i] < f[i+1] {
			idx = append(idx, i)
		}
	}
	return idx
}

// halfDepthWidth walks outward from idx while flux stays below the midpoint
// between the dip and 1.0 and returns the elapsed time in days.
func halfDepthWidth(t, f []float64, idx int) float64 {
	half := f[idx] + (1-f[idx])/2
	left, right := idx, idx
	for left > 0 && f[left] < half {
		left--
	}
	for right < len(f)-1 && f[right] < half {
		right++
	}
	return t[right] - t[left]
}

// residualStd is the population standard deviation of f about 1.0.
func residualStd(f []float64) float64 {
	dev := make([]float64, len(f))
	copy(dev, f)
	floats.AddConst(-1, dev)
	return floats.Norm(dev, 2) / math.Sqrt(float64(len(dev)))
}
