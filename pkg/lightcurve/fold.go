package lightcurve

import (
	"fmt"
	"math"
	"sort"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
)

// FoldedPoint is one sample mapped onto a single orbital cycle.
type FoldedPoint struct {
	Phase     float64 `json:"phase"`
	Time      float64 `json:"time"`
	Flux      float64 `json:"flux"`
	FluxError float64 `json:"flux_error"`
	Cycle     int     `json:"cycle"`
}

// Phase returns (t mod period) / period.
func Phase(t, period float64) float64 {
	return math.Mod(t, period) / period
}

// PhaseFold maps every sample to its phase and sorts ascending by phase.
// Ties keep time order so the projection is reproducible.
func (d *LightCurveData) PhaseFold(period float64) ([]FoldedPoint, error) {
	if !(period > 0) || math.IsInf(period, 0) {
		return nil, fmt.Errorf("fold period must be positive, got %v", period)
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	points := make([]FoldedPoint, d.Len())
	for i, t := range d.Time {
		points[i] = FoldedPoint{
			Phase:     Phase(t, period),
			Time:      t,
			Flux:      d.Flux[i],
			FluxError: d.FluxError[i],
			Cycle:     cycleOf(t, period),
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Phase < points[j].Phase
	})
	return points, nil
}

// cycleOf pairs with Phase: t == cycle*period + mod(t, period), including
// negative times.
func cycleOf(t, period float64) int {
	return int(math.Round((t - math.Mod(t, period)) / period))
}

// Unfold restores the time of a folded point from its phase and cycle.
func Unfold(p FoldedPoint, period float64) float64 {
	return float64(p.Cycle)*period + p.Phase*period
}

// SmoothedPoint is a moving-average value over folded flux.
type SmoothedPoint struct {
	Phase float64 `json:"phase"`
	Flux  float64 `json:"flux"`
}

// Smooth applies a trailing simple moving average over folded flux. Each
// output takes the phase of the last sample in its window. A window of one
// or less returns the flux unchanged.
func Smooth(points []FoldedPoint, window int) []SmoothedPoint {
	if len(points) == 0 {
		return nil
	}
	if window <= 1 || window > len(points) {
		out := make([]SmoothedPoint, len(points))
		for i, p := range points {
			out[i] = SmoothedPoint{Phase: p.Phase, Flux: p.Flux}
		}
		return out
	}

	flux := make([]float64, len(points))
	for i, p := range points {
		flux[i] = p.Flux
	}

	sma := trend.NewSmaWithPeriod[float64](window)
	values := helper.ChanToSlice(sma.Compute(helper.SliceToChan(flux)))

	offset := len(points) - len(values)
	out := make([]SmoothedPoint, len(values))
	for i, v := range values {
		out[i] = SmoothedPoint{Phase: points[i+offset].Phase, Flux: v}
	}
	return out
}
