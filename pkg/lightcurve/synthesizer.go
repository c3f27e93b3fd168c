package lightcurve

import (
	"math"
	"math/rand/v2"
	"time"
)

const (
	ingressFraction   = 0.1
	variabilityAmp    = 0.001
	variabilityPeriod = 0.5
	fluxErrorPerNoise = 0.5
	transitDepthScale = 1e6
	hoursPerDay       = 24.0
)

// NewRand returns a generator for Synthesize. A zero seed draws one from the clock.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Synthesize builds a box-with-linear-ramps transit curve on a fixed 0.01 day grid.
// Out of range parameters do not panic; NaN inputs propagate into the flux.
func Synthesize(p Params, rng *rand.Rand) *LightCurveData {
	if rng == nil {
		rng = NewRand(0)
	}

	n := p.SampleCount()
	data := &LightCurveData{
		Time:      make([]float64, n),
		Flux:      make([]float64, n),
		FluxError: make([]float64, n),
		Metadata: Metadata{
			Period:       p.Period,
			Duration:     p.Duration,
			Depth:        p.Depth,
			NoiseLevel:   p.NoiseLevel,
			TransitCount: p.TransitCount,
			StarName:     p.StarName,
		},
	}

	width := (p.Duration / hoursPerDay) / p.Period
	start := TransitPhase - width/2
	end := TransitPhase + width/2
	drop := p.Depth / transitDepthScale
	fluxErr := p.NoiseLevel * fluxErrorPerNoise

	for i := 0; i < n; i++ {
		t := float64(i) * TimeStep
		phase := math.Mod(t, p.Period) / p.Period

		flux := 1.0
		if width > 0 && phase >= start && phase <= end {
			rel := (phase - start) / width
			switch {
			case rel <= ingressFraction:
				flux = 1 - drop*(rel/ingressFraction)
			case rel >= 1-ingressFraction:
				flux = 1 - drop*(1-(rel-(1-ingressFraction))/ingressFraction)
			default:
				flux = 1 - drop
			}
		}

		if p.NoiseLevel != 0 {
			flux += (rng.Float64() - 0.5) * p.NoiseLevel
		}
		flux += variabilityAmp * math.Sin(2*math.Pi*t/variabilityPeriod)

		data.Time[i] = t
		data.Flux[i] = clamp(flux)
		data.FluxError[i] = fluxErr
	}

	return data
}

func clamp(f float64) float64 {
	if math.IsNaN(f) {
		return f
	}
	return math.Max(FluxMin, math.Min(FluxMax, f))
}
