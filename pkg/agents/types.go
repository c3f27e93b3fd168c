package agents

import (
	"fmt"
	"math"

	"github.com/irfndi/exohunter-go/pkg/lightcurve"
)

// Mission names accepted by the classifier.
const (
	MissionKepler = "KEPLER"
	MissionK2     = "K2"
	MissionTESS   = "TESS"
)

// ValidationError is input the backend would reject.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// InvalidInput marks the error as a caller mistake.
func (e *ValidationError) InvalidInput() {}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

const (
	// Durations below this many hours almost always mean minutes were sent.
	minDurationHours = 0.05
	minDepthPPM      = 1.0
)

// ExoplanetInput is the feature vector sent to the classifier. Units:
// period in days, duration in hours, depth in ppm.
type ExoplanetInput struct {
	Mission  string   `json:"mission,omitempty"`
	Period   *float64 `json:"period,omitempty"`
	Duration *float64 `json:"duration,omitempty"`
	Depth    *float64 `json:"depth,omitempty"`
	SNR      *float64 `json:"snr,omitempty"`
	StTeff   *float64 `json:"st_teff,omitempty"`
	StLogg   *float64 `json:"st_logg,omitempty"`
	StRad    *float64 `json:"st_rad,omitempty"`
	Mag      *float64 `json:"mag,omitempty"`
	FPFlagNT *float64 `json:"fpflag_nt,omitempty"`
	FPFlagSS *float64 `json:"fpflag_ss,omitempty"`
	FPFlagCO *float64 `json:"fpflag_co,omitempty"`
	FPFlagEC *float64 `json:"fpflag_ec,omitempty"`
}

// Validate applies the unit checks the classifier enforces so bad input
// is rejected before a round trip.
func (in ExoplanetInput) Validate() error {
	switch in.Mission {
	case "", MissionKepler, MissionK2, MissionTESS:
	default:
		return invalid("mission", fmt.Sprintf("mission must be one of KEPLER, K2, TESS, got %q", in.Mission))
	}

	if in.Period != nil && !(*in.Period > 0) {
		return invalid("period", "period must be > 0 (days)")
	}

	if in.Duration != nil {
		d := *in.Duration
		if d < 0 || math.IsNaN(d) {
			return invalid("duration", "duration must be >= 0 (hours)")
		}
		if d > 0 && d < minDurationHours {
			return invalid("duration", "duration expects hours (divide minutes by 60)")
		}
	}

	if in.Depth != nil {
		d := *in.Depth
		if !(d > 0) {
			return invalid("depth", "depth must be > 0 (ppm)")
		}
		if d < minDepthPPM {
			return invalid("depth", "depth expects ppm, not a fraction or percentage")
		}
	}

	return nil
}

// InputFromDetection converts a detector result into classifier input.
// Features outside the classifier's accepted ranges are left unset.
func InputFromDetection(result *lightcurve.DetectionResult, mission string) ExoplanetInput {
	in := ExoplanetInput{Mission: mission}
	if result == nil {
		return in
	}

	if result.Period > 0 {
		in.Period = ptr(result.Period)
	}
	if result.Duration >= minDurationHours {
		in.Duration = ptr(result.Duration)
	}
	if ppm := result.DepthFraction() * 1e6; ppm >= minDepthPPM {
		in.Depth = ptr(ppm)
	}
	if !math.IsNaN(result.SNR) && !math.IsInf(result.SNR, 0) {
		in.SNR = ptr(result.SNR)
	}
	return in
}

func ptr(v float64) *float64 { return &v }

// Prediction is the classifier output for one input.
type Prediction struct {
	Label          string  `json:"pred_label"`
	PFalsePositive float64 `json:"p_FALSE_POSITIVE"`
	PCandidate     float64 `json:"p_CANDIDATE"`
	PConfirmed     float64 `json:"p_CONFIRMED"`
}

type BatchPredictionResponse struct {
	Results []Prediction `json:"results"`
}

// PlanetQuery asks the Kepler or bibliographic agent about a planet.
type PlanetQuery struct {
	PlanetName string `json:"planet_name"`
	Query      string `json:"query,omitempty"`
}

func (q PlanetQuery) Validate() error {
	if q.PlanetName == "" {
		return invalid("planet_name", "planet_name is required")
	}
	return nil
}

// CharacteristicsRequest asks the Grace Hopper agent to interpret a set of
// observed characteristics.
type CharacteristicsRequest struct {
	Characteristics map[string]any `json:"characteristics"`
	Query           string         `json:"query,omitempty"`
}

func (r CharacteristicsRequest) Validate() error {
	if len(r.Characteristics) == 0 {
		return invalid("characteristics", "characteristics are required")
	}
	return nil
}

// AgentResponse is returned by every conversational agent. A failed run
// is reported in-band with Success false.
type AgentResponse struct {
	Success   bool     `json:"success"`
	Result    string   `json:"result,omitempty"`
	Error     string   `json:"error,omitempty"`
	ToolsUsed []string `json:"tools_used,omitempty"`
}

// HealthStatus describes one backend endpoint.
type HealthStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Status  string `json:"status"`
	Agent   string `json:"agent,omitempty"`
	Version string `json:"version,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIError is a non 2xx answer from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("agents service error (%d): %s", e.StatusCode, e.Detail)
}
