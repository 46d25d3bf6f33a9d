package core

import (
	"encoding/json"
	"fmt"
	"io"
)

// Scenario is a fully resolved run description: validated generator config
// plus algorithm selection and estimator tuning.
type Scenario struct {
	Config    Config
	Algorithm string
	Trials    int

	// Belief-propagation knobs; zero values mean estimator defaults.
	MaxRounds int
	Tolerance float64
}

// internal JSON shape, kept unexported so the wire format can evolve
// independently of Scenario.
type scenarioJSON struct {
	NumVehicles int     `json:"num_vehicles"`
	NumAnchors  int     `json:"num_anchors"`
	CommRange   float64 `json:"comm_range"`
	AreaSize    float64 `json:"area_size"`
	Seed        int64   `json:"seed"`
	NoiseStdDev float64 `json:"noise_stddev"`
	MaxAttempts int     `json:"max_attempts"`

	Algorithm string  `json:"algorithm"`
	Trials    int     `json:"trials"`
	MaxRounds int     `json:"max_rounds"`
	Tolerance float64 `json:"tolerance"`
}

// LoadScenario reads a JSON scenario from r and returns a validated
// Scenario. It fails on JSON errors and on configuration violations; the
// algorithm name is resolved later against the estimator registry so the
// loader does not need to know which estimators are linked in.
func LoadScenario(r io.Reader) (*Scenario, error) {
	var payload scenarioJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("LoadScenario: decode failed: %w", err)
	}

	sc := &Scenario{
		Config: Config{
			NumVehicles: payload.NumVehicles,
			NumAnchors:  payload.NumAnchors,
			CommRange:   payload.CommRange,
			AreaSize:    payload.AreaSize,
			Seed:        payload.Seed,
			NoiseStdDev: payload.NoiseStdDev,
			MaxAttempts: payload.MaxAttempts,
		},
		Algorithm: payload.Algorithm,
		Trials:    payload.Trials,
		MaxRounds: payload.MaxRounds,
		Tolerance: payload.Tolerance,
	}
	if sc.Algorithm == "" {
		sc.Algorithm = "trilateration"
	}
	if sc.Trials <= 0 {
		sc.Trials = 1
	}

	if err := sc.Config.Validate(); err != nil {
		return nil, fmt.Errorf("LoadScenario: %w", err)
	}
	return sc, nil
}
