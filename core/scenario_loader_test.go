package core

import (
	"errors"
	"strings"
	"testing"
)

func TestLoadScenario(t *testing.T) {
	input := `{
		"num_vehicles": 12,
		"num_anchors": 4,
		"comm_range": 60,
		"area_size": 100,
		"seed": 99,
		"noise_stddev": 1.5,
		"algorithm": "beliefprop",
		"trials": 3,
		"max_rounds": 50,
		"tolerance": 0.01
	}`

	sc, err := LoadScenario(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Config.NumVehicles != 12 || sc.Config.NumAnchors != 4 {
		t.Fatalf("config not decoded: %+v", sc.Config)
	}
	if sc.Config.NoiseStdDev != 1.5 || sc.Config.Seed != 99 {
		t.Fatalf("config not decoded: %+v", sc.Config)
	}
	if sc.Algorithm != "beliefprop" || sc.Trials != 3 {
		t.Fatalf("scenario fields not decoded: %+v", sc)
	}
	if sc.MaxRounds != 50 || sc.Tolerance != 0.01 {
		t.Fatalf("estimator knobs not decoded: %+v", sc)
	}
}

func TestLoadScenarioDefaults(t *testing.T) {
	input := `{"num_vehicles": 10, "num_anchors": 3, "comm_range": 70, "area_size": 100}`

	sc, err := LoadScenario(strings.NewReader(input))
	if err != nil {
		t.Fatalf("LoadScenario: %v", err)
	}
	if sc.Algorithm != "trilateration" {
		t.Fatalf("Algorithm = %q, want default trilateration", sc.Algorithm)
	}
	if sc.Trials != 1 {
		t.Fatalf("Trials = %d, want default 1", sc.Trials)
	}
}

func TestLoadScenarioBadJSON(t *testing.T) {
	if _, err := LoadScenario(strings.NewReader(`{"num_vehicles": `)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestLoadScenarioInvalidConfig(t *testing.T) {
	input := `{"num_vehicles": 3, "num_anchors": 5, "comm_range": 70, "area_size": 100}`

	_, err := LoadScenario(strings.NewReader(input))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}
