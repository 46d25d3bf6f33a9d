package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
	"github.com/signalsfoundry/vehicle-localization-sim/localize"
)

func baseConfig(seed int64) core.Config {
	return core.Config{
		NumVehicles: 10,
		NumAnchors:  3,
		CommRange:   70,
		AreaSize:    100,
		Seed:        seed,
	}
}

func TestRunEndToEnd(t *testing.T) {
	runner := NewRunner()

	res, err := runner.Run(context.Background(), baseConfig(1), "trilateration", localize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.RunID == "" {
		t.Errorf("run has no ID")
	}
	if res.Algorithm != "trilateration" {
		t.Errorf("Algorithm = %q", res.Algorithm)
	}

	unknowns := res.Topology.NumNodes() - res.Topology.NumAnchors()
	if got := res.Report.Localized + res.Report.Unlocalized; got != unknowns {
		t.Errorf("localized+unlocalized = %d, want %d unknown nodes", got, unknowns)
	}
	for id := range res.Estimates {
		if res.Topology.Node(id) == nil {
			t.Errorf("estimate for node %d outside topology", id)
		}
	}
}

func TestRunReproducible(t *testing.T) {
	runner := NewRunner()
	cfg := baseConfig(11)

	res1, err := runner.Run(context.Background(), cfg, "trilateration", localize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	res2, err := runner.Run(context.Background(), cfg, "trilateration", localize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res1.Estimates) != len(res2.Estimates) {
		t.Fatalf("estimate counts differ: %d vs %d", len(res1.Estimates), len(res2.Estimates))
	}
	for id, pos := range res1.Estimates {
		if other := res2.Estimates[id]; other != pos {
			t.Fatalf("node %d: %+v vs %+v across identical runs", id, pos, other)
		}
	}
}

func TestRunUnknownAlgorithm(t *testing.T) {
	runner := NewRunner()

	_, err := runner.Run(context.Background(), baseConfig(1), "nonsense", localize.Options{})
	if !errors.Is(err, localize.ErrUnknownEstimator) {
		t.Fatalf("error = %v, want ErrUnknownEstimator", err)
	}
}

func TestRunInvalidConfig(t *testing.T) {
	runner := NewRunner()
	cfg := baseConfig(1)
	cfg.NumAnchors = cfg.NumVehicles

	_, err := runner.Run(context.Background(), cfg, "trilateration", localize.Options{})
	if !errors.Is(err, core.ErrInvalidConfig) {
		t.Fatalf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestRunUnsatisfiableTopology(t *testing.T) {
	runner := NewRunner()
	cfg := core.Config{
		NumVehicles: 15,
		NumAnchors:  4,
		CommRange:   0.5,
		AreaSize:    100,
		Seed:        1,
		MaxAttempts: 10,
	}

	_, err := runner.Run(context.Background(), cfg, "trilateration", localize.Options{})
	if !errors.Is(err, core.ErrTopologyUnsatisfiable) {
		t.Fatalf("error = %v, want ErrTopologyUnsatisfiable", err)
	}
}

func TestRunTrialsDerivesSeeds(t *testing.T) {
	runner := NewRunner()

	results, err := runner.RunTrials(context.Background(), baseConfig(5), "trilateration", localize.Options{}, 3)
	if err != nil {
		t.Fatalf("RunTrials: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	// Different derived seeds must produce different topologies.
	same := true
	first := results[0].Topology.Nodes()
	for _, res := range results[1:] {
		nodes := res.Topology.Nodes()
		for i := range nodes {
			if *nodes[i] != *first[i] {
				same = false
			}
		}
	}
	if same {
		t.Errorf("all trials produced an identical topology")
	}
}

func TestNoisyRunsLoseAccuracy(t *testing.T) {
	runner := NewRunner()

	clean := core.Config{
		NumVehicles: 12,
		NumAnchors:  5,
		CommRange:   80,
		AreaSize:    100,
		Seed:        21,
	}
	noisy := clean
	noisy.NoiseStdDev = 2

	const trials = 8
	cleanResults, err := runner.RunTrials(context.Background(), clean, "trilateration", localize.Options{}, trials)
	if err != nil {
		t.Fatalf("RunTrials clean: %v", err)
	}
	noisyResults, err := runner.RunTrials(context.Background(), noisy, "trilateration", localize.Options{}, trials)
	if err != nil {
		t.Fatalf("RunTrials noisy: %v", err)
	}

	cleanMean := meanOfMeans(cleanResults)
	noisyMean := meanOfMeans(noisyResults)
	if math.IsNaN(cleanMean) || math.IsNaN(noisyMean) {
		t.Fatalf("no localized nodes across %d trials", trials)
	}
	if noisyMean <= cleanMean {
		t.Errorf("noisy mean error %v not above noiseless %v", noisyMean, cleanMean)
	}
	// Exact measurements solve exactly up to float error.
	if cleanMean > 1e-6 {
		t.Errorf("noiseless mean error = %v, want ~0", cleanMean)
	}
}

func meanOfMeans(results []*RunResult) float64 {
	sum, n := 0.0, 0
	for _, res := range results {
		if !math.IsNaN(res.Report.MeanError) {
			sum += res.Report.MeanError
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
