package localize

import (
	"errors"
	"testing"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
)

func TestRegistryNames(t *testing.T) {
	names := Names()
	want := map[string]bool{"trilateration": false, "beliefprop": false}
	for _, name := range names {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("registry is missing %q (got %v)", name, names)
		}
	}
}

func TestNewUnknownEstimator(t *testing.T) {
	_, err := New("gradient-descent", Options{})
	if !errors.Is(err, ErrUnknownEstimator) {
		t.Fatalf("error = %v, want ErrUnknownEstimator", err)
	}
}

func TestNewBuildsRegisteredEstimators(t *testing.T) {
	for _, name := range []string{"trilateration", "beliefprop"} {
		est, err := New(name, Options{AreaSize: 100})
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if est.Name() != name {
			t.Errorf("Name() = %q, want %q", est.Name(), name)
		}
	}
}

func TestUnknownNodes(t *testing.T) {
	known := core.KnownPositions{0: {}, 1: {}}
	distances := core.DistanceMeasurements{
		core.MakePair(0, 3): 10,
		core.MakePair(1, 2): 12,
		core.MakePair(2, 3): 7,
	}

	got := unknownNodes(known, distances)
	if len(got) != 2 || got[0] != 2 || got[1] != 3 {
		t.Fatalf("unknownNodes = %v, want [2 3]", got)
	}
}
