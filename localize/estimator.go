// Package localize holds the localization algorithm contract and the two
// reference estimators: least-squares trilateration and iterative belief
// propagation. Estimators are pure functions of the anchor positions and
// the distance measurements; they never see true positions of unknown
// nodes and never perform I/O.
package localize

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
)

// ErrUnknownEstimator is returned when a requested algorithm name has no
// registered factory.
var ErrUnknownEstimator = errors.New("unknown estimator")

// Estimator is the single extensibility surface of the simulator. An
// implementation must not mutate its inputs, must tolerate sparse
// constraint graphs, and must omit under-constrained nodes from the result
// instead of fabricating coordinates for them.
type Estimator interface {
	// Name returns the registry name of the algorithm.
	Name() string

	// Estimate maps anchor positions plus pairwise distance measurements
	// to estimated positions for unknown nodes. Partial results are
	// normal; an error is reserved for contract violations, not for
	// under-constrained inputs.
	Estimate(known core.KnownPositions, distances core.DistanceMeasurements) (core.EstimatedPositions, error)
}

// Options carries estimator tuning shared across implementations. Zero
// values select estimator defaults.
type Options struct {
	// AreaSize bounds the simulation square; trilateration uses it to
	// disambiguate two-constraint mirror solutions, belief propagation for
	// its fallback initialization. 0 disables area-dependent behavior.
	AreaSize float64

	// MaxRounds caps belief-propagation iterations.
	MaxRounds int

	// Tolerance is the belief-propagation convergence threshold.
	Tolerance float64
}

// Factory builds a configured estimator instance.
type Factory func(opts Options) Estimator

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes an estimator available under name. Estimator selection is
// a configuration value, not a code edit; both reference implementations
// register themselves at init time.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// New builds the estimator registered under name.
func New(name string, opts Options) (Estimator, error) {
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q (known: %v)", ErrUnknownEstimator, name, Names())
	}
	return f(opts), nil
}

// Names lists the registered estimator names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// unknownNodes collects every node referenced by a measurement that has no
// known position, sorted for deterministic processing order.
func unknownNodes(known core.KnownPositions, distances core.DistanceMeasurements) []core.NodeID {
	seen := make(map[core.NodeID]bool)
	for pair := range distances {
		for _, id := range []core.NodeID{pair.Low, pair.High} {
			if _, isKnown := known[id]; !isKnown {
				seen[id] = true
			}
		}
	}
	ids := make([]core.NodeID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
