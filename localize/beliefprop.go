package localize

import (
	"sort"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
)

func init() {
	Register("beliefprop", func(opts Options) Estimator {
		return NewBeliefProp(opts)
	})
}

// Belief-propagation defaults. The round cap is the non-negotiable
// termination guarantee; the tolerance only lets well-behaved runs stop
// early.
const (
	DefaultMaxRounds = 100
	DefaultTolerance = 1e-3
)

// BeliefProp is the iterative message-passing reference estimator. Each
// participating unknown node holds a point belief that is refined once per
// round from the round-t beliefs of its neighbors; anchors are fixed Dirac
// beliefs that never move. The loop is an explicit bounded state machine:
// state is the belief vector, the transition is one synchronous round, and
// the terminal condition is convergence below tolerance or the round cap.
type BeliefProp struct {
	areaSize  float64
	maxRounds int
	tolerance float64
}

// NewBeliefProp builds the estimator with defaults filled in.
func NewBeliefProp(opts Options) *BeliefProp {
	bp := &BeliefProp{
		areaSize:  opts.AreaSize,
		maxRounds: opts.MaxRounds,
		tolerance: opts.Tolerance,
	}
	if bp.maxRounds <= 0 {
		bp.maxRounds = DefaultMaxRounds
	}
	if bp.tolerance <= 0 {
		bp.tolerance = DefaultTolerance
	}
	return bp
}

// Name implements Estimator.
func (bp *BeliefProp) Name() string { return "beliefprop" }

// Estimate implements Estimator.
func (bp *BeliefProp) Estimate(known core.KnownPositions, distances core.DistanceMeasurements) (core.EstimatedPositions, error) {
	adjacency := buildAdjacency(distances)

	// Only determinable nodes participate: an unknown node needs at least
	// three neighbors that are anchors or themselves determinable.
	// Everything else (isolated nodes, two-constraint nodes with no
	// resolvable neighbors) is omitted from the result rather than
	// returned as a confident-looking arbitrary coordinate.
	participants := determinableNodes(known, adjacency)
	if len(participants) == 0 {
		return core.EstimatedPositions{}, nil
	}

	hops := hopCounts(known, adjacency)
	beliefs := bp.initialBeliefs(participants, known, adjacency)

	ordered := make([]core.NodeID, 0, len(participants))
	for id := range participants {
		ordered = append(ordered, id)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	for round := 0; round < bp.maxRounds; round++ {
		next := make(map[core.NodeID]core.Vec2, len(beliefs))
		maxMove := 0.0

		// Synchronous update: every round-t+1 belief is computed from the
		// complete round-t state before any value is overwritten.
		for _, id := range ordered {
			updated := bp.refineBelief(id, beliefs[id], known, beliefs, participants, hops, adjacency[id], distances)
			next[id] = updated
			if move := updated.DistanceTo(beliefs[id]); move > maxMove {
				maxMove = move
			}
		}

		beliefs = next
		if maxMove < bp.tolerance {
			break
		}
	}

	estimates := make(core.EstimatedPositions, len(beliefs))
	for id, pos := range beliefs {
		estimates[id] = pos
	}
	return estimates, nil
}

// refineBelief computes one node's next belief: the weighted mean of its
// neighbors' circle projections, i.e. one fixed-point step toward the
// minimizer of Σ_j w_j (‖p − b_j‖ − d_ij)². Neighbors closer to the anchor
// set (fewer hops) carry more weight.
func (bp *BeliefProp) refineBelief(
	id core.NodeID,
	current core.Vec2,
	known core.KnownPositions,
	beliefs map[core.NodeID]core.Vec2,
	participants map[core.NodeID]bool,
	hops map[core.NodeID]int,
	neighbors []core.NodeID,
	distances core.DistanceMeasurements,
) core.Vec2 {
	var sum core.Vec2
	sumW := 0.0

	for _, nb := range neighbors {
		var ref core.Vec2
		if pos, ok := known[nb]; ok {
			ref = pos
		} else if participants[nb] {
			ref = beliefs[nb]
		} else {
			continue
		}

		d, ok := distances[core.MakePair(id, nb)]
		if !ok {
			continue
		}

		// Project the current belief onto the circle of radius d around
		// the neighbor's belief. A coincident point gets a fixed axis
		// offset; deterministic, and the next round pulls it into place.
		dir := current.Sub(ref)
		norm := dir.Norm()
		var target core.Vec2
		if norm < 1e-12 {
			target = ref.Add(core.Vec2{X: d})
		} else {
			target = ref.Add(dir.Scale(d / norm))
		}

		w := 1.0 / float64(1+hops[nb])
		sum = sum.Add(target.Scale(w))
		sumW += w
	}

	if sumW == 0 {
		return current
	}
	return sum.Scale(1 / sumW)
}

// initialBeliefs seeds each participant at the centroid of its anchor
// neighbors, or at the area centroid when it has none yet.
func (bp *BeliefProp) initialBeliefs(
	participants map[core.NodeID]bool,
	known core.KnownPositions,
	adjacency map[core.NodeID][]core.NodeID,
) map[core.NodeID]core.Vec2 {
	center := core.Vec2{X: bp.areaSize / 2, Y: bp.areaSize / 2}

	beliefs := make(map[core.NodeID]core.Vec2, len(participants))
	for id := range participants {
		var sum core.Vec2
		count := 0
		for _, nb := range adjacency[id] {
			if pos, ok := known[nb]; ok {
				sum = sum.Add(pos)
				count++
			}
		}
		if count > 0 {
			beliefs[id] = sum.Scale(1 / float64(count))
		} else {
			beliefs[id] = center
		}
	}
	return beliefs
}

// buildAdjacency derives sorted neighbor lists from the measurement keys.
func buildAdjacency(distances core.DistanceMeasurements) map[core.NodeID][]core.NodeID {
	adjacency := make(map[core.NodeID][]core.NodeID)
	for pair := range distances {
		adjacency[pair.Low] = append(adjacency[pair.Low], pair.High)
		adjacency[pair.High] = append(adjacency[pair.High], pair.Low)
	}
	for id := range adjacency {
		nbs := adjacency[id]
		sort.Slice(nbs, func(i, j int) bool { return nbs[i] < nbs[j] })
	}
	return adjacency
}

// determinableNodes runs the eligibility fixpoint: an unknown node is
// determinable once at least three of its neighbors are anchors or
// determinable themselves. Mirrors the generator's topology invariant, so
// on a well-formed topology every unknown node participates.
func determinableNodes(known core.KnownPositions, adjacency map[core.NodeID][]core.NodeID) map[core.NodeID]bool {
	determinable := make(map[core.NodeID]bool)
	for {
		changed := false
		for id, neighbors := range adjacency {
			if _, isKnown := known[id]; isKnown || determinable[id] {
				continue
			}
			supports := 0
			for _, nb := range neighbors {
				if _, ok := known[nb]; ok {
					supports++
				} else if determinable[nb] {
					supports++
				}
			}
			if supports >= 3 {
				determinable[id] = true
				changed = true
			}
		}
		if !changed {
			return determinable
		}
	}
}

// hopCounts is a BFS from the anchor set over the constraint graph,
// yielding each node's hop distance to the nearest anchor. Anchors are 0;
// unreachable nodes stay absent (they are never participants anyway).
func hopCounts(known core.KnownPositions, adjacency map[core.NodeID][]core.NodeID) map[core.NodeID]int {
	hops := make(map[core.NodeID]int)
	frontier := make([]core.NodeID, 0, len(known))
	for id := range known {
		hops[id] = 0
		frontier = append(frontier, id)
	}
	sort.Slice(frontier, func(i, j int) bool { return frontier[i] < frontier[j] })

	for len(frontier) > 0 {
		var nextFrontier []core.NodeID
		for _, id := range frontier {
			for _, nb := range adjacency[id] {
				if _, seen := hops[nb]; seen {
					continue
				}
				hops[nb] = hops[id] + 1
				nextFrontier = append(nextFrontier, nb)
			}
		}
		sort.Slice(nextFrontier, func(i, j int) bool { return nextFrontier[i] < nextFrontier[j] })
		frontier = nextFrontier
	}

	return hops
}
