package localize

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/signalsfoundry/vehicle-localization-sim/core"
)

func init() {
	Register("trilateration", func(opts Options) Estimator {
		return NewTrilateration(opts)
	})
}

// maxConditionNumber rejects least-squares systems whose reference geometry
// is near-collinear. Past this point the solve is numerically meaningless
// and the node is better reported unlocalized than placed unstably.
const maxConditionNumber = 1e8

// Trilateration is the multilateration-style reference estimator. Each
// unknown node with at least three distance constraints to resolved
// references is solved via the standard linearized reduction (subtracting
// pairwise circle equations gives a linear system in the position), as an
// over-determined least-squares problem when more than three constraints
// exist. Solved nodes become pseudo-anchors for their neighbors, so
// coverage propagates outward from the anchor set.
type Trilateration struct {
	areaSize float64
}

// NewTrilateration builds the estimator. opts.AreaSize enables the
// two-constraint mirror disambiguation; when 0 that fallback is disabled.
func NewTrilateration(opts Options) *Trilateration {
	return &Trilateration{areaSize: opts.AreaSize}
}

// Name implements Estimator.
func (t *Trilateration) Name() string { return "trilateration" }

// constraint is one usable distance to a resolved reference position.
type constraint struct {
	ref      core.NodeID
	position core.Vec2
	distance float64
}

// Estimate implements Estimator.
func (t *Trilateration) Estimate(known core.KnownPositions, distances core.DistanceMeasurements) (core.EstimatedPositions, error) {
	// Resolved references start as the anchor set; inputs stay untouched.
	resolved := known.Clone()
	estimates := make(core.EstimatedPositions)
	pending := unknownNodes(known, distances)

	// Fixpoint: keep sweeping while at least one node gains enough
	// constraints. Anchors first, then transitively reachable nodes, which
	// realizes the increasing-distance-to-anchor-set processing order.
	for {
		progress := false
		remaining := pending[:0]
		for _, id := range pending {
			cons := gatherConstraints(id, resolved, distances)
			if len(cons) < 3 {
				remaining = append(remaining, id)
				continue
			}
			pos, ok := solveLeastSquares(cons)
			if !ok {
				// Near-singular geometry; retry next sweep in case new
				// pseudo-anchors improve it, otherwise leave unresolved.
				remaining = append(remaining, id)
				continue
			}
			resolved[id] = pos
			estimates[id] = pos
			progress = true
		}
		pending = remaining
		if !progress || len(pending) == 0 {
			break
		}
	}

	// Two-constraint fallback: exact circle intersection with the in-area
	// mirror rule. These solutions are weaker, so they are reported but
	// never promoted to pseudo-anchors.
	if t.areaSize > 0 {
		for _, id := range pending {
			cons := gatherConstraints(id, resolved, distances)
			if len(cons) != 2 {
				continue
			}
			if pos, ok := t.disambiguate(cons[0], cons[1]); ok {
				estimates[id] = pos
			}
		}
	}

	return estimates, nil
}

// gatherConstraints lists the distances from id to currently resolved
// references, sorted by reference ID for deterministic solves.
func gatherConstraints(id core.NodeID, resolved core.KnownPositions, distances core.DistanceMeasurements) []constraint {
	var cons []constraint
	for pair, d := range distances {
		if !pair.Contains(id) {
			continue
		}
		other := pair.Other(id)
		pos, ok := resolved[other]
		if !ok {
			continue
		}
		cons = append(cons, constraint{ref: other, position: pos, distance: d})
	}
	sort.Slice(cons, func(i, j int) bool { return cons[i].ref < cons[j].ref })
	return cons
}

// solveLeastSquares solves the linearized trilateration system for one
// node. With references S_1..S_m and distances d_1..d_m, subtracting the
// circle equation of the last reference from the others yields, per row i:
//
//	2 (S_m - S_i) · p = d_i² - d_m² - ‖S_i‖² + ‖S_m‖²
//
// which is solved with QR in the least-squares sense. Returns ok=false on
// near-singular systems.
func solveLeastSquares(cons []constraint) (core.Vec2, bool) {
	m := len(cons)
	if m < 3 {
		return core.Vec2{}, false
	}

	ref := cons[m-1]
	refNormSq := ref.position.X*ref.position.X + ref.position.Y*ref.position.Y
	refDistSq := ref.distance * ref.distance

	rows := m - 1
	aData := make([]float64, rows*2)
	bData := make([]float64, rows)
	for i := 0; i < rows; i++ {
		c := cons[i]
		diff := ref.position.Sub(c.position)
		aData[i*2] = 2 * diff.X
		aData[i*2+1] = 2 * diff.Y

		normSq := c.position.X*c.position.X + c.position.Y*c.position.Y
		bData[i] = c.distance*c.distance - refDistSq - normSq + refNormSq
	}

	A := mat.NewDense(rows, 2, aData)
	b := mat.NewVecDense(rows, bData)

	if cond := mat.Cond(A, 2); math.IsInf(cond, 0) || math.IsNaN(cond) || cond > maxConditionNumber {
		return core.Vec2{}, false
	}

	var qr mat.QR
	qr.Factorize(A)
	var x mat.VecDense
	if err := qr.SolveVecTo(&x, false, b); err != nil {
		return core.Vec2{}, false
	}
	return core.Vec2{X: x.AtVec(0), Y: x.AtVec(1)}, true
}

// disambiguate intersects the two constraint circles and applies the
// mirror rule: the solution inside the simulation area wins. When neither
// or both candidates are inside, the node stays unresolved; guessing
// between mirrors would fabricate an unconstrained coordinate.
func (t *Trilateration) disambiguate(c1, c2 constraint) (core.Vec2, bool) {
	p1, p2, ok := circleIntersection(c1.position, c1.distance, c2.position, c2.distance)
	if !ok {
		return core.Vec2{}, false
	}
	in1 := core.InArea(p1, t.areaSize)
	in2 := core.InArea(p2, t.areaSize)
	switch {
	case in1 && !in2:
		return p1, true
	case in2 && !in1:
		return p2, true
	default:
		return core.Vec2{}, false
	}
}

// circleIntersection returns the two intersection points of circles
// (c1, r1) and (c2, r2). ok is false when the circles are disjoint,
// contained in one another, or concentric.
func circleIntersection(c1 core.Vec2, r1 float64, c2 core.Vec2, r2 float64) (core.Vec2, core.Vec2, bool) {
	d := c1.DistanceTo(c2)
	if d == 0 || d > r1+r2 || d < math.Abs(r1-r2) {
		return core.Vec2{}, core.Vec2{}, false
	}

	a := (r1*r1 - r2*r2 + d*d) / (2 * d)
	hSq := r1*r1 - a*a
	if hSq < 0 {
		hSq = 0
	}
	h := math.Sqrt(hSq)

	dir := c2.Sub(c1).Scale(1 / d)
	mid := c1.Add(dir.Scale(a))
	offset := core.Vec2{X: -dir.Y, Y: dir.X}.Scale(h)

	return mid.Add(offset), mid.Sub(offset), true
}
