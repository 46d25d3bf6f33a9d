package core

// NodeID identifies a vehicle in the network. IDs are assigned densely from
// zero by the generator and stay stable for the lifetime of a topology.
type NodeID int

// Role distinguishes anchors (true position known and published) from
// unknown nodes (true position kept only for evaluation).
type Role string

const (
	RoleAnchor  Role = "anchor"
	RoleUnknown Role = "unknown"
)

// Node is a vehicle in the simulated network. TruePosition is ground truth:
// for anchors it is handed to localization algorithms verbatim, for unknown
// nodes it is only ever compared against estimates.
type Node struct {
	ID           NodeID
	TruePosition Vec2
	Role         Role
}

// IsAnchor reports whether the node's position is ground-truth input.
func (n *Node) IsAnchor() bool { return n.Role == RoleAnchor }

// Pair is an unordered node pair, normalized so Low < High. It keys edges
// and distance measurements, making symmetry structural rather than a
// convention callers have to remember.
type Pair struct {
	Low, High NodeID
}

// MakePair normalizes (a, b) into a Pair.
func MakePair(a, b NodeID) Pair {
	if a > b {
		a, b = b, a
	}
	return Pair{Low: a, High: b}
}

// Other returns the pair member that is not id.
func (p Pair) Other(id NodeID) NodeID {
	if p.Low == id {
		return p.High
	}
	return p.Low
}

// Contains reports whether id is a member of the pair.
func (p Pair) Contains(id NodeID) bool {
	return p.Low == id || p.High == id
}

// KnownPositions maps anchor IDs to their ground-truth positions. It is the
// only position information an estimator receives.
type KnownPositions map[NodeID]Vec2

// DistanceMeasurements maps edges to (possibly noisy) scalar distance
// estimates. Entries exist exactly for the edges of the topology.
type DistanceMeasurements map[Pair]float64

// EstimatedPositions maps unknown-node IDs to estimated coordinates. A node
// absent from the map could not be localized; consumers must treat absence
// as "unlocalized", never as an implicit origin position.
type EstimatedPositions map[NodeID]Vec2

// Clone returns a copy of the map so estimators can hand out results
// without sharing internal state.
func (k KnownPositions) Clone() KnownPositions {
	out := make(KnownPositions, len(k))
	for id, pos := range k {
		out[id] = pos
	}
	return out
}
