package core

import (
	"fmt"
	"sort"
	"sync"
)

// Topology is an in-memory, thread-safe store for the nodes, edges and
// distance measurements of one generated network. It owns the graph; the
// views handed to localization algorithms (KnownPositions,
// DistanceMeasurements) are snapshots, so algorithms can never mutate the
// topology behind the simulator's back.
type Topology struct {
	mu sync.RWMutex

	areaSize  float64
	commRange float64

	nodes        map[NodeID]*Node
	adjacency    map[NodeID][]NodeID
	measurements map[Pair]float64
}

// NewTopology constructs an empty topology for the given area and
// communication range.
func NewTopology(areaSize, commRange float64) *Topology {
	return &Topology{
		areaSize:     areaSize,
		commRange:    commRange,
		nodes:        make(map[NodeID]*Node),
		adjacency:    make(map[NodeID][]NodeID),
		measurements: make(map[Pair]float64),
	}
}

// AreaSize returns the side length of the simulation square.
func (t *Topology) AreaSize() float64 { return t.areaSize }

// CommRange returns the connectivity distance threshold.
func (t *Topology) CommRange() float64 { return t.commRange }

// AddNode adds a node. It returns an error if the ID already exists.
func (t *Topology) AddNode(n *Node) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.nodes[n.ID]; exists {
		return fmt.Errorf("node %d already exists", n.ID)
	}
	t.nodes[n.ID] = n
	return nil
}

// SetMeasurement records an undirected edge between a and b with the given
// measured distance. Both nodes must exist. Adding the same pair twice
// overwrites the measurement without duplicating the adjacency entry.
func (t *Topology) SetMeasurement(a, b NodeID, distance float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.nodes[a]; !ok {
		return fmt.Errorf("node %d not found", a)
	}
	if _, ok := t.nodes[b]; !ok {
		return fmt.Errorf("node %d not found", b)
	}
	if a == b {
		return fmt.Errorf("self-edge on node %d", a)
	}

	pair := MakePair(a, b)
	if _, exists := t.measurements[pair]; !exists {
		t.adjacency[a] = append(t.adjacency[a], b)
		t.adjacency[b] = append(t.adjacency[b], a)
	}
	t.measurements[pair] = distance
	return nil
}

// Node returns the node with the given ID, or nil if not found.
func (t *Topology) Node(id NodeID) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodes[id]
}

// Nodes returns a snapshot of all nodes, sorted by ID.
func (t *Topology) Nodes() []*Node {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make([]*Node, 0, len(t.nodes))
	for _, n := range t.nodes {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Neighbors returns a sorted snapshot of the IDs adjacent to id.
func (t *Topology) Neighbors(id NodeID) []NodeID {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := append([]NodeID(nil), t.adjacency[id]...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// Degree returns the number of distinct neighbors of id.
func (t *Topology) Degree(id NodeID) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.adjacency[id])
}

// Measurement returns the measured distance between a and b, if an edge
// exists. Lookup is symmetric.
func (t *Topology) Measurement(a, b NodeID) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	d, ok := t.measurements[MakePair(a, b)]
	return d, ok
}

// Measurements returns a snapshot of all distance measurements.
func (t *Topology) Measurements() DistanceMeasurements {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make(DistanceMeasurements, len(t.measurements))
	for pair, d := range t.measurements {
		res[pair] = d
	}
	return res
}

// Edges returns a snapshot of all edges, sorted for stable iteration.
func (t *Topology) Edges() []Pair {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make([]Pair, 0, len(t.measurements))
	for pair := range t.measurements {
		res = append(res, pair)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].Low != res[j].Low {
			return res[i].Low < res[j].Low
		}
		return res[i].High < res[j].High
	})
	return res
}

// AnchorPositions returns the ground-truth positions of all anchors; this
// is the KnownPositions view an estimator receives.
func (t *Topology) AnchorPositions() KnownPositions {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make(KnownPositions)
	for id, n := range t.nodes {
		if n.Role == RoleAnchor {
			res[id] = n.TruePosition
		}
	}
	return res
}

// UnknownTruePositions returns the ground-truth positions of all unknown
// nodes. This view exists for evaluation only and must never be handed to
// an estimator.
func (t *Topology) UnknownTruePositions() map[NodeID]Vec2 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	res := make(map[NodeID]Vec2)
	for id, n := range t.nodes {
		if n.Role == RoleUnknown {
			res[id] = n.TruePosition
		}
	}
	return res
}

// NumNodes returns the total node count.
func (t *Topology) NumNodes() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.nodes)
}

// NumAnchors returns the anchor count.
func (t *Topology) NumAnchors() int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	count := 0
	for _, n := range t.nodes {
		if n.Role == RoleAnchor {
			count++
		}
	}
	return count
}

// NumEdges returns the undirected edge count.
func (t *Topology) NumEdges() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.measurements)
}
