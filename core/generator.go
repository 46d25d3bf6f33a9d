package core

import (
	"errors"
	"fmt"
	"math/rand"
)

// ErrInvalidConfig marks configuration errors detected before any
// simulation work. These are fatal to the run and never silently clamped.
var ErrInvalidConfig = errors.New("invalid configuration")

// ErrTopologyUnsatisfiable is returned when the generator cannot satisfy
// the per-node determinability invariant within its retry budget. It is a
// reported, recoverable condition: the caller should relax parameters
// (larger comm range, fewer vehicles, bigger anchors share) and retry.
var ErrTopologyUnsatisfiable = errors.New("topology unsatisfiable")

// DefaultMaxAttempts bounds topology resampling so an impossible parameter
// set fails instead of looping forever.
const DefaultMaxAttempts = 100

// Config holds the generator parameters. The zero value is not usable;
// construct one explicitly and let Validate reject bad inputs.
type Config struct {
	// NumVehicles is the total node count, anchors included.
	NumVehicles int
	// NumAnchors is how many nodes publish their true position.
	NumAnchors int
	// CommRange is the connectivity distance threshold.
	CommRange float64
	// AreaSize defines the square [0, AreaSize] x [0, AreaSize].
	AreaSize float64
	// Seed drives all randomness: placement, anchor choice and noise.
	// Runs with equal configs are bit-reproducible.
	Seed int64
	// NoiseStdDev is the gaussian measurement-noise sigma; 0 means exact
	// distances.
	NoiseStdDev float64
	// MaxAttempts bounds whole-topology resampling; 0 means
	// DefaultMaxAttempts.
	MaxAttempts int
}

// Validate checks the parameter ranges. All violations wrap
// ErrInvalidConfig.
func (c Config) Validate() error {
	if c.NumVehicles <= 0 {
		return fmt.Errorf("%w: num_vehicles must be positive, got %d", ErrInvalidConfig, c.NumVehicles)
	}
	if c.NumAnchors <= 0 {
		return fmt.Errorf("%w: num_anchors must be positive, got %d", ErrInvalidConfig, c.NumAnchors)
	}
	if c.NumAnchors >= c.NumVehicles {
		return fmt.Errorf("%w: num_anchors (%d) must be less than num_vehicles (%d)",
			ErrInvalidConfig, c.NumAnchors, c.NumVehicles)
	}
	if c.CommRange <= 0 {
		return fmt.Errorf("%w: comm_range must be positive, got %g", ErrInvalidConfig, c.CommRange)
	}
	if c.AreaSize <= 0 {
		return fmt.Errorf("%w: area_size must be positive, got %g", ErrInvalidConfig, c.AreaSize)
	}
	if c.NoiseStdDev < 0 {
		return fmt.Errorf("%w: noise_stddev must be non-negative, got %g", ErrInvalidConfig, c.NoiseStdDev)
	}
	if c.MaxAttempts < 0 {
		return fmt.Errorf("%w: max_attempts must be non-negative, got %d", ErrInvalidConfig, c.MaxAttempts)
	}
	return nil
}

// maxAttempts resolves the retry budget.
func (c Config) maxAttempts() int {
	if c.MaxAttempts > 0 {
		return c.MaxAttempts
	}
	return DefaultMaxAttempts
}

// Generator places vehicles in the area, designates anchors, derives the
// connectivity graph from the communication range and computes distance
// measurements for every edge. It guarantees that every unknown node in a
// returned topology has at least three neighbors spanning a non-collinear
// reference set, which is what 2-D localization needs to be determinable.
type Generator struct {
	cfg   Config
	rng   *rand.Rand
	noise NoiseModel
}

// NewGenerator validates the config and builds a generator with its own
// seeded random source. No global random state is touched.
func NewGenerator(cfg Config) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	return &Generator{
		cfg:   cfg,
		rng:   rng,
		noise: GaussianNoise(cfg.NoiseStdDev, rng),
	}, nil
}

// Generate samples topologies until one satisfies the determinability
// invariant, then attaches measurements. When the retry budget runs out it
// returns ErrTopologyUnsatisfiable.
func (g *Generator) Generate() (*Topology, error) {
	budget := g.cfg.maxAttempts()
	for attempt := 1; attempt <= budget; attempt++ {
		topo := g.sampleTopology()
		if !g.invariantHolds(topo) {
			continue
		}
		if err := g.attachMeasurements(topo); err != nil {
			return nil, err
		}
		return topo, nil
	}
	return nil, fmt.Errorf("%w: no valid topology in %d attempts (vehicles=%d anchors=%d range=%g area=%g)",
		ErrTopologyUnsatisfiable, budget,
		g.cfg.NumVehicles, g.cfg.NumAnchors, g.cfg.CommRange, g.cfg.AreaSize)
}

// sampleTopology draws one candidate: uniform positions, a random anchor
// subset, and range-threshold edges (without measurements yet).
func (g *Generator) sampleTopology() *Topology {
	topo := NewTopology(g.cfg.AreaSize, g.cfg.CommRange)

	positions := make([]Vec2, g.cfg.NumVehicles)
	for i := range positions {
		positions[i] = Vec2{
			X: g.rng.Float64() * g.cfg.AreaSize,
			Y: g.rng.Float64() * g.cfg.AreaSize,
		}
	}

	// The first NumAnchors indices of a seeded permutation form the anchor
	// set; deterministic for a given seed.
	anchors := make(map[int]bool, g.cfg.NumAnchors)
	for _, idx := range g.rng.Perm(g.cfg.NumVehicles)[:g.cfg.NumAnchors] {
		anchors[idx] = true
	}

	for i, pos := range positions {
		role := RoleUnknown
		if anchors[i] {
			role = RoleAnchor
		}
		// IDs are dense, so AddNode cannot collide here.
		_ = topo.AddNode(&Node{ID: NodeID(i), TruePosition: pos, Role: role})
	}

	// Edge iff euclidean distance within comm range. Placeholder distance;
	// real measurements are attached only once the candidate is accepted,
	// so the noise stream is not consumed by rejected topologies.
	for i := 0; i < g.cfg.NumVehicles; i++ {
		for j := i + 1; j < g.cfg.NumVehicles; j++ {
			d := positions[i].DistanceTo(positions[j])
			if d <= g.cfg.CommRange {
				_ = topo.SetMeasurement(NodeID(i), NodeID(j), d)
			}
		}
	}
	return topo
}

// invariantHolds verifies that every unknown node has at least three
// distinct neighbors whose positions are not all collinear.
func (g *Generator) invariantHolds(topo *Topology) bool {
	for _, n := range topo.Nodes() {
		if n.Role != RoleUnknown {
			continue
		}
		neighbors := topo.Neighbors(n.ID)
		if len(neighbors) < 3 {
			return false
		}
		points := make([]Vec2, 0, len(neighbors))
		for _, id := range neighbors {
			points = append(points, topo.Node(id).TruePosition)
		}
		if !hasNonCollinearTriple(points) {
			return false
		}
	}
	return true
}

// attachMeasurements replaces the placeholder edge distances with the
// configured noise model applied to the true distances, in stable edge
// order so seeded runs reproduce exactly.
func (g *Generator) attachMeasurements(topo *Topology) error {
	for _, pair := range topo.Edges() {
		a := topo.Node(pair.Low)
		b := topo.Node(pair.High)
		measured := g.noise(a.TruePosition.DistanceTo(b.TruePosition))
		if err := topo.SetMeasurement(pair.Low, pair.High, measured); err != nil {
			return fmt.Errorf("attach measurement %d-%d: %w", pair.Low, pair.High, err)
		}
	}
	return nil
}
