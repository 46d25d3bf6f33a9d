package core

import (
	"math"
	"testing"
)

func TestDistanceTo(t *testing.T) {
	a := Vec2{X: 0, Y: 0}
	b := Vec2{X: 3, Y: 4}

	if got := a.DistanceTo(b); math.Abs(got-5) > 1e-12 {
		t.Errorf("DistanceTo = %v, want 5", got)
	}
	if got, want := a.DistanceTo(b), b.DistanceTo(a); got != want {
		t.Errorf("distance not symmetric: %v vs %v", got, want)
	}
}

func TestHasNonCollinearTriple(t *testing.T) {
	collinear := []Vec2{{0, 0}, {10, 0}, {20, 0}, {35, 0}}
	if hasNonCollinearTriple(collinear) {
		t.Errorf("expected points on a line to be reported collinear")
	}

	triangle := []Vec2{{0, 0}, {10, 0}, {5, 8}}
	if !hasNonCollinearTriple(triangle) {
		t.Errorf("expected a proper triangle to be reported non-collinear")
	}

	// One off-line point among many collinear ones is enough.
	mixed := append(append([]Vec2(nil), collinear...), Vec2{X: 5, Y: 3})
	if !hasNonCollinearTriple(mixed) {
		t.Errorf("expected one off-line point to break collinearity")
	}

	if hasNonCollinearTriple([]Vec2{{0, 0}, {1, 1}}) {
		t.Errorf("two points can never span a triangle")
	}
}

func TestInArea(t *testing.T) {
	if !InArea(Vec2{X: 50, Y: 50}, 100) {
		t.Errorf("centre of area should be inside")
	}
	if !InArea(Vec2{X: 0, Y: 100}, 100) {
		t.Errorf("boundary should count as inside")
	}
	if InArea(Vec2{X: -0.1, Y: 50}, 100) || InArea(Vec2{X: 50, Y: 100.1}, 100) {
		t.Errorf("points beyond the boundary should be outside")
	}
}
