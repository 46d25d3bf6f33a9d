package core

import "math"

// Vec2 is a point or displacement in the simulation plane.
type Vec2 struct {
	X, Y float64
}

// DistanceTo returns the euclidean distance between two points.
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := v.X - other.X
	dy := v.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Norm returns the euclidean norm of the vector.
func (v Vec2) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Sub returns v - other.
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// Add returns v + other.
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Scale returns v scaled by s.
func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// Cross returns the z component of the cross product of two plane vectors.
// Its magnitude is twice the area of the triangle spanned by them.
func (v Vec2) Cross(other Vec2) float64 {
	return v.X*other.Y - v.Y*other.X
}

// collinearityTolerance bounds the triangle area below which three points
// are treated as collinear. Near-collinear references leave the 2-D
// position problem indeterminate, so the check errs on the strict side.
const collinearityTolerance = 1e-9

// hasNonCollinearTriple reports whether the point set contains at least one
// triple spanning a non-degenerate triangle. Fewer than three points can
// never satisfy it.
func hasNonCollinearTriple(points []Vec2) bool {
	n := len(points)
	if n < 3 {
		return false
	}
	for i := 0; i < n-2; i++ {
		for j := i + 1; j < n-1; j++ {
			ab := points[j].Sub(points[i])
			for k := j + 1; k < n; k++ {
				ac := points[k].Sub(points[i])
				if math.Abs(ab.Cross(ac)) > collinearityTolerance {
					return true
				}
			}
		}
	}
	return false
}

// InArea reports whether p lies within the square [0, areaSize] x [0, areaSize].
func InArea(p Vec2, areaSize float64) bool {
	return p.X >= 0 && p.X <= areaSize && p.Y >= 0 && p.Y <= areaSize
}
