package physics

import "math"

// Vec2 is a 2D point or displacement in world units.
type Vec2 struct {
	X, Y float64
}

// V is shorthand for Vec2{X: x, Y: y}.
func V(x, y float64) Vec2 { return Vec2{X: x, Y: y} }

func (v Vec2) Add(o Vec2) Vec2         { return Vec2{v.X + o.X, v.Y + o.Y} }
func (v Vec2) Sub(o Vec2) Vec2         { return Vec2{v.X - o.X, v.Y - o.Y} }
func (v Vec2) Scale(s float64) Vec2    { return Vec2{v.X * s, v.Y * s} }
func (v Vec2) Length() float64         { return math.Hypot(v.X, v.Y) }
func (v Vec2) IsFinite() bool          { return isFinite(v.X) && isFinite(v.Y) }
func (v Vec2) Distance(o Vec2) float64 { return Distance2(v.X, v.Y, o.X, o.Y) }

// DistanceSq avoids the square root when only ordering matters.
func (v Vec2) DistanceSq(o Vec2) float64 {
	dx, dy := o.X-v.X, o.Y-v.Y
	return dx*dx + dy*dy
}

// Distance2 computes Euclidean distance between two 2D points.
func Distance2(x1, y1, x2, y2 float64) float64 { return math.Hypot(x2-x1, y2-y1) }

func isFinite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }
