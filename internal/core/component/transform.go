package component

import "github.com/zeusync/spatial/internal/core/systems/physics"

// Transform is an object's world position. Z only orders drawing; the
// collision layer is strictly 2D.
type Transform struct {
	X, Y, Z float64
}

func At(x, y float64) Transform { return Transform{X: x, Y: y} }

func (t Transform) XY() physics.Vec2 { return physics.Vec2{X: t.X, Y: t.Y} }

// WithXY moves the transform in the plane and keeps Z.
func (t Transform) WithXY(p physics.Vec2) Transform {
	t.X, t.Y = p.X, p.Y
	return t
}
