package pointer

import "github.com/zeusync/spatial/internal/core/systems/physics"

// Camera converts between screen space (pixels, y down) and world space.
type Camera interface {
	// ViewportToWorld reports false when the camera cannot project, for
	// example before its viewport has a size.
	ViewportToWorld(screen physics.Vec2) (physics.Vec2, bool)
}

// OrthoCamera is an orthographic camera centred on Position with world y up.
type OrthoCamera struct {
	Position physics.Vec2
	// Zoom is screen pixels per world unit.
	Zoom     float64
	Viewport physics.Vec2
}

var _ Camera = OrthoCamera{}

func NewOrthoCamera(width, height float64) OrthoCamera {
	return OrthoCamera{Zoom: 1, Viewport: physics.V(width, height)}
}

func (c OrthoCamera) usable() bool {
	return c.Zoom > 0 && c.Viewport.X > 0 && c.Viewport.Y > 0 && c.Position.IsFinite()
}

func (c OrthoCamera) ViewportToWorld(screen physics.Vec2) (physics.Vec2, bool) {
	if !c.usable() || !screen.IsFinite() {
		return physics.Vec2{}, false
	}
	return physics.Vec2{
		X: c.Position.X + (screen.X-c.Viewport.X/2)/c.Zoom,
		Y: c.Position.Y - (screen.Y-c.Viewport.Y/2)/c.Zoom,
	}, true
}

// WorldToViewport is the inverse of ViewportToWorld.
func (c OrthoCamera) WorldToViewport(p physics.Vec2) (physics.Vec2, bool) {
	if !c.usable() || !p.IsFinite() {
		return physics.Vec2{}, false
	}
	return physics.Vec2{
		X: (p.X-c.Position.X)*c.Zoom + c.Viewport.X/2,
		Y: c.Viewport.Y/2 - (p.Y-c.Position.Y)*c.Zoom,
	}, true
}

// IdentityCamera treats screen coordinates as world coordinates. Headless
// replays use it.
type IdentityCamera struct{}

func (IdentityCamera) ViewportToWorld(screen physics.Vec2) (physics.Vec2, bool) {
	return screen, screen.IsFinite()
}
