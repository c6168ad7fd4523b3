package component

import (
	"slices"

	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// DragState is derived from which shadow, if any, a draggable currently owns.
type DragState uint8

const (
	Idle DragState = iota
	Hovered
	Dragging
)

func (s DragState) String() string {
	switch s {
	case Hovered:
		return "hovered"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Draggable describes an object that can be picked up with the pointer and
// the rules a drop has to satisfy. DragShadow and HoverShadow are never both
// set.
type Draggable struct {
	DragShadow  models.EntityID
	HoverShadow models.EntityID

	MustContain   layer.Optional
	MustIntersect layer.Optional
	// Allow lists targets that make a drop legal regardless of the other rules.
	Allow []models.EntityID
}

func (d Draggable) State() DragState {
	switch {
	case d.DragShadow.Valid():
		return Dragging
	case d.HoverShadow.Valid():
		return Hovered
	default:
		return Idle
	}
}

func (d Draggable) Allows(id models.EntityID) bool {
	return slices.Contains(d.Allow, id)
}

// DragShadow is the ephemeral object that follows the pointer during a drag.
type DragShadow struct {
	Original models.EntityID
	// Offset from the pointer to the shadow origin, fixed at pick-up.
	Offset physics.Vec2
}

// HoverShadow is a visual-only preview shown while the pointer rests on a
// draggable.
type HoverShadow struct {
	Original models.EntityID
}

// DropBlocker rejects any drag whose layers intersect the blocker's layers.
type DropBlocker struct{}

// SceneObject tags objects spawned from a scene so they can be cleared
// together.
type SceneObject struct {
	Name string
}
