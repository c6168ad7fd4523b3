package simulation

import (
	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/systems/drag"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// Snapshot is a read-only copy of everything a renderer or the inspector
// draws.
type Snapshot struct {
	Session string           `json:"session"`
	Frame   uint64           `json:"frame"`
	Pointer *physics.Vec2    `json:"pointer,omitempty"`
	Preview drag.Preview     `json:"preview"`
	Objects []ObjectSnapshot `json:"objects"`
}

type ObjectSnapshot struct {
	ID          models.EntityID      `json:"id"`
	Name        string               `json:"name,omitempty"`
	Transform   component.Transform  `json:"transform"`
	Rect        *physics.Rect        `json:"rect,omitempty"`
	Layers      string               `json:"layers,omitempty"`
	Collides    bool                 `json:"collides"`
	Overlapping []models.EntityID    `json:"overlapping,omitempty"`
	State       string               `json:"state,omitempty"`
	Shadow      bool                 `json:"shadow,omitempty"`
	Blocker     bool                 `json:"blocker,omitempty"`
	Appearance  component.Appearance `json:"appearance"`
}

// Snapshot copies the current world in creation order.
func (s *Simulation) Snapshot() Snapshot {
	snap := Snapshot{
		Session: s.ID(),
		Frame:   s.frame,
		Preview: s.engine.Preview(),
	}
	if p, ok := s.pointer.World(); ok {
		snap.Pointer = &p
	}

	w := s.world
	for _, id := range w.Entities() {
		t, _ := w.Position(id)
		o := ObjectSnapshot{
			ID:         id,
			Transform:  t,
			Blocker:    w.Blockers.Has(id),
			Shadow:     w.DragShadows.Has(id) || w.HoverShadows.Has(id),
			Appearance: component.DefaultAppearance(),
		}
		if so, ok := w.SceneObjects.Get(id); ok {
			o.Name = so.Name
		}
		if r, ok := w.WorldRect(id); ok {
			o.Rect = &r
		}
		if l, ok := w.Layers.Get(id); ok && !l.IsEmpty() {
			o.Layers = l.String()
		}
		if tr, ok := w.Trackers.Get(id); ok {
			o.Collides = true
			o.Overlapping = tr.Snapshot()
		}
		if d, ok := w.Draggables.Get(id); ok {
			o.State = d.State().String()
		}
		if a, ok := w.Appearances.Get(id); ok {
			o.Appearance = a
		}
		snap.Objects = append(snap.Objects, o)
	}
	return snap
}
