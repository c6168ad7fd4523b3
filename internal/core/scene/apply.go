package scene

import (
	"fmt"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// Target is the part of the simulation a scene writes to.
type Target interface {
	Spawn(t component.Transform) models.EntityID
	Tag(id models.EntityID, name string) error
	SetHitbox(id models.EntityID, h physics.Hitbox) error
	SetLayers(id models.EntityID, layers layer.Set) error
	ReportCollisions(id models.EntityID, on bool) error
	SetBlocker(id models.EntityID, blocks bool) error
	SetAppearance(id models.EntityID, a component.Appearance) error
	MakeDraggable(id models.EntityID, rules simulation.Rules) error
}

var _ Target = (*simulation.Simulation)(nil)

// Apply spawns every object and returns their IDs by name. Objects are
// spawned in file order so iteration order follows the file; draggable
// rules are attached in a second pass once every allow reference exists.
func (s *Scene) Apply(t Target) (map[string]models.EntityID, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	ids := make(map[string]models.EntityID, len(s.Objects))
	for _, o := range s.Objects {
		id, err := spawn(t, o)
		if err != nil {
			return ids, fmt.Errorf("spawn %s: %w", o.Name, err)
		}
		ids[o.Name] = id
	}
	for _, o := range s.Objects {
		if o.Draggable == nil && !o.BlocksDrops {
			continue
		}
		id := ids[o.Name]
		if o.Draggable == nil {
			if err := t.SetBlocker(id, true); err != nil {
				return ids, fmt.Errorf("blocker %s: %w", o.Name, err)
			}
			continue
		}
		rules := simulation.Rules{
			MustContain:   o.Draggable.MustContain,
			MustIntersect: o.Draggable.MustIntersect,
			BlocksDrops:   o.BlocksDrops,
		}
		for _, ref := range o.Draggable.Allow {
			rules.Allow = append(rules.Allow, ids[ref])
		}
		if err := t.MakeDraggable(id, rules); err != nil {
			return ids, fmt.Errorf("draggable %s: %w", o.Name, err)
		}
	}
	return ids, nil
}

func spawn(t Target, o Object) (models.EntityID, error) {
	pos, err := o.Transform()
	if err != nil {
		return models.None, err
	}
	id := t.Spawn(component.Transform{X: pos[0], Y: pos[1], Z: pos[2]})
	if err := t.Tag(id, o.Name); err != nil {
		return id, err
	}
	if o.Hitbox != nil {
		h, err := o.Hitbox.Build()
		if err != nil {
			return id, err
		}
		if err := t.SetHitbox(id, h); err != nil {
			return id, err
		}
	}
	if !o.Layers.IsEmpty() {
		if err := t.SetLayers(id, o.Layers); err != nil {
			return id, err
		}
	}
	if o.Collisions {
		if err := t.ReportCollisions(id, true); err != nil {
			return id, err
		}
	}
	a := component.DefaultAppearance()
	if len(o.Tint) == 4 {
		a.Tint = component.RGBA(o.Tint[0], o.Tint[1], o.Tint[2], o.Tint[3])
	}
	return id, t.SetAppearance(id, a)
}
