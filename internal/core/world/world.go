package world

import (
	"errors"
	"fmt"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// ErrEntityNotFound is returned by attach operations aimed at a dead entity.
var ErrEntityNotFound = errors.New("entity not found")

// World is the object registry plus one typed store per component. It is
// driven from a single goroutine; stores tolerate concurrent readers during
// the parallel collision pass.
type World struct {
	nextID models.EntityID

	Transforms   *Store[component.Transform]
	Hitboxes     *Store[physics.Hitbox]
	Layers       *Store[layer.Set]
	Trackers     *Store[component.Tracker]
	Draggables   *Store[component.Draggable]
	DragShadows  *Store[component.DragShadow]
	HoverShadows *Store[component.HoverShadow]
	Blockers     *Store[component.DropBlocker]
	Appearances  *Store[component.Appearance]
	SceneObjects *Store[component.SceneObject]

	stores    []remover
	onDespawn []func(models.EntityID)
}

func New() *World {
	w := &World{
		nextID:       1,
		Transforms:   NewStore[component.Transform](),
		Hitboxes:     NewStore[physics.Hitbox](),
		Layers:       NewStore[layer.Set](),
		Trackers:     NewStore[component.Tracker](),
		Draggables:   NewStore[component.Draggable](),
		DragShadows:  NewStore[component.DragShadow](),
		HoverShadows: NewStore[component.HoverShadow](),
		Blockers:     NewStore[component.DropBlocker](),
		Appearances:  NewStore[component.Appearance](),
		SceneObjects: NewStore[component.SceneObject](),
	}
	// Transforms doubles as the liveness set and is not listed here.
	w.stores = []remover{
		w.Hitboxes, w.Layers, w.Trackers, w.Draggables, w.DragShadows,
		w.HoverShadows, w.Blockers, w.Appearances, w.SceneObjects,
	}
	return w
}

// Spawn creates an entity at t.
func (w *World) Spawn(t component.Transform) models.EntityID {
	id := w.nextID
	w.nextID++
	w.Transforms.Set(id, t)
	return id
}

func (w *World) Exists(id models.EntityID) bool {
	return id.Valid() && w.Transforms.Has(id)
}

// Despawn removes id and all its components. It reports false when id was
// already gone.
func (w *World) Despawn(id models.EntityID) bool {
	if !w.Exists(id) {
		return false
	}
	for _, s := range w.stores {
		s.Remove(id)
	}
	w.Transforms.Remove(id)
	for _, fn := range w.onDespawn {
		fn(id)
	}
	return true
}

// OnDespawn registers a hook called after an entity is removed.
func (w *World) OnDespawn(fn func(models.EntityID)) {
	w.onDespawn = append(w.onDespawn, fn)
}

// Entities lists live entities in creation order.
func (w *World) Entities() []models.EntityID {
	return w.Transforms.Entities()
}

func (w *World) Len() int { return w.Transforms.Len() }

func (w *World) Position(id models.EntityID) (component.Transform, bool) {
	return w.Transforms.Get(id)
}

func (w *World) SetPosition(id models.EntityID, t component.Transform) error {
	if !w.Exists(id) {
		return fmt.Errorf("set position %s: %w", id, ErrEntityNotFound)
	}
	w.Transforms.Set(id, t)
	return nil
}

// WorldRect resolves id's hitbox against its current position.
func (w *World) WorldRect(id models.EntityID) (physics.Rect, bool) {
	t, ok := w.Transforms.Get(id)
	if !ok {
		return physics.Rect{}, false
	}
	h, ok := w.Hitboxes.Get(id)
	if !ok {
		return physics.Rect{}, false
	}
	return h.WorldRect(t.XY()), true
}

// Clear drops every entity without calling despawn hooks. IDs keep counting
// up so stale references never alias new objects.
func (w *World) Clear() {
	for _, s := range w.stores {
		s.Clear()
	}
	w.Transforms.Clear()
}
