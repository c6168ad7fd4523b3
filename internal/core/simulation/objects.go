package simulation

import (
	"fmt"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/world"
)

// Tag marks id as a scene object called name. Names are not required to be
// unique; FindByName returns the oldest match.
func (s *Simulation) Tag(id models.EntityID, name string) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("tag %s: %w", id, world.ErrEntityNotFound)
	}
	s.world.SceneObjects.Set(id, component.SceneObject{Name: name})
	return nil
}

// Name returns the scene name of id, if tagged.
func (s *Simulation) Name(id models.EntityID) (string, bool) {
	o, ok := s.world.SceneObjects.Get(id)
	return o.Name, ok
}

func (s *Simulation) FindByName(name string) (models.EntityID, bool) {
	for _, id := range s.world.SceneObjects.Entities() {
		if o, _ := s.world.SceneObjects.Get(id); o.Name == name {
			return id, true
		}
	}
	return models.None, false
}

// ClearScene despawns every tagged object and returns how many were removed.
// Shadows of cleared objects go with the next frame's reaper pass.
func (s *Simulation) ClearScene() int {
	ids := s.world.SceneObjects.Entities()
	for _, id := range ids {
		s.world.Despawn(id)
	}
	if len(ids) > 0 {
		s.log.Info("scene cleared", log.Int("objects", len(ids)), log.Uint64("frame", s.frame))
	}
	return len(ids)
}
