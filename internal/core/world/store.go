package world

import (
	"slices"
	"sync"

	"github.com/zeusync/spatial/internal/core/models"
)

// Store is a generic container for one component type. Entities are kept in
// ascending ID order so every iteration over a store follows creation order.
type Store[T any] struct {
	mu         sync.RWMutex
	components map[models.EntityID]T
	entities   []models.EntityID
}

func NewStore[T any]() *Store[T] {
	return &Store[T]{
		components: make(map[models.EntityID]T),
		entities:   make([]models.EntityID, 0, 32),
	}
}

// Set inserts or replaces the component for e.
func (s *Store[T]) Set(e models.EntityID, val T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.components[e]; !exists {
		idx, _ := slices.BinarySearch(s.entities, e)
		s.entities = slices.Insert(s.entities, idx, e)
	}
	s.components[e] = val
}

func (s *Store[T]) Get(e models.EntityID) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	val, ok := s.components[e]
	return val, ok
}

func (s *Store[T]) Has(e models.EntityID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.components[e]
	return ok
}

// Update applies fn to the stored component in place. It reports false when
// e has no component.
func (s *Store[T]) Update(e models.EntityID, fn func(*T)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	val, ok := s.components[e]
	if !ok {
		return false
	}
	fn(&val)
	s.components[e] = val
	return true
}

func (s *Store[T]) Remove(e models.EntityID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.components[e]; !exists {
		return
	}
	delete(s.components, e)
	if idx, found := slices.BinarySearch(s.entities, e); found {
		s.entities = slices.Delete(s.entities, idx, idx+1)
	}
}

// Entities returns a copy of the IDs holding this component, ascending.
func (s *Store[T]) Entities() []models.EntityID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entities)
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entities)
}

func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = make(map[models.EntityID]T)
	s.entities = s.entities[:0]
}

// remover lets the world strip an entity from every store without knowing T.
type remover interface {
	Remove(models.EntityID)
	Clear()
}
