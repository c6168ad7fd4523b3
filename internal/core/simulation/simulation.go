// Package simulation assembles the world, the frame systems and the
// notification channels behind one API.
package simulation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/events/bus"
	"github.com/zeusync/spatial/internal/core/events/notify"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/system"
	"github.com/zeusync/spatial/internal/core/systems/collision"
	"github.com/zeusync/spatial/internal/core/systems/drag"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
	"github.com/zeusync/spatial/internal/core/systems/pointer"
	"github.com/zeusync/spatial/internal/core/world"
)

// Bus topics and event types the simulation mirrors its channels onto.
const (
	TopicDrag      = "drag"
	TopicCollision = "collision"
	EventDrop      = "drag.drop"
	EventOverlap   = "collision.overlap"
	EventContact   = "collision.contact"
)

// FrameInput is the raw pointer state for one frame. Cursor is in screen
// space and nil while the pointer is outside the window.
type FrameInput struct {
	Cursor         *physics.Vec2
	PrimaryPressed bool
}

// Rules configures a draggable object.
type Rules struct {
	MustContain   layer.Optional
	MustIntersect layer.Optional
	Allow         []models.EntityID
	// BlocksDrops marks the object itself as a drop blocker.
	BlocksDrops bool
}

// Simulation is driven from a single goroutine. Notification handlers run
// synchronously inside Step and may call back into it.
type Simulation struct {
	id    uuid.UUID
	cfg   config.Config
	log   log.Log
	world *world.World
	bus   bus.EventBus

	manager    *system.Manager
	pointer    *pointer.Tracker
	engine     *drag.Engine
	broadcast  *collision.Broadcaster
	drops      *notify.Channel[drag.Drop]
	collisions *notify.Channel[collision.Event]
	contacts   *notify.Channel[collision.Contact]

	frame uint64
}

// New builds a simulation with an orthographic camera sized to the
// configured window.
func New(cfg config.Config, logger log.Log, b bus.EventBus) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("simulation config: %w", err)
	}
	if logger == nil {
		logger = log.Nop()
	}
	if b == nil {
		b = bus.New()
	}
	id := uuid.New()
	logger = logger.With(log.String("session", id.String()))

	for topic, desc := range map[string]string{
		TopicDrag:      "finished drops",
		TopicCollision: "overlaps and contact transitions",
	} {
		if err := b.CreateTopic(topic, bus.TopicConfig{Description: desc}); err != nil {
			return nil, fmt.Errorf("create topic %s: %w", topic, err)
		}
	}

	retain := notify.WithRetainFrames(cfg.Notify.RetainFrames)
	s := &Simulation{
		id:    id,
		cfg:   cfg,
		log:   logger,
		world: world.New(),
		bus:   b,
		drops: notify.NewChannel[drag.Drop]("drops", retain,
			notify.WithBus(b, TopicDrag, EventDrop), notify.WithLogger(logger)),
		collisions: notify.NewChannel[collision.Event]("collisions", retain,
			notify.WithBus(b, TopicCollision, EventOverlap), notify.WithLogger(logger)),
		contacts: notify.NewChannel[collision.Contact]("contacts", retain,
			notify.WithBus(b, TopicCollision, EventContact), notify.WithLogger(logger)),
	}

	cam := pointer.NewOrthoCamera(float64(cfg.Window.Width), float64(cfg.Window.Height))
	s.pointer = pointer.NewTracker(cam, pointer.Input{}, logger)
	s.engine = drag.NewEngine(s.world, s.pointer, drag.StandardRules(), cfg.DragConfig(), s.drops, logger)
	s.broadcast = collision.NewBroadcaster(s.world, cfg.CollisionConfig(), s.collisions, s.contacts, logger)

	s.manager = system.NewManager(logger)
	systems := []system.System{s.pointer}
	systems = append(systems, s.engine.Systems()...)
	systems = append(systems, s.broadcast)
	for _, sys := range systems {
		if err := s.manager.RegisterSystem(sys); err != nil {
			return nil, err
		}
	}

	logger.Info("simulation ready",
		log.Int("collision_workers", cfg.Collision.Workers),
		log.Bool("track_contacts", cfg.Collision.TrackContacts),
		log.Int("retain_frames", cfg.Notify.RetainFrames),
	)
	return s, nil
}

// ID identifies this simulation instance in logs and inspector payloads.
func (s *Simulation) ID() string { return s.id.String() }

func (s *Simulation) Bus() bus.EventBus { return s.bus }

func (s *Simulation) Logger() log.Log { return s.log }

// Frame returns the number of completed steps.
func (s *Simulation) Frame() uint64 {
	return s.frame
}

// Step opens a new frame on every notification channel, then runs pointer,
// pick-up/hover/tracking, collision and drop resolution. Notifications expire
// once notify.retain_frames further steps have opened. Cancelled drops and
// stale references are not errors; the returned error carries system faults
// and failing notification handlers.
func (s *Simulation) Step(ctx context.Context, in FrameInput) error {
	s.frame++
	s.drops.Advance()
	s.collisions.Advance()
	s.contacts.Advance()

	s.pointer.SetWindow(pointer.Input{Cursor: in.Cursor, Primary: in.PrimaryPressed})
	return s.manager.Update(system.Frame{Ctx: ctx, Number: s.frame, Start: time.Now()})
}

// SetCamera replaces the camera; nil freezes the pointer at its last
// known position.
func (s *Simulation) SetCamera(c pointer.Camera) {
	s.pointer.SetCamera(c)
}

// PointerWorld returns the last known world-space pointer position.
func (s *Simulation) PointerWorld() (physics.Vec2, bool) {
	return s.pointer.World()
}

func (s *Simulation) Spawn(t component.Transform) models.EntityID {
	return s.world.Spawn(t)
}

// Despawn removes id. Shadows that belonged to it are reaped next frame.
func (s *Simulation) Despawn(id models.EntityID) bool {
	return s.world.Despawn(id)
}

func (s *Simulation) Exists(id models.EntityID) bool {
	return s.world.Exists(id)
}

func (s *Simulation) Position(id models.EntityID) (component.Transform, bool) {
	return s.world.Position(id)
}

// SetPosition moves id in the plane and keeps its Z.
func (s *Simulation) SetPosition(id models.EntityID, p physics.Vec2) error {
	t, ok := s.world.Position(id)
	if !ok {
		return fmt.Errorf("set position %s: %w", id, world.ErrEntityNotFound)
	}
	return s.world.SetPosition(id, t.WithXY(p))
}

func (s *Simulation) SetHitbox(id models.EntityID, h physics.Hitbox) error {
	if err := h.Rect().Validate(); err != nil {
		return fmt.Errorf("set hitbox %s: %w", id, err)
	}
	if !s.world.Exists(id) {
		return fmt.Errorf("set hitbox %s: %w", id, world.ErrEntityNotFound)
	}
	s.world.Hitboxes.Set(id, h)
	return nil
}

func (s *Simulation) SetLayers(id models.EntityID, layers layer.Set) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("set layers %s: %w", id, world.ErrEntityNotFound)
	}
	s.world.Layers.Set(id, layers)
	return nil
}

// ReportCollisions opts id in or out of collision reporting.
func (s *Simulation) ReportCollisions(id models.EntityID, on bool) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("report collisions %s: %w", id, world.ErrEntityNotFound)
	}
	switch {
	case on && !s.world.Trackers.Has(id):
		s.world.Trackers.Set(id, component.Tracker{})
	case !on:
		s.world.Trackers.Remove(id)
	}
	return nil
}

// MakeDraggable attaches or updates id's drop rules. Shadows of a drag in
// progress are kept.
func (s *Simulation) MakeDraggable(id models.EntityID, rules Rules) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("make draggable %s: %w", id, world.ErrEntityNotFound)
	}
	d, _ := s.world.Draggables.Get(id)
	d.MustContain = rules.MustContain
	d.MustIntersect = rules.MustIntersect
	d.Allow = append([]models.EntityID(nil), rules.Allow...)
	s.world.Draggables.Set(id, d)
	s.setBlocker(id, rules.BlocksDrops)
	return nil
}

func (s *Simulation) SetBlocker(id models.EntityID, blocks bool) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("set blocker %s: %w", id, world.ErrEntityNotFound)
	}
	s.setBlocker(id, blocks)
	return nil
}

func (s *Simulation) setBlocker(id models.EntityID, blocks bool) {
	if blocks {
		s.world.Blockers.Set(id, component.DropBlocker{})
	} else {
		s.world.Blockers.Remove(id)
	}
}

// SetAppearance sets the presentation hints renderers read.
func (s *Simulation) SetAppearance(id models.EntityID, a component.Appearance) error {
	if !s.world.Exists(id) {
		return fmt.Errorf("set appearance %s: %w", id, world.ErrEntityNotFound)
	}
	s.world.Appearances.Set(id, a)
	return nil
}

// Overlapping returns what id overlapped in the last collision pass, in
// ascending ID order. It is nil for objects not reporting collisions.
func (s *Simulation) Overlapping(id models.EntityID) []models.EntityID {
	t, ok := s.world.Trackers.Get(id)
	if !ok {
		return nil
	}
	return t.Snapshot()
}

// State reports id's drag state.
func (s *Simulation) State(id models.EntityID) component.DragState {
	return s.engine.State(id)
}

// Preview describes the drag in progress, if any.
func (s *Simulation) Preview() drag.Preview {
	return s.engine.Preview()
}

// PreviewTarget returns the object a drop would land on right now, so
// renderers can highlight it.
func (s *Simulation) PreviewTarget() (models.EntityID, bool) {
	p := s.engine.Preview()
	if !p.Active || !p.Legal || !p.Target.Valid() {
		return models.None, false
	}
	return p.Target, true
}

// Drops returns a reader over finished drops.
func (s *Simulation) Drops() *notify.Reader[drag.Drop] { return s.drops.Reader() }

// Collisions returns a reader over per-frame overlap notifications.
func (s *Simulation) Collisions() *notify.Reader[collision.Event] { return s.collisions.Reader() }

// Contacts returns a reader over began/ended transitions. It stays empty
// unless collision.track_contacts is on.
func (s *Simulation) Contacts() *notify.Reader[collision.Contact] { return s.contacts.Reader() }

// Metrics exposes per-system timings.
func (s *Simulation) Metrics() system.ManagerMetrics { return s.manager.GetMetrics() }
