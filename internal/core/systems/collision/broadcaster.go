// Package collision recomputes, once per frame, which hitboxes every
// collision-reporting object overlaps.
package collision

import (
	"cmp"
	"context"
	"slices"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/events/notify"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/system"
	"github.com/zeusync/spatial/internal/core/systems/physics"
	"github.com/zeusync/spatial/internal/core/world"
	"github.com/zeusync/spatial/pkg/concurrent"
)

// Event reports that Collider overlapped Collidee during Frame. It is sent
// every frame the overlap persists, once per reporting side.
type Event struct {
	Collider models.EntityID `json:"collider"`
	Collidee models.EntityID `json:"collidee"`
	Frame    uint64          `json:"frame"`
}

// Contact reports an overlap starting (Began) or stopping for A.
type Contact struct {
	A     models.EntityID `json:"a"`
	B     models.EntityID `json:"b"`
	Began bool            `json:"began"`
	Frame uint64          `json:"frame"`
}

type Config struct {
	// Workers > 1 computes overlap sets in parallel. Results and event order
	// do not depend on it.
	Workers       int
	TrackContacts bool
}

type body struct {
	id   models.EntityID
	rect physics.Rect
}

// Broadcaster is the PostUpdate system that owns every Tracker.
type Broadcaster struct {
	world    *world.World
	cfg      Config
	events   *notify.Channel[Event]
	contacts *notify.Channel[Contact]
	log      log.Log
}

var _ system.System = (*Broadcaster)(nil)

// NewBroadcaster wires a broadcaster. contacts may be nil when contact
// tracking is off.
func NewBroadcaster(w *world.World, cfg Config, events *notify.Channel[Event], contacts *notify.Channel[Contact], logger log.Log) *Broadcaster {
	if logger == nil {
		logger = log.Nop()
	}
	return &Broadcaster{
		world:    w,
		cfg:      cfg,
		events:   events,
		contacts: contacts,
		log:      logger.Named("collision"),
	}
}

func (b *Broadcaster) Name() string                          { return "collision" }
func (b *Broadcaster) ExecutionPhase() system.ExecutionPhase { return system.PhasePostUpdate }

func (b *Broadcaster) Update(frame system.Frame) error {
	return b.Run(frame.Ctx, frame.Number, frame.Report)
}

// Run performs one collision pass. report receives notification handler
// failures; it may be nil.
func (b *Broadcaster) Run(ctx context.Context, frame uint64, report func(error)) error {
	if report == nil {
		report = func(error) {}
	}
	bodies := b.candidates()
	collidables := b.world.Trackers.Entities()

	sets, err := concurrent.ParallelMap(ctx, collidables, b.cfg.Workers,
		func(_ context.Context, id models.EntityID) ([]models.EntityID, error) {
			return overlapsOf(id, bodies), nil
		})
	if err != nil {
		return err
	}
	b.log.Debug("collision pass",
		log.Uint64("frame", frame),
		log.Int("candidates", len(bodies)),
		log.Int("collidables", len(collidables)),
	)

	for i, id := range collidables {
		current := sets[i]
		var previous []models.EntityID
		b.world.Trackers.Update(id, func(t *component.Tracker) {
			previous = t.Replace(current)
		})

		for _, other := range current {
			report(b.events.Send(Event{Collider: id, Collidee: other, Frame: frame}))
		}
		if b.cfg.TrackContacts && b.contacts != nil {
			b.diff(id, previous, current, frame, report)
		}
	}
	return nil
}

// candidates lists every entity with a usable hitbox, in ID order. Missing
// transforms and degenerate hitboxes are excluded.
func (b *Broadcaster) candidates() []body {
	ids := b.world.Hitboxes.Entities()
	out := make([]body, 0, len(ids))
	for _, id := range ids {
		h, ok := b.world.Hitboxes.Get(id)
		if !ok || h.Degenerate() {
			continue
		}
		t, ok := b.world.Transforms.Get(id)
		if !ok {
			continue
		}
		out = append(out, body{id: id, rect: h.WorldRect(t.XY())})
	}
	return out
}

func overlapsOf(id models.EntityID, bodies []body) []models.EntityID {
	i, found := slices.BinarySearchFunc(bodies, id, func(b body, id models.EntityID) int {
		return cmp.Compare(b.id, id)
	})
	if !found {
		return nil
	}
	self := bodies[i].rect
	var out []models.EntityID
	for _, other := range bodies {
		if other.id != id && self.Overlaps(other.rect) {
			out = append(out, other.id)
		}
	}
	return out
}

// diff walks two ascending lists and emits began/ended transitions.
func (b *Broadcaster) diff(id models.EntityID, previous, current []models.EntityID, frame uint64, report func(error)) {
	i, j := 0, 0
	for i < len(previous) || j < len(current) {
		switch {
		case j == len(current) || (i < len(previous) && previous[i] < current[j]):
			report(b.contacts.Send(Contact{A: id, B: previous[i], Began: false, Frame: frame}))
			i++
		case i == len(previous) || current[j] < previous[i]:
			report(b.contacts.Send(Contact{A: id, B: current[j], Began: true, Frame: frame}))
			j++
		default:
			i++
			j++
		}
	}
}
