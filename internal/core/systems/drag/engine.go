// Package drag implements pick-up, hover preview, live tracking and drop
// resolution for draggable objects.
package drag

import (
	"sync"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/events/notify"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/system"
	"github.com/zeusync/spatial/internal/core/systems/physics"
	"github.com/zeusync/spatial/internal/core/systems/pointer"
	"github.com/zeusync/spatial/internal/core/world"
)

// Drop is one successful drop. Position is where the dropped object landed.
type Drop struct {
	Dropped  models.EntityID `json:"dropped"`
	Target   models.EntityID `json:"target"`
	Position physics.Vec2    `json:"position"`
	Frame    uint64          `json:"frame"`
}

// Config holds the shadow visuals.
type Config struct {
	ShadowZ     float64
	ShadowScale float64
	HoverScale  float64
	LegalTint   component.Color
	IllegalTint component.Color
	HoverTint   component.Color
}

func DefaultConfig() Config {
	return Config{
		ShadowZ:     5,
		ShadowScale: 1.3,
		HoverScale:  1.1,
		LegalTint:   component.RGBA(1.5, 1.5, 1.5, 0.5),
		IllegalTint: component.RGBA(1.5, 0.4, 0.4, 0.5),
		HoverTint:   component.RGBA(1.2, 1.2, 1.2, 1),
	}
}

// PointerSource is the pointer state the engine reads.
type PointerSource interface {
	State() pointer.State
}

// Preview describes the drag in progress as of the last LateUpdate.
type Preview struct {
	Active   bool            `json:"active"`
	Original models.EntityID `json:"original,omitempty"`
	Shadow   models.EntityID `json:"shadow,omitempty"`
	Legal    bool            `json:"legal"`
	Target   models.EntityID `json:"target,omitempty"`
	Rule     string          `json:"rule,omitempty"`
}

// Engine owns every Draggable descriptor and every shadow entity.
type Engine struct {
	world   *world.World
	pointer PointerSource
	rules   []Predicate
	cfg     Config
	drops   *notify.Channel[Drop]
	log     log.Log

	mu      sync.RWMutex
	preview Preview
}

// NewEngine wires an engine. A nil rules slice selects StandardRules.
func NewEngine(w *world.World, ptr PointerSource, rules []Predicate, cfg Config, drops *notify.Channel[Drop], logger log.Log) *Engine {
	if rules == nil {
		rules = StandardRules()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{
		world:   w,
		pointer: ptr,
		rules:   rules,
		cfg:     cfg,
		drops:   drops,
		log:     logger.Named("drag"),
	}
}

// Systems returns the engine's systems in registration order: shadow reaper,
// pick-up/hover and shadow tracking in Update, drop resolution in LateUpdate.
func (e *Engine) Systems() []system.System {
	return []system.System{
		system.Func("drag.reap", system.PhaseUpdate, e.reap),
		system.Func("drag.pick", system.PhaseUpdate, e.pick),
		system.Func("drag.track", system.PhaseUpdate, e.track),
		system.Func("drag.resolve", system.PhaseLateUpdate, e.resolve),
	}
}

// Preview returns the live drop preview.
func (e *Engine) Preview() Preview {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.preview
}

// State reports id's drag state; Idle for non-draggables.
func (e *Engine) State(id models.EntityID) component.DragState {
	d, _ := e.world.Draggables.Get(id)
	return d.State()
}

// reap despawns shadows whose original is gone or no longer points back at
// them, and clears descriptor references to shadows that vanished.
func (e *Engine) reap(frame system.Frame) error {
	for _, s := range e.world.DragShadows.Entities() {
		ds, _ := e.world.DragShadows.Get(s)
		d, ok := e.world.Draggables.Get(ds.Original)
		if !ok || d.DragShadow != s {
			e.log.Debug("reaping orphaned drag shadow",
				log.Stringer("shadow", s),
				log.Stringer("original", ds.Original),
				log.Uint64("frame", frame.Number),
			)
			e.world.Despawn(s)
		}
	}
	for _, s := range e.world.HoverShadows.Entities() {
		hs, _ := e.world.HoverShadows.Get(s)
		d, ok := e.world.Draggables.Get(hs.Original)
		if !ok || d.HoverShadow != s {
			e.world.Despawn(s)
		}
	}
	for _, id := range e.world.Draggables.Entities() {
		d, _ := e.world.Draggables.Get(id)
		if d.DragShadow.Valid() && !e.world.Exists(d.DragShadow) {
			e.world.Draggables.Update(id, func(d *component.Draggable) { d.DragShadow = models.None })
		}
		if d.HoverShadow.Valid() && !e.world.Exists(d.HoverShadow) {
			e.world.Draggables.Update(id, func(d *component.Draggable) { d.HoverShadow = models.None })
			e.setVisible(id, true)
		}
	}
	return nil
}

func (e *Engine) dragging() bool {
	return e.world.DragShadows.Len() > 0
}

// pick handles pick-up and hover. Only the first draggable in ID order under
// the pointer takes part in a frame's interaction.
func (e *Engine) pick(frame system.Frame) error {
	st := e.pointer.State()

	var under models.EntityID
	if st.Known {
		under = e.firstUnder(st.World)
	}

	if st.Buttons.JustPressed() && under.Valid() && !e.dragging() {
		e.startDrag(under, st.World, frame.Number)
	}

	// Hover needs a resting pointer and no drag anywhere.
	hover := models.None
	if !st.Buttons.JustPressed() && !e.dragging() {
		hover = under
	}
	for _, id := range e.world.Draggables.Entities() {
		d, _ := e.world.Draggables.Get(id)
		if d.HoverShadow.Valid() && id != hover {
			e.endHover(id)
		}
	}
	if hover.Valid() {
		if d, _ := e.world.Draggables.Get(hover); d.State() == component.Idle {
			e.startHover(hover)
		}
	}
	return nil
}

func (e *Engine) firstUnder(p physics.Vec2) models.EntityID {
	for _, id := range e.world.Draggables.Entities() {
		r, ok := e.world.WorldRect(id)
		if ok && r.ContainsPoint(p) {
			return id
		}
	}
	return models.None
}

func (e *Engine) startDrag(id models.EntityID, at physics.Vec2, frame uint64) {
	d, _ := e.world.Draggables.Get(id)
	if d.HoverShadow.Valid() {
		e.endHover(id)
	}
	orig, _ := e.world.Position(id)
	hitbox, _ := e.world.Hitboxes.Get(id)
	layers, _ := e.world.Layers.Get(id)

	shadow := e.world.Spawn(component.Transform{X: orig.X, Y: orig.Y, Z: e.cfg.ShadowZ})
	e.world.Hitboxes.Set(shadow, hitbox)
	e.world.Layers.Set(shadow, layers)
	e.world.Trackers.Set(shadow, component.Tracker{})
	e.world.DragShadows.Set(shadow, component.DragShadow{Original: id, Offset: orig.XY().Sub(at)})
	e.world.Appearances.Set(shadow, component.Appearance{Tint: e.cfg.LegalTint, Scale: e.cfg.ShadowScale, Visible: true})
	e.world.Draggables.Update(id, func(d *component.Draggable) { d.DragShadow = shadow })

	e.log.Debug("picked up",
		log.Stringer("object", id),
		log.Stringer("shadow", shadow),
		log.Uint64("frame", frame),
	)
}

func (e *Engine) startHover(id models.EntityID) {
	orig, _ := e.world.Position(id)
	shadow := e.world.Spawn(orig)
	e.world.HoverShadows.Set(shadow, component.HoverShadow{Original: id})
	e.world.Appearances.Set(shadow, component.Appearance{Tint: e.cfg.HoverTint, Scale: e.cfg.HoverScale, Visible: true})
	e.world.Draggables.Update(id, func(d *component.Draggable) { d.HoverShadow = shadow })
	e.setVisible(id, false)
}

func (e *Engine) endHover(id models.EntityID) {
	var shadow models.EntityID
	e.world.Draggables.Update(id, func(d *component.Draggable) {
		shadow = d.HoverShadow
		d.HoverShadow = models.None
	})
	if shadow.Valid() {
		e.world.Despawn(shadow)
	}
	e.setVisible(id, true)
}

func (e *Engine) setVisible(id models.EntityID, visible bool) {
	if !e.world.Exists(id) {
		return
	}
	if !e.world.Appearances.Update(id, func(a *component.Appearance) { a.Visible = visible }) {
		a := component.DefaultAppearance()
		a.Visible = visible
		e.world.Appearances.Set(id, a)
	}
}

// track moves drag shadows with the pointer and keeps hover shadows on their
// originals.
func (e *Engine) track(system.Frame) error {
	if p, known := e.pointerWorld(); known {
		for _, s := range e.world.DragShadows.Entities() {
			ds, _ := e.world.DragShadows.Get(s)
			e.world.Transforms.Update(s, func(t *component.Transform) {
				*t = t.WithXY(p.Add(ds.Offset))
			})
		}
	}
	for _, s := range e.world.HoverShadows.Entities() {
		hs, _ := e.world.HoverShadows.Get(s)
		if orig, ok := e.world.Position(hs.Original); ok {
			e.world.Transforms.Update(s, func(t *component.Transform) { *t = orig })
		}
	}
	return nil
}

func (e *Engine) pointerWorld() (physics.Vec2, bool) {
	st := e.pointer.State()
	return st.World, st.Known
}

// resolve runs after the collision pass. A released button commits or
// cancels every drag; otherwise the shadow is tinted by its current verdict.
func (e *Engine) resolve(frame system.Frame) error {
	released := !e.pointer.State().Buttons.Pressed()
	preview := Preview{}

	for _, s := range e.world.DragShadows.Entities() {
		ds, _ := e.world.DragShadows.Get(s)
		d, ok := e.world.Draggables.Get(ds.Original)
		if !ok || d.DragShadow != s {
			e.world.Despawn(s)
			continue
		}
		verdict := e.judge(s, ds.Original, d, frame.Number)

		if !released {
			tint := e.cfg.IllegalTint
			if verdict.Legal {
				tint = e.cfg.LegalTint
			}
			e.world.Appearances.Update(s, func(a *component.Appearance) { a.Tint = tint })
			preview = Preview{
				Active:   true,
				Original: ds.Original,
				Shadow:   s,
				Legal:    verdict.Legal,
				Target:   verdict.Target,
				Rule:     verdict.Rule,
			}
			continue
		}

		frame.Report(e.finish(s, ds.Original, verdict, frame.Number))
	}

	e.mu.Lock()
	e.preview = preview
	e.mu.Unlock()
	return nil
}

// finish commits or cancels the drag and removes the shadow.
func (e *Engine) finish(shadow, original models.EntityID, verdict Verdict, frame uint64) error {
	landed, _ := e.world.Position(shadow)
	e.world.Draggables.Update(original, func(d *component.Draggable) { d.DragShadow = models.None })
	e.world.Despawn(shadow)

	if !verdict.Legal {
		e.log.Debug("drop cancelled",
			log.Stringer("object", original),
			log.String("rule", verdict.Rule),
			log.Uint64("frame", frame),
		)
		return nil
	}

	e.world.Transforms.Update(original, func(t *component.Transform) { *t = t.WithXY(landed.XY()) })
	if !verdict.Target.Valid() {
		e.log.Debug("dropped without target",
			log.Stringer("object", original),
			log.Uint64("frame", frame),
		)
		return nil
	}

	e.log.Debug("dropped",
		log.Stringer("object", original),
		log.Stringer("target", verdict.Target),
		log.String("rule", verdict.Rule),
		log.Uint64("frame", frame),
	)
	return e.drops.Send(Drop{
		Dropped:  original,
		Target:   verdict.Target,
		Position: landed.XY(),
		Frame:    frame,
	})
}

// judge evaluates the rules against the shadow's current overlap set.
// Candidates that vanished since the collision pass are skipped.
func (e *Engine) judge(shadow, original models.EntityID, d component.Draggable, frame uint64) Verdict {
	rect, _ := e.world.WorldRect(shadow)
	pos, _ := e.world.Position(shadow)
	layers, _ := e.world.Layers.Get(shadow)
	tracker, _ := e.world.Trackers.Get(shadow)

	subject := Subject{
		Original:      original,
		Layers:        layers,
		Rect:          rect,
		Position:      pos.XY(),
		MustContain:   d.MustContain,
		MustIntersect: d.MustIntersect,
		Allow:         d.Allow,
	}

	candidates := make([]Candidate, 0, len(tracker.Overlapping))
	for _, id := range tracker.Overlapping {
		if id == original {
			continue
		}
		r, ok := e.world.WorldRect(id)
		if !ok {
			e.log.Debug("skipping stale drop candidate",
				log.Stringer("candidate", id),
				log.Uint64("frame", frame),
			)
			continue
		}
		t, _ := e.world.Position(id)
		l, _ := e.world.Layers.Get(id)
		candidates = append(candidates, Candidate{
			ID:          id,
			Layers:      l,
			Rect:        r,
			Position:    t.XY(),
			BlocksDrops: e.world.Blockers.Has(id),
		})
	}
	return Evaluate(subject, candidates, e.rules)
}
