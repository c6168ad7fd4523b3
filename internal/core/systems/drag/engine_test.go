package drag

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/spatial/internal/core/component"
	"github.com/zeusync/spatial/internal/core/events/notify"
	"github.com/zeusync/spatial/internal/core/models"
	"github.com/zeusync/spatial/internal/core/system"
	"github.com/zeusync/spatial/internal/core/systems/collision"
	"github.com/zeusync/spatial/internal/core/systems/layer"
	"github.com/zeusync/spatial/internal/core/systems/physics"
	"github.com/zeusync/spatial/internal/core/systems/pointer"
	"github.com/zeusync/spatial/internal/core/world"
)

type harness struct {
	t      *testing.T
	w      *world.World
	ptr    *pointer.Tracker
	engine *Engine
	drops  *notify.Channel[Drop]
	reader *notify.Reader[Drop]
	mgr    *system.Manager
	frame  uint64
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	w := world.New()
	ptr := pointer.NewTracker(pointer.IdentityCamera{}, pointer.Input{}, nil)
	drops := notify.NewChannel[Drop]("drops")
	engine := NewEngine(w, ptr, nil, DefaultConfig(), drops, nil)
	bc := collision.NewBroadcaster(w, collision.Config{}, notify.NewChannel[collision.Event]("collisions"), nil, nil)

	mgr := system.NewManager(nil)
	require.NoError(t, mgr.RegisterSystem(ptr))
	for _, s := range engine.Systems() {
		require.NoError(t, mgr.RegisterSystem(s))
	}
	require.NoError(t, mgr.RegisterSystem(bc))

	return &harness{t: t, w: w, ptr: ptr, engine: engine, drops: drops, reader: drops.Reader(), mgr: mgr}
}

func (h *harness) object(x, y, half float64, layers layer.Set) models.EntityID {
	id := h.w.Spawn(component.At(x, y))
	h.w.Hitboxes.Set(id, physics.MustHitbox(-half, -half, half, half))
	h.w.Layers.Set(id, layers)
	return id
}

func (h *harness) draggable(x, y float64, d component.Draggable) models.EntityID {
	id := h.object(x, y, 5, layer.Only(layer.Dependent))
	h.w.Draggables.Set(id, d)
	return id
}

func (h *harness) step(x, y float64, pressed bool) {
	h.t.Helper()
	cursor := physics.V(x, y)
	h.ptr.SetWindow(pointer.Input{Cursor: &cursor, Primary: pressed})
	h.frame++
	require.NoError(h.t, h.mgr.Update(system.Frame{Ctx: context.Background(), Number: h.frame}))
	h.drops.Advance()
	h.checkExclusive()
}

// dragTo presses at (fromX, fromY), moves to (x, y) and releases there.
func (h *harness) dragTo(fromX, fromY, x, y float64) {
	h.t.Helper()
	h.step(fromX, fromY, true)
	h.step(x, y, true)
	h.step(x, y, false)
}

func (h *harness) checkExclusive() {
	for _, id := range h.w.Draggables.Entities() {
		d, _ := h.w.Draggables.Get(id)
		assert.False(h.t, d.DragShadow.Valid() && d.HoverShadow.Valid(), "object %s has both shadows", id)
	}
}

func (h *harness) pos(id models.EntityID) component.Transform {
	t, _ := h.w.Position(id)
	return t
}

func mustContainZone() component.Draggable {
	return component.Draggable{MustContain: layer.Some(layer.Only(layer.Zone))}
}

func TestDrag_CancelOutsideZone(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	h.object(0, 0, 100, layer.Only(layer.Zone))

	h.dragTo(0, 0, 200, 200)

	assert.Equal(t, component.At(0, 0), h.pos(x))
	assert.Empty(t, h.reader.Read())
	assert.Equal(t, component.Idle, h.engine.State(x))
	assert.Zero(t, h.w.DragShadows.Len())
}

func TestDrag_CommitInsideZone(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	y := h.object(0, 0, 100, layer.Only(layer.Zone))

	h.dragTo(0, 0, 10, 10)

	assert.Equal(t, component.At(10, 10), h.pos(x))
	assert.Equal(t, []Drop{{Dropped: x, Target: y, Position: physics.V(10, 10), Frame: 3}}, h.reader.Read())
	assert.Zero(t, h.w.DragShadows.Len())
}

func TestDrag_CommitKeepsDepth(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	require.NoError(t, h.w.SetPosition(x, component.Transform{Z: 3}))
	h.object(0, 0, 100, layer.Only(layer.Zone))

	h.step(0, 0, true)
	shadow := h.engine.Preview().Shadow
	assert.Equal(t, DefaultConfig().ShadowZ, h.pos(shadow).Z)

	h.step(10, 10, true)
	h.step(10, 10, false)
	assert.Equal(t, component.Transform{X: 10, Y: 10, Z: 3}, h.pos(x))
}

func TestDrag_PointerOffsetIsKept(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})

	h.dragTo(3, -2, 23, 18)
	assert.Equal(t, component.At(20, 20), h.pos(x))
	assert.Empty(t, h.reader.Read(), "legal drop without a target is silent")
}

func TestDrag_BlockerCancels(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	h.object(0, 0, 100, layer.Only(layer.Zone))
	z := h.object(40, 40, 10, layer.Only(layer.Dependent))
	h.w.Blockers.Set(z, component.DropBlocker{})

	h.dragTo(0, 0, 40, 40)
	assert.Equal(t, component.At(0, 0), h.pos(x))
	assert.Empty(t, h.reader.Read())
}

func TestDrag_AllowListOverridesBlocker(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	h.object(0, 0, 100, layer.Only(layer.Zone))
	z := h.object(40, 40, 10, layer.Only(layer.Dependent))
	h.w.Blockers.Set(z, component.DropBlocker{})
	h.w.Draggables.Update(x, func(d *component.Draggable) { d.Allow = []models.EntityID{z} })

	h.dragTo(0, 0, 40, 40)
	assert.Equal(t, component.At(40, 40), h.pos(x))
	drops := h.reader.Read()
	require.Len(t, drops, 1)
	assert.Equal(t, z, drops[0].Target)
}

func TestDrag_IntersectionRule(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{MustIntersect: layer.Some(layer.Only(layer.Tool))})
	tool := h.object(60, 0, 10, layer.Only(layer.Tool))

	h.dragTo(0, 0, 45, 0)
	assert.Equal(t, component.At(0, 0), h.pos(x), "edge contact only")

	h.dragTo(0, 0, 52, 0)
	assert.Equal(t, component.At(52, 0), h.pos(x))
	drops := h.reader.Read()
	require.Len(t, drops, 1)
	assert.Equal(t, tool, drops[0].Target)
}

func TestDrag_NearestZoneIsTarget(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	h.object(0, 0, 100, layer.Only(layer.Zone))
	near := h.object(30, 30, 100, layer.Only(layer.Zone))

	h.dragTo(0, 0, 25, 25)
	drops := h.reader.Read()
	require.Len(t, drops, 1)
	assert.Equal(t, x, drops[0].Dropped)
	assert.Equal(t, near, drops[0].Target)
}

func TestDrag_LivePreview(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, mustContainZone())
	y := h.object(0, 0, 100, layer.Only(layer.Zone))
	cfg := DefaultConfig()

	h.step(0, 0, true)
	p := h.engine.Preview()
	require.True(t, p.Active)
	assert.Equal(t, x, p.Original)
	assert.True(t, p.Legal)
	assert.Equal(t, y, p.Target)
	a, _ := h.w.Appearances.Get(p.Shadow)
	assert.Equal(t, cfg.LegalTint, a.Tint)
	assert.Equal(t, cfg.ShadowScale, a.Scale)
	assert.Equal(t, component.Dragging, h.engine.State(x))

	h.step(300, 0, true)
	p = h.engine.Preview()
	assert.False(t, p.Legal)
	assert.Equal(t, RuleContainment, p.Rule)
	a, _ = h.w.Appearances.Get(p.Shadow)
	assert.Equal(t, cfg.IllegalTint, a.Tint)

	h.step(300, 0, false)
	assert.False(t, h.engine.Preview().Active)
}

func TestDrag_HoverLifecycle(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})
	h.w.Appearances.Set(x, component.DefaultAppearance())

	h.step(1, 1, false)
	d, _ := h.w.Draggables.Get(x)
	require.Equal(t, component.Hovered, d.State())
	hover, _ := h.w.Appearances.Get(d.HoverShadow)
	assert.Equal(t, DefaultConfig().HoverScale, hover.Scale)
	orig, _ := h.w.Appearances.Get(x)
	assert.False(t, orig.Visible)
	assert.False(t, h.w.Hitboxes.Has(d.HoverShadow), "hover shadows never collide")

	h.step(50, 50, false)
	assert.Equal(t, component.Idle, h.engine.State(x))
	assert.Zero(t, h.w.HoverShadows.Len())
	orig, _ = h.w.Appearances.Get(x)
	assert.True(t, orig.Visible)
}

func TestDrag_PickUpReplacesHover(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})

	h.step(0, 0, false)
	require.Equal(t, component.Hovered, h.engine.State(x))

	h.step(0, 0, true)
	assert.Equal(t, component.Dragging, h.engine.State(x))
	assert.Zero(t, h.w.HoverShadows.Len())
	orig, _ := h.w.Appearances.Get(x)
	assert.True(t, orig.Visible)

	h.step(0, 0, true)
	assert.Zero(t, h.w.HoverShadows.Len(), "no hover while dragging")
}

func TestDrag_OnePickUpPerPress(t *testing.T) {
	h := newHarness(t)
	a := h.draggable(0, 0, component.Draggable{})
	b := h.draggable(2, 2, component.Draggable{})

	h.step(1, 1, true)
	assert.Equal(t, component.Dragging, h.engine.State(a))
	assert.Equal(t, component.Idle, h.engine.State(b))
	assert.Equal(t, 1, h.w.DragShadows.Len())
}

func TestDrag_PressOnEmptySpace(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})

	h.step(100, 100, true)
	assert.Zero(t, h.w.DragShadows.Len())

	h.step(0, 0, true)
	assert.Equal(t, component.Hovered, h.engine.State(x), "pick-up needs a fresh press")
}

func TestDrag_OriginalDespawnedMidDrag(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})
	h.object(0, 0, 100, layer.Only(layer.Zone))

	h.step(0, 0, true)
	require.Equal(t, 1, h.w.DragShadows.Len())
	require.True(t, h.w.Despawn(x))

	h.step(5, 5, true)
	assert.Zero(t, h.w.DragShadows.Len())
	h.step(5, 5, false)
	assert.Empty(t, h.reader.Read())
}

func TestDrag_TargetDespawnedIsSkipped(t *testing.T) {
	h := newHarness(t)
	w := h.w
	x := h.draggable(0, 0, mustContainZone())
	y := h.object(0, 0, 100, layer.Only(layer.Zone))

	h.step(0, 0, true)
	// Resolution alone, as if the zone vanished right after the collision pass.
	require.True(t, w.Despawn(y))
	h.ptr.SetWindow(pointer.Input{Cursor: &physics.Vec2{}, Primary: false})
	require.NoError(t, h.ptr.Update(system.Frame{}))
	require.NoError(t, h.engine.resolve(system.Frame{Number: 99}))

	assert.Equal(t, component.Idle, h.engine.State(x))
	assert.Empty(t, h.reader.Read())
}

func TestDrag_ExternallyDespawnedShadowIsForgotten(t *testing.T) {
	h := newHarness(t)
	x := h.draggable(0, 0, component.Draggable{})

	h.step(0, 0, true)
	d, _ := h.w.Draggables.Get(x)
	require.True(t, h.w.Despawn(d.DragShadow))

	h.step(0, 0, true)
	d, _ = h.w.Draggables.Get(x)
	assert.False(t, d.DragShadow.Valid())
	assert.NotEqual(t, component.Dragging, h.engine.State(x))
}
