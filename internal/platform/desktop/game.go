// Package desktop runs a simulation inside an ebiten window.
package desktop

import (
	"cmp"
	"context"
	"fmt"
	"image/color"
	"slices"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/zeusync/spatial/internal/core/config"
	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/scene"
	"github.com/zeusync/spatial/internal/core/simulation"
	"github.com/zeusync/spatial/internal/core/systems/physics"
	"github.com/zeusync/spatial/internal/core/systems/pointer"
)

var (
	gizmoIdle        = color.RGBA{0x30, 0xd0, 0x60, 0xff}
	gizmoOverlapping = color.RGBA{0xe0, 0x40, 0x40, 0xff}
	gizmoSilent      = color.RGBA{0x90, 0x90, 0x90, 0xff}
	gizmoTarget      = color.RGBA{0xf0, 0xd0, 0x30, 0xff}
	background       = color.RGBA{0x1a, 0x1c, 0x22, 0xff}
)

const (
	zoomStep = 1.1
	minZoom  = 0.1
	maxZoom  = 10
)

// SnapshotSink receives one snapshot per frame, for example the inspector.
type SnapshotSink interface {
	PublishSnapshot(simulation.Snapshot) error
}

// Game implements ebiten.Game. It owns the camera and feeds raw pointer
// input into the simulation once per tick.
type Game struct {
	ctx    context.Context
	sim    *simulation.Simulation
	cam    pointer.OrthoCamera
	log    log.Log
	sink   SnapshotSink
	gizmos bool

	scenes chan *scene.Scene
}

func NewGame(ctx context.Context, sim *simulation.Simulation, win config.Window, logger log.Log) *Game {
	if logger == nil {
		logger = log.Nop()
	}
	g := &Game{
		ctx:    ctx,
		sim:    sim,
		cam:    pointer.NewOrthoCamera(float64(win.Width), float64(win.Height)),
		log:    logger.Named("desktop"),
		gizmos: true,
		scenes: make(chan *scene.Scene, 1),
	}
	sim.SetCamera(g.cam)
	return g
}

// SetSink sets where per-frame snapshots go. Nil disables publishing.
func (g *Game) SetSink(s SnapshotSink) { g.sink = s }

// QueueScene replaces the scene at the start of the next tick. It is safe
// to call from any goroutine; a newer scene replaces one still queued.
func (g *Game) QueueScene(sc *scene.Scene) {
	for {
		select {
		case g.scenes <- sc:
			return
		default:
		}
		select {
		case <-g.scenes:
		default:
		}
	}
}

func (g *Game) Update() error {
	if err := g.ctx.Err(); err != nil {
		return ebiten.Termination
	}
	select {
	case sc := <-g.scenes:
		g.loadScene(sc)
	default:
	}

	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.gizmos = !g.gizmos
	}
	if _, wheelY := ebiten.Wheel(); wheelY != 0 {
		g.zoom(wheelY)
	}

	if err := g.sim.Step(g.ctx, g.input()); err != nil {
		g.log.Warn("frame failed", log.Uint64("frame", g.sim.Frame()), log.Error(err))
	}
	if g.sink != nil {
		if err := g.sink.PublishSnapshot(g.sim.Snapshot()); err != nil {
			g.log.Warn("snapshot publish failed", log.Error(err))
		}
	}
	return nil
}

func (g *Game) loadScene(sc *scene.Scene) {
	removed := g.sim.ClearScene()
	ids, err := sc.Apply(g.sim)
	if err != nil {
		g.log.Error("scene apply failed", log.Error(err))
		return
	}
	g.log.Info("scene applied", log.Int("removed", removed), log.Int("spawned", len(ids)))
}

func (g *Game) zoom(wheelY float64) {
	z := g.cam.Zoom
	if wheelY > 0 {
		z *= zoomStep
	} else {
		z /= zoomStep
	}
	g.cam.Zoom = max(minZoom, min(maxZoom, z))
	g.sim.SetCamera(g.cam)
}

// input reports the cursor only while it is inside the window.
func (g *Game) input() simulation.FrameInput {
	in := simulation.FrameInput{PrimaryPressed: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)}
	x, y := ebiten.CursorPosition()
	if x >= 0 && y >= 0 && float64(x) < g.cam.Viewport.X && float64(y) < g.cam.Viewport.Y {
		c := physics.V(float64(x), float64(y))
		in.Cursor = &c
	}
	return in
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(background)
	snap := g.sim.Snapshot()
	target, hasTarget := g.sim.PreviewTarget()

	objects := slices.Clone(snap.Objects)
	slices.SortStableFunc(objects, func(a, b simulation.ObjectSnapshot) int {
		return cmp.Compare(a.Transform.Z, b.Transform.Z)
	})
	for _, o := range objects {
		if o.Rect == nil || !o.Appearance.Visible {
			continue
		}
		x, y, w, h, ok := g.screenRect(*o.Rect)
		if !ok {
			continue
		}
		g.drawBody(screen, o, x, y, w, h)
		if !g.gizmos {
			continue
		}
		outline := gizmoSilent
		switch {
		case hasTarget && o.ID == target:
			outline = gizmoTarget
		case o.Collides && len(o.Overlapping) > 0:
			outline = gizmoOverlapping
		case o.Collides:
			outline = gizmoIdle
		}
		vector.StrokeRect(screen, x, y, w, h, 1, outline, false)
	}

	if g.gizmos {
		ebitenutil.DebugPrint(screen, fmt.Sprintf("frame %d  zoom %.2f  objects %d  [H] gizmos",
			snap.Frame, g.cam.Zoom, len(snap.Objects)))
	}
}

func (g *Game) drawBody(screen *ebiten.Image, o simulation.ObjectSnapshot, x, y, w, h float32) {
	s := float32(o.Appearance.Scale)
	if s <= 0 {
		s = 1
	}
	cx, cy := x+w/2, y+h/2
	w, h = w*s, h*s
	t := o.Appearance.Tint
	body := color.NRGBA{
		R: channel(0.45 * t.R),
		G: channel(0.5 * t.G),
		B: channel(0.6 * t.B),
		A: channel(t.A),
	}
	vector.DrawFilledRect(screen, cx-w/2, cy-h/2, w, h, body, false)
}

// screenRect projects a world rect; world y grows up, screen y grows down.
func (g *Game) screenRect(r physics.Rect) (x, y, w, h float32, ok bool) {
	topLeft, ok1 := g.cam.WorldToViewport(physics.V(r.Min.X, r.Max.Y))
	bottomRight, ok2 := g.cam.WorldToViewport(physics.V(r.Max.X, r.Min.Y))
	if !ok1 || !ok2 {
		return 0, 0, 0, 0, false
	}
	return float32(topLeft.X), float32(topLeft.Y),
		float32(bottomRight.X - topLeft.X), float32(bottomRight.Y - topLeft.Y), true
}

func channel(v float32) uint8 {
	return uint8(max(0, min(1, v)) * 255)
}

// Layout keeps one screen pixel per layout pixel and resizes the camera
// viewport with the window.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	vp := physics.V(float64(outsideWidth), float64(outsideHeight))
	if vp != g.cam.Viewport {
		g.cam.Viewport = vp
		g.sim.SetCamera(g.cam)
	}
	return outsideWidth, outsideHeight
}

// Run opens the window and blocks until it closes or ctx ends.
func Run(g *Game, win config.Window) error {
	ebiten.SetWindowSize(win.Width, win.Height)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowTitle(win.Title)
	ebiten.SetVsyncEnabled(true)
	return ebiten.RunGame(g)
}
