// Package pointer turns raw screen input into a world-space pointer position
// and primary-button edges once per frame.
package pointer

import (
	"sync"

	"github.com/zeusync/spatial/internal/core/observability/log"
	"github.com/zeusync/spatial/internal/core/system"
	"github.com/zeusync/spatial/internal/core/systems/physics"
)

// Window is the raw input collaborator.
type Window interface {
	// CursorPosition reports the cursor in screen space, false when it is
	// outside the window.
	CursorPosition() (physics.Vec2, bool)
	PrimaryPressed() bool
}

// Input is a Window frozen to one frame's values.
type Input struct {
	Cursor  *physics.Vec2
	Primary bool
}

func (in Input) CursorPosition() (physics.Vec2, bool) {
	if in.Cursor == nil {
		return physics.Vec2{}, false
	}
	return *in.Cursor, true
}

func (in Input) PrimaryPressed() bool { return in.Primary }

// State is what the drag engine reads each frame.
type State struct {
	World   physics.Vec2
	Known   bool
	Buttons Buttons
}

// Tracker is the PreUpdate system. A missing camera or window, a cursor
// outside the window or a failed projection leave the last known world
// position untouched.
type Tracker struct {
	mu     sync.RWMutex
	camera Camera
	window Window
	state  State
	log    log.Log
}

var _ system.System = (*Tracker)(nil)

func NewTracker(camera Camera, window Window, logger log.Log) *Tracker {
	if logger == nil {
		logger = log.Nop()
	}
	return &Tracker{camera: camera, window: window, log: logger.Named("pointer")}
}

func (t *Tracker) Name() string                          { return "pointer" }
func (t *Tracker) ExecutionPhase() system.ExecutionPhase { return system.PhasePreUpdate }

func (t *Tracker) SetCamera(c Camera) {
	t.mu.Lock()
	t.camera = c
	t.mu.Unlock()
}

func (t *Tracker) SetWindow(w Window) {
	t.mu.Lock()
	t.window = w
	t.mu.Unlock()
}

func (t *Tracker) Update(frame system.Frame) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.window == nil {
		t.state.Buttons.Hold()
		return nil
	}
	t.state.Buttons.Update(t.window.PrimaryPressed())

	if t.camera == nil {
		return nil
	}
	screen, inside := t.window.CursorPosition()
	if !inside {
		return nil
	}
	world, ok := t.camera.ViewportToWorld(screen)
	if !ok {
		t.log.Debug("pointer projection failed",
			log.Uint64("frame", frame.Number),
			log.Float64("screen_x", screen.X),
			log.Float64("screen_y", screen.Y),
		)
		return nil
	}
	t.state.World = world
	t.state.Known = true
	return nil
}

// State returns the pointer as of the last update.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.state
}

// World returns the last known world position.
func (t *Tracker) World() (physics.Vec2, bool) {
	s := t.State()
	return s.World, s.Known
}
