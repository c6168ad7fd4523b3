package pointer

// Buttons tracks one button across frames and derives press/release edges.
type Buttons struct {
	down, justPressed, justReleased bool
}

// Update feeds this frame's raw state.
func (b *Buttons) Update(down bool) {
	b.justPressed = down && !b.down
	b.justReleased = !down && b.down
	b.down = down
}

// Hold keeps the current state and clears edges, for frames without input.
func (b *Buttons) Hold() {
	b.justPressed = false
	b.justReleased = false
}

func (b Buttons) Pressed() bool      { return b.down }
func (b Buttons) JustPressed() bool  { return b.justPressed }
func (b Buttons) JustReleased() bool { return b.justReleased }
