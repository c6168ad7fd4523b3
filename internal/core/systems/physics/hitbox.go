package physics

// Hitbox is an axis-aligned rectangle in an object's local frame, with the
// origin at the object's position. Construct through NewHitbox, Offsetless or
// Centered so the min <= max invariant always holds.
type Hitbox struct {
	rect Rect
}

// NewHitbox validates r and wraps it.
func NewHitbox(r Rect) (Hitbox, error) {
	if err := r.Validate(); err != nil {
		return Hitbox{}, err
	}
	return Hitbox{rect: r}, nil
}

// MustHitbox panics on a malformed rectangle. Intended for literals in code
// and tests.
func MustHitbox(minX, minY, maxX, maxY float64) Hitbox {
	r, err := NewRect(minX, minY, maxX, maxY)
	if err != nil {
		panic(err)
	}
	return Hitbox{rect: r}
}

// Offsetless places the min corner at the object origin.
func Offsetless(size Vec2) (Hitbox, error) {
	r, err := NewRect(0, 0, size.X, size.Y)
	if err != nil {
		return Hitbox{}, err
	}
	return Hitbox{rect: r}, nil
}

// Centered places the object origin at the rectangle center.
func Centered(size Vec2) (Hitbox, error) {
	r, err := RectFromCenterSize(Vec2{}, size)
	if err != nil {
		return Hitbox{}, err
	}
	return Hitbox{rect: r}, nil
}

// Rect returns the local rectangle.
func (h Hitbox) Rect() Rect { return h.rect }

// Offset is the local min corner.
func (h Hitbox) Offset() Vec2 { return h.rect.Min }

func (h Hitbox) Size() Vec2 { return h.rect.Size() }

// Degenerate reports a hitbox that can never overlap anything.
func (h Hitbox) Degenerate() bool {
	return h.rect.Validate() != nil || h.rect.IsEmpty()
}

// WorldRect translates the local rectangle by pos.
func (h Hitbox) WorldRect(pos Vec2) Rect {
	return h.rect.Translate(pos)
}

// Intersects reports whether the two world rectangles share interior area.
// Touching edges do not count.
func (h Hitbox) Intersects(other Hitbox, pos, otherPos Vec2) bool {
	return h.WorldRect(pos).Overlaps(other.WorldRect(otherPos))
}

// ContainsEntirely reports whether other's world rectangle lies within or on
// the boundary of this one.
func (h Hitbox) ContainsEntirely(other Hitbox, pos, otherPos Vec2) bool {
	return h.WorldRect(pos).ContainsRect(other.WorldRect(otherPos))
}
