package physics

import (
	"errors"
	"fmt"
)

// ErrMalformedRect is returned when a rectangle's min corner exceeds its max
// corner on either axis, or a coordinate is not finite.
var ErrMalformedRect = errors.New("malformed rectangle")

// Rect is an axis-aligned rectangle described by its min and max corners.
type Rect struct {
	Min Vec2
	Max Vec2
}

// NewRect builds a rectangle from corner coordinates and rejects inverted or
// non-finite input.
func NewRect(minX, minY, maxX, maxY float64) (Rect, error) {
	r := Rect{Min: Vec2{minX, minY}, Max: Vec2{maxX, maxY}}
	if err := r.Validate(); err != nil {
		return Rect{}, err
	}
	return r, nil
}

// RectFromCenterSize builds a rectangle of the given size centered on c.
// Negative sizes are rejected.
func RectFromCenterSize(c, size Vec2) (Rect, error) {
	half := size.Scale(0.5)
	return NewRect(c.X-half.X, c.Y-half.Y, c.X+half.X, c.Y+half.Y)
}

// Validate reports ErrMalformedRect when min > max on either axis.
func (r Rect) Validate() error {
	if !r.Min.IsFinite() || !r.Max.IsFinite() {
		return fmt.Errorf("%w: non-finite corner %v..%v", ErrMalformedRect, r.Min, r.Max)
	}
	if r.Min.X > r.Max.X || r.Min.Y > r.Max.Y {
		return fmt.Errorf("%w: min %v exceeds max %v", ErrMalformedRect, r.Min, r.Max)
	}
	return nil
}

func (r Rect) Width() float64  { return r.Max.X - r.Min.X }
func (r Rect) Height() float64 { return r.Max.Y - r.Min.Y }
func (r Rect) Size() Vec2      { return Vec2{r.Width(), r.Height()} }
func (r Rect) Center() Vec2    { return r.Min.Add(r.Max).Scale(0.5) }

// Translate shifts both corners by d.
func (r Rect) Translate(d Vec2) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Intersect returns the overlapping region. The result may be empty.
func (r Rect) Intersect(o Rect) Rect {
	return Rect{
		Min: Vec2{max(r.Min.X, o.Min.X), max(r.Min.Y, o.Min.Y)},
		Max: Vec2{min(r.Max.X, o.Max.X), min(r.Max.Y, o.Max.Y)},
	}
}

// IsEmpty reports whether the rectangle has no interior. Zero-width or
// zero-height rectangles are empty, so edge-adjacent rectangles do not overlap.
func (r Rect) IsEmpty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

// Overlaps reports a non-empty intersection.
func (r Rect) Overlaps(o Rect) bool {
	return !r.Intersect(o).IsEmpty()
}

// ContainsPoint is inclusive on all four edges.
func (r Rect) ContainsPoint(p Vec2) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X &&
		p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect is inclusive on all four edges.
func (r Rect) ContainsRect(o Rect) bool {
	return r.Min.X <= o.Min.X &&
		r.Min.Y <= o.Min.Y &&
		r.Max.X >= o.Max.X &&
		r.Max.Y >= o.Max.Y
}
