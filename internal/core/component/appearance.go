package component

// Color is a linear RGBA multiplier; components above 1 brighten.
type Color struct {
	R, G, B, A float32
}

var White = Color{1, 1, 1, 1}

func RGBA(r, g, b, a float32) Color { return Color{r, g, b, a} }

// Appearance carries the presentation hints the core toggles. Renderers own
// everything else.
type Appearance struct {
	Tint    Color
	Scale   float64
	Visible bool
}

func DefaultAppearance() Appearance {
	return Appearance{Tint: White, Scale: 1, Visible: true}
}
