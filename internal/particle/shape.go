package particle

// ShapeKind selects how a Shape is drawn.
type ShapeKind int

const (
	Disc ShapeKind = iota
	Ring
)

// Shape is one render command. Colors are HSL with hue in degrees and
// saturation and lightness in percent.
type Shape struct {
	Kind       ShapeKind
	X, Y       float64
	Diameter   float64
	Hue        float64
	Saturation float64
	Lightness  float64
	Alpha      float64
}

// Shapes appends the particle's flash rings followed by its disc to dst.
func (p *Particle) Shapes(dst []Shape, growth float64) []Shape {
	for _, f := range p.Flashes {
		t := f.Progress()
		dst = append(dst, Shape{
			Kind:       Ring,
			X:          f.X,
			Y:          f.Y,
			Diameter:   f.Diameter * (1 + growth*t),
			Hue:        f.Hue,
			Saturation: f.Saturation,
			Lightness:  f.Lightness,
			Alpha:      1 - t,
		})
	}
	return append(dst, Shape{
		Kind:       Disc,
		X:          p.X,
		Y:          p.Y,
		Diameter:   p.Diameter,
		Hue:        p.Hue,
		Saturation: p.Saturation,
		Lightness:  min(100, p.Lightness),
		Alpha:      1,
	})
}
