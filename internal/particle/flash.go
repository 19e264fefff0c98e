package particle

// Flash is the transient ring left where a particle touched a border.
type Flash struct {
	X, Y       float64
	Diameter   float64
	Hue        float64
	Saturation float64
	Lightness  float64
	Age        float64 // Seconds
	Lifetime   float64 // Seconds
}

// Dead reports whether the flash outlived its lifetime.
func (f Flash) Dead() bool {
	return f.Age >= f.Lifetime
}

// Progress is the elapsed share of the lifetime in [0, 1].
func (f Flash) Progress() float64 {
	if f.Lifetime <= 0 {
		return 1
	}
	return min(1, f.Age/f.Lifetime)
}

// ageFlashes advances every flash by dt and drops the dead ones in place.
func ageFlashes(flashes []Flash, dt float64) []Flash {
	live := flashes[:0]
	for _, f := range flashes {
		f.Age += dt
		if !f.Dead() {
			live = append(live, f)
		}
	}
	return live
}
