package particle

import (
	"math"
	"slices"

	"github.com/charmbracelet/harmonica"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/palette"
)

// Axis identifies which pair of borders a touch happened on.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// Touch is emitted for every border event, unthrottled.
type Touch struct {
	Tick        int // Stamped by the driver
	Particle    uint64
	Axis        Axis
	Count       int
	Note        string
	NoteChanged bool
	X, Y        float64
	Hue         float64
	Saturation  float64
	Lightness   float64
}

// Sink receives border events.
type Sink interface {
	OnTouch(Touch)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Touch)

func (f SinkFunc) OnTouch(t Touch) { f(t) }

// Update carries the config-driven fields pushed into a particle.
type Update struct {
	Notes        []string
	Palette      palette.Palette
	SnapHue      bool
	Speed        float64
	FrameRate    int
	Voice        audio.Voice
	SoundEnabled bool
}

// Particle is one bouncing, sounding dot.
type Particle struct {
	ID uint64

	X, Y           float64
	SpeedX, SpeedY float64 // Magnitudes
	DirX, DirY     float64 // +1 or -1
	Diameter       float64

	Note  string
	Notes []string

	Hue              float64
	TargetHue        float64
	BaseHue          float64
	Saturation       float64
	Lightness        float64
	DefaultLightness float64
	Variance         float64

	Touches      int
	Velocity     float64 // Fixed at creation
	Voice        audio.Voice
	SoundEnabled bool
	FrameRate    int
	Flashes      []Flash

	hueVel float64
	spring harmonica.Spring
}

// New creates a particle at a random position and direction inside the
// canvas and applies u as its initial configuration.
func New(id uint64, canvas float64, u Update, env Env) *Particle {
	prm := env.Params
	p := &Particle{
		ID:       id,
		DirX:     randomSign(env),
		DirY:     randomSign(env),
		Velocity: prm.VelocityMin + env.Rand.Float64()*(prm.VelocityMax-prm.VelocityMin),
	}
	p.ApplyUpdate(u, env)
	p.Hue = p.TargetHue
	p.Lightness = p.DefaultLightness
	p.X = randomWithin(env, canvas, p.Diameter)
	p.Y = randomWithin(env, canvas, p.Diameter)
	return p
}

func randomSign(env Env) float64 {
	if env.Rand.Intn(2) == 0 {
		return -1
	}
	return 1
}

func randomWithin(env Env, canvas, diameter float64) float64 {
	span := canvas - diameter
	if span <= 0 {
		return canvas / 2
	}
	return diameter/2 + env.Rand.Float64()*span
}

// ApplyUpdate pushes new config-driven state into the particle. The note set
// is replaced only when its content differs.
func (p *Particle) ApplyUpdate(u Update, env Env) {
	prm := env.Params

	if !slices.Equal(p.Notes, u.Notes) {
		p.Notes = slices.Clone(u.Notes)
		p.Note = p.pickNote(env, "")
		p.Diameter = prm.Diameter(p.Note)
	}

	if u.FrameRate > 0 && (u.FrameRate != p.FrameRate || p.spring == (harmonica.Spring{})) {
		p.FrameRate = u.FrameRate
		p.spring = harmonica.NewSpring(harmonica.FPS(u.FrameRate), prm.HueSpringFrequency, prm.HueSpringDamping)
	}

	p.BaseHue = u.Palette.Hue
	p.Variance = u.Palette.Variance
	p.TargetHue = p.jitterHue(env)
	if u.SnapHue {
		p.Hue = p.TargetHue
		p.hueVel = 0
	}

	p.Saturation = u.Palette.Saturation
	p.DefaultLightness = u.Palette.Lightness
	if p.Lightness < p.DefaultLightness {
		p.Lightness = p.DefaultLightness
	}

	p.SpeedX = u.Speed + env.Rand.Float64()*u.Speed*prm.SpeedJitter
	p.SpeedY = u.Speed + env.Rand.Float64()*u.Speed*prm.SpeedJitter

	p.Voice = u.Voice
	p.SoundEnabled = u.SoundEnabled
}

func (p *Particle) jitterHue(env Env) float64 {
	h := p.BaseHue + (2*env.Rand.Float64()-1)*p.Variance
	return math.Max(env.Params.HueFloor, h)
}

// driftHue nudges the target hue by at most half of HueDrift*Variance.
func (p *Particle) driftHue(env Env) float64 {
	span := env.Params.HueDrift * p.Variance
	h := p.TargetHue + (env.Rand.Float64()-0.5)*span
	return math.Max(env.Params.HueFloor, h)
}

// pickNote draws from the note set, avoiding avoid when there is a choice.
func (p *Particle) pickNote(env Env, avoid string) string {
	switch len(p.Notes) {
	case 0:
		return ""
	case 1:
		return p.Notes[0]
	}
	for {
		n := p.Notes[env.Rand.Intn(len(p.Notes))]
		if n != avoid {
			return n
		}
	}
}

// Advance runs one frame: flash aging, hue drift, color decay, then per-axis
// border checks and movement.
func (p *Particle) Advance(canvas float64, env Env) {
	if p.FrameRate > 0 {
		p.Flashes = ageFlashes(p.Flashes, 1/float64(p.FrameRate))
		p.Hue, p.hueVel = p.spring.Update(p.Hue, p.hueVel, p.TargetHue)
	}
	p.Hue = math.Max(env.Params.HueFloor, p.Hue)
	p.decay(env)

	half := p.Diameter / 2
	if next := p.X + p.DirX*p.SpeedX; next-half < 0 || next+half > canvas {
		p.DirX = -p.DirX
		p.touch(AxisX, env)
	}
	if next := p.Y + p.DirY*p.SpeedY; next-half < 0 || next+half > canvas {
		p.DirY = -p.DirY
		p.touch(AxisY, env)
	}

	p.X = clampToCanvas(p.X+p.DirX*p.SpeedX, half, canvas)
	p.Y = clampToCanvas(p.Y+p.DirY*p.SpeedY, half, canvas)
}

func clampToCanvas(v, half, canvas float64) float64 {
	if canvas < 2*half {
		return canvas / 2
	}
	return math.Max(half, math.Min(canvas-half, v))
}

// decay eases lightness back to the baseline: a fixed step plus a share of
// the mean axis speed.
func (p *Particle) decay(env Env) {
	if p.Lightness <= p.DefaultLightness {
		return
	}
	speed := (p.SpeedX + p.SpeedY) / 2
	step := env.Params.LightnessDecay*speed + env.Params.LightnessDecayBase
	p.Lightness = math.Max(p.DefaultLightness, p.Lightness-step)
}

// touch runs the border protocol for one axis.
func (p *Particle) touch(axis Axis, env Env) {
	prm := env.Params
	p.Touches++

	// The event carries the colour the particle had when it hit the border.
	hue, lit := p.Hue, p.Lightness

	p.Flashes = append(p.Flashes, Flash{
		X:          p.X,
		Y:          p.Y,
		Diameter:   p.Diameter,
		Hue:        p.Hue,
		Saturation: p.Saturation,
		Lightness:  math.Max(prm.FlashMinLightness, p.DefaultLightness-prm.FlashDim),
		Lifetime:   prm.FlashLifetime,
	})
	p.Lightness += prm.LightnessFlash

	changed := false
	if prm.NoteChangeEvery > 0 && p.Touches%prm.NoteChangeEvery == 0 {
		if n := p.pickNote(env, p.Note); n != p.Note {
			p.Note = n
			p.Diameter = prm.Diameter(n)
			changed = true
		}
		p.TargetHue = p.driftHue(env)
	}

	if p.SoundEnabled && p.Voice != nil && p.Note != "" {
		if err := p.Voice.Trigger(p.Note, prm.NoteDuration, p.Velocity); err != nil {
			env.logger().Warn("voice trigger failed",
				"particle", p.ID, "note", p.Note, "error", err)
		}
	}

	if env.Sink != nil {
		env.Sink.OnTouch(Touch{
			Particle:    p.ID,
			Axis:        axis,
			Count:       p.Touches,
			Note:        p.Note,
			NoteChanged: changed,
			X:           p.X,
			Y:           p.Y,
			Hue:         hue,
			Saturation:  p.Saturation,
			Lightness:   lit,
		})
	}
}
