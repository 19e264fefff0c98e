// Package sim drives the particle population: it reconciles the live set
// against each configuration snapshot and advances it one frame per tick.
package sim

import (
	"log/slog"
	"math/rand"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/palette"
	"github.com/iburimskiy/sound-dots/internal/particle"
)

// Mixer receives the mixer-level parameters of a snapshot.
type Mixer interface {
	SetTrail(trail, maxTrail float64)
	SetFilterFrequency(hz float64)
}

// Voices hands out voices to particles. *audio.Allocator implements it.
type Voices interface {
	SetMode(audio.Mode) bool
	VoiceFor(i int) audio.Voice
	Configure(w config.Waveform, o config.Oscillator, volumeDB float64)
}

// Options configures a Driver. Mixer and Voices may be nil.
type Options struct {
	Canvas    float64
	FrameRate int
	MaxCount  int
	MaxTrail  float64
	Params    particle.Params
	Rand      *rand.Rand
	Logger    *slog.Logger
	Mixer     Mixer
	Voices    Voices
}

// OptionsFromConfig fills the config-derived fields of Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Canvas:    cfg.Derived.Canvas,
		FrameRate: cfg.Window.TargetFPS,
		MaxCount:  cfg.Particles.MaxCount,
		MaxTrail:  cfg.Audio.MaxTrail,
		Params:    particle.ParamsFromConfig(cfg),
	}
}

// Driver owns the particle population. It is not safe for concurrent use
// apart from Submit.
type Driver struct {
	opts Options
	env  particle.Env
	log  *slog.Logger

	particles []*particle.Particle
	nextID    uint64
	sinks     []particle.Sink
	tick      int

	pending chan config.Snapshot
	current config.Snapshot

	res     palette.Resolution
	haveRes bool
	badID   string // Last unknown harmony logged

	shapes []particle.Shape
}

// New creates an empty driver. A nil Rand is seeded from the clock.
func New(opts Options) *Driver {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(rand.Int63()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	d := &Driver{
		opts:    opts,
		log:     opts.Logger,
		pending: make(chan config.Snapshot, 1),
	}
	d.env = particle.Env{
		Rand:   opts.Rand,
		Sink:   particle.SinkFunc(d.emit),
		Logger: opts.Logger,
		Params: opts.Params,
	}
	return d
}

// AddSink registers a receiver for every border touch.
func (d *Driver) AddSink(s particle.Sink) {
	d.sinks = append(d.sinks, s)
}

func (d *Driver) emit(t particle.Touch) {
	t.Tick = d.tick
	for _, s := range d.sinks {
		s.OnTouch(t)
	}
}

// Submit queues a snapshot for the next tick. A newer snapshot replaces an
// older one that has not been applied yet. Safe to call from any goroutine.
func (d *Driver) Submit(s config.Snapshot) {
	for {
		select {
		case d.pending <- s:
			return
		default:
		}
		select {
		case <-d.pending:
		default:
		}
	}
}

// Current is the last applied snapshot.
func (d *Driver) Current() config.Snapshot {
	return d.current
}

// Resolution is the palette in use and whether one exists yet.
func (d *Driver) Resolution() (palette.Resolution, bool) {
	return d.res, d.haveRes
}

// Tick applies any pending snapshot, then advances every particle one frame.
func (d *Driver) Tick() {
	select {
	case s := <-d.pending:
		d.Reconcile(s)
	default:
	}
	d.tick++
	for _, p := range d.particles {
		p.Advance(d.opts.Canvas, d.env)
	}
}

// TickCount is the number of ticks run so far.
func (d *Driver) TickCount() int {
	return d.tick
}

// Particles returns the live population in creation order.
func (d *Driver) Particles() []*particle.Particle {
	return d.particles
}

// Shapes returns the draw list for the current frame. The slice is reused by
// the next call.
func (d *Driver) Shapes() []particle.Shape {
	d.shapes = d.shapes[:0]
	for _, p := range d.particles {
		d.shapes = p.Shapes(d.shapes, d.opts.Params.FlashGrowth)
	}
	return d.shapes
}

// Reconcile applies s immediately: shrink from the tail, update survivors in
// place, then grow. Unknown harmonies keep the last valid palette; with none
// the population is emptied.
func (d *Driver) Reconcile(s config.Snapshot) {
	s = s.Normalize(d.opts.MaxTrail)
	d.current = s

	snap := !d.haveRes
	res, err := palette.Resolve(s.Harmony, s.Range, s.FilterFrequency)
	switch {
	case err == nil:
		snap = snap || res.Palette.Hue != d.res.Palette.Hue
		d.res, d.haveRes = res, true
		d.badID = ""
	case d.badID != s.Harmony:
		d.badID = s.Harmony
		d.log.Warn("ignoring harmony", "harmony", s.Harmony, "error", err)
	}

	target := s.TargetCount(d.opts.MaxCount)
	if !d.haveRes {
		target = 0
	}

	if d.opts.Voices != nil {
		d.opts.Voices.SetMode(audio.ModeFor(s.HighPerformance))
		d.opts.Voices.Configure(s.Waveform, s.Oscillator, s.Volume)
	}
	if d.opts.Mixer != nil {
		d.opts.Mixer.SetTrail(s.Trail, d.opts.MaxTrail)
		d.opts.Mixer.SetFilterFrequency(s.FilterFrequency)
	}

	if len(d.particles) > target {
		clear(d.particles[target:])
		d.particles = d.particles[:target]
	}

	for i, p := range d.particles {
		p.ApplyUpdate(d.update(i, s, snap), d.env)
	}

	for i := len(d.particles); i < target; i++ {
		d.nextID++
		d.particles = append(d.particles, particle.New(d.nextID, d.opts.Canvas, d.update(i, s, true), d.env))
	}
}

func (d *Driver) update(i int, s config.Snapshot, snap bool) particle.Update {
	u := particle.Update{
		Notes:        d.res.Notes,
		Palette:      d.res.Palette,
		SnapHue:      snap,
		Speed:        s.Speed,
		FrameRate:    d.opts.FrameRate,
		SoundEnabled: s.SoundEnabled,
	}
	if d.opts.Voices != nil {
		u.Voice = d.opts.Voices.VoiceFor(i)
	}
	return u
}
