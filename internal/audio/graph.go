// Package audio holds the synthesizer side of the engine: voices, the voice
// allocator, the reverb crossfade mixer and the output graph.
package audio

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	"github.com/iburimskiy/sound-dots/internal/config"
)

// Sentinel errors
var (
	ErrClosed      = errors.New("audio graph closed")
	ErrUnknownNote = errors.New("unknown note")
)

// Volumes at or below this are rendered silent.
const silenceDB = -80

// Options configures a Graph.
type Options struct {
	SampleRate      beep.SampleRate
	BufferSize      int  // Speaker buffer in samples
	Realtime        bool // Drive the system speaker; otherwise pull with Render
	Decays          []float64
	ReverbMix       float64
	FloorCorrection float64
	FilterFrequency float64
	Ramp            time.Duration
	Teardown        time.Duration
	CaptureSamples  int
	Envelope        Envelope
	Logger          *slog.Logger
}

// OptionsFromConfig maps the loaded configuration onto graph options.
func OptionsFromConfig(cfg *config.Config, realtime bool) Options {
	return Options{
		SampleRate:      beep.SampleRate(cfg.Audio.SampleRate),
		BufferSize:      cfg.Derived.BufferSamples,
		Realtime:        realtime,
		Decays:          cfg.Audio.ReverbDecays,
		ReverbMix:       cfg.Audio.ReverbMix,
		FloorCorrection: cfg.Audio.FloorCorrection,
		FilterFrequency: cfg.Initial.FilterFrequency,
		Ramp:            cfg.Derived.Ramp,
		Teardown:        cfg.Derived.Teardown,
		CaptureSamples:  cfg.Derived.CaptureSamples,
		Envelope: Envelope{
			Attack:  cfg.Derived.Attack,
			Decay:   cfg.Derived.Decay,
			Sustain: cfg.Audio.Sustain,
			Release: cfg.Derived.Release,
		},
	}
}

// speakerLock serialises parameter changes with the speaker goroutine.
type speakerLock struct{}

func (speakerLock) Lock()   { speaker.Lock() }
func (speakerLock) Unlock() { speaker.Unlock() }

// Graph is the process-wide audio context: voice bus, reverb crossfade,
// low-pass filter, master gain and capture tap, in that order. It is built
// once and torn down with Close.
type Graph struct {
	rate     beep.SampleRate
	opts     Options
	envelope Envelope
	lock     sync.Locker
	log      *slog.Logger

	bus    *beep.Mixer
	fade   *Crossfade
	filter *lowpass
	master *master
	tap    *Tap

	started bool
	closed  bool
}

// NewGraph builds the signal chain. Nothing plays until Start.
func NewGraph(opts Options) *Graph {
	if opts.SampleRate <= 0 {
		opts.SampleRate = 44100
	}
	if len(opts.Decays) == 0 {
		opts.Decays = []float64{0.8, 2, 5, 12}
	}
	if opts.FilterFrequency <= 0 {
		opts.FilterFrequency = config.MinFilterFrequency
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	g := &Graph{
		rate:     opts.SampleRate,
		opts:     opts,
		envelope: opts.Envelope,
		log:      log,
		bus:      &beep.Mixer{},
	}
	if opts.Realtime {
		g.lock = speakerLock{}
	} else {
		g.lock = &sync.Mutex{}
	}

	g.fade = newCrossfade(g.bus, g.rate, opts.Decays, opts.ReverbMix, opts.FloorCorrection, g.rate.N(opts.Ramp))
	g.filter = newLowpass(g.fade, g.rate, opts.FilterFrequency)
	g.master = &master{Source: g.filter, gain: newRamp(1)}
	g.tap = newTap(g.master, opts.CaptureSamples)
	return g
}

// SampleRate returns the graph rate.
func (g *Graph) SampleRate() beep.SampleRate { return g.rate }

// Tap returns the capture tap at the end of the chain.
func (g *Graph) Tap() *Tap { return g.tap }

// Streamer returns the final output of the chain.
func (g *Graph) Streamer() beep.Streamer { return g.tap }

// Start opens the speaker in realtime mode. Offline graphs are pulled with
// Render and Start is a no-op for them.
func (g *Graph) Start() error {
	if !g.opts.Realtime || g.started {
		return nil
	}
	bufferSize := g.opts.BufferSize
	if bufferSize <= 0 {
		bufferSize = g.rate.N(time.Second / 20)
	}
	if err := speaker.Init(g.rate, bufferSize); err != nil {
		return err
	}
	speaker.Play(g.tap)
	g.started = true
	g.log.Info("audio graph started", "sample_rate", int(g.rate), "buffer", bufferSize, "bands", len(g.opts.Decays))
	return nil
}

// Render pulls frames from an offline graph.
func (g *Graph) Render(samples [][2]float64) int {
	g.lock.Lock()
	defer g.lock.Unlock()
	n, _ := g.tap.Stream(samples)
	return n
}

// SetTrail ramps the reverb band gains toward the crossfade for trail.
func (g *Graph) SetTrail(trail, maxTrail float64) {
	g.lock.Lock()
	g.fade.setTrail(trail, maxTrail)
	g.lock.Unlock()
}

// BandTargets returns the gains the reverb bands are ramping to.
func (g *Graph) BandTargets() []float64 {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.fade.targets()
}

// SetFilterFrequency moves the low-pass cutoff in Hz.
func (g *Graph) SetFilterFrequency(hz float64) {
	g.lock.Lock()
	g.filter.setCutoff(hz)
	g.lock.Unlock()
}

// Closed reports whether Close has begun.
func (g *Graph) Closed() bool {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.closed
}

// Close ramps the master gain to zero over the teardown time, then releases
// playback. Voices fail with ErrClosed afterwards. Safe to call twice.
func (g *Graph) Close(ctx context.Context) error {
	g.lock.Lock()
	if g.closed {
		g.lock.Unlock()
		return nil
	}
	g.closed = true
	g.master.gain.set(0, g.rate.N(g.opts.Teardown))
	g.lock.Unlock()

	if !g.started {
		return nil
	}

	var err error
	select {
	case <-time.After(g.opts.Teardown):
	case <-ctx.Done():
		err = ctx.Err()
	}

	speaker.Lock()
	speaker.Clear()
	speaker.Unlock()
	g.log.Info("audio graph closed")
	return err
}
