package audio

import "github.com/iburimskiy/sound-dots/internal/config"

// Mode selects how voices are shared among particles.
type Mode int

const (
	// ModePooled hands out a fixed pool of mono voices round-robin. Particles
	// sharing a voice cut each other off; CPU cost stays low.
	ModePooled Mode = iota
	// ModeShared gives every particle the same polyphonic voice. Costlier,
	// and notes get stolen above its polyphony.
	ModeShared
)

func (m Mode) String() string {
	if m == ModeShared {
		return "shared"
	}
	return "pooled"
}

// ModeFor maps the performance flag onto a mode.
func ModeFor(highPerformance bool) Mode {
	if highPerformance {
		return ModeShared
	}
	return ModePooled
}

// voiceSettings is what every voice in the active set carries.
type voiceSettings struct {
	wave   config.Waveform
	osc    config.Oscillator
	volume float64
}

// Allocator assigns voices to particle indices.
type Allocator struct {
	pool   []Voice
	shared Voice
	mode   Mode

	settings   voiceSettings
	configured bool
	applied    map[Voice]voiceSettings
}

// NewAllocator builds an allocator over an existing pool and shared voice.
func NewAllocator(pool []Voice, shared Voice, mode Mode) *Allocator {
	return &Allocator{
		pool:    pool,
		shared:  shared,
		mode:    mode,
		applied: make(map[Voice]voiceSettings),
	}
}

// NewAllocator creates poolSize mono voices and one shared poly voice on g.
func (g *Graph) NewAllocator(poolSize, polyphony int, mode Mode) *Allocator {
	pool := make([]Voice, max(1, poolSize))
	for i := range pool {
		pool[i] = g.NewMonoVoice()
	}
	return NewAllocator(pool, g.NewPolyVoice(polyphony), mode)
}

// Mode returns the active policy.
func (a *Allocator) Mode() Mode { return a.mode }

// SetMode switches policy and brings the new active set up to date.
// It reports whether the mode changed.
func (a *Allocator) SetMode(m Mode) bool {
	if m == a.mode {
		return false
	}
	a.mode = m
	a.sync()
	return true
}

// VoiceFor returns the voice for particle index i.
func (a *Allocator) VoiceFor(i int) Voice {
	if a.mode == ModeShared || len(a.pool) == 0 {
		return a.shared
	}
	if i < 0 {
		i = -i
	}
	return a.pool[i%len(a.pool)]
}

// Active returns the voices of the current policy.
func (a *Allocator) Active() []Voice {
	if a.mode == ModeShared || len(a.pool) == 0 {
		return []Voice{a.shared}
	}
	return a.pool
}

// Configure sets waveform, oscillator and volume (dB) on every active voice.
// Voices already carrying the settings are left alone.
func (a *Allocator) Configure(w config.Waveform, o config.Oscillator, db float64) {
	a.settings = voiceSettings{wave: w, osc: o, volume: db}
	a.configured = true
	a.sync()
}

func (a *Allocator) sync() {
	if !a.configured {
		return
	}
	for _, v := range a.Active() {
		have, ok := a.applied[v]
		if !ok || have.wave != a.settings.wave {
			v.SetWaveform(a.settings.wave)
		}
		if !ok || have.osc != a.settings.osc {
			v.SetOscillator(a.settings.osc)
		}
		if !ok || have.volume != a.settings.volume {
			v.SetVolume(a.settings.volume)
		}
		a.applied[v] = a.settings
	}
}
