package audio

import (
	"fmt"
	"math"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"

	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/palette"
)

// Voice is a synthesizer resource particles trigger on border touches.
// Particles hold voices by reference; the allocator may reassign them.
type Voice interface {
	Trigger(note string, duration time.Duration, velocity float64) error
	SetWaveform(w config.Waveform)
	SetOscillator(o config.Oscillator)
	SetVolume(db float64)
}

// Envelope shapes every note.
type Envelope struct {
	Attack  time.Duration
	Decay   time.Duration
	Sustain float64 // Level 0-1
	Release time.Duration
}

// envState tracks envelope phase
type envState int

const (
	envIdle envState = iota
	envAttack
	envDecay
	envSustain
	envRelease
)

// tone is one sounding note generator. Retriggering cuts the sounding note
// and restarts the attack from the current level.
type tone struct {
	osc      oscillator
	freq     float64
	velocity float64

	state     envState
	level     float64
	from      float64 // Level at the start of attack or release
	pos       int     // Samples into current phase
	held      int     // Samples since trigger
	hold      int     // Samples before release
	attack    int
	decay     int
	sustain   float64
	release   int
	startedAt int64 // Trigger sequence, for stealing
}

func (t *tone) start(freq, velocity float64, hold int, env Envelope, rate beep.SampleRate, seq int64) {
	t.freq = freq
	t.velocity = velocity
	t.hold = hold
	t.held = 0
	t.attack = rate.N(env.Attack)
	t.decay = rate.N(env.Decay)
	t.sustain = env.Sustain
	t.release = rate.N(env.Release)
	t.from = t.level
	t.pos = 0
	t.startedAt = seq
	if t.state == envIdle {
		t.osc.reset()
	}
	t.state = envAttack
}

func (t *tone) active() bool {
	return t.state != envIdle
}

func (t *tone) envelope() float64 {
	if t.state != envIdle && t.state != envRelease && t.held >= t.hold {
		t.state = envRelease
		t.from = t.level
		t.pos = 0
	}
	t.held++

	switch t.state {
	case envAttack:
		if t.attack > 0 {
			t.level = t.from + (1-t.from)*float64(t.pos)/float64(t.attack)
		} else {
			t.level = 1
		}
		t.pos++
		if t.pos >= t.attack {
			t.state = envDecay
			t.pos = 0
		}
	case envDecay:
		if t.decay > 0 {
			t.level = 1 - (1-t.sustain)*float64(t.pos)/float64(t.decay)
		} else {
			t.level = t.sustain
		}
		t.pos++
		if t.pos >= t.decay {
			t.state = envSustain
		}
	case envSustain:
		t.level = t.sustain
	case envRelease:
		if t.release > 0 {
			t.level = t.from * (1 - float64(t.pos)/float64(t.release))
		} else {
			t.level = 0
		}
		t.pos++
		if t.pos >= t.release || t.level <= 0.0001 {
			t.state = envIdle
			t.level = 0
		}
	}
	return t.level
}

func (t *tone) sample(rate float64) float64 {
	if t.state == envIdle {
		return 0
	}
	env := t.envelope()
	return t.osc.next(t.freq, rate) * env * t.velocity
}

// synth streams one or more tones into the voice bus. It never drains.
type synth struct {
	g     *Graph
	tones []*tone
	seq   int64
}

func (s *synth) Stream(samples [][2]float64) (int, bool) {
	rate := float64(s.g.rate)
	for i := range samples {
		var v float64
		for _, t := range s.tones {
			v += t.sample(rate)
		}
		samples[i][0] = v
		samples[i][1] = v
	}
	return len(samples), true
}

func (s *synth) Err() error { return nil }

// pick returns an idle tone, or steals the oldest.
func (s *synth) pick() *tone {
	oldest := s.tones[0]
	for _, t := range s.tones {
		if !t.active() {
			return t
		}
		if t.startedAt < oldest.startedAt {
			oldest = t
		}
	}
	return oldest
}

// synthVoice implements Voice over a synth and its bus volume.
type synthVoice struct {
	g      *Graph
	synth  *synth
	volume *effects.Volume
}

func (g *Graph) newSynthVoice(polyphony int) *synthVoice {
	if polyphony < 1 {
		polyphony = 1
	}
	s := &synth{g: g, tones: make([]*tone, polyphony)}
	for i := range s.tones {
		s.tones[i] = &tone{osc: oscillator{wave: config.WaveSine, kind: config.OscBasic}}
	}
	v := &synthVoice{
		g:      g,
		synth:  s,
		volume: &effects.Volume{Streamer: s, Base: 10},
	}

	g.lock.Lock()
	g.bus.Add(v.volume)
	g.lock.Unlock()
	return v
}

// NewMonoVoice returns a single-note voice. A trigger while a note sounds
// cuts that note.
func (g *Graph) NewMonoVoice() Voice {
	return g.newSynthVoice(1)
}

// NewPolyVoice returns a voice with the given note ceiling. Above the
// ceiling the oldest sounding note is stolen.
func (g *Graph) NewPolyVoice(polyphony int) Voice {
	return g.newSynthVoice(polyphony)
}

func (v *synthVoice) Trigger(note string, duration time.Duration, velocity float64) error {
	freq, err := palette.Frequency(note)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownNote, err)
	}
	velocity = math.Max(0, math.Min(1, velocity))

	v.g.lock.Lock()
	defer v.g.lock.Unlock()

	if v.g.closed {
		return ErrClosed
	}
	v.synth.seq++
	t := v.synth.pick()
	t.start(freq, velocity, v.g.rate.N(duration), v.g.envelope, v.g.rate, v.synth.seq)
	return nil
}

func (v *synthVoice) SetWaveform(w config.Waveform) {
	v.g.lock.Lock()
	for _, t := range v.synth.tones {
		t.osc.wave = w
	}
	v.g.lock.Unlock()
}

func (v *synthVoice) SetOscillator(o config.Oscillator) {
	v.g.lock.Lock()
	for _, t := range v.synth.tones {
		t.osc.kind = o
	}
	v.g.lock.Unlock()
}

// SetVolume sets the voice level in dB.
func (v *synthVoice) SetVolume(db float64) {
	v.g.lock.Lock()
	v.volume.Volume = db / 20
	v.volume.Silent = db <= silenceDB
	v.g.lock.Unlock()
}
