package sim

import (
	"math/rand"
	"testing"
	"time"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/particle"
)

type stubVoice struct{ triggers int }

func (v *stubVoice) Trigger(string, time.Duration, float64) error { v.triggers++; return nil }
func (v *stubVoice) SetWaveform(config.Waveform)                  {}
func (v *stubVoice) SetOscillator(config.Oscillator)              {}
func (v *stubVoice) SetVolume(float64)                            {}

type stubMixer struct {
	trail, maxTrail, filter float64
	calls                   int
}

func (m *stubMixer) SetTrail(trail, maxTrail float64) {
	m.trail, m.maxTrail = trail, maxTrail
	m.calls++
}
func (m *stubMixer) SetFilterFrequency(hz float64) { m.filter = hz }

func newTestDriver(t *testing.T) (*Driver, *stubMixer, *audio.Allocator) {
	t.Helper()
	cfg := config.Default()
	pool := []audio.Voice{&stubVoice{}, &stubVoice{}, &stubVoice{}}
	alloc := audio.NewAllocator(pool, &stubVoice{}, audio.ModePooled)
	mixer := &stubMixer{}

	opts := OptionsFromConfig(cfg)
	opts.Rand = rand.New(rand.NewSource(7))
	opts.Mixer = mixer
	opts.Voices = alloc
	return New(opts), mixer, alloc
}

func snapshot(density float64) config.Snapshot {
	s := config.Default().Initial
	s.Density = density
	return s
}

func TestReconcileGrowsInOnePass(t *testing.T) {
	d, _, _ := newTestDriver(t)
	s := snapshot(3)
	s.Harmony = "majorPentatonic"
	s.Range = 0
	s.FilterFrequency = 750

	d.Reconcile(s)
	if n := len(d.Particles()); n != 3 {
		t.Fatalf("particles = %d, want 3", n)
	}
	res, ok := d.Resolution()
	if !ok || len(res.Notes) != 5 {
		t.Fatalf("resolution = %+v", res)
	}
	for _, p := range d.Particles() {
		if p.Note[len(p.Note)-1] != '4' {
			t.Errorf("particle %d note %s outside center octave", p.ID, p.Note)
		}
	}
}

func TestReconcileFractionalDensityRoundsUp(t *testing.T) {
	d, _, _ := newTestDriver(t)
	d.Reconcile(snapshot(2.1))
	if n := len(d.Particles()); n != 3 {
		t.Errorf("particles = %d, want 3", n)
	}
}

func TestReconcileShrinkKeepsHead(t *testing.T) {
	d, _, _ := newTestDriver(t)
	d.Reconcile(snapshot(6))
	for i := 0; i < 30; i++ {
		d.Tick()
	}

	type state struct {
		id   uint64
		x, y float64
		note string
	}
	before := make([]state, 0, 4)
	for _, p := range d.Particles()[:4] {
		before = append(before, state{p.ID, p.X, p.Y, p.Note})
	}

	d.Reconcile(snapshot(4))
	after := d.Particles()
	if len(after) != 4 {
		t.Fatalf("particles = %d, want 4", len(after))
	}
	for i, p := range after {
		got := state{p.ID, p.X, p.Y, p.Note}
		if got != before[i] {
			t.Errorf("particle %d: %+v, want %+v", i, got, before[i])
		}
	}
}

func TestReconcileGrowLeavesExistingIntact(t *testing.T) {
	d, _, alloc := newTestDriver(t)
	d.Reconcile(snapshot(2))
	for i := 0; i < 10; i++ {
		d.Tick()
	}

	old := append([]*particle.Particle(nil), d.Particles()...)
	type state struct {
		x, y, dirX, dirY, velocity, hue float64
		touches                         int
		note                            string
		voice                           audio.Voice
	}
	snap := func(p *particle.Particle) state {
		return state{p.X, p.Y, p.DirX, p.DirY, p.Velocity, p.Hue, p.Touches, p.Note, p.Voice}
	}
	before := []state{snap(old[0]), snap(old[1])}

	d.Reconcile(snapshot(5))
	now := d.Particles()
	if len(now) != 5 {
		t.Fatalf("particles = %d, want 5", len(now))
	}
	for i := range old {
		if now[i] != old[i] {
			t.Fatalf("particle %d was recreated", i)
		}
		if got := snap(now[i]); got != before[i] {
			t.Errorf("particle %d: %+v, want %+v", i, got, before[i])
		}
	}
	for i, p := range now {
		if p.Voice != alloc.VoiceFor(i) {
			t.Errorf("particle %d has the wrong voice", i)
		}
	}
	if now[3].ID <= now[1].ID {
		t.Error("new particles must get fresh ids")
	}
}

func TestReconcileUnknownHarmony(t *testing.T) {
	d, _, _ := newTestDriver(t)

	s := snapshot(3)
	s.Harmony = "nope"
	d.Reconcile(s)
	if n := len(d.Particles()); n != 0 {
		t.Fatalf("particles = %d before any valid harmony, want 0", n)
	}

	d.Reconcile(snapshot(3))
	res, _ := d.Resolution()
	d.Reconcile(s)
	if n := len(d.Particles()); n != 3 {
		t.Errorf("particles = %d, want last valid population of 3", n)
	}
	if got, _ := d.Resolution(); !got.Equal(res) {
		t.Error("unknown harmony replaced the palette")
	}
}

func TestReconcileInvalidDensity(t *testing.T) {
	d, _, _ := newTestDriver(t)
	d.Reconcile(snapshot(3))
	d.Reconcile(snapshot(-2))
	if n := len(d.Particles()); n != 0 {
		t.Errorf("particles = %d, want 0", n)
	}
}

func TestReconcileForwardsMixerAndVoices(t *testing.T) {
	d, mixer, alloc := newTestDriver(t)
	s := snapshot(2)
	s.Trail = -30
	s.FilterFrequency = 900
	s.HighPerformance = true
	d.Reconcile(s)

	if mixer.trail != -30 || mixer.maxTrail != 100 || mixer.filter != 900 {
		t.Errorf("mixer = %+v", mixer)
	}
	if alloc.Mode() != audio.ModeShared {
		t.Errorf("mode = %v, want shared", alloc.Mode())
	}
	ps := d.Particles()
	if ps[0].Voice != ps[1].Voice {
		t.Error("shared mode should give every particle the same voice")
	}
}

func TestSubmitAppliesAtNextTick(t *testing.T) {
	d, _, _ := newTestDriver(t)
	d.Submit(snapshot(1))
	d.Submit(snapshot(4))
	if len(d.Particles()) != 0 {
		t.Fatal("Submit applied before Tick")
	}
	d.Tick()
	if n := len(d.Particles()); n != 4 {
		t.Errorf("particles = %d, want latest snapshot's 4", n)
	}
	if d.Current().Density != 4 {
		t.Errorf("Current().Density = %v", d.Current().Density)
	}
}

func TestTouchesReachSinksWithTick(t *testing.T) {
	d, _, _ := newTestDriver(t)
	var got []particle.Touch
	d.AddSink(particle.SinkFunc(func(tc particle.Touch) { got = append(got, tc) }))

	s := snapshot(4)
	s.Speed = 12
	d.Reconcile(s)
	for i := 0; i < 300; i++ {
		d.Tick()
	}
	if len(got) == 0 {
		t.Fatal("no touches in 300 ticks")
	}
	for _, tc := range got {
		if tc.Tick < 1 || tc.Tick > 300 {
			t.Fatalf("touch tick %d out of range", tc.Tick)
		}
	}
	if n := len(d.Shapes()); n < 4 {
		t.Errorf("shapes = %d, want at least one per particle", n)
	}
}
