package audio

import (
	"testing"
	"time"

	"github.com/iburimskiy/sound-dots/internal/config"
)

// fakeVoice records what the allocator pushes into it.
type fakeVoice struct {
	wave     config.Waveform
	osc      config.Oscillator
	volume   float64
	sets     int
	triggers []string
}

func (f *fakeVoice) Trigger(note string, _ time.Duration, _ float64) error {
	f.triggers = append(f.triggers, note)
	return nil
}
func (f *fakeVoice) SetWaveform(w config.Waveform)     { f.wave = w; f.sets++ }
func (f *fakeVoice) SetOscillator(o config.Oscillator) { f.osc = o; f.sets++ }
func (f *fakeVoice) SetVolume(db float64)              { f.volume = db; f.sets++ }

func newFakeAllocator(poolSize int, mode Mode) (*Allocator, []*fakeVoice, *fakeVoice) {
	fakes := make([]*fakeVoice, poolSize)
	pool := make([]Voice, poolSize)
	for i := range pool {
		fakes[i] = &fakeVoice{}
		pool[i] = fakes[i]
	}
	shared := &fakeVoice{}
	return NewAllocator(pool, shared, mode), fakes, shared
}

func TestAllocatorPooledRoundRobin(t *testing.T) {
	a, fakes, _ := newFakeAllocator(3, ModePooled)

	for i := 0; i < 9; i++ {
		if got := a.VoiceFor(i); got != Voice(fakes[i%3]) {
			t.Errorf("VoiceFor(%d) = %p, want pool[%d]", i, got, i%3)
		}
	}
}

func TestAllocatorSharedMode(t *testing.T) {
	a, _, shared := newFakeAllocator(3, ModeShared)

	for i := 0; i < 5; i++ {
		if got := a.VoiceFor(i); got != Voice(shared) {
			t.Errorf("VoiceFor(%d) is not the shared voice", i)
		}
	}
	if n := len(a.Active()); n != 1 {
		t.Errorf("active voices = %d, want 1", n)
	}
}

func TestAllocatorConfigureActiveSetOnly(t *testing.T) {
	a, fakes, shared := newFakeAllocator(2, ModePooled)

	a.Configure(config.WaveSquare, config.OscFat, -6)
	for i, f := range fakes {
		if f.wave != config.WaveSquare || f.osc != config.OscFat || f.volume != -6 {
			t.Errorf("pool[%d] = %+v", i, f)
		}
	}
	if shared.sets != 0 {
		t.Errorf("inactive shared voice touched %d times", shared.sets)
	}

	// Switching mode brings the new active set up to date.
	if !a.SetMode(ModeShared) {
		t.Fatal("SetMode reported no change")
	}
	if shared.wave != config.WaveSquare || shared.volume != -6 {
		t.Errorf("shared voice after switch = %+v", shared)
	}
	if a.SetMode(ModeShared) {
		t.Error("SetMode to same mode reported a change")
	}
}

func TestAllocatorConfigureSkipsUnchanged(t *testing.T) {
	a, fakes, _ := newFakeAllocator(1, ModePooled)

	a.Configure(config.WaveSine, config.OscBasic, -12)
	before := fakes[0].sets
	a.Configure(config.WaveSine, config.OscBasic, -12)
	if fakes[0].sets != before {
		t.Errorf("unchanged configure issued %d setter calls", fakes[0].sets-before)
	}
	a.Configure(config.WaveSine, config.OscBasic, -3)
	if fakes[0].sets != before+1 || fakes[0].volume != -3 {
		t.Errorf("volume change: sets %d volume %v", fakes[0].sets-before, fakes[0].volume)
	}
}

func TestGraphAllocatorBuildsVoices(t *testing.T) {
	g := newTestGraph(t)
	a := g.NewAllocator(4, 16, ModePooled)

	if n := len(a.Active()); n != 4 {
		t.Fatalf("pool size = %d, want 4", n)
	}
	if a.VoiceFor(0) == a.VoiceFor(1) {
		t.Error("adjacent particles share a pooled voice")
	}
	if a.VoiceFor(0) != a.VoiceFor(4) {
		t.Error("index 4 should wrap to pool[0]")
	}
	a.SetMode(ModeShared)
	if a.VoiceFor(0) != a.VoiceFor(1) {
		t.Error("shared mode should hand out one voice")
	}
	if ModeFor(true) != ModeShared || ModeFor(false) != ModePooled {
		t.Error("ModeFor mapping")
	}
}
