package particle

import (
	"bytes"
	"errors"
	"log/slog"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/palette"
)

type recordingVoice struct {
	notes []string
	err   error
}

func (v *recordingVoice) Trigger(note string, _ time.Duration, _ float64) error {
	v.notes = append(v.notes, note)
	return v.err
}
func (v *recordingVoice) SetWaveform(config.Waveform)     {}
func (v *recordingVoice) SetOscillator(config.Oscillator) {}
func (v *recordingVoice) SetVolume(float64)               {}

type touchLog []Touch

func (l *touchLog) OnTouch(t Touch) { *l = append(*l, t) }

func testEnv(seed int64) Env {
	return Env{
		Rand:   rand.New(rand.NewSource(seed)),
		Params: ParamsFromConfig(config.Default()),
	}
}

func testUpdate(voice audio.Voice) Update {
	res, err := palette.Resolve("majorPentatonic", 2, 1500)
	if err != nil {
		panic(err)
	}
	return Update{
		Notes:        res.Notes,
		Palette:      res.Palette,
		SnapHue:      true,
		Speed:        2,
		FrameRate:    60,
		Voice:        voice,
		SoundEnabled: true,
	}
}

func TestDiameterDecreasesWithPitch(t *testing.T) {
	prm := ParamsFromConfig(config.Default())
	prev := prm.Diameter("C1")
	for oct := 1; oct <= 7; oct++ {
		for _, name := range []string{"C", "D", "E", "F", "G", "A", "B"} {
			note := name + string(rune('0'+oct))
			if note == "C1" {
				continue
			}
			d := prm.Diameter(note)
			if d >= prev {
				t.Fatalf("Diameter(%s) = %v, not below previous %v", note, d, prev)
			}
			prev = d
		}
	}
}

func TestAdvanceFlipsOnceAtBorder(t *testing.T) {
	env := testEnv(1)
	p := New(1, 400, testUpdate(nil), env)
	p.SpeedX, p.SpeedY = 3, 0
	p.DirX = 1
	p.X = 400 - p.Diameter/2 - 1
	p.Y = 200

	p.Advance(400, env)
	if p.DirX != -1 || p.Touches != 1 {
		t.Fatalf("after crossing: dir %v touches %d", p.DirX, p.Touches)
	}
	for i := 0; i < 5; i++ {
		p.Advance(400, env)
	}
	if p.DirX != -1 || p.Touches != 1 {
		t.Errorf("flipped again: dir %v touches %d", p.DirX, p.Touches)
	}
}

func TestAdvanceCornerTouchesBothAxes(t *testing.T) {
	env := testEnv(2)
	var log touchLog
	env.Sink = &log
	p := New(1, 400, testUpdate(nil), env)
	p.SpeedX, p.SpeedY = 3, 3
	p.DirX, p.DirY = -1, -1
	p.X, p.Y = p.Diameter/2+1, p.Diameter/2+1

	p.Advance(400, env)
	if len(log) != 2 || log[0].Axis != AxisX || log[1].Axis != AxisY {
		t.Fatalf("touches = %+v, want one per axis", log)
	}
}

func TestAdvanceKeepsWithinMargin(t *testing.T) {
	env := testEnv(3)
	p := New(1, 300, testUpdate(nil), env)
	p.SpeedX, p.SpeedY = 17, 23
	for i := 0; i < 2000; i++ {
		p.Advance(300, env)
		half := p.Diameter / 2
		if p.X < half || p.X > 300-half || p.Y < half || p.Y > 300-half {
			t.Fatalf("frame %d: (%v, %v) outside margin %v", i, p.X, p.Y, half)
		}
	}
}

func TestNoteChangesEverySeventhTouch(t *testing.T) {
	env := testEnv(42)
	p := New(1, 400, testUpdate(nil), env)

	for n := 1; n <= 20; n++ {
		before := p.Note
		p.touch(AxisX, env)
		changed := p.Note != before
		want := n%7 == 0
		if changed != want {
			t.Errorf("touch %d: note changed = %v, want %v", n, changed, want)
		}
		if changed && p.Diameter != env.Params.Diameter(p.Note) {
			t.Errorf("touch %d: diameter not recomputed", n)
		}
	}
}

func TestTouchSpawnsFlashAndTriggersVoice(t *testing.T) {
	env := testEnv(4)
	var log touchLog
	env.Sink = &log
	v := &recordingVoice{}
	p := New(1, 400, testUpdate(v), env)
	l0 := p.Lightness

	p.touch(AxisY, env)
	if len(p.Flashes) != 1 {
		t.Fatalf("flashes = %+v", p.Flashes)
	}
	if want := p.DefaultLightness - env.Params.FlashDim; p.Flashes[0].Lightness != want {
		t.Errorf("flash lightness = %v, want %v", p.Flashes[0].Lightness, want)
	}
	if p.Lightness != l0+env.Params.LightnessFlash {
		t.Errorf("lightness = %v, want %v", p.Lightness, l0+env.Params.LightnessFlash)
	}
	if len(v.notes) != 1 || v.notes[0] != p.Note {
		t.Errorf("triggered %v, want [%s]", v.notes, p.Note)
	}
	if len(log) != 1 || log[0].Count != 1 {
		t.Errorf("sink got %+v", log)
	}
	if len(log) == 1 && log[0].Lightness != l0 {
		t.Errorf("touch lightness = %v, want pre-flash %v", log[0].Lightness, l0)
	}

	p.SoundEnabled = false
	p.touch(AxisY, env)
	if len(v.notes) != 1 {
		t.Error("muted particle triggered its voice")
	}
	if len(log) != 2 {
		t.Error("muted particle must still emit touches")
	}
}

func TestTouchVoiceFailureIsLogged(t *testing.T) {
	env := testEnv(5)
	var out bytes.Buffer
	env.Logger = slog.New(slog.NewTextHandler(&out, nil))
	v := &recordingVoice{err: errors.New("busy")}
	p := New(9, 400, testUpdate(v), env)

	p.touch(AxisX, env)
	if p.Touches != 1 {
		t.Fatal("touch did not complete")
	}
	if !strings.Contains(out.String(), "voice trigger failed") {
		t.Errorf("log = %q", out.String())
	}
}

func TestDecayStopsAtDefault(t *testing.T) {
	env := testEnv(6)
	p := New(1, 400, testUpdate(nil), env)
	p.touch(AxisX, env)
	p.touch(AxisX, env)

	for i := 0; i < 500; i++ {
		p.decay(env)
		if p.Lightness < p.DefaultLightness {
			t.Fatalf("step %d: lightness %v below default %v", i, p.Lightness, p.DefaultLightness)
		}
	}
	if p.Lightness != p.DefaultLightness {
		t.Errorf("lightness = %v, want %v", p.Lightness, p.DefaultLightness)
	}
}

func TestFlashLightnessFloor(t *testing.T) {
	tests := []struct {
		name      string
		baseline  float64
		wantFlash float64
	}{
		{"bright", 63, 53},
		{"at floor", 20, 10},
		{"dark", 12, 10},
		{"black", 0, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv(11)
			p := New(1, 400, testUpdate(nil), env)
			p.DefaultLightness = tt.baseline
			p.touch(AxisX, env)
			if got := p.Flashes[0].Lightness; got != tt.wantFlash {
				t.Errorf("flash lightness = %v, want %v", got, tt.wantFlash)
			}
		})
	}
}

func TestTouchReportsColourBeforeFlash(t *testing.T) {
	env := testEnv(12)
	var log touchLog
	env.Sink = &log
	p := New(1, 400, testUpdate(nil), env)

	var want []float64
	for i := 0; i < 3; i++ {
		want = append(want, p.Lightness)
		p.touch(AxisX, env)
	}
	for i, tc := range log {
		if tc.Lightness != want[i] {
			t.Errorf("touch %d lightness = %v, want %v", i+1, tc.Lightness, want[i])
		}
	}
	if p.Lightness != want[0]+3*env.Params.LightnessFlash {
		t.Errorf("particle lightness = %v, want %v", p.Lightness, want[0]+3*env.Params.LightnessFlash)
	}
}

func TestNoteChangeDriftsHue(t *testing.T) {
	env := testEnv(13)
	u := testUpdate(nil)
	u.Palette.Hue = 200
	u.Palette.Variance = 40
	p := New(1, 400, u, env)
	limit := env.Params.HueDrift * p.Variance / 2

	moved := false
	for n := 1; n <= 70; n++ {
		before := p.TargetHue
		p.touch(AxisX, env)
		d := p.TargetHue - before
		if n%env.Params.NoteChangeEvery != 0 {
			if d != 0 {
				t.Fatalf("touch %d: target hue moved by %v without a note change", n, d)
			}
			continue
		}
		if d < -limit || d > limit {
			t.Errorf("touch %d: target hue moved by %v, limit %v", n, d, limit)
		}
		if d != 0 {
			moved = true
		}
	}
	if !moved {
		t.Error("target hue never drifted on note changes")
	}
}

func TestDecayReachesBaselineWhenStill(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
	}{
		{"still", 0},
		{"slow", 0.5},
		{"fast", 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := testEnv(14)
			p := New(1, 400, testUpdate(nil), env)
			p.SpeedX, p.SpeedY = tt.speed, tt.speed
			p.Lightness = p.DefaultLightness + 30

			for i := 0; i < 1000 && p.Lightness > p.DefaultLightness; i++ {
				p.decay(env)
			}
			if p.Lightness != p.DefaultLightness {
				t.Errorf("lightness = %v after 1000 frames, want %v", p.Lightness, p.DefaultLightness)
			}
		})
	}
}

func TestDecayFasterForFasterParticles(t *testing.T) {
	env := testEnv(7)
	slow := New(1, 400, testUpdate(nil), env)
	fast := New(2, 400, testUpdate(nil), env)
	slow.SpeedX, slow.SpeedY = 1, 1
	fast.SpeedX, fast.SpeedY = 4, 4
	slow.Lightness = slow.DefaultLightness + 20
	fast.Lightness = fast.DefaultLightness + 20

	slow.decay(env)
	fast.decay(env)
	if fast.Lightness-fast.DefaultLightness >= slow.Lightness-slow.DefaultLightness {
		t.Error("faster particle should be closer to baseline")
	}
}

func TestFlashesExpire(t *testing.T) {
	env := testEnv(8)
	p := New(1, 400, testUpdate(nil), env)
	p.SpeedX, p.SpeedY = 0, 0
	p.touch(AxisX, env)

	frames := int(env.Params.FlashLifetime*60) + 1
	for i := 0; i < frames; i++ {
		p.Advance(400, env)
	}
	if len(p.Flashes) != 0 {
		t.Errorf("flashes = %d after lifetime", len(p.Flashes))
	}
}

func TestApplyUpdateKeepsEqualNoteSet(t *testing.T) {
	env := testEnv(9)
	u := testUpdate(nil)
	p := New(1, 400, u, env)
	note := p.Note

	// Same content in a fresh slice is not a change.
	for i := 0; i < 20; i++ {
		u.Notes = append([]string(nil), u.Notes...)
		p.ApplyUpdate(u, env)
		if p.Note != note {
			t.Fatalf("note changed from %s to %s on equal set", note, p.Note)
		}
	}

	res, _ := palette.Resolve("wholeTone", 0, 1500)
	u.Notes = res.Notes
	p.ApplyUpdate(u, env)
	if !contains(res.Notes, p.Note) {
		t.Errorf("note %s not from new set %v", p.Note, res.Notes)
	}
}

func TestApplyUpdateHueDriftsUnlessSnapped(t *testing.T) {
	env := testEnv(10)
	u := testUpdate(nil)
	p := New(1, 400, u, env)

	u.SnapHue = false
	u.Palette.Hue = 20
	u.Palette.Variance = 0
	start := p.Hue
	p.ApplyUpdate(u, env)
	if p.Hue != start {
		t.Errorf("drift update snapped hue to %v", p.Hue)
	}
	p.SpeedX, p.SpeedY = 0, 0
	for i := 0; i < 600; i++ {
		p.Advance(400, env)
	}
	if d := p.Hue - 20; d > 0.5 || d < -0.5 {
		t.Errorf("hue %v did not settle on 20", p.Hue)
	}

	u.SnapHue = true
	u.Palette.Hue = 120
	p.ApplyUpdate(u, env)
	if p.Hue != 120 {
		t.Errorf("snapped hue = %v, want 120", p.Hue)
	}
}

func TestHueFloor(t *testing.T) {
	env := testEnv(11)
	u := testUpdate(nil)
	u.Palette.Hue = 0
	u.Palette.Variance = 0
	p := New(1, 400, u, env)
	if p.Hue < env.Params.HueFloor {
		t.Errorf("hue = %v below floor", p.Hue)
	}
}

func TestShapesOrder(t *testing.T) {
	env := testEnv(12)
	p := New(1, 400, testUpdate(nil), env)
	p.touch(AxisX, env)

	shapes := p.Shapes(nil, env.Params.FlashGrowth)
	if len(shapes) != 2 || shapes[0].Kind != Ring || shapes[1].Kind != Disc {
		t.Fatalf("shapes = %+v", shapes)
	}
	if shapes[0].Alpha != 1 {
		t.Errorf("fresh ring alpha = %v, want 1", shapes[0].Alpha)
	}
}

func contains(xs []string, s string) bool {
	for _, x := range xs {
		if x == s {
			return true
		}
	}
	return false
}
