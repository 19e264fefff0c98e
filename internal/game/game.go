// Package game is the ebiten host for the sound dots engine: window,
// keyboard controls, drawing and file dialogs.
package game

import (
	"fmt"
	"image/color"
	"log/slog"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/controls"
	"github.com/iburimskiy/sound-dots/internal/feedback"
	"github.com/iburimskiy/sound-dots/internal/particle"
	"github.com/iburimskiy/sound-dots/internal/sim"
)

const (
	meterBands      = 32
	meterWindow     = 2048
	smoothingFactor = 0.6

	// Button dimensions
	buttonWidth  = 120
	buttonHeight = 24
	buttonX      = 12
	buttonY      = 40

	ringStroke = 2
)

// Options wires a Game to the engine.
type Options struct {
	Config *config.Config
	Driver *sim.Driver
	Graph  *audio.Graph
	Glow   *feedback.Throttle
	Logger *slog.Logger
}

// Game implements ebiten.Game.
type Game struct {
	cfg    *config.Config
	driver *sim.Driver
	graph  *audio.Graph
	glow   *feedback.Throttle
	log    *slog.Logger

	snap   config.Snapshot
	canvas *ebiten.Image // Persistent trail layer

	meter []float64

	// input edge detection
	prevKey map[ebiten.Key]bool

	// button state
	buttonHovered bool
	buttonPressed bool

	lastErr error
	notice  string
}

// New creates the game and submits the initial snapshot.
func New(opts Options) *Game {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	g := &Game{
		cfg:     opts.Config,
		driver:  opts.Driver,
		graph:   opts.Graph,
		glow:    opts.Glow,
		log:     log,
		snap:    opts.Config.Initial,
		meter:   make([]float64, meterBands),
		prevKey: map[ebiten.Key]bool{},
	}
	g.driver.Submit(g.snap)
	return g
}

// keymap binds keys to snapshot edits. The second action, when set, is used
// with Shift held.
var keymap = []struct {
	key     ebiten.Key
	action  controls.Action
	shifted controls.Action
	hasAlt  bool
}{
	{ebiten.KeyArrowUp, controls.DensityUp, 0, false},
	{ebiten.KeyArrowDown, controls.DensityDown, 0, false},
	{ebiten.KeyArrowRight, controls.SpeedUp, 0, false},
	{ebiten.KeyArrowLeft, controls.SpeedDown, 0, false},
	{ebiten.KeyBracketRight, controls.TrailLonger, 0, false},
	{ebiten.KeyBracketLeft, controls.TrailShorter, 0, false},
	{ebiten.KeyH, controls.NextHarmony, 0, false},
	{ebiten.KeyR, controls.RangeUp, controls.RangeDown, true},
	{ebiten.KeyEqual, controls.VolumeUp, 0, false},
	{ebiten.KeyMinus, controls.VolumeDown, 0, false},
	{ebiten.KeyW, controls.NextWaveform, 0, false},
	{ebiten.KeyC, controls.ToggleOscillator, 0, false},
	{ebiten.KeyF, controls.FilterUp, controls.FilterDown, true},
	{ebiten.KeyM, controls.ToggleSound, 0, false},
	{ebiten.KeyP, controls.TogglePerformance, 0, false},
}

func (g *Game) Update() error {
	justPressed := func(k ebiten.Key) bool {
		pressed := ebiten.IsKeyPressed(k)
		jp := pressed && !g.prevKey[k]
		g.prevKey[k] = pressed
		return jp
	}

	// Handle button interactions
	mouseX, mouseY := ebiten.CursorPosition()
	g.buttonHovered = mouseX >= buttonX && mouseX <= buttonX+buttonWidth &&
		mouseY >= buttonY && mouseY <= buttonY+buttonHeight
	if g.buttonHovered && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		g.buttonPressed = true
	}
	if inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft) {
		if g.buttonPressed && g.buttonHovered {
			g.setErr(g.openConfigDialog())
		}
		g.buttonPressed = false
	}

	shift := ebiten.IsKeyPressed(ebiten.KeyShift)
	changed := false
	for _, b := range keymap {
		if !justPressed(b.key) {
			continue
		}
		a := b.action
		if shift && b.hasAlt {
			a = b.shifted
		}
		g.snap = controls.Apply(g.snap, a, g.cfg.Audio.MaxTrail)
		changed = true
	}
	if changed {
		g.driver.Submit(g.snap)
	}

	if justPressed(ebiten.KeyO) {
		g.setErr(g.openConfigDialog())
	}
	if justPressed(ebiten.KeyS) {
		g.setErr(g.saveCaptureDialog())
	}
	if justPressed(ebiten.KeyEscape) || justPressed(ebiten.KeyQ) {
		return ebiten.Termination
	}

	g.driver.Tick()
	g.updateMeter()
	return nil
}

func (g *Game) setErr(err error) {
	if err != nil {
		g.lastErr = err
		g.log.Error("dialog failed", "error", err)
	}
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return g.cfg.Window.Canvas, g.cfg.Window.Canvas
}

func (g *Game) Draw(screen *ebiten.Image) {
	size := g.cfg.Window.Canvas
	if g.canvas == nil {
		g.canvas = ebiten.NewImage(size, size)
	}

	g.fadeTrail()
	for _, s := range g.driver.Shapes() {
		drawShape(g.canvas, s)
	}

	g.drawGlow(screen)
	screen.DrawImage(g.canvas, nil)
	g.drawMeter(screen)
	g.drawButton(screen)
	ebitenutil.DebugPrintAt(screen, g.status(), 12, 12)
}

// fadeTrail darkens the trail layer once per frame. A larger trail magnitude
// fades faster.
func (g *Game) fadeTrail() {
	u := g.snap.TrailMagnitude() / g.cfg.Audio.MaxTrail
	alpha := 0.04 + 0.6*clamp01(u)
	size := float32(g.cfg.Window.Canvas)
	vector.DrawFilledRect(g.canvas, 0, 0, size, size, color.RGBA{A: uint8(255 * alpha)}, false)
}

func drawShape(dst *ebiten.Image, s particle.Shape) {
	c := hslColor(s.Hue, s.Saturation, s.Lightness, s.Alpha)
	r := float32(s.Diameter / 2)
	switch s.Kind {
	case particle.Ring:
		vector.StrokeCircle(dst, float32(s.X), float32(s.Y), r, ringStroke, c, true)
	default:
		vector.DrawFilledCircle(dst, float32(s.X), float32(s.Y), r, c, true)
	}
}

// drawGlow fills the background with the last forwarded feedback colour,
// fading over two throttle intervals and brightened by the output level.
func (g *Game) drawGlow(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if g.glow == nil {
		return
	}
	glow, ok := g.glow.Current()
	if !ok {
		return
	}
	span := 2 * g.glow.Interval
	if span <= 0 {
		span = time.Second
	}
	fade := 1 - float64(time.Since(glow.At))/float64(span)
	if fade <= 0 {
		return
	}
	level := 0.0
	if g.graph != nil {
		level = g.graph.Tap().Level(meterWindow)
	}
	alpha := fade * clamp01(0.15+2*level) * 0.5
	screen.Fill(hslColor(glow.Hue, glow.Saturation, glow.Lightness, alpha))
}

// updateMeter folds the latest output into smoothed band levels.
func (g *Game) updateMeter() {
	if g.graph == nil {
		return
	}
	samples := g.graph.Tap().Snapshot(meterWindow)
	if len(samples) == 0 {
		return
	}

	segmentSize := max(1, len(samples)/meterBands)
	for i := 0; i < meterBands; i++ {
		start := i * segmentSize
		end := min(start+segmentSize, len(samples))
		if start >= len(samples) {
			break
		}

		var sumSquares float64
		for s := start; s < end; s++ {
			mono := (samples[s][0] + samples[s][1]) * 0.5
			sumSquares += mono * mono
		}
		rms := math.Sqrt(sumSquares / float64(end-start))
		mag := math.Pow(rms, 0.3)
		g.meter[i] = smoothingFactor*g.meter[i] + (1-smoothingFactor)*mag
	}
}

func (g *Game) drawMeter(screen *ebiten.Image) {
	size := float64(g.cfg.Window.Canvas)
	barHeight := 24.0
	barY := size - barHeight - 8
	barX := 12.0
	barWidth := size - 24
	segmentWidth := barWidth / meterBands

	res, _ := g.driver.Resolution()
	for i, v := range g.meter {
		h := max(1, clamp01(v)*barHeight)
		c := hslColor(res.Palette.Hue+float64(i)*2, res.Palette.Saturation, res.Palette.Lightness, 0.6)
		vector.DrawFilledRect(screen, float32(barX+float64(i)*segmentWidth), float32(barY+barHeight-h),
			float32(segmentWidth-1), float32(h), c, false)
	}
}

func (g *Game) drawButton(screen *ebiten.Image) {
	var bgColor color.Color
	if g.buttonPressed {
		bgColor = color.RGBA{R: 60, G: 80, B: 120, A: 255} // Pressed
	} else if g.buttonHovered {
		bgColor = color.RGBA{R: 80, G: 100, B: 140, A: 255} // Hovered
	} else {
		bgColor = color.RGBA{R: 100, G: 120, B: 160, A: 255} // Normal
	}
	vector.DrawFilledRect(screen, buttonX, buttonY, buttonWidth, buttonHeight, bgColor, false)
	vector.StrokeRect(screen, buttonX, buttonY, buttonWidth, buttonHeight, 2, color.RGBA{R: 150, G: 170, B: 200, A: 255}, false)

	text := "Open Config"
	textX := buttonX + (buttonWidth-len(text)*6)/2
	ebitenutil.DebugPrintAt(screen, text, textX, buttonY+4)
}

func (g *Game) status() string {
	s := g.snap
	sound := "on"
	if !s.SoundEnabled {
		sound = "off"
	}
	recorded := time.Duration(0)
	if g.graph != nil {
		recorded = time.Duration(g.graph.Tap().Len()) * time.Second / time.Duration(int(g.graph.SampleRate()))
	}
	line := fmt.Sprintf("%d dots  %s r%d  %.0f Hz  speed %.1f  trail %.0f  %.0f dB  %s/%s  sound %s  %s  rec %s  %.0f tps",
		len(g.driver.Particles()), s.Harmony, s.Range, s.FilterFrequency, s.Speed, s.Trail,
		s.Volume, s.Waveform, s.Oscillator, sound, audio.ModeFor(s.HighPerformance),
		formatDuration(recorded), ebiten.ActualTPS())
	if g.notice != "" {
		line += " | " + g.notice
	}
	if g.lastErr != nil {
		line += " | Error: " + g.lastErr.Error()
	}
	return line
}
