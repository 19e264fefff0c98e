package particle

import (
	"log/slog"
	"math"
	"math/rand"
	"time"

	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/palette"
)

// Params are the fixed tuning constants of the particle engine.
type Params struct {
	DiameterIntercept  float64
	DiameterSlope      float64
	MinDiameter        float64
	MaxDiameter        float64
	SpeedJitter        float64
	LightnessFlash     float64
	LightnessDecay     float64
	LightnessDecayBase float64
	FlashDim           float64
	FlashMinLightness  float64
	FlashLifetime      float64
	FlashGrowth        float64
	HueDrift           float64
	HueSpringFrequency float64
	HueSpringDamping   float64
	HueFloor           float64
	VelocityMin        float64
	VelocityMax        float64
	NoteChangeEvery    int
	NoteDuration       time.Duration
}

// ParamsFromConfig extracts engine parameters from the loaded config.
func ParamsFromConfig(cfg *config.Config) Params {
	pc := cfg.Particles
	return Params{
		DiameterIntercept:  pc.DiameterIntercept,
		DiameterSlope:      pc.DiameterSlope,
		MinDiameter:        pc.MinDiameter,
		MaxDiameter:        pc.MaxDiameter,
		SpeedJitter:        pc.SpeedJitter,
		LightnessFlash:     pc.LightnessFlash,
		LightnessDecay:     pc.LightnessDecay,
		LightnessDecayBase: pc.LightnessDecayBase,
		FlashDim:           pc.FlashDim,
		FlashMinLightness:  pc.FlashMinLightness,
		FlashLifetime:      pc.FlashLifetime,
		FlashGrowth:        pc.FlashGrowth,
		HueDrift:           pc.HueDrift,
		HueSpringFrequency: pc.HueSpringFrequency,
		HueSpringDamping:   pc.HueSpringDamping,
		HueFloor:           pc.HueFloor,
		VelocityMin:        pc.VelocityMin,
		VelocityMax:        pc.VelocityMax,
		NoteChangeEvery:    pc.NoteChangeEvery,
		NoteDuration:       cfg.Derived.NoteDuration,
	}
}

// Env carries the collaborators a particle transition may touch.
type Env struct {
	Rand   *rand.Rand
	Sink   Sink
	Logger *slog.Logger
	Params Params
}

func (e Env) logger() *slog.Logger {
	if e.Logger == nil {
		return slog.Default()
	}
	return e.Logger
}

// Diameter maps a note to a disc size: a negative-linear function of the
// MIDI pitch, clamped. Unparseable notes size as middle C.
func (p Params) Diameter(note string) float64 {
	midi, err := palette.PitchIndex(note)
	if err != nil {
		midi = 60
	}
	d := p.DiameterIntercept - p.DiameterSlope*float64(midi)
	return math.Max(p.MinDiameter, math.Min(p.MaxDiameter, d))
}
