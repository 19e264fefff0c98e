// Package config provides configuration loading for the sound dots engine.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalid is returned when a loaded configuration cannot drive the engine.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all engine configuration parameters.
type Config struct {
	Window    WindowConfig   `yaml:"window"`
	Audio     AudioConfig    `yaml:"audio"`
	Particles ParticleConfig `yaml:"particles"`
	Feedback  FeedbackConfig `yaml:"feedback"`
	Initial   Snapshot       `yaml:"initial"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WindowConfig holds display settings. The canvas is square.
type WindowConfig struct {
	Canvas    int    `yaml:"canvas"`
	TargetFPS int    `yaml:"target_fps"`
	Title     string `yaml:"title"`
}

// AudioConfig holds synthesizer and mixer settings.
type AudioConfig struct {
	SampleRate      int       `yaml:"sample_rate"`
	BufferMS        int       `yaml:"buffer_ms"`
	PoolSize        int       `yaml:"pool_size"`        // Mono voices in constrained mode
	Polyphony       int       `yaml:"polyphony"`        // Voice ceiling of the shared synth
	NoteDurationMS  int       `yaml:"note_duration_ms"` // Hold time per border touch
	AttackMS        int       `yaml:"attack_ms"`
	DecayMS         int       `yaml:"decay_ms"`
	Sustain         float64   `yaml:"sustain"`
	ReleaseMS       int       `yaml:"release_ms"`
	RampMS          int       `yaml:"ramp_ms"`          // Band gain ramp length
	TeardownMS      int       `yaml:"teardown_ms"`      // Master fade before release
	ReverbDecays    []float64 `yaml:"reverb_decays"`    // Seconds, strictly increasing
	ReverbMix       float64   `yaml:"reverb_mix"`       // Wet share inside each band
	FloorCorrection float64   `yaml:"floor_correction"` // Gain floor of the longest band
	MaxTrail        float64   `yaml:"max_trail"`
	CaptureSeconds  float64   `yaml:"capture_seconds"`
}

// ParticleConfig holds per-particle physics and colour parameters.
type ParticleConfig struct {
	MaxCount           int     `yaml:"max_count"`
	DiameterIntercept  float64 `yaml:"diameter_intercept"`
	DiameterSlope      float64 `yaml:"diameter_slope"` // Pixels lost per semitone
	MinDiameter        float64 `yaml:"min_diameter"`
	MaxDiameter        float64 `yaml:"max_diameter"`
	SpeedJitter        float64 `yaml:"speed_jitter"` // Fraction of base speed added at random per axis
	LightnessFlash     float64 `yaml:"lightness_flash"`
	LightnessDecay     float64 `yaml:"lightness_decay"`      // Per frame, scaled by speed
	LightnessDecayBase float64 `yaml:"lightness_decay_base"` // Per frame, regardless of speed
	FlashDim           float64 `yaml:"flash_dim"`            // Flash lightness below the baseline
	FlashMinLightness  float64 `yaml:"flash_min_lightness"`
	FlashLifetime      float64 `yaml:"flash_lifetime"` // Seconds
	FlashGrowth        float64 `yaml:"flash_growth"`   // Extra diameters reached at end of life
	HueDrift           float64 `yaml:"hue_drift"`      // Share of the variance a note change may shift the hue
	HueSpringFrequency float64 `yaml:"hue_spring_frequency"`
	HueSpringDamping   float64 `yaml:"hue_spring_damping"`
	HueFloor           float64 `yaml:"hue_floor"`
	VelocityMin        float64 `yaml:"velocity_min"`
	VelocityMax        float64 `yaml:"velocity_max"`
	NoteChangeEvery    int     `yaml:"note_change_every"`
}

// FeedbackConfig holds the glow throttle policy of the host layer.
type FeedbackConfig struct {
	IntervalMS int `yaml:"interval_ms"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Canvas           float64
	BufferSamples    int
	NoteDuration     time.Duration
	Attack           time.Duration
	Decay            time.Duration
	Release          time.Duration
	Ramp             time.Duration
	Teardown         time.Duration
	FeedbackInterval time.Duration
	CaptureSamples   int
	SamplesPerFrame  int
}

// Default returns the embedded default configuration.
func Default() *Config {
	cfg, err := parse(nil)
	if err != nil {
		// defaults.yaml ships with the binary
		panic(fmt.Sprintf("config: embedded defaults: %v", err))
	}
	return cfg
}

// Load reads configuration from path over the embedded defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return parse(nil)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return parse(data)
}

func parse(overlay []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	if len(overlay) > 0 {
		if err := yaml.Unmarshal(overlay, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()
	cfg.Initial = cfg.Initial.Normalize(cfg.Audio.MaxTrail)
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Window.Canvas <= 0:
		return fmt.Errorf("%w: window.canvas must be positive", ErrInvalid)
	case c.Window.TargetFPS <= 0:
		return fmt.Errorf("%w: window.target_fps must be positive", ErrInvalid)
	case c.Audio.SampleRate <= 0:
		return fmt.Errorf("%w: audio.sample_rate must be positive", ErrInvalid)
	case c.Audio.PoolSize < 1:
		return fmt.Errorf("%w: audio.pool_size must be at least 1", ErrInvalid)
	case c.Audio.Polyphony < 1:
		return fmt.Errorf("%w: audio.polyphony must be at least 1", ErrInvalid)
	case c.Audio.MaxTrail <= 0:
		return fmt.Errorf("%w: audio.max_trail must be positive", ErrInvalid)
	case len(c.Audio.ReverbDecays) < 2:
		return fmt.Errorf("%w: audio.reverb_decays needs at least two bands", ErrInvalid)
	case c.Particles.MaxCount < 1:
		return fmt.Errorf("%w: particles.max_count must be at least 1", ErrInvalid)
	case c.Particles.LightnessDecay < 0 || c.Particles.LightnessDecayBase < 0:
		return fmt.Errorf("%w: particles lightness decay must not be negative", ErrInvalid)
	case c.Particles.NoteChangeEvery < 1:
		return fmt.Errorf("%w: particles.note_change_every must be at least 1", ErrInvalid)
	case c.Particles.MinDiameter <= 0 || c.Particles.MaxDiameter < c.Particles.MinDiameter:
		return fmt.Errorf("%w: particles diameter bounds", ErrInvalid)
	}
	for i := 1; i < len(c.Audio.ReverbDecays); i++ {
		if c.Audio.ReverbDecays[i] <= c.Audio.ReverbDecays[i-1] {
			return fmt.Errorf("%w: audio.reverb_decays must be strictly increasing", ErrInvalid)
		}
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	ms := func(v int) time.Duration { return time.Duration(v) * time.Millisecond }

	c.Derived.Canvas = float64(c.Window.Canvas)
	c.Derived.BufferSamples = c.Audio.SampleRate * c.Audio.BufferMS / 1000
	c.Derived.NoteDuration = ms(c.Audio.NoteDurationMS)
	c.Derived.Attack = ms(c.Audio.AttackMS)
	c.Derived.Decay = ms(c.Audio.DecayMS)
	c.Derived.Release = ms(c.Audio.ReleaseMS)
	c.Derived.Ramp = ms(c.Audio.RampMS)
	c.Derived.Teardown = ms(c.Audio.TeardownMS)
	c.Derived.FeedbackInterval = ms(c.Feedback.IntervalMS)
	c.Derived.CaptureSamples = int(c.Audio.CaptureSeconds * float64(c.Audio.SampleRate))
	c.Derived.SamplesPerFrame = c.Audio.SampleRate / c.Window.TargetFPS
}

// WriteYAML saves the configuration to path.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}
