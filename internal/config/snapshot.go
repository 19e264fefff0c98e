package config

import "math"

// Waveform names an oscillator shape.
type Waveform string

const (
	WaveSine     Waveform = "sine"
	WaveTriangle Waveform = "triangle"
	WaveSquare   Waveform = "square"
	WaveSawtooth Waveform = "sawtooth"

	WavePulse      Waveform = "pulse"      // Fixed narrow duty cycle
	WavePWM        Waveform = "pwm"        // Duty cycle swept by a slow LFO
	WaveFMSawtooth Waveform = "fmsawtooth" // Sawtooth with a sine phase modulator
)

// Waveforms lists the supported shapes in cycling order.
var Waveforms = []Waveform{WaveSine, WaveTriangle, WaveSquare, WaveSawtooth, WavePulse, WavePWM, WaveFMSawtooth}

// Oscillator names an oscillator construction.
type Oscillator string

const (
	OscBasic Oscillator = "basic"
	OscFat   Oscillator = "fat" // Three detuned copies
)

// Filter frequency floor in Hz; the palette takes its logarithm.
const MinFilterFrequency = 20.0

// MaxRange is the widest octave spread.
const MaxRange = 6

// Snapshot is the immutable-per-tick record of user-controllable parameters.
type Snapshot struct {
	Density         float64    `yaml:"density"`
	Harmony         string     `yaml:"harmony"`
	Range           int        `yaml:"range"`
	FilterFrequency float64    `yaml:"filter_frequency"`
	Speed           float64    `yaml:"speed"`
	Trail           float64    `yaml:"trail"`  // Negative; magnitude bounded by audio.max_trail
	Volume          float64    `yaml:"volume"` // dB
	Waveform        Waveform   `yaml:"waveform"`
	Oscillator      Oscillator `yaml:"oscillator"`
	SoundEnabled    bool       `yaml:"sound_enabled"`
	HighPerformance bool       `yaml:"high_performance"`
}

// Normalize clamps values the core cannot use. Unknown harmony ids pass
// through; the palette resolver rejects them.
func (s Snapshot) Normalize(maxTrail float64) Snapshot {
	if math.IsNaN(s.Density) || s.Density < 0 {
		s.Density = 0
	}
	if s.Range < 0 {
		s.Range = 0
	}
	if s.Range > MaxRange {
		s.Range = MaxRange
	}
	if math.IsNaN(s.FilterFrequency) || s.FilterFrequency < MinFilterFrequency {
		s.FilterFrequency = MinFilterFrequency
	}
	if math.IsNaN(s.Speed) || s.Speed < 0 {
		s.Speed = 0
	}
	if math.IsNaN(s.Trail) {
		s.Trail = 0
	}
	if s.Trail > 0 {
		s.Trail = -s.Trail
	}
	if s.Trail < -maxTrail {
		s.Trail = -maxTrail
	}
	if math.IsNaN(s.Volume) {
		s.Volume = 0
	}
	switch s.Waveform {
	case WaveSine, WaveTriangle, WaveSquare, WaveSawtooth, WavePulse, WavePWM, WaveFMSawtooth:
	default:
		s.Waveform = WaveSine
	}
	if s.Oscillator != OscFat {
		s.Oscillator = OscBasic
	}
	return s
}

// TargetCount is the particle population the density asks for.
func (s Snapshot) TargetCount(limit int) int {
	if math.IsNaN(s.Density) || s.Density <= 0 {
		return 0
	}
	n := math.Ceil(s.Density)
	if limit > 0 && n > float64(limit) {
		return limit
	}
	if math.IsInf(n, 1) {
		return 0
	}
	return int(n)
}

// TrailMagnitude returns |trail|.
func (s Snapshot) TrailMagnitude() float64 {
	return math.Abs(s.Trail)
}
