package audio

import (
	"math"

	"github.com/iburimskiy/sound-dots/internal/config"
)

// Detune ratios of the fat oscillator's three copies.
var fatDetune = [3]float64{1.0, 1.006, 0.994}

const (
	pulseDuty = 0.25

	pwmRate  = 0.4 // Hz
	pwmDepth = 0.4 // Duty swing around one half

	fmHarmonicity = 1.0
	fmIndex       = 2.0 // Radians of peak phase deviation
)

// waveSample evaluates one cycle of w at phase in [0, 1).
func waveSample(w config.Waveform, phase float64) float64 {
	switch w {
	case config.WaveTriangle:
		return 4*math.Abs(phase-0.5) - 1
	case config.WaveSquare:
		return pulse(phase, 0.5)
	case config.WaveSawtooth:
		return 2*phase - 1
	case config.WavePulse:
		return pulse(phase, pulseDuty)
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

func pulse(phase, duty float64) float64 {
	if phase < duty {
		return 1
	}
	return -1
}

// oscillator holds up to three phases; basic uses only the first.
type oscillator struct {
	wave  config.Waveform
	kind  config.Oscillator
	phase [3]float64
	mod   [3]float64 // FM modulator phases
	lfo   float64    // PWM duty phase
}

func (o *oscillator) reset() {
	o.phase = [3]float64{}
	o.mod = [3]float64{}
	o.lfo = 0
}

func (o *oscillator) sample(i int) float64 {
	switch o.wave {
	case config.WavePWM:
		return pulse(o.phase[i], 0.5+pwmDepth*math.Sin(2*math.Pi*o.lfo))
	case config.WaveFMSawtooth:
		p := o.phase[i] + fmIndex*math.Sin(2*math.Pi*o.mod[i])/(2*math.Pi)
		return waveSample(config.WaveSawtooth, p-math.Floor(p))
	default:
		return waveSample(o.wave, o.phase[i])
	}
}

// next returns one sample at freq and advances the phases.
func (o *oscillator) next(freq, rate float64) float64 {
	copies := 1
	if o.kind == config.OscFat {
		copies = len(fatDetune)
	}

	var sum float64
	for i := 0; i < copies; i++ {
		sum += o.sample(i)
		f := freq * fatDetune[i]
		o.phase[i] = wrapPhase(o.phase[i] + f/rate)
		o.mod[i] = wrapPhase(o.mod[i] + f*fmHarmonicity/rate)
	}
	o.lfo = wrapPhase(o.lfo + pwmRate/rate)
	return sum / float64(copies)
}

func wrapPhase(p float64) float64 {
	return p - math.Floor(p)
}
