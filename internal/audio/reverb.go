package audio

import "math"

// Freeverb tunings at 44.1 kHz.
var (
	combTuning    = [4]int{1116, 1188, 1277, 1356}
	allpassTuning = [2]int{556, 441}
)

const (
	stereoSpread = 23
	combDamp     = 0.2
	allpassGain  = 0.5
	wetScale     = 0.25
)

type comb struct {
	buf      []float64
	idx      int
	feedback float64
	store    float64
}

func (c *comb) process(x float64) float64 {
	out := c.buf[c.idx]
	c.store = out*(1-combDamp) + c.store*combDamp
	c.buf[c.idx] = x + c.store*c.feedback
	c.idx++
	if c.idx >= len(c.buf) {
		c.idx = 0
	}
	return out
}

type allpass struct {
	buf []float64
	idx int
}

func (a *allpass) process(x float64) float64 {
	delayed := a.buf[a.idx]
	out := delayed - x
	a.buf[a.idx] = x + delayed*allpassGain
	a.idx++
	if a.idx >= len(a.buf) {
		a.idx = 0
	}
	return out
}

type reverbChannel struct {
	combs     [4]comb
	allpasses [2]allpass
}

func (ch *reverbChannel) process(x float64) float64 {
	var sum float64
	for i := range ch.combs {
		sum += ch.combs[i].process(x)
	}
	for i := range ch.allpasses {
		sum = ch.allpasses[i].process(sum)
	}
	return sum
}

// reverbBand is a fixed-decay reverberator. Decay is the RT60 in seconds.
type reverbBand struct {
	decay float64
	mix   float64
	ch    [2]reverbChannel
}

func newReverbBand(decay, mix, rate float64) *reverbBand {
	b := &reverbBand{decay: decay, mix: mix}
	scale := rate / 44100
	for c := range b.ch {
		spread := c * stereoSpread
		for i, tune := range combTuning {
			n := max(1, int(float64(tune+spread)*scale))
			b.ch[c].combs[i] = comb{
				buf:      make([]float64, n),
				feedback: combFeedback(float64(n)/rate, decay),
			}
		}
		for i, tune := range allpassTuning {
			n := max(1, int(float64(tune+spread)*scale))
			b.ch[c].allpasses[i] = allpass{buf: make([]float64, n)}
		}
	}
	return b
}

// combFeedback gives the loop gain that decays 60 dB in rt60 seconds.
func combFeedback(delay, rt60 float64) float64 {
	if rt60 <= 0 {
		return 0
	}
	return math.Pow(10, -3*delay/rt60)
}

func (b *reverbBand) process(x [2]float64) [2]float64 {
	mono := (x[0] + x[1]) * 0.5
	var out [2]float64
	for c := range b.ch {
		wet := b.ch[c].process(mono) * wetScale
		out[c] = x[c]*(1-b.mix) + wet*b.mix
	}
	return out
}
