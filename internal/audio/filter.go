package audio

import (
	"math"

	"github.com/faiface/beep"
)

// lowpass is a stereo RBJ biquad low-pass stage.
type lowpass struct {
	Source beep.Streamer

	rate               float64
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     [2]float64
}

func newLowpass(src beep.Streamer, rate beep.SampleRate, cutoff float64) *lowpass {
	f := &lowpass{Source: src, rate: float64(rate)}
	f.setCutoff(cutoff)
	return f
}

// setCutoff recomputes coefficients; the caller holds the graph lock.
func (f *lowpass) setCutoff(hz float64) {
	nyq := f.rate / 2
	hz = math.Max(10, math.Min(hz, nyq*0.95))

	const q = 0.707
	w0 := 2 * math.Pi * hz / f.rate
	cosW := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha

	f.b0 = (1 - cosW) / 2 / a0
	f.b1 = (1 - cosW) / a0
	f.b2 = (1 - cosW) / 2 / a0
	f.a1 = -2 * cosW / a0
	f.a2 = (1 - alpha) / a0
}

func (f *lowpass) Stream(samples [][2]float64) (int, bool) {
	n, ok := f.Source.Stream(samples)
	for i := 0; i < n; i++ {
		for c := 0; c < 2; c++ {
			x := samples[i][c]
			y := f.b0*x + f.b1*f.x1[c] + f.b2*f.x2[c] - f.a1*f.y1[c] - f.a2*f.y2[c]
			f.x2[c], f.x1[c] = f.x1[c], x
			f.y2[c], f.y1[c] = f.y1[c], y
			samples[i][c] = y
		}
	}
	return n, ok
}

func (f *lowpass) Err() error { return f.Source.Err() }
