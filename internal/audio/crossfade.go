package audio

import (
	"math"

	"github.com/faiface/beep"
	"gonum.org/v1/gonum/interp"
)

// bandCurves holds one triangular gain curve per band over the normalised
// trail axis u = |trail|/maxTrail. Band k peaks at u = 1 - k/(n-1) and falls
// to zero at its neighbours' peaks.
type bandCurves struct {
	curves []interp.PiecewiseLinear
	floor  float64
}

func newBandCurves(n int, floor float64) bandCurves {
	centers := make([]float64, n)
	for k := range centers {
		centers[k] = 1 - float64(k)/float64(n-1)
	}

	bc := bandCurves{curves: make([]interp.PiecewiseLinear, n), floor: floor}
	for k := 0; k < n; k++ {
		// Ascending u: the next band sits below, the previous band above.
		var xs, ys []float64
		if k+1 < n {
			xs = append(xs, centers[k+1])
			ys = append(ys, 0)
		}
		xs = append(xs, centers[k])
		ys = append(ys, 1)
		if k > 0 {
			xs = append(xs, centers[k-1])
			ys = append(ys, 0)
		}
		if err := bc.curves[k].Fit(xs, ys); err != nil {
			panic(err)
		}
	}
	return bc
}

// gains evaluates every band at trail magnitude t in [0, maxTrail].
func (bc bandCurves) gains(trail, maxTrail float64) []float64 {
	u := 0.0
	if maxTrail > 0 {
		u = math.Abs(trail) / maxTrail
	}
	u = math.Max(0, math.Min(1, u))

	out := make([]float64, len(bc.curves))
	last := len(out) - 1
	for k := range bc.curves {
		g := math.Max(0, math.Min(1, bc.curves[k].Predict(u)))
		if k == last && g > 0 {
			g = bc.floor + (1-bc.floor)*g
		}
		out[k] = g
	}
	return out
}

// BandGains returns the crossfade gains of n bands for a trail value.
// At |trail| = maxTrail band 0 (shortest decay) is fully open; at zero the
// longest-decay band is. At most two bands are non-zero for any trail.
func BandGains(trail, maxTrail float64, n int, floor float64) []float64 {
	if n < 2 {
		return []float64{1}
	}
	return newBandCurves(n, floor).gains(trail, maxTrail)
}

// Crossfade chains reverb bands in series and sums their outputs through
// per-band ramped gains. Each band receives the previous band's output.
type Crossfade struct {
	Source beep.Streamer

	bands  []*reverbBand
	gain   []ramp
	curves bandCurves
	rampN  int
}

func newCrossfade(src beep.Streamer, rate beep.SampleRate, decays []float64, mix, floor float64, rampN int) *Crossfade {
	c := &Crossfade{
		Source: src,
		bands:  make([]*reverbBand, len(decays)),
		gain:   make([]ramp, len(decays)),
		curves: newBandCurves(len(decays), floor),
		rampN:  rampN,
	}
	for i, d := range decays {
		c.bands[i] = newReverbBand(d, mix, float64(rate))
	}
	c.gain[0] = newRamp(1)
	return c
}

// setTrail retargets the band gains; the caller holds the graph lock.
func (c *Crossfade) setTrail(trail, maxTrail float64) {
	for k, g := range c.curves.gains(trail, maxTrail) {
		c.gain[k].set(g, c.rampN)
	}
}

// targets returns the gains the ramps are heading to.
func (c *Crossfade) targets() []float64 {
	out := make([]float64, len(c.gain))
	for k := range c.gain {
		out[k] = c.gain[k].target
	}
	return out
}

// Decays returns the band decay times in seconds.
func (c *Crossfade) Decays() []float64 {
	out := make([]float64, len(c.bands))
	for k, b := range c.bands {
		out[k] = b.decay
	}
	return out
}

func (c *Crossfade) Stream(samples [][2]float64) (int, bool) {
	n, ok := c.Source.Stream(samples)
	for i := 0; i < n; i++ {
		x := samples[i]
		var out [2]float64
		for k, b := range c.bands {
			x = b.process(x)
			g := c.gain[k].next()
			out[0] += g * x[0]
			out[1] += g * x[1]
		}
		samples[i] = out
	}
	return n, ok
}

func (c *Crossfade) Err() error { return c.Source.Err() }
