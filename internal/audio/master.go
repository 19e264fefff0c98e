package audio

import "github.com/faiface/beep"

// master applies the output gain ramp and a soft limiter.
type master struct {
	Source beep.Streamer
	gain   ramp
}

func (m *master) Stream(samples [][2]float64) (int, bool) {
	n, ok := m.Source.Stream(samples)
	for i := 0; i < n; i++ {
		g := m.gain.next()
		samples[i][0] = softLimit(samples[i][0] * g)
		samples[i][1] = softLimit(samples[i][1] * g)
	}
	return n, ok
}

func (m *master) Err() error { return m.Source.Err() }

// softLimit compresses above 0.8 and hard clips at 1.
func softLimit(v float64) float64 {
	if v > 0.8 {
		v = 0.8 + 0.2*(1.0-1.0/(1.0+(v-0.8)*5.0))
	} else if v < -0.8 {
		v = -0.8 - 0.2*(1.0-1.0/(1.0+(-v-0.8)*5.0))
	}
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
