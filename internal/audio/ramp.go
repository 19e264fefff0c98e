package audio

// ramp moves a gain linearly toward its target one sample at a time.
type ramp struct {
	value     float64
	target    float64
	step      float64
	remaining int
}

func newRamp(v float64) ramp {
	return ramp{value: v, target: v}
}

// set schedules a move to target over n samples; n <= 0 jumps.
func (r *ramp) set(target float64, n int) {
	r.target = target
	if n <= 0 {
		r.value = target
		r.remaining = 0
		return
	}
	r.step = (target - r.value) / float64(n)
	r.remaining = n
}

func (r *ramp) next() float64 {
	if r.remaining > 0 {
		r.value += r.step
		r.remaining--
		if r.remaining == 0 {
			r.value = r.target
		}
	}
	return r.value
}

func (r *ramp) settled() bool {
	return r.remaining == 0
}
