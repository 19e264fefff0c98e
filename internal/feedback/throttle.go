// Package feedback rate-limits the ambient glow signal derived from border
// touches. The particle engine emits on every touch; Throttle decides which
// of those reach the UI.
package feedback

import (
	"sync"
	"time"

	"github.com/iburimskiy/sound-dots/internal/particle"
)

// Glow is the colour forwarded to the host for its ambient effect.
type Glow struct {
	Hue        float64
	Saturation float64
	Lightness  float64
	At         time.Time
}

// Throttle forwards at most one glow per interval.
type Throttle struct {
	Interval time.Duration
	Now      func() time.Time // Defaults to time.Now

	mu      sync.Mutex
	last    time.Time
	current Glow
	have    bool
	fwd     func(Glow)
}

// NewThrottle returns a throttle that calls fwd (which may be nil) for each
// forwarded glow.
func NewThrottle(interval time.Duration, fwd func(Glow)) *Throttle {
	return &Throttle{Interval: interval, fwd: fwd}
}

func (t *Throttle) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// OnTouch implements particle.Sink.
func (t *Throttle) OnTouch(e particle.Touch) {
	t.Offer(Glow{Hue: e.Hue, Saturation: e.Saturation, Lightness: e.Lightness})
}

// Offer forwards g unless another glow was forwarded within the interval.
// It reports whether g was forwarded.
func (t *Throttle) Offer(g Glow) bool {
	now := t.now()
	t.mu.Lock()
	if t.have && now.Sub(t.last) < t.Interval {
		t.mu.Unlock()
		return false
	}
	g.At = now
	t.last = now
	t.current = g
	t.have = true
	fwd := t.fwd
	t.mu.Unlock()

	if fwd != nil {
		fwd(g)
	}
	return true
}

// Current returns the last forwarded glow, if any.
func (t *Throttle) Current() (Glow, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current, t.have
}
