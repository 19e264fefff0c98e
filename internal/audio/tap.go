package audio

import (
	"math"
	"sync"

	"github.com/faiface/beep"
)

// Tap wraps the graph output and keeps the most recent frames in a ring
// buffer for the level meter and recording export.
type Tap struct {
	Source beep.Streamer

	mu     sync.RWMutex
	ring   [][2]float64
	next   int
	filled bool
}

func newTap(src beep.Streamer, size int) *Tap {
	if size < 1 {
		size = 1
	}
	return &Tap{Source: src, ring: make([][2]float64, size)}
}

func (t *Tap) Stream(samples [][2]float64) (int, bool) {
	n, ok := t.Source.Stream(samples)
	if n == 0 {
		return n, ok
	}

	t.mu.Lock()
	src := samples[:n]
	for len(src) > 0 {
		c := copy(t.ring[t.next:], src)
		src = src[c:]
		t.next += c
		if t.next == len(t.ring) {
			t.next = 0
			t.filled = true
		}
	}
	t.mu.Unlock()
	return n, ok
}

func (t *Tap) Err() error { return t.Source.Err() }

// Len returns the number of recorded frames.
func (t *Tap) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.filled {
		return len(t.ring)
	}
	return t.next
}

// Snapshot returns up to the last n frames in chronological order.
func (t *Tap) Snapshot(n int) [][2]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	avail := t.next
	if t.filled {
		avail = len(t.ring)
	}
	n = min(n, avail)
	out := make([][2]float64, n)

	// Newest n frames end at t.next; they may wrap past the ring start.
	start := t.next - n
	if start >= 0 {
		copy(out, t.ring[start:t.next])
		return out
	}
	head := copy(out, t.ring[len(t.ring)+start:])
	copy(out[head:], t.ring[:t.next])
	return out
}

// Level returns the RMS of the last n frames, mixed to mono.
func (t *Tap) Level(n int) float64 {
	frames := t.Snapshot(n)
	if len(frames) == 0 {
		return 0
	}
	var sum float64
	for _, f := range frames {
		m := (f[0] + f[1]) * 0.5
		sum += m * m
	}
	return math.Sqrt(sum / float64(len(frames)))
}
