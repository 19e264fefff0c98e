// Package palette maps a harmony, an octave range and a filter cutoff to the
// note set and base colour shared by every particle.
package palette

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

// ErrUnknownHarmony is returned by Resolve for ids missing from the table.
var ErrUnknownHarmony = errors.New("unknown harmony")

// Palette is the base colour for one resolution.
type Palette struct {
	Hue        float64
	Saturation float64
	Lightness  float64
	Variance   float64
}

// Resolution is the note set and palette for one configuration.
// It is replaced, never mutated.
type Resolution struct {
	Harmony string
	Notes   []string
	Palette Palette
}

// Equal reports whether both resolutions carry the same notes and colours.
func (r Resolution) Equal(o Resolution) bool {
	return r.Harmony == o.Harmony && r.Palette == o.Palette && slices.Equal(r.Notes, o.Notes)
}

// OctaveSpread returns the range+1 octaves sampled outward from the center:
// center, center-1, center+1, center-2, center+2, ...
func OctaveSpread(rng int) []int {
	if rng < 0 {
		rng = 0
	}
	out := make([]int, rng+1)
	for i := range out {
		step := (i + 1) / 2
		if i%2 == 0 {
			out[i] = CenterOctave + step
		} else {
			out[i] = CenterOctave - step
		}
	}
	return out
}

// LightnessShift is the brightness added for a filter cutoff in Hz.
func LightnessShift(filterFrequency float64) float64 {
	if filterFrequency <= 0 {
		return 0
	}
	return math.Floor(10*math.Log(filterFrequency) - 70)
}

// Resolve computes the note set and palette for a configuration.
func Resolve(harmony string, rng int, filterFrequency float64) (Resolution, error) {
	h, ok := harmonies[harmony]
	if !ok {
		return Resolution{}, fmt.Errorf("%w: %q", ErrUnknownHarmony, harmony)
	}

	spread := OctaveSpread(rng)
	var notes []string
	for _, n := range noteTables[harmony] {
		oct, err := Octave(n)
		if err != nil {
			continue
		}
		if slices.Contains(spread, oct) {
			notes = append(notes, n)
		}
	}

	return Resolution{
		Harmony: harmony,
		Notes:   notes,
		Palette: Palette{
			Hue:        h.Hue,
			Saturation: h.Saturation,
			Lightness:  h.Lightness + LightnessShift(filterFrequency),
			Variance:   h.Variance,
		},
	}, nil
}
