// Package controls edits a configuration snapshot in response to user
// actions. The key bindings live in the game package.
package controls

import (
	"slices"

	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/palette"
)

// Action is one discrete edit.
type Action int

const (
	DensityUp Action = iota
	DensityDown
	SpeedUp
	SpeedDown
	TrailLonger  // Toward zero: more persistence, longer reverb
	TrailShorter // Toward -max
	NextHarmony
	RangeUp
	RangeDown
	VolumeUp
	VolumeDown
	NextWaveform
	ToggleOscillator
	FilterUp
	FilterDown
	ToggleSound
	TogglePerformance
)

// Step sizes.
const (
	DensityStep = 1.0
	SpeedStep   = 0.5
	TrailStep   = 5.0
	VolumeStep  = 3.0  // dB
	FilterRatio = 1.25 // Per press
	MaxVolume   = 0.0
	MinVolume   = -60.0
	MaxFilter   = 18000.0
)

// Apply returns s edited by a, normalized against maxTrail.
func Apply(s config.Snapshot, a Action, maxTrail float64) config.Snapshot {
	switch a {
	case DensityUp:
		s.Density += DensityStep
	case DensityDown:
		s.Density -= DensityStep
	case SpeedUp:
		s.Speed += SpeedStep
	case SpeedDown:
		s.Speed -= SpeedStep
	case TrailLonger:
		s.Trail = min(0, s.Trail+TrailStep)
	case TrailShorter:
		s.Trail -= TrailStep
	case NextHarmony:
		s.Harmony = palette.Next(s.Harmony)
	case RangeUp:
		s.Range++
	case RangeDown:
		s.Range--
	case VolumeUp:
		s.Volume = min(MaxVolume, s.Volume+VolumeStep)
	case VolumeDown:
		s.Volume = max(MinVolume, s.Volume-VolumeStep)
	case NextWaveform:
		i := slices.Index(config.Waveforms, s.Waveform)
		s.Waveform = config.Waveforms[(i+1)%len(config.Waveforms)]
	case ToggleOscillator:
		if s.Oscillator == config.OscFat {
			s.Oscillator = config.OscBasic
		} else {
			s.Oscillator = config.OscFat
		}
	case FilterUp:
		s.FilterFrequency = min(MaxFilter, s.FilterFrequency*FilterRatio)
	case FilterDown:
		s.FilterFrequency /= FilterRatio
	case ToggleSound:
		s.SoundEnabled = !s.SoundEnabled
	case TogglePerformance:
		s.HighPerformance = !s.HighPerformance
	}
	return s.Normalize(maxTrail)
}
