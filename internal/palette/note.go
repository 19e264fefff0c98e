package palette

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// ErrBadNote is returned for note names that cannot be parsed.
var ErrBadNote = errors.New("bad note name")

var letterSemitone = map[byte]int{'C': 0, 'D': 2, 'E': 4, 'F': 5, 'G': 7, 'A': 9, 'B': 11}

// parse splits "C#4" into its semitone class and octave.
func parse(note string) (semitone, octave int, err error) {
	if len(note) < 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadNote, note)
	}
	base, ok := letterSemitone[note[0]]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadNote, note)
	}
	rest := note[1:]
	switch rest[0] {
	case '#':
		base++
		rest = rest[1:]
	case 'b':
		base--
		rest = rest[1:]
	}
	octave, err = strconv.Atoi(rest)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q", ErrBadNote, note)
	}
	return base, octave, nil
}

// Octave returns the octave number of a note name.
func Octave(note string) (int, error) {
	_, oct, err := parse(note)
	return oct, err
}

// PitchIndex returns the MIDI number of a note name (A4 = 69).
func PitchIndex(note string) (int, error) {
	semi, oct, err := parse(note)
	if err != nil {
		return 0, err
	}
	return (oct+1)*12 + semi, nil
}

// Frequency returns the equal-tempered frequency of a note name in Hz.
func Frequency(note string) (float64, error) {
	midi, err := PitchIndex(note)
	if err != nil {
		return 0, err
	}
	return 440 * math.Pow(2, float64(midi-69)/12), nil
}
