package palette

import "fmt"

// Harmony is a named scale with its colour identity.
type Harmony struct {
	ID         string
	Intervals  []int    // Semitones above C, repeated every octave
	Notes      []string // Literal table, used instead of Intervals when set
	Hue        float64  // Degrees
	Saturation float64  // Percent
	Lightness  float64  // Percent
	Variance   float64  // Max hue offset per particle, degrees
}

// Octaves covered by the note tables: center ± MaxRange/2 rounded up.
const (
	CenterOctave = 4
	LowOctave    = 1
	HighOctave   = 7
)

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

var harmonyOrder = []string{
	"chromatic",
	"harmonicMinor",
	"lydianDominant",
	"majorPentatonic",
	"majorScale",
	"minorPentatonic",
	"minorScale",
	"octatonic",
	"stackedFifths",
	"stackedFourths",
	"wholeTone",
}

var harmonies = map[string]Harmony{
	"chromatic":       {Intervals: []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11}, Hue: 0, Saturation: 60, Lightness: 55, Variance: 45},
	"harmonicMinor":   {Intervals: []int{0, 2, 3, 5, 7, 8, 11}, Hue: 320, Saturation: 65, Lightness: 50, Variance: 20},
	"lydianDominant":  {Intervals: []int{0, 2, 4, 6, 7, 9, 10}, Hue: 90, Saturation: 70, Lightness: 60, Variance: 30},
	"majorPentatonic": {Intervals: []int{0, 2, 4, 7, 9}, Hue: 200, Saturation: 70, Lightness: 60, Variance: 20},
	"majorScale":      {Intervals: []int{0, 2, 4, 5, 7, 9, 11}, Hue: 50, Saturation: 80, Lightness: 60, Variance: 25},
	"minorPentatonic": {Intervals: []int{0, 3, 5, 7, 10}, Hue: 260, Saturation: 65, Lightness: 55, Variance: 20},
	"minorScale":      {Intervals: []int{0, 2, 3, 5, 7, 8, 10}, Hue: 230, Saturation: 60, Lightness: 50, Variance: 25},
	"octatonic":       {Intervals: []int{0, 1, 3, 4, 6, 7, 9, 10}, Hue: 290, Saturation: 50, Lightness: 50, Variance: 35},
	"wholeTone":       {Intervals: []int{0, 2, 4, 6, 8, 10}, Hue: 140, Saturation: 55, Lightness: 60, Variance: 40},

	// Chains of perfect fifths and fourths from C1; they do not repeat per octave.
	"stackedFifths": {
		Notes: []string{"C1", "G1", "D2", "A2", "E3", "B3", "F#4", "C#5", "G#5", "D#6", "A#6", "F7"},
		Hue:   30, Saturation: 75, Lightness: 55, Variance: 25,
	},
	"stackedFourths": {
		Notes: []string{"C1", "F1", "A#1", "D#2", "G#2", "C#3", "F#3", "B3", "E4", "A4",
			"D5", "G5", "C6", "F6", "A#6", "D#7", "G#7"},
		Hue: 170, Saturation: 60, Lightness: 55, Variance: 30,
	},
}

// Full note tables per harmony, ascending pitch.
var noteTables = map[string][]string{}

func init() {
	for id, h := range harmonies {
		h.ID = id
		harmonies[id] = h

		if len(h.Notes) > 0 {
			noteTables[id] = h.Notes
			continue
		}
		table := make([]string, 0, len(h.Intervals)*(HighOctave-LowOctave+1))
		for oct := LowOctave; oct <= HighOctave; oct++ {
			for _, iv := range h.Intervals {
				table = append(table, fmt.Sprintf("%s%d", noteNames[iv], oct))
			}
		}
		noteTables[id] = table
	}
}

// Lookup returns the harmony table entry for id.
func Lookup(id string) (Harmony, bool) {
	h, ok := harmonies[id]
	if !ok {
		return Harmony{}, false
	}
	h.Intervals = append([]int(nil), h.Intervals...)
	h.Notes = append([]string(nil), h.Notes...)
	return h, true
}

// IDs lists the known harmonies in display order.
func IDs() []string {
	return append([]string(nil), harmonyOrder...)
}

// Next returns the harmony after id in display order, wrapping around.
func Next(id string) string {
	for i, h := range harmonyOrder {
		if h == id {
			return harmonyOrder[(i+1)%len(harmonyOrder)]
		}
	}
	return harmonyOrder[0]
}
