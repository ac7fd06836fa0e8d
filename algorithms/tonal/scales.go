package tonal

import (
	"github.com/harmolodic/cadenza/algorithms/theory"
)

// ScaleType identifies a scale or mode
type ScaleType string

const (
	ScaleMajor         ScaleType = "major"
	ScaleNaturalMinor  ScaleType = "natural_minor"
	ScaleHarmonicMinor ScaleType = "harmonic_minor"
	ScaleMelodicMinor  ScaleType = "melodic_minor"
	ScaleDorian        ScaleType = "dorian"
	ScaleMixolydian    ScaleType = "mixolydian"
	ScaleLydian        ScaleType = "lydian"
	ScalePhrygian      ScaleType = "phrygian"
	ScaleLocrian       ScaleType = "locrian"
	ScaleBlues         ScaleType = "blues"
)

// Key is an estimated tonal center: tonic pitch-class name, scale type
// and the winning correlation score. The score is unbounded; callers
// compare keys relatively rather than against a fixed threshold.
type Key struct {
	Tonic      string    `json:"tonic"`
	Scale      ScaleType `json:"scale"`
	Confidence float64   `json:"confidence"`
}

func (k Key) String() string {
	return k.Tonic + " " + string(k.Scale)
}

// scalePatterns holds semitone intervals between consecutive degrees.
// Each pattern sums to 12; the blues scale has six degrees.
var scalePatterns = map[ScaleType][]int{
	ScaleMajor:         {2, 2, 1, 2, 2, 2, 1},
	ScaleNaturalMinor:  {2, 1, 2, 2, 1, 2, 2},
	ScaleHarmonicMinor: {2, 1, 2, 2, 1, 3, 1},
	ScaleMelodicMinor:  {2, 1, 2, 2, 2, 2, 1},
	ScaleDorian:        {2, 1, 2, 2, 2, 1, 2},
	ScaleMixolydian:    {2, 2, 1, 2, 2, 1, 2},
	ScaleLydian:        {2, 2, 2, 1, 2, 2, 1},
	ScalePhrygian:      {1, 2, 2, 2, 1, 2, 2},
	ScaleLocrian:       {1, 2, 2, 1, 2, 2, 2},
	ScaleBlues:         {3, 2, 1, 1, 3, 2},
}

// scaleChordQualities maps each scale type to the seventh-chord quality
// built on every degree (I through VII). The blues scale uses dominant
// chords throughout.
var scaleChordQualities = map[ScaleType][]string{
	ScaleMajor:         {"maj7", "m7", "m7", "maj7", "7", "m7", "m7b5"},
	ScaleNaturalMinor:  {"m7", "m7b5", "maj7", "m7", "m7", "maj7", "7"},
	ScaleDorian:        {"m7", "m7", "maj7", "7", "m7", "m7b5", "maj7"},
	ScaleMixolydian:    {"7", "m7", "m7b5", "maj7", "m7", "m7", "maj7"},
	ScaleLydian:        {"maj7", "7", "m7", "m7b5", "maj7", "m7", "m7"},
	ScaleMelodicMinor:  {"m7", "m7", "maj7", "7", "7", "m7b5", "m7b5"},
	ScaleHarmonicMinor: {"m7", "m7b5", "maj7", "m7", "7", "maj7", "dim7"},
	ScalePhrygian:      {"m7", "maj7", "7", "m7", "m7b5", "maj7", "m7"},
	ScaleLocrian:       {"m7b5", "maj7", "m7", "m7", "maj7", "7", "m7"},
	ScaleBlues:         {"7", "7", "7", "7", "7", "7"},
}

// ScaleDegrees applies a scale's interval pattern cumulatively from the
// tonic, mod 12. Seven-degree scales yield 7 pitch classes, the blues
// scale 6.
func ScaleDegrees(tonic int, scale ScaleType) []int {
	pattern, ok := scalePatterns[scale]
	if !ok {
		pattern = scalePatterns[ScaleMajor]
	}

	degrees := make([]int, 0, len(pattern))
	current := ((tonic % 12) + 12) % 12
	degrees = append(degrees, current)

	// The last interval wraps back to the tonic, so it contributes no new
	// degree
	for _, interval := range pattern[:len(pattern)-1] {
		current = (current + interval) % 12
		degrees = append(degrees, current)
	}

	return degrees
}

// DiatonicChords builds the seventh chord on each degree of the key's
// scale
func DiatonicChords(key Key) ([]theory.Chord, error) {
	tonic, err := theory.PitchClassIndex(key.Tonic)
	if err != nil {
		return nil, err
	}

	degrees := ScaleDegrees(tonic, key.Scale)
	qualities, ok := scaleChordQualities[key.Scale]
	if !ok {
		qualities = scaleChordQualities[ScaleMajor]
	}

	chords := make([]theory.Chord, 0, len(degrees))
	for i, degree := range degrees {
		if i >= len(qualities) {
			break
		}
		chords = append(chords, theory.NewChord(theory.PitchClassName(degree), qualities[i]))
	}

	return chords, nil
}

// circularDistance returns the semitone distance between two pitch
// classes on the circle
func circularDistance(a, b int) int {
	d := ((a-b)%12 + 12) % 12
	if d > 6 {
		d = 12 - d
	}
	return d
}
