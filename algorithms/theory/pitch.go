package theory

import (
	"fmt"
	"strings"
)

// pitchClassIndices maps note names (sharp and flat spellings) to pitch
// classes 0-11
var pitchClassIndices = map[string]int{
	"C": 0, "C#": 1, "Db": 1, "D": 2, "D#": 3, "Eb": 3,
	"E": 4, "F": 5, "F#": 6, "Gb": 6, "G": 7, "G#": 8,
	"Ab": 8, "A": 9, "A#": 10, "Bb": 10, "B": 11,
}

// pitchClassNames lists the preferred spelling for each pitch class
// (sharps for some, flats for others, following common lead-sheet usage)
var pitchClassNames = [12]string{
	"C", "C#", "D", "Eb", "E", "F", "F#", "G", "Ab", "A", "Bb", "B",
}

// PitchClassIndex returns the pitch class (0=C, 1=C#, ..., 11=B) for a
// note name such as "C", "F#" or "Bb"
func PitchClassIndex(name string) (int, error) {
	if idx, ok := pitchClassIndices[name]; ok {
		return idx, nil
	}
	return 0, fmt.Errorf("%w: unknown note name %q", ErrInvalidArgument, name)
}

// PitchClassName returns the preferred spelling for a pitch class
func PitchClassName(class int) string {
	return pitchClassNames[((class%12)+12)%12]
}

// PitchToMIDI converts a pitch string like "C4" or "Eb5" to a MIDI note
// number (C4 = 60)
func PitchToMIDI(pitch string) (int, error) {
	split := len(pitch)
	for i, r := range pitch {
		if r >= '0' && r <= '9' || r == '-' && i > 0 {
			split = i
			break
		}
	}

	name := pitch[:split]
	octaveStr := pitch[split:]
	if name == "" || octaveStr == "" {
		return 0, fmt.Errorf("%w: malformed pitch %q", ErrInvalidArgument, pitch)
	}

	class, err := PitchClassIndex(name)
	if err != nil {
		return 0, err
	}

	octave := 0
	neg := false
	for i, r := range octaveStr {
		if r == '-' && i == 0 {
			neg = true
			continue
		}
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%w: malformed pitch %q", ErrInvalidArgument, pitch)
		}
		octave = octave*10 + int(r-'0')
	}
	if neg {
		octave = -octave
	}

	return (octave+1)*12 + class, nil
}

// PitchClassOf returns the pitch class of a pitch string like "C4"
func PitchClassOf(pitch string) (int, error) {
	midi, err := PitchToMIDI(pitch)
	if err != nil {
		return 0, err
	}
	return midi % 12, nil
}

// pitchName strips the octave from a pitch string, e.g. "Eb5" -> "Eb"
func pitchName(pitch string) string {
	return strings.TrimRight(pitch, "-0123456789")
}
