package harmonizer

import (
	"github.com/harmolodic/cadenza/algorithms/theory"
)

// SampleProgressions returns a small built-in training corpus of common
// jazz progressions: ii-V-I cells in several keys, a rhythm changes
// A-section turnaround, the Autumn Leaves cycle, and a blues snippet.
func SampleProgressions() [][]theory.Chord {
	return [][]theory.Chord{
		// ii-V-I in C, D and G
		{theory.NewChord("D", "m7"), theory.NewChord("G", "7"), theory.NewChord("C", "maj7")},
		{theory.NewChord("E", "m7"), theory.NewChord("A", "7"), theory.NewChord("D", "maj7")},
		{theory.NewChord("A", "m7"), theory.NewChord("D", "7"), theory.NewChord("G", "maj7")},

		// Rhythm changes turnaround (repeated to weight it like a vamp)
		{theory.NewChord("C", "maj7"), theory.NewChord("A", "7"), theory.NewChord("D", "m7"), theory.NewChord("G", "7")},
		{theory.NewChord("C", "maj7"), theory.NewChord("A", "7"), theory.NewChord("D", "m7"), theory.NewChord("G", "7")},

		// Autumn Leaves
		{theory.NewChord("C", "m7"), theory.NewChord("F", "7"), theory.NewChord("Bb", "maj7"), theory.NewChord("Eb", "maj7")},
		{theory.NewChord("A", "m7b5"), theory.NewChord("D", "7"), theory.NewChord("G", "m7")},

		// Blues
		{theory.NewChord("C", "7"), theory.NewChord("F", "7"), theory.NewChord("C", "7")},
		{theory.NewChord("G", "7"), theory.NewChord("F", "7"), theory.NewChord("C", "7")},
	}
}
