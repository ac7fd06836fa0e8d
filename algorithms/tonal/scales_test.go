package tonal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harmolodic/cadenza/algorithms/theory"
)

func TestScaleDegrees(t *testing.T) {
	tests := []struct {
		name  string
		tonic int
		scale ScaleType
		want  []int
	}{
		{"C major", 0, ScaleMajor, []int{0, 2, 4, 5, 7, 9, 11}},
		{"A natural minor", 9, ScaleNaturalMinor, []int{9, 11, 0, 2, 4, 5, 7}},
		{"D dorian", 2, ScaleDorian, []int{2, 4, 5, 7, 9, 11, 0}},
		{"C blues", 0, ScaleBlues, []int{0, 3, 5, 6, 7, 10}},
		{"G mixolydian", 7, ScaleMixolydian, []int{7, 9, 11, 0, 2, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScaleDegrees(tt.tonic, tt.scale))
		})
	}
}

func TestScaleDegreesWrapsTonic(t *testing.T) {
	assert.Equal(t, ScaleDegrees(0, ScaleMajor), ScaleDegrees(12, ScaleMajor))
	assert.Equal(t, ScaleDegrees(11, ScaleMajor), ScaleDegrees(-1, ScaleMajor))
}

func TestDiatonicChordsCMajor(t *testing.T) {
	chords, err := DiatonicChords(Key{Tonic: "C", Scale: ScaleMajor})
	require.NoError(t, err)
	require.Len(t, chords, 7)

	want := []theory.Chord{
		theory.NewChord("C", "maj7"),
		theory.NewChord("D", "m7"),
		theory.NewChord("E", "m7"),
		theory.NewChord("F", "maj7"),
		theory.NewChord("G", "7"),
		theory.NewChord("A", "m7"),
		theory.NewChord("B", "m7b5"),
	}
	for i, c := range want {
		assert.True(t, c.Equal(chords[i]), "degree %d: want %s got %s", i+1, c, chords[i])
	}
}

func TestDiatonicChordsBlues(t *testing.T) {
	chords, err := DiatonicChords(Key{Tonic: "C", Scale: ScaleBlues})
	require.NoError(t, err)
	require.Len(t, chords, 6)
	for _, c := range chords {
		assert.Equal(t, "7", c.Quality)
	}
}

func TestDiatonicChordsBadTonic(t *testing.T) {
	_, err := DiatonicChords(Key{Tonic: "H", Scale: ScaleMajor})
	assert.ErrorIs(t, err, theory.ErrInvalidArgument)
}

func TestCircularDistance(t *testing.T) {
	assert.Equal(t, 0, circularDistance(3, 3))
	assert.Equal(t, 1, circularDistance(0, 11))
	assert.Equal(t, 6, circularDistance(0, 6))
	assert.Equal(t, 5, circularDistance(2, 9))
}
