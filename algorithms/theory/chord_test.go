package theory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRewritesQualityAliases(t *testing.T) {
	tests := []struct {
		name    string
		quality string
		want    string
	}{
		{"delta to maj7", "Δ", "maj7"},
		{"ma7 to maj7", "ma7", "maj7"},
		{"minus seven to m7", "-7", "m7"},
		{"min7 to m7", "min7", "m7"},
		{"half diminished to m7b5", "ø", "m7b5"},
		{"dim to dim7", "dim", "dim7"},
		{"canonical untouched", "7", "7"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewChord("C", tt.quality).Normalize()
			assert.Equal(t, tt.want, c.Quality)
		})
	}
}

func TestNewChordKeepsQualityVerbatim(t *testing.T) {
	// normalization is an explicit step, not a constructor side effect
	c := NewChord("C", "Δ")
	assert.Equal(t, "Δ", c.Quality)
	assert.Equal(t, "maj7", c.Normalize().Quality)
}

func TestChordEqualIgnoresExtensionOrder(t *testing.T) {
	a := Chord{Root: "G", Quality: "7", Extensions: []string{"b9", "13"}}
	b := Chord{Root: "G", Quality: "7", Extensions: []string{"13", "b9"}}

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Key(), b.Key())
}

func TestChordEqualDistinguishes(t *testing.T) {
	base := NewChord("D", "m7")

	assert.False(t, base.Equal(NewChord("D", "7")))
	assert.False(t, base.Equal(NewChord("E", "m7")))
	assert.False(t, base.Equal(Chord{Root: "D", Quality: "m7", Extensions: []string{"9"}}))
}

func TestChordKeyRoundTrip(t *testing.T) {
	chords := []Chord{
		NewChord("C", "maj7"),
		NewChord("Bb", "m7b5"),
		{Root: "G", Quality: "7", Extensions: []string{"13", "b9"}},
	}

	for _, c := range chords {
		parsed, err := ParseChordKey(c.Key())
		require.NoError(t, err)
		assert.True(t, c.Equal(parsed), "round trip changed %s", c)
	}
}

func TestParseChordKeyRejectsMalformed(t *testing.T) {
	for _, key := range []string{"", "C", "H:maj7:", ":maj7:"} {
		_, err := ParseChordKey(key)
		assert.ErrorIs(t, err, ErrInvalidArgument, "key %q", key)
	}
}

func TestChordSimplify(t *testing.T) {
	c := Chord{Root: "G", Quality: "7", Extensions: []string{"b9", "13"}}
	s := c.Simplify()

	assert.Empty(t, s.Extensions)
	assert.Equal(t, "G", s.Root)
	assert.Len(t, c.Extensions, 2, "simplify must not mutate the receiver")
}

func TestParseChord(t *testing.T) {
	tests := []struct {
		symbol  string
		root    string
		quality string
	}{
		{"Dm7", "D", "m7"},
		{"Cmaj7", "C", "maj7"},
		{"G7", "G", "7"},
		{"Bm7b5", "B", "m7b5"},
		{"Ebmaj7", "Eb", "maj7"},
		{"F#m7", "F#", "m7"},
		{"Adim7", "A", "dim7"},
		{"C", "C", "maj7"},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			c, err := ParseChord(tt.symbol)
			require.NoError(t, err)
			assert.Equal(t, tt.root, c.Root)
			assert.Equal(t, tt.quality, c.Quality)
		})
	}
}

func TestParseChordRejectsGarbage(t *testing.T) {
	for _, symbol := range []string{"", "H7", "xyz"} {
		_, err := ParseChord(symbol)
		assert.ErrorIs(t, err, ErrInvalidArgument, "symbol %q", symbol)
	}
}

func TestChordString(t *testing.T) {
	assert.Equal(t, "Dm7", NewChord("D", "m7").String())
	assert.Equal(t, "G7(b9,13)", Chord{Root: "G", Quality: "7", Extensions: []string{"b9", "13"}}.String())
}

func TestChordRootClass(t *testing.T) {
	tests := []struct {
		root string
		want int
	}{
		{"C", 0},
		{"Bb", 10},
		{"A#", 10},
	}

	for _, tt := range tests {
		class, err := NewChord(tt.root, "maj7").RootClass()
		require.NoError(t, err)
		assert.Equal(t, tt.want, class)
	}

	_, err := NewChord("H", "maj7").RootClass()
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
