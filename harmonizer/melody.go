package harmonizer

import (
	"strconv"

	"golang.org/x/exp/rand"

	"github.com/harmolodic/cadenza/algorithms/phrase"
	"github.com/harmolodic/cadenza/algorithms/theory"
)

const beatsPerChord = 4.0

// weightedOffset is a chord tone expressed as a semitone offset from the
// root, with a sampling weight reflecting its melodic importance
type weightedOffset struct {
	semitones int
	weight    float64
}

// chordToneOffsets holds the tones a melody draws from over each chord
// quality. Thirds dominate, sevenths color dominants more than the rest.
var chordToneOffsets = map[string][]weightedOffset{
	"maj7": {{0, 0.3}, {4, 0.4}, {7, 0.2}, {11, 0.1}},
	"m7":   {{0, 0.3}, {3, 0.4}, {7, 0.2}, {10, 0.1}},
	"7":    {{0, 0.25}, {4, 0.35}, {7, 0.15}, {10, 0.25}},
	"m7b5": {{0, 0.3}, {3, 0.3}, {6, 0.2}, {10, 0.2}},
	"dim7": {{0, 0.3}, {3, 0.3}, {6, 0.2}, {9, 0.2}},
}

// rhythmPatterns are per-chord note durations, each summing to one bar
var rhythmPatterns = [][]float64{
	{1.0, 1.0, 1.0, 1.0},
	{0.5, 0.5, 1.0, 2.0},
	{2.0, 1.0, 0.5, 0.5},
	{1.5, 0.5, 1.0, 1.0},
}

// MelodyForProgression builds a chord-tone melody over a progression,
// one bar per chord. It is used to manufacture phrase-aligned training
// material for corpora that only carry chord symbols.
func MelodyForProgression(progression []theory.Chord, rng *rand.Rand) []theory.Note {
	notes := make([]theory.Note, 0, len(progression)*4)
	beat := 0.0
	for _, chord := range progression {
		pattern := rhythmPatterns[rng.Intn(len(rhythmPatterns))]
		offset := 0.0
		for _, duration := range pattern {
			pitch := pickChordTone(chord, rng)
			velocity := 80
			if phrase.StrengthOf(beat+offset, 4) == phrase.StrengthStrong {
				velocity = 96
			}
			notes = append(notes, theory.Note{
				Pitch:     pitch,
				StartBeat: beat + offset,
				Duration:  duration,
				Velocity:  velocity,
			})
			offset += duration
		}
		beat += beatsPerChord
	}
	return notes
}

// pickChordTone samples a chord tone by weight and spells it in octave 4,
// spilling into octave 5 when the offset wraps past B
func pickChordTone(chord theory.Chord, rng *rand.Rand) string {
	tones, ok := chordToneOffsets[chord.Quality]
	if !ok {
		tones = chordToneOffsets["maj7"]
	}
	root, err := chord.RootClass()
	if err != nil {
		root = 0
	}

	r := rng.Float64()
	cumulative := 0.0
	chosen := tones[0]
	for _, tone := range tones {
		cumulative += tone.weight
		if r < cumulative {
			chosen = tone
			break
		}
	}

	absolute := root + chosen.semitones
	octave := 4 + absolute/12
	return theory.PitchClassName(absolute%12) + strconv.Itoa(octave)
}

// BuildTrainingData expands the built-in corpus into progressions paired
// with segmented melodies, ready for phrase-aware training.
func BuildTrainingData(seg *phrase.Segmenter, rng *rand.Rand) ([][]theory.Chord, [][]phrase.Phrase, error) {
	progressions := SampleProgressions()
	phraseLists := make([][]phrase.Phrase, 0, len(progressions))
	for _, progression := range progressions {
		melody := MelodyForProgression(progression, rng)
		totalBeats := float64(len(progression)) * beatsPerChord
		bars := int(totalBeats) / seg.Params().BeatsPerBar
		if bars < 1 {
			bars = 1
		}
		phrases, err := seg.Segment(melody, bars)
		if err != nil {
			return nil, nil, err
		}
		phraseLists = append(phraseLists, phrases)
	}
	return progressions, phraseLists, nil
}
