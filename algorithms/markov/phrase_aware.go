package markov

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/harmolodic/cadenza/algorithms/phrase"
	"github.com/harmolodic/cadenza/algorithms/theory"
	"github.com/harmolodic/cadenza/logging"
)

// PhrasePosition locates a prediction point within its phrase
type PhrasePosition string

const (
	PositionStart  PhrasePosition = "start"
	PositionMiddle PhrasePosition = "middle"
	PositionEnd    PhrasePosition = "end"
)

// Context carries the phrase information attached to a prediction point.
// MelodyNote is reporting-only; it never enters the state key.
type Context struct {
	Position   PhrasePosition      `json:"position"`
	Strength   phrase.BeatStrength `json:"strength"`
	IsCadence  bool                `json:"is_cadence"`
	MelodyNote string              `json:"melody_note,omitempty"`
}

// curatedCadence biases phrase endings toward the conventional
// dominant-then-tonic resolution when no cadence statistics exist
var curatedCadence = []struct {
	chord theory.Chord
	prob  float64
}{
	{theory.NewChord("G", "7"), 0.6},
	{theory.NewChord("C", "maj7"), 0.3},
	{theory.NewChord("A", "m7"), 0.1},
}

// PhraseAwareModel extends Model with a transition table keyed by phrase
// context and a separate table of cadence resolutions. Cadential chords
// follow strongly conventionalized resolutions that a position-blind
// model dilutes; keeping their statistics apart preserves that signal
// while sparse data still degrades gracefully to the base model.
type PhraseAwareModel struct {
	*Model

	beatsPerBar int

	// accumulate-phase tables, discarded on freeze
	phraseCounts   map[string]map[string]int
	cadenceCounts  map[string]map[string]int
	positionCounts map[PhrasePosition]map[string]int

	phraseProbabilities  map[string]Distribution
	cadenceProbabilities map[string]Distribution
	positionMarginals    map[PhrasePosition]Distribution
}

// NewPhraseAwareModel creates a phrase-aware model of the given order in
// common time
func NewPhraseAwareModel(order int) (*PhraseAwareModel, error) {
	return NewPhraseAwareModelWithSource(order, rand.NewSource(rand.Uint64()))
}

// NewPhraseAwareModelWithSource creates a phrase-aware model with an
// injectable random source
func NewPhraseAwareModelWithSource(order int, src rand.Source) (*PhraseAwareModel, error) {
	base, err := NewModelWithSource(order, src)
	if err != nil {
		return nil, err
	}
	return &PhraseAwareModel{
		Model:                base,
		beatsPerBar:          4,
		phraseProbabilities:  make(map[string]Distribution),
		cadenceProbabilities: make(map[string]Distribution),
		positionMarginals:    make(map[PhrasePosition]Distribution),
	}, nil
}

// phraseStateKey extends the chord-window key with the phrase context
func phraseStateKey(window []theory.Chord, ctx Context) string {
	cadence := "0"
	if ctx.IsCadence {
		cadence = "1"
	}
	return stateKey(window) + "#" + string(ctx.Position) + "#" + ctx.Strength.String() + "#" + cadence
}

// TrainWithPhrases trains the base model and, using the aligned phrase
// structure of each progression, the phrase-context and cadence tables.
// The phrase list must be aligned one-to-one with the progressions.
func (pm *PhraseAwareModel) TrainWithPhrases(progressions [][]theory.Chord, phraseLists [][]phrase.Phrase) error {
	if len(progressions) != len(phraseLists) {
		return fmt.Errorf("%w: %d progressions but %d phrase analyses",
			theory.ErrInvalidArgument, len(progressions), len(phraseLists))
	}

	pm.Train(progressions)

	pm.phraseCounts = make(map[string]map[string]int)
	pm.cadenceCounts = make(map[string]map[string]int)
	pm.positionCounts = make(map[PhrasePosition]map[string]int)

	for p, progression := range progressions {
		contexts := pm.contextMap(phraseLists[p])

		for i := 0; i+pm.order < len(progression); i++ {
			window := progression[i : i+pm.order]
			next := progression[i+pm.order].Key()

			ctx, ok := contexts[i]
			if !ok {
				ctx = Context{Position: PositionMiddle, Strength: phrase.StrengthWeak}
			}

			key := phraseStateKey(window, ctx)
			if pm.phraseCounts[key] == nil {
				pm.phraseCounts[key] = make(map[string]int)
			}
			pm.phraseCounts[key][next]++

			if pm.positionCounts[ctx.Position] == nil {
				pm.positionCounts[ctx.Position] = make(map[string]int)
			}
			pm.positionCounts[ctx.Position][next]++

			if ctx.IsCadence {
				lo := i - 1
				if lo < 0 {
					lo = 0
				}
				cadenceKey := stateKey(progression[lo : i+1])
				if pm.cadenceCounts[cadenceKey] == nil {
					pm.cadenceCounts[cadenceKey] = make(map[string]int)
				}
				pm.cadenceCounts[cadenceKey][next]++
			}
		}
	}

	pm.freezePhraseTables()

	logging.Info("trained phrase-aware transition model", logging.Fields{
		"phrase_states":  len(pm.phraseProbabilities),
		"cadence_states": len(pm.cadenceProbabilities),
	})

	return nil
}

// contextMap derives the phrase context for each chord index from the
// aligned phrase structure: position by note index within the phrase,
// strength from the note's beat position, cadence only at the final note
// of the final phrase
func (pm *PhraseAwareModel) contextMap(phrases []phrase.Phrase) map[int]Context {
	contexts := make(map[int]Context)
	index := 0

	for phraseIdx, p := range phrases {
		for noteIdx, note := range p.Notes {
			position := PositionMiddle
			if noteIdx == 0 {
				position = PositionStart
			} else if noteIdx == len(p.Notes)-1 {
				position = PositionEnd
			}

			contexts[index] = Context{
				Position:  position,
				Strength:  phrase.StrengthOf(note.StartBeat, pm.beatsPerBar),
				IsCadence: noteIdx == len(p.Notes)-1 && phraseIdx == len(phrases)-1,
			}
			index++
		}
	}

	return contexts
}

// freezePhraseTables normalizes the phrase, cadence and position count
// tables into immutable distributions
func (pm *PhraseAwareModel) freezePhraseTables() {
	pm.phraseProbabilities = normalizeCounts(pm.phraseCounts)
	pm.cadenceProbabilities = normalizeCounts(pm.cadenceCounts)

	pm.positionMarginals = make(map[PhrasePosition]Distribution, len(pm.positionCounts))
	for position, counts := range pm.positionCounts {
		total := 0
		for _, count := range counts {
			total += count
		}
		dist := make(Distribution, len(counts))
		for chordKey, count := range counts {
			dist[chordKey] = float64(count) / float64(total)
		}
		pm.positionMarginals[position] = dist
	}

	pm.phraseCounts = nil
	pm.cadenceCounts = nil
	pm.positionCounts = nil
}

func normalizeCounts(counts map[string]map[string]int) map[string]Distribution {
	probabilities := make(map[string]Distribution, len(counts))
	for key, nexts := range counts {
		total := 0
		for _, count := range nexts {
			total += count
		}
		dist := make(Distribution, len(nexts))
		for chordKey, count := range nexts {
			dist[chordKey] = float64(count) / float64(total)
		}
		probabilities[key] = dist
	}
	return probabilities
}

// PredictNextWithPhrases samples the next chord using phrase context.
// Cadence points consult the cadence table and fall back to a curated
// dominant-biased resolution; other points try the exact phrase-aware
// state, then a position marginal (phrase starts and ends), and finally
// the base model.
func (pm *PhraseAwareModel) PredictNextWithPhrases(history []theory.Chord, ctx Context, temperature float64) (theory.Chord, error) {
	if temperature < 0 {
		return theory.Chord{}, fmt.Errorf("%w: temperature must be >= 0, got %g", theory.ErrInvalidConfig, temperature)
	}

	padded := pm.padHistory(history)
	window := padded[len(padded)-pm.order:]

	if ctx.IsCadence {
		return pm.predictCadence(padded, temperature)
	}

	if dist, ok := pm.phraseProbabilities[phraseStateKey(window, ctx)]; ok {
		return pm.sample(applyTemperature(dist, temperature)), nil
	}

	if ctx.Position == PositionStart || ctx.Position == PositionEnd {
		if dist, ok := pm.positionMarginals[ctx.Position]; ok && len(dist) > 0 {
			return pm.sample(applyTemperature(dist, temperature)), nil
		}
	}

	return pm.PredictNext(history, temperature)
}

// predictCadence resolves a cadence point from the trailing two-chord
// window, falling back to the curated cadence distribution
func (pm *PhraseAwareModel) predictCadence(padded []theory.Chord, temperature float64) (theory.Chord, error) {
	lo := len(padded) - 2
	if lo < 0 {
		lo = 0
	}
	key := stateKey(padded[lo:])

	dist, ok := pm.cadenceProbabilities[key]
	if !ok {
		dist = make(Distribution, len(curatedCadence))
		for _, entry := range curatedCadence {
			dist[entry.chord.Key()] = entry.prob
		}
	}

	return pm.sample(applyTemperature(dist, temperature)), nil
}
