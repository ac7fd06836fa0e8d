package markov

import (
	"fmt"

	"github.com/harmolodic/cadenza/algorithms/theory"
)

// Snapshot is the plain-value export of a trained model: the order, every
// state's next-chord distribution, and the start-state list. State keys
// join canonical chord keys with "|"; chord keys are theory.Chord.Key
// encodings. The shape is sufficient for an external serializer to
// round-trip the model without semantic loss.
type Snapshot struct {
	Order       int                           `json:"order"`
	States      map[string]map[string]float64 `json:"states"`
	StartStates [][]string                    `json:"start_states"`
}

// Snapshot exports the trained state as plain values
func (m *Model) Snapshot() Snapshot {
	states := make(map[string]map[string]float64, len(m.probabilities))
	for state, dist := range m.probabilities {
		copied := make(map[string]float64, len(dist))
		for chordKey, p := range dist {
			copied[chordKey] = p
		}
		states[state] = copied
	}

	startStates := make([][]string, len(m.startStates))
	for i, window := range m.startStates {
		keys := make([]string, len(window))
		for j, chord := range window {
			keys[j] = chord.Key()
		}
		startStates[i] = keys
	}

	return Snapshot{
		Order:       m.order,
		States:      states,
		StartStates: startStates,
	}
}

// Restore replaces the model's trained state with a snapshot's. The
// restored model keeps probabilities only; transition counts belong to a
// fresh training run and are not reconstructed.
func (m *Model) Restore(snapshot Snapshot) error {
	if snapshot.Order < 1 {
		return fmt.Errorf("%w: snapshot order must be >= 1, got %d", theory.ErrInvalidConfig, snapshot.Order)
	}

	probabilities := make(map[string]Distribution, len(snapshot.States))
	vocab := make(map[string]theory.Chord)
	nextCounts := make(map[string]int)
	totalNext := 0

	for state, dist := range snapshot.States {
		copied := make(Distribution, len(dist))
		for chordKey, p := range dist {
			chord, err := theory.ParseChordKey(chordKey)
			if err != nil {
				return err
			}
			vocab[chordKey] = chord
			copied[chordKey] = p
			nextCounts[chordKey]++
			totalNext++
		}
		probabilities[state] = copied
	}

	startStates := make([][]theory.Chord, len(snapshot.StartStates))
	for i, window := range snapshot.StartStates {
		chords := make([]theory.Chord, len(window))
		for j, chordKey := range window {
			chord, err := theory.ParseChordKey(chordKey)
			if err != nil {
				return err
			}
			chords[j] = chord
			vocab[chordKey] = chord
		}
		startStates[i] = chords
	}

	globalFreq := make(Distribution, len(nextCounts))
	for chordKey, count := range nextCounts {
		globalFreq[chordKey] = float64(count) / float64(totalNext)
	}

	m.order = snapshot.Order
	m.probabilities = probabilities
	m.globalFreq = globalFreq
	m.vocab = vocab
	m.startStates = startStates
	m.counts = nil

	return nil
}
