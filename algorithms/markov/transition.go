package markov

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/sampleuv"

	"github.com/harmolodic/cadenza/algorithms/theory"
	"github.com/harmolodic/cadenza/logging"
)

// Distribution maps canonical chord keys (theory.Chord.Key) to
// probabilities summing to 1 within floating tolerance
type Distribution map[string]float64

// defaultChord seeds padding when there is no history and no start states
var defaultChord = theory.NewChord("C", "maj7")

// defaultStartPair seeds generation on an untrained model
var defaultStartPair = []theory.Chord{
	theory.NewChord("C", "maj7"),
	theory.NewChord("F", "maj7"),
}

// curatedChords is the terminal fallback: common chords every prediction
// can resolve to when the model has no states at all
var curatedChords = []theory.Chord{
	theory.NewChord("C", "maj7"),
	theory.NewChord("D", "m7"),
	theory.NewChord("G", "7"),
	theory.NewChord("A", "m7"),
	theory.NewChord("F", "maj7"),
	theory.NewChord("E", "m7"),
	theory.NewChord("A", "7"),
	theory.NewChord("B", "m7b5"),
}

// Model is an order-N Markov chain over chord symbols. Training runs in
// two phases: transition counting, then a freeze that normalizes counts
// into immutable probability tables. After training (or Restore) the
// tables are read-only; concurrent readers are safe, and retraining
// replaces the state wholesale.
type Model struct {
	order int
	rng   *rand.Rand

	// counts exists only during the accumulate phase of Train
	counts map[string]map[string]int

	probabilities map[string]Distribution
	globalFreq    Distribution
	vocab         map[string]theory.Chord
	startStates   [][]theory.Chord
}

// NewModel creates a model of the given order with a time-seeded random
// source. Order must be at least 1.
func NewModel(order int) (*Model, error) {
	return NewModelWithSource(order, rand.NewSource(rand.Uint64()))
}

// NewModelWithSource creates a model drawing all samples from the given
// source, so callers can seed for reproducibility
func NewModelWithSource(order int, src rand.Source) (*Model, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: markov order must be >= 1, got %d", theory.ErrInvalidConfig, order)
	}
	return &Model{
		order:         order,
		rng:           rand.New(src),
		probabilities: make(map[string]Distribution),
		globalFreq:    make(Distribution),
		vocab:         make(map[string]theory.Chord),
	}, nil
}

// Order returns the model order
func (m *Model) Order() int {
	return m.order
}

// StateCount returns the number of trained states
func (m *Model) StateCount() int {
	return len(m.probabilities)
}

// StartStates returns the learned common starting windows
func (m *Model) StartStates() [][]theory.Chord {
	return m.startStates
}

// stateKey encodes a chord window as a map key
func stateKey(chords []theory.Chord) string {
	keys := make([]string, len(chords))
	for i, c := range chords {
		keys[i] = c.Key()
	}
	return strings.Join(keys, "|")
}

// Train counts transitions across the corpus and freezes them into
// probability tables, replacing any previous training. Progressions
// shorter than order+1 contribute nothing. An empty usable corpus is not
// an error; predictions then resolve through the fallback chain.
func (m *Model) Train(progressions [][]theory.Chord) {
	m.counts = make(map[string]map[string]int)
	m.vocab = make(map[string]theory.Chord)

	transitionCount := 0
	for _, progression := range progressions {
		for _, chord := range progression {
			m.vocab[chord.Key()] = chord
		}

		for i := 0; i+m.order < len(progression); i++ {
			state := stateKey(progression[i : i+m.order])
			next := progression[i+m.order].Key()

			if m.counts[state] == nil {
				m.counts[state] = make(map[string]int)
			}
			m.counts[state][next]++
			transitionCount++
		}
	}

	m.freeze()
	m.findStartStates(progressions)

	if transitionCount == 0 {
		logging.Warn("training corpus produced no transitions; predictions will use fallbacks", logging.Fields{
			"progressions": len(progressions),
			"order":        m.order,
		})
		return
	}

	logging.Info("trained transition model", logging.Fields{
		"order":       m.order,
		"transitions": transitionCount,
		"states":      len(m.probabilities),
		"vocabulary":  len(m.vocab),
	})
}

// freeze normalizes accumulated counts into probability tables and the
// aggregate next-chord frequency distribution, then discards the counts
func (m *Model) freeze() {
	m.probabilities = make(map[string]Distribution, len(m.counts))
	nextCounts := make(map[string]int)
	totalNext := 0

	for state, nexts := range m.counts {
		total := 0
		for _, count := range nexts {
			total += count
		}

		dist := make(Distribution, len(nexts))
		for chordKey, count := range nexts {
			dist[chordKey] = float64(count) / float64(total)
			nextCounts[chordKey]++
			totalNext++
		}
		m.probabilities[state] = dist
	}

	m.globalFreq = make(Distribution, len(nextCounts))
	for chordKey, count := range nextCounts {
		m.globalFreq[chordKey] = float64(count) / float64(totalNext)
	}

	m.counts = nil
}

// findStartStates records the ten most frequent opening windows for use
// as generation seeds
func (m *Model) findStartStates(progressions [][]theory.Chord) {
	type startCount struct {
		key    string
		chords []theory.Chord
		count  int
	}

	counts := make(map[string]*startCount)
	for _, progression := range progressions {
		if len(progression) < m.order {
			continue
		}
		window := progression[:m.order]
		key := stateKey(window)
		if sc, ok := counts[key]; ok {
			sc.count++
		} else {
			chords := make([]theory.Chord, m.order)
			copy(chords, window)
			counts[key] = &startCount{key: key, chords: chords, count: 1}
		}
	}

	ranked := make([]*startCount, 0, len(counts))
	for _, sc := range counts {
		ranked = append(ranked, sc)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].key < ranked[j].key
	})

	if len(ranked) > 10 {
		ranked = ranked[:10]
	}

	m.startStates = make([][]theory.Chord, len(ranked))
	for i, sc := range ranked {
		m.startStates[i] = sc.chords
	}
}

// PredictNext samples the next chord after history. The state is the
// trailing order-length window (padded when history is short); unknown
// states resolve through the fallback chain, so prediction never fails on
// a well-formed model. Temperature must be non-negative.
func (m *Model) PredictNext(history []theory.Chord, temperature float64) (theory.Chord, error) {
	if temperature < 0 {
		return theory.Chord{}, fmt.Errorf("%w: temperature must be >= 0, got %g", theory.ErrInvalidConfig, temperature)
	}

	padded := m.padHistory(history)
	state := padded[len(padded)-m.order:]

	candidates := m.candidates(state)
	scaled := applyTemperature(candidates, temperature)

	return m.sample(scaled), nil
}

// candidates resolves a state to a distribution via the fallback chain:
// exact state, then the state with its oldest chord dropped, then the
// aggregate next-chord frequencies, then the curated common-chord set
func (m *Model) candidates(state []theory.Chord) Distribution {
	if dist, ok := m.probabilities[stateKey(state)]; ok {
		return dist
	}

	if m.order > 1 {
		if dist, ok := m.probabilities[stateKey(state[1:])]; ok {
			return dist
		}
	}

	if len(m.globalFreq) > 0 {
		return m.globalFreq
	}

	return curatedDistribution()
}

// curatedDistribution spreads probability uniformly over the curated
// common chords
func curatedDistribution() Distribution {
	dist := make(Distribution, len(curatedChords))
	p := 1.0 / float64(len(curatedChords))
	for _, chord := range curatedChords {
		dist[chord.Key()] = p
	}
	return dist
}

// padHistory extends a short history to order length: an empty history
// seeds from a random start state when one exists; otherwise the last
// chord (or the default chord) repeats
func (m *Model) padHistory(history []theory.Chord) []theory.Chord {
	if len(history) >= m.order {
		return history
	}

	if len(history) == 0 && len(m.startStates) > 0 {
		seed := m.startStates[m.rng.Intn(len(m.startStates))]
		padded := make([]theory.Chord, len(seed))
		copy(padded, seed)
		return padded
	}

	padded := make([]theory.Chord, len(history), m.order)
	copy(padded, history)
	for len(padded) < m.order {
		if len(padded) == 0 {
			padded = append(padded, defaultChord)
		} else {
			padded = append(padded, padded[len(padded)-1])
		}
	}
	return padded
}

// sortedKeys fixes the candidate ordering so argmax ties and sampling are
// deterministic under a seeded source
func sortedKeys(dist Distribution) []string {
	keys := make([]string, 0, len(dist))
	for key := range dist {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// applyTemperature rescales a distribution. Temperature 1 is the
// identity; below 1 sharpens toward the mode and above 1 flattens toward
// uniform (p -> p^(1/T), renormalized). Temperature 0 collapses to a
// one-hot at the first maximal candidate.
func applyTemperature(dist Distribution, temperature float64) Distribution {
	scaled := make(Distribution, len(dist))

	if temperature == 0 {
		best := ""
		bestProb := -1.0
		for _, key := range sortedKeys(dist) {
			if dist[key] > bestProb {
				bestProb = dist[key]
				best = key
			}
		}
		scaled[best] = 1.0
		return scaled
	}

	if temperature == 1 {
		for key, p := range dist {
			scaled[key] = p
		}
		return scaled
	}

	total := 0.0
	for key, p := range dist {
		v := math.Pow(p, 1.0/temperature)
		scaled[key] = v
		total += v
	}
	for key := range scaled {
		scaled[key] /= total
	}
	return scaled
}

// sample draws one chord with probability proportional to its weight
func (m *Model) sample(dist Distribution) theory.Chord {
	keys := sortedKeys(dist)
	weights := make([]float64, len(keys))
	for i, key := range keys {
		weights[i] = dist[key]
	}

	sampler := sampleuv.NewWeighted(weights, m.rng)
	idx, ok := sampler.Take()
	if !ok {
		// Degenerate weights; fall back to the heaviest candidate
		idx = 0
		for i := 1; i < len(weights); i++ {
			if weights[i] > weights[idx] {
				idx = i
			}
		}
	}

	return m.chordFor(keys[idx])
}

// chordFor resolves a canonical chord key back to its value, consulting
// the training vocabulary first
func (m *Model) chordFor(key string) theory.Chord {
	if chord, ok := m.vocab[key]; ok {
		return chord
	}
	chord, err := theory.ParseChordKey(key)
	if err != nil {
		return defaultChord
	}
	return chord
}

// GenerateSequence produces a progression of exactly the requested
// length, seeding from start when given, else a random learned start
// state, else a fixed default pair
func (m *Model) GenerateSequence(length int, temperature float64, start []theory.Chord) ([]theory.Chord, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: sequence length must be >= 0, got %d", theory.ErrInvalidConfig, length)
	}

	var progression []theory.Chord
	switch {
	case len(start) > 0:
		progression = make([]theory.Chord, len(start))
		copy(progression, start)
	case len(m.startStates) > 0:
		seed := m.startStates[m.rng.Intn(len(m.startStates))]
		progression = make([]theory.Chord, len(seed))
		copy(progression, seed)
	default:
		progression = make([]theory.Chord, len(defaultStartPair))
		copy(progression, defaultStartPair)
	}

	for len(progression) < length {
		next, err := m.PredictNext(progression, temperature)
		if err != nil {
			return nil, err
		}
		progression = append(progression, next)
	}

	if len(progression) > length {
		progression = progression[:length]
	}

	return progression, nil
}

// NextCandidate is one entry of a state's candidate report
type NextCandidate struct {
	Chord       theory.Chord `json:"chord"`
	Probability float64      `json:"probability"`
}

// StateInfo reports the top next-chord candidates for a state, most
// probable first, for diagnostics. Unknown states report no candidates.
func (m *Model) StateInfo(state []theory.Chord) []NextCandidate {
	dist, ok := m.probabilities[stateKey(state)]
	if !ok {
		return nil
	}

	candidates := make([]NextCandidate, 0, len(dist))
	for _, key := range sortedKeys(dist) {
		candidates = append(candidates, NextCandidate{Chord: m.chordFor(key), Probability: dist[key]})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Probability > candidates[j].Probability
	})

	if len(candidates) > 5 {
		candidates = candidates[:5]
	}
	return candidates
}
