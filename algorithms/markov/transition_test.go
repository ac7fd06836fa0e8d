package markov

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"

	"github.com/harmolodic/cadenza/algorithms/theory"
)

func chords(symbols ...string) []theory.Chord {
	out := make([]theory.Chord, len(symbols))
	for i, s := range symbols {
		c, err := theory.ParseChord(s)
		if err != nil {
			panic(err)
		}
		out[i] = c
	}
	return out
}

func seededModel(t *testing.T, order int) *Model {
	t.Helper()
	m, err := NewModelWithSource(order, rand.NewSource(42))
	require.NoError(t, err)
	return m
}

func TestNewModelRejectsBadOrder(t *testing.T) {
	for _, order := range []int{0, -1} {
		_, err := NewModel(order)
		assert.ErrorIs(t, err, theory.ErrInvalidConfig, "order %d", order)
	}
}

func TestTrainBuildsNormalizedDistributions(t *testing.T) {
	m := seededModel(t, 1)
	m.Train([][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7"),
		chords("Dm7", "G7", "Em7"),
		chords("Dm7", "Db7", "Cmaj7"),
	})

	info := m.StateInfo(chords("G7"))
	require.Len(t, info, 2)
	assert.InDelta(t, 0.5, info[0].Probability, 1e-9)
	assert.InDelta(t, 0.5, info[1].Probability, 1e-9)

	for state, dist := range m.probabilities {
		sum := 0.0
		for _, p := range dist {
			sum += p
		}
		assert.InDelta(t, 1.0, sum, 1e-9, "state %s", state)
	}
}

func TestOrderTwoLearnsExactContinuation(t *testing.T) {
	m := seededModel(t, 2)
	m.Train([][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7"),
		chords("Dm7", "G7", "Cmaj7"),
	})

	// (Dm7, G7) was always followed by Cmaj7
	next, err := m.PredictNext(chords("Dm7", "G7"), 0)
	require.NoError(t, err)
	assert.True(t, next.Equal(theory.NewChord("C", "maj7")), "got %s", next)
}

func TestPredictNextRejectsNegativeTemperature(t *testing.T) {
	m := seededModel(t, 1)
	m.Train([][]theory.Chord{chords("Dm7", "G7", "Cmaj7")})

	_, err := m.PredictNext(chords("Dm7"), -0.5)
	assert.ErrorIs(t, err, theory.ErrInvalidConfig)
}

func TestPredictNextUntrainedFallsBackToCurated(t *testing.T) {
	m := seededModel(t, 2)

	curated := make(map[string]bool, len(curatedChords))
	for _, c := range curatedChords {
		curated[c.Key()] = true
	}

	for i := 0; i < 20; i++ {
		next, err := m.PredictNext(chords("Dm7", "G7"), 1.0)
		require.NoError(t, err)
		assert.True(t, curated[next.Key()], "unexpected chord %s", next)
	}
}

func TestPredictNextReducedStateFallback(t *testing.T) {
	m := seededModel(t, 2)
	m.Train([][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7"),
		chords("Dm7", "G7", "Cmaj7"),
	})

	// (Ebmaj7, G7) is unseen; dropping the oldest chord leaves (G7),
	// which is also unseen at order 2, so the aggregate frequencies take
	// over and prediction still succeeds
	next, err := m.PredictNext(chords("Ebmaj7", "G7"), 1.0)
	require.NoError(t, err)
	assert.NotEmpty(t, next.Root)
}

func TestPredictNextPadsShortHistory(t *testing.T) {
	m := seededModel(t, 3)
	m.Train([][]theory.Chord{
		chords("Cmaj7", "A7", "Dm7", "G7"),
		chords("Cmaj7", "A7", "Dm7", "G7"),
	})

	// a single chord of history must still produce a prediction
	next, err := m.PredictNext(chords("Dm7"), 1.0)
	require.NoError(t, err)
	assert.NotEmpty(t, next.Root)

	// so must an empty history, via a start-state seed
	next, err = m.PredictNext(nil, 1.0)
	require.NoError(t, err)
	assert.NotEmpty(t, next.Root)
}

func TestApplyTemperature(t *testing.T) {
	dist := Distribution{"a": 0.6, "b": 0.3, "c": 0.1}

	t.Run("identity at one", func(t *testing.T) {
		scaled := applyTemperature(dist, 1.0)
		assert.InDelta(t, 0.6, scaled["a"], 1e-12)
		assert.InDelta(t, 0.3, scaled["b"], 1e-12)
		assert.InDelta(t, 0.1, scaled["c"], 1e-12)
	})

	t.Run("zero collapses to argmax", func(t *testing.T) {
		scaled := applyTemperature(dist, 0)
		assert.Equal(t, Distribution{"a": 1.0}, scaled)
	})

	t.Run("zero breaks ties toward first sorted key", func(t *testing.T) {
		scaled := applyTemperature(Distribution{"b": 0.5, "a": 0.5}, 0)
		assert.Equal(t, Distribution{"a": 1.0}, scaled)
	})

	t.Run("low temperature sharpens", func(t *testing.T) {
		scaled := applyTemperature(dist, 0.5)
		assert.Greater(t, scaled["a"], 0.6)
		assert.Less(t, scaled["c"], 0.1)
	})

	t.Run("high temperature flattens", func(t *testing.T) {
		scaled := applyTemperature(dist, 2.0)
		assert.Less(t, scaled["a"], 0.6)
		assert.Greater(t, scaled["c"], 0.1)
	})

	t.Run("stays normalized", func(t *testing.T) {
		for _, temp := range []float64{0, 0.25, 1, 1.9, 10} {
			scaled := applyTemperature(dist, temp)
			sum := 0.0
			for _, p := range scaled {
				sum += p
			}
			assert.InDelta(t, 1.0, sum, 1e-9, "temperature %g", temp)
		}
	})
}

func TestFindStartStates(t *testing.T) {
	m := seededModel(t, 2)
	corpus := [][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7"),
		chords("Dm7", "G7", "Em7"),
		chords("Cmaj7", "A7", "Dm7"),
	}
	m.Train(corpus)

	starts := m.StartStates()
	require.Len(t, starts, 2)

	// most frequent opening window first
	assert.True(t, starts[0][0].Equal(theory.NewChord("D", "m7")))
	assert.True(t, starts[0][1].Equal(theory.NewChord("G", "7")))
}

func TestGenerateSequenceLength(t *testing.T) {
	m := seededModel(t, 2)
	m.Train([][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7", "A7", "Dm7", "G7", "Cmaj7"),
	})

	for _, length := range []int{0, 1, 4, 16} {
		seq, err := m.GenerateSequence(length, 1.0, nil)
		require.NoError(t, err)
		assert.Len(t, seq, length)
	}

	_, err := m.GenerateSequence(-1, 1.0, nil)
	assert.ErrorIs(t, err, theory.ErrInvalidConfig)
}

func TestGenerateSequenceHonorsSeed(t *testing.T) {
	m := seededModel(t, 2)
	m.Train([][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7", "A7", "Dm7"),
	})

	seed := chords("Cmaj7", "A7")
	seq, err := m.GenerateSequence(6, 1.0, seed)
	require.NoError(t, err)
	require.Len(t, seq, 6)
	assert.True(t, seq[0].Equal(seed[0]))
	assert.True(t, seq[1].Equal(seed[1]))
}

func TestGenerateSequenceUntrainedUsesDefaultPair(t *testing.T) {
	m := seededModel(t, 2)

	seq, err := m.GenerateSequence(2, 1.0, nil)
	require.NoError(t, err)
	require.Len(t, seq, 2)
	assert.True(t, seq[0].Equal(theory.NewChord("C", "maj7")))
	assert.True(t, seq[1].Equal(theory.NewChord("F", "maj7")))
}

func TestStateInfo(t *testing.T) {
	m := seededModel(t, 1)
	m.Train([][]theory.Chord{
		chords("G7", "Cmaj7"),
		chords("G7", "Cmaj7"),
		chords("G7", "Em7"),
	})

	info := m.StateInfo(chords("G7"))
	require.Len(t, info, 2)
	assert.True(t, info[0].Chord.Equal(theory.NewChord("C", "maj7")))
	assert.InDelta(t, 2.0/3.0, info[0].Probability, 1e-9)
	assert.InDelta(t, 1.0/3.0, info[1].Probability, 1e-9)

	assert.Nil(t, m.StateInfo(chords("Bm7b5")))
}

func TestDeterministicWithSameSeed(t *testing.T) {
	corpus := [][]theory.Chord{
		chords("Dm7", "G7", "Cmaj7", "A7", "Dm7", "G7", "Em7", "A7"),
		chords("Cmaj7", "A7", "Dm7", "G7", "Cmaj7"),
	}

	run := func() []theory.Chord {
		m, err := NewModelWithSource(2, rand.NewSource(7))
		require.NoError(t, err)
		m.Train(corpus)
		seq, err := m.GenerateSequence(12, 1.2, nil)
		require.NoError(t, err)
		return seq
	}

	first, second := run(), run()
	require.Len(t, second, len(first))
	for i := range first {
		assert.True(t, first[i].Equal(second[i]), "position %d", i)
	}
}
