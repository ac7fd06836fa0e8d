// Package harmonizer synthesizes jazz chord progressions for monophonic
// melodies. It wires the phrase segmenter, the key estimator and the
// phrase-aware Markov model behind a single Synthesize call: the melody
// is segmented into phrases, its key is detected from the pitch-class
// distribution, and a chord is sampled at every chord change point with
// a temperature and a diatonic bias both controlled by a single
// creativity knob.
package harmonizer

import (
	"fmt"
	"math"

	"golang.org/x/exp/rand"

	"github.com/harmolodic/cadenza/algorithms/markov"
	"github.com/harmolodic/cadenza/algorithms/phrase"
	"github.com/harmolodic/cadenza/algorithms/theory"
	"github.com/harmolodic/cadenza/algorithms/tonal"
	"github.com/harmolodic/cadenza/logging"
)

// ChordPlacement is one chord of a synthesized progression, placed on
// the melody's beat grid
type ChordPlacement struct {
	StartBeat  float64      `json:"start_beat"`
	Duration   float64      `json:"duration"`
	Chord      theory.Chord `json:"chord"`
	MelodyNote string       `json:"melody_note,omitempty"`
}

// Result carries a synthesized progression together with the analysis
// that produced it
type Result struct {
	Progression []ChordPlacement `json:"progression"`
	Key         tonal.Key        `json:"key"`
	Diatonic    []theory.Chord   `json:"diatonic_chords,omitempty"`
	PhraseCount int              `json:"phrase_count"`
	Creativity  float64          `json:"creativity"`
	Temperature float64          `json:"temperature"`
}

// Synthesizer harmonizes melodies with a trained phrase-aware model
type Synthesizer struct {
	config    Config
	segmenter *phrase.Segmenter
	estimator *tonal.Estimator
	model     *markov.PhraseAwareModel
	rng       *rand.Rand
	trained   bool
}

// New creates a synthesizer with a time-seeded random source
func New(config Config) (*Synthesizer, error) {
	return NewWithSource(config, rand.NewSource(rand.Uint64()))
}

// NewWithSource creates a synthesizer drawing all randomness, sampling
// included, from the given source
func NewWithSource(config Config, src rand.Source) (*Synthesizer, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	rng := rand.New(src)
	model, err := markov.NewPhraseAwareModelWithSource(config.Order, rng)
	if err != nil {
		return nil, err
	}

	segmenter := phrase.NewSegmenterWithParams(phrase.SegmenterParams{
		BeatsPerBar:   config.BeatsPerBar,
		BeatUnit:      config.BeatUnit,
		RestThreshold: config.RestThreshold,
	})

	return &Synthesizer{
		config:    config,
		segmenter: segmenter,
		estimator: tonal.NewEstimator(),
		model:     model,
		rng:       rng,
	}, nil
}

func validateConfig(config Config) error {
	switch {
	case config.Order < 1:
		return fmt.Errorf("%w: order must be >= 1, got %d", theory.ErrInvalidConfig, config.Order)
	case config.BeatsPerBar < 1:
		return fmt.Errorf("%w: beats per bar must be >= 1, got %d", theory.ErrInvalidConfig, config.BeatsPerBar)
	case config.RestThreshold <= 0:
		return fmt.Errorf("%w: rest threshold must be positive, got %g", theory.ErrInvalidConfig, config.RestThreshold)
	case config.MinTemperature < 0 || config.TemperatureSpan < 0:
		return fmt.Errorf("%w: temperature bounds must be non-negative", theory.ErrInvalidConfig)
	case config.DiatonicBias < 0 || config.DiatonicBias > 1:
		return fmt.Errorf("%w: diatonic bias must be in [0, 1], got %g", theory.ErrInvalidConfig, config.DiatonicBias)
	}
	return nil
}

// Model exposes the underlying phrase-aware model for inspection and
// persistence
func (s *Synthesizer) Model() *markov.PhraseAwareModel {
	return s.model
}

// Train fits the model on chord progressions paired with the phrase
// analyses of their melodies
func (s *Synthesizer) Train(progressions [][]theory.Chord, phraseLists [][]phrase.Phrase) error {
	if err := s.model.TrainWithPhrases(progressions, phraseLists); err != nil {
		return err
	}
	s.trained = true
	return nil
}

// TrainBuiltin fits the model on the built-in sample corpus, generating
// phrase-aligned melodies for it on the fly
func (s *Synthesizer) TrainBuiltin() error {
	progressions, phraseLists, err := BuildTrainingData(s.segmenter, s.rng)
	if err != nil {
		return err
	}
	return s.Train(progressions, phraseLists)
}

// Initialize trains on the built-in corpus if no training has happened
// yet. Safe to call more than once.
func (s *Synthesizer) Initialize() error {
	if s.trained {
		return nil
	}
	return s.TrainBuiltin()
}

// Synthesize builds a chord progression for a melody. Creativity in
// [0, 1] trades convention for surprise: it raises the sampling
// temperature from MinTemperature to MinTemperature+TemperatureSpan and
// lowers the probability of snapping sampled chords to the detected key.
func (s *Synthesizer) Synthesize(melody []theory.Note, creativity float64) (*Result, error) {
	if creativity < 0 || creativity > 1 {
		return nil, fmt.Errorf("%w: creativity must be in [0, 1], got %g", theory.ErrInvalidConfig, creativity)
	}
	if len(melody) == 0 {
		return nil, fmt.Errorf("%w: empty melody", theory.ErrInvalidArgument)
	}
	for i, note := range melody {
		if err := note.Validate(); err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
	}

	totalBars := s.totalBars(melody)
	phrases, err := s.segmenter.Segment(melody, totalBars)
	if err != nil {
		return nil, err
	}
	points := s.segmenter.ChordChangePoints(phrases)
	key := s.estimator.Detect(melody)

	temperature := s.config.MinTemperature + creativity*s.config.TemperatureSpan
	diatonicProb := 1.0 - creativity*s.config.DiatonicBias

	logging.Debug("synthesizing progression", logging.Fields{
		"notes":       len(melody),
		"phrases":     len(phrases),
		"key":         key.String(),
		"temperature": temperature,
	})

	progression := make([]ChordPlacement, 0, len(points))
	var history []theory.Chord
	for i := 0; i+1 < len(points); i++ {
		start, next := points[i], points[i+1]
		ctx := s.contextAt(phrases, start)
		ctx.MelodyNote = soundingNote(melody, start)

		chord, err := s.model.PredictNextWithPhrases(history, ctx, temperature)
		if err != nil {
			return nil, err
		}
		if s.config.KeyConstraints && s.rng.Float64() < diatonicProb {
			chord = s.estimator.NearestDiatonic(chord, key)
		}

		progression = append(progression, ChordPlacement{
			StartBeat:  start,
			Duration:   next - start,
			Chord:      chord,
			MelodyNote: ctx.MelodyNote,
		})
		history = append(history, chord)
		if len(history) > s.model.Order() {
			history = history[len(history)-s.model.Order():]
		}
	}

	diatonic, _ := tonal.DiatonicChords(key)
	result := &Result{
		Progression: progression,
		Key:         key,
		Diatonic:    diatonic,
		PhraseCount: len(phrases),
		Creativity:  creativity,
		Temperature: temperature,
	}
	logging.Info("progression synthesized", logging.Fields{
		"chords": len(progression),
		"key":    key.String(),
	})
	return result, nil
}

// totalBars rounds the melody's span up to whole bars
func (s *Synthesizer) totalBars(melody []theory.Note) int {
	end := 0.0
	for _, note := range melody {
		if e := note.EndBeat(); e > end {
			end = e
		}
	}
	bars := int(math.Ceil(end / float64(s.config.BeatsPerBar)))
	if bars < 1 {
		bars = 1
	}
	return bars
}

// contextAt derives the phrase context for a prediction point. Points
// that fall outside every phrase (leading rests) read as weak middles.
func (s *Synthesizer) contextAt(phrases []phrase.Phrase, beat float64) markov.Context {
	ctx := markov.Context{
		Position: markov.PositionMiddle,
		Strength: s.segmenter.BeatStrengthAt(beat),
	}
	for i, p := range phrases {
		if beat < p.StartBeat || beat >= p.EndBeat {
			continue
		}
		duration := p.Duration()
		if duration > 0 {
			progress := (beat - p.StartBeat) / duration
			switch {
			case progress < 0.25:
				ctx.Position = markov.PositionStart
			case progress > 0.75:
				ctx.Position = markov.PositionEnd
			}
		}
		final := i == len(phrases)-1
		ctx.IsCadence = final && beat >= p.EndBeat-s.config.CadenceWindowBeats
		break
	}
	return ctx
}

// soundingNote names the melody note sounding at a beat, or "" during a
// rest
func soundingNote(melody []theory.Note, beat float64) string {
	for i := len(melody) - 1; i >= 0; i-- {
		note := melody[i]
		if note.StartBeat <= beat && beat < note.EndBeat() {
			return note.Name()
		}
	}
	return ""
}
