package phrase

import (
	"fmt"
	"math"
	"sort"

	"github.com/harmolodic/cadenza/algorithms/theory"
	"github.com/harmolodic/cadenza/logging"
)

// BeatStrength grades the metric weight of a beat position
type BeatStrength int

const (
	StrengthVeryWeak BeatStrength = iota
	StrengthWeak
	StrengthMedium
	StrengthStrong
)

func (b BeatStrength) String() string {
	switch b {
	case StrengthStrong:
		return "strong"
	case StrengthMedium:
		return "medium"
	case StrengthWeak:
		return "weak"
	default:
		return "very_weak"
	}
}

// StrengthOf grades a beat position within a bar. Downbeats are strong,
// the middle of the bar is medium, other whole beats weak, and anything
// off the beat grid very weak. Pure function of position and meter.
func StrengthOf(beat float64, beatsPerBar int) BeatStrength {
	beatInBar := math.Mod(beat, float64(beatsPerBar))

	switch {
	case beatInBar == 0:
		return StrengthStrong
	case beatInBar == float64(beatsPerBar)/2:
		return StrengthMedium
	case beatInBar == math.Trunc(beatInBar):
		return StrengthWeak
	default:
		return StrengthVeryWeak
	}
}

// Phrase is a contiguous run of melody notes. Start and end beats are the
// extrema over its notes; the cadence note is the last note in start
// order.
type Phrase struct {
	Notes           []theory.Note `json:"notes"`
	StartBeat       float64       `json:"start_beat"`
	EndBeat         float64       `json:"end_beat"`
	LengthBars      float64       `json:"length_bars"`
	CadenceNote     theory.Note   `json:"cadence_note"`
	StrongBeatNotes []theory.Note `json:"strong_beat_notes"`
}

// Duration returns the phrase length in beats
func (p Phrase) Duration() float64 {
	return p.EndBeat - p.StartBeat
}

// SegmenterParams contains parameters for phrase segmentation
type SegmenterParams struct {
	BeatsPerBar int `json:"beats_per_bar"`
	BeatUnit    int `json:"beat_unit"`

	// RestThreshold is the minimum gap, in beats, between one note's end
	// and the next note's start that counts as a phrase boundary
	RestThreshold float64 `json:"rest_threshold"`
}

// DefaultSegmenterParams returns parameters for common time with the
// usual 1.5-beat rest threshold
func DefaultSegmenterParams() SegmenterParams {
	return SegmenterParams{
		BeatsPerBar:   4,
		BeatUnit:      4,
		RestThreshold: 1.5,
	}
}

// Segmenter splits a monophonic note sequence into musical phrases
type Segmenter struct {
	params SegmenterParams
}

// NewSegmenter creates a segmenter with default parameters
func NewSegmenter() *Segmenter {
	return NewSegmenterWithParams(DefaultSegmenterParams())
}

// NewSegmenterWithParams creates a segmenter with custom parameters
func NewSegmenterWithParams(params SegmenterParams) *Segmenter {
	return &Segmenter{params: params}
}

// Params returns the segmentation parameters in use
func (s *Segmenter) Params() SegmenterParams {
	return s.params
}

// BeatStrengthAt grades a beat position under the segmenter's meter
func (s *Segmenter) BeatStrengthAt(beat float64) BeatStrength {
	return StrengthOf(beat, s.params.BeatsPerBar)
}

// Segment splits notes into phrases. Rest-based splitting is tried first;
// if the melody has no usable rests the total duration is divided into
// equal phrase windows. An empty note sequence yields an empty phrase
// list and no error.
func (s *Segmenter) Segment(notes []theory.Note, totalBars int) ([]Phrase, error) {
	if len(notes) == 0 {
		return []Phrase{}, nil
	}

	sorted := make([]theory.Note, len(notes))
	copy(sorted, notes)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartBeat < sorted[j].StartBeat
	})

	groups := s.splitAtRests(sorted)
	if len(groups) <= 1 {
		groups = s.divideEqually(sorted, totalBars)
	}

	phrases := make([]Phrase, 0, len(groups))
	for _, group := range groups {
		p, err := s.analyzeGroup(group)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, p)
	}

	logging.Debug("segmented melody into phrases", logging.Fields{
		"notes":   len(notes),
		"phrases": len(phrases),
	})

	return phrases, nil
}

// splitAtRests inserts a phrase boundary wherever the gap between a
// note's end and the next note's start reaches the rest threshold
func (s *Segmenter) splitAtRests(notes []theory.Note) [][]theory.Note {
	var groups [][]theory.Note
	var current []theory.Note

	for i, note := range notes {
		current = append(current, note)

		if i < len(notes)-1 {
			gap := notes[i+1].StartBeat - note.EndBeat()
			if gap >= s.params.RestThreshold {
				groups = append(groups, current)
				current = nil
			}
		}
	}

	if len(current) > 0 {
		groups = append(groups, current)
	}

	return groups
}

// divideEqually assigns notes to equal windows of 4 bars (8-bar forms and
// longer) or 2 bars, by start-beat membership. Empty windows are dropped.
func (s *Segmenter) divideEqually(notes []theory.Note, totalBars int) [][]theory.Note {
	phraseLengthBars := 2
	if totalBars >= 8 {
		phraseLengthBars = 4
	}

	phraseLengthBeats := float64(phraseLengthBars * s.params.BeatsPerBar)
	numPhrases := int(math.Ceil(float64(totalBars) / float64(phraseLengthBars)))

	var groups [][]theory.Note
	for i := 0; i < numPhrases; i++ {
		windowStart := float64(i) * phraseLengthBeats
		windowEnd := float64(i+1) * phraseLengthBeats

		var group []theory.Note
		for _, note := range notes {
			if note.StartBeat >= windowStart && note.StartBeat < windowEnd {
				group = append(group, note)
			}
		}

		if len(group) > 0 {
			groups = append(groups, group)
		}
	}

	return groups
}

// analyzeGroup builds a Phrase from a non-empty note group. An empty
// group is a caller contract violation.
func (s *Segmenter) analyzeGroup(notes []theory.Note) (Phrase, error) {
	if len(notes) == 0 {
		return Phrase{}, fmt.Errorf("%w: cannot analyze empty phrase", theory.ErrInvalidArgument)
	}

	startBeat := notes[0].StartBeat
	endBeat := notes[0].EndBeat()
	for _, note := range notes[1:] {
		if note.StartBeat < startBeat {
			startBeat = note.StartBeat
		}
		if note.EndBeat() > endBeat {
			endBeat = note.EndBeat()
		}
	}

	var strongBeatNotes []theory.Note
	for _, note := range notes {
		strength := s.BeatStrengthAt(note.StartBeat)
		if strength == StrengthStrong || strength == StrengthMedium {
			strongBeatNotes = append(strongBeatNotes, note)
		}
	}

	return Phrase{
		Notes:           notes,
		StartBeat:       startBeat,
		EndBeat:         endBeat,
		LengthBars:      (endBeat - startBeat) / float64(s.params.BeatsPerBar),
		CadenceNote:     notes[len(notes)-1],
		StrongBeatNotes: strongBeatNotes,
	}, nil
}

// ChordChangePoints returns the beat positions where chords should
// change: every phrase start, every strong or medium beat inside phrases
// spanning at least two bars, and the final phrase's end. The result is
// deduplicated and sorted.
func (s *Segmenter) ChordChangePoints(phrases []Phrase) []float64 {
	if len(phrases) == 0 {
		return []float64{}
	}

	seen := make(map[float64]bool)
	var points []float64
	add := func(beat float64) {
		if !seen[beat] {
			seen[beat] = true
			points = append(points, beat)
		}
	}

	for _, p := range phrases {
		add(p.StartBeat)

		if p.LengthBars >= 2 {
			for beat := p.StartBeat; beat < p.EndBeat; beat++ {
				strength := s.BeatStrengthAt(beat)
				if strength == StrengthStrong || strength == StrengthMedium {
					add(beat)
				}
			}
		}
	}

	add(phrases[len(phrases)-1].EndBeat)

	sort.Float64s(points)
	return points
}
