package theory

import "fmt"

// Note is a single melody note: a pitch with octave ("C4", "Eb5"), a
// start position and duration in beats, and a velocity.
type Note struct {
	Pitch     string  `json:"pitch"`
	StartBeat float64 `json:"start_beat"`
	Duration  float64 `json:"duration"`
	Velocity  int     `json:"velocity"`
}

// NewNote creates a note with the default velocity of 80
func NewNote(pitch string, startBeat, duration float64) Note {
	return Note{Pitch: pitch, StartBeat: startBeat, Duration: duration, Velocity: 80}
}

// EndBeat returns the beat position where the note stops sounding
func (n Note) EndBeat() float64 {
	return n.StartBeat + n.Duration
}

// PitchClass returns the note's pitch class (0-11)
func (n Note) PitchClass() (int, error) {
	return PitchClassOf(n.Pitch)
}

// Name returns the pitch without its octave, e.g. "Eb" for "Eb5"
func (n Note) Name() string {
	return pitchName(n.Pitch)
}

// Validate checks the note against the input contract: start beat must be
// non-negative, duration strictly positive, and the pitch parsable.
func (n Note) Validate() error {
	if n.StartBeat < 0 {
		return fmt.Errorf("%w: negative start beat %.3f", ErrInvalidArgument, n.StartBeat)
	}
	if n.Duration <= 0 {
		return fmt.Errorf("%w: non-positive duration %.3f", ErrInvalidArgument, n.Duration)
	}
	if _, err := PitchToMIDI(n.Pitch); err != nil {
		return err
	}
	return nil
}

func (n Note) String() string {
	return fmt.Sprintf("%s (beat %.1f, dur %.1f)", n.Pitch, n.StartBeat, n.Duration)
}
