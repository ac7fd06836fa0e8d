package tonal

import (
	"gonum.org/v1/gonum/floats"

	"github.com/harmolodic/cadenza/algorithms/theory"
	"github.com/harmolodic/cadenza/logging"
)

// KeyProfile selects the perceptual weighting used for correlation
type KeyProfile int

const (
	KeyProfileKrumhansl KeyProfile = iota
	KeyProfileTemperley
)

// KeyProfileTemplate contains major and minor reference profiles,
// normalized so each sums to 1
type KeyProfileTemplate struct {
	MajorProfile []float64 `json:"major_profile"`
	MinorProfile []float64 `json:"minor_profile"`
	Name         string    `json:"name"`
}

// EstimatorParams contains parameters for key estimation
type EstimatorParams struct {
	Profile KeyProfile `json:"profile"`

	// RefineModes enables promoting the provisional major/minor result to
	// a mode (dorian, lydian, ...) based on characteristic tones
	RefineModes bool `json:"refine_modes"`
}

// DefaultEstimatorParams returns the Krumhansl-Schmuckler configuration
// with mode refinement enabled
func DefaultEstimatorParams() EstimatorParams {
	return EstimatorParams{
		Profile:     KeyProfileKrumhansl,
		RefineModes: true,
	}
}

// Estimator infers a tonal center from a note sequence by correlating its
// duration-weighted pitch-class distribution against rotated key profiles
type Estimator struct {
	params   EstimatorParams
	profiles map[KeyProfile]*KeyProfileTemplate
}

// NewEstimator creates a key estimator with default parameters
func NewEstimator() *Estimator {
	return NewEstimatorWithParams(DefaultEstimatorParams())
}

// NewEstimatorWithParams creates a key estimator with custom parameters
func NewEstimatorWithParams(params EstimatorParams) *Estimator {
	e := &Estimator{
		params:   params,
		profiles: make(map[KeyProfile]*KeyProfileTemplate),
	}
	e.initializeProfiles()
	return e
}

// initializeProfiles installs the reference profile templates
func (e *Estimator) initializeProfiles() {
	// Krumhansl-Schmuckler probe-tone profiles (empirically derived)
	e.profiles[KeyProfileKrumhansl] = &KeyProfileTemplate{
		MajorProfile: normalized([]float64{6.35, 2.23, 3.48, 2.33, 4.38, 4.09, 2.52, 5.19, 2.39, 3.66, 2.29, 2.88}),
		MinorProfile: normalized([]float64{6.33, 2.68, 3.52, 5.38, 2.60, 3.53, 2.54, 4.75, 3.98, 2.69, 3.34, 3.17}),
		Name:         "Krumhansl-Schmuckler",
	}

	// Temperley profiles (corpus-based)
	e.profiles[KeyProfileTemperley] = &KeyProfileTemplate{
		MajorProfile: normalized([]float64{5.0, 2.0, 3.5, 2.0, 4.5, 4.0, 2.0, 4.5, 2.0, 3.5, 1.5, 4.0}),
		MinorProfile: normalized([]float64{5.0, 2.0, 3.5, 4.5, 2.0, 4.0, 2.0, 4.5, 3.5, 2.0, 1.5, 4.0}),
		Name:         "Temperley",
	}
}

func normalized(profile []float64) []float64 {
	total := floats.Sum(profile)
	if total <= 0 {
		return profile
	}
	scaled := make([]float64, len(profile))
	for i, v := range profile {
		scaled[i] = v / total
	}
	return scaled
}

// Detect estimates the key of a note sequence. Empty input yields C major
// with zero confidence rather than an error.
func (e *Estimator) Detect(notes []theory.Note) Key {
	if len(notes) == 0 {
		return Key{Tonic: "C", Scale: ScaleMajor, Confidence: 0}
	}

	distribution, present := e.pitchClassDistribution(notes)

	profile := e.profiles[e.params.Profile]
	if profile == nil {
		profile = e.profiles[KeyProfileKrumhansl]
	}

	bestTonic := 0
	bestCorrelation := -1.0
	bestScale := ScaleMajor

	for tonic := 0; tonic < 12; tonic++ {
		majorCorr := correlate(distribution, profile.MajorProfile, tonic)
		if majorCorr > bestCorrelation {
			bestCorrelation = majorCorr
			bestTonic = tonic
			bestScale = ScaleMajor
		}

		minorCorr := correlate(distribution, profile.MinorProfile, tonic)
		if minorCorr > bestCorrelation {
			bestCorrelation = minorCorr
			bestTonic = tonic
			bestScale = ScaleNaturalMinor
		}
	}

	if e.params.RefineModes {
		bestScale = refineScale(bestScale, bestTonic, present)
	}

	key := Key{
		Tonic:      theory.PitchClassName(bestTonic),
		Scale:      bestScale,
		Confidence: bestCorrelation,
	}

	logging.Debug("estimated key", logging.Fields{
		"key":        key.String(),
		"confidence": key.Confidence,
	})

	return key
}

// pitchClassDistribution builds a duration-weighted, normalized 12-bin
// histogram, plus the set of pitch classes that occur at all. Unparsable
// pitches are skipped.
func (e *Estimator) pitchClassDistribution(notes []theory.Note) ([]float64, map[int]bool) {
	bins := make([]float64, 12)
	present := make(map[int]bool)

	for _, note := range notes {
		class, err := note.PitchClass()
		if err != nil {
			continue
		}
		weight := note.Duration
		if weight <= 0 {
			continue
		}
		bins[class] += weight
		present[class] = true
	}

	total := floats.Sum(bins)
	if total > 0 {
		for i := range bins {
			bins[i] /= total
		}
	}

	return bins, present
}

// correlate scores a distribution against a profile rotated to a tonic:
// the dot product of distribution[i] and profile[(i - rotation) mod 12]
func correlate(distribution, profile []float64, rotation int) float64 {
	rotated := make([]float64, 12)
	for i := range rotated {
		rotated[i] = profile[((i-rotation)%12+12)%12]
	}
	return floats.Dot(distribution, rotated)
}

// refineScale promotes a provisional major/minor classification to a mode
// when characteristic tones are in the melody. Checks run in a fixed
// order; the first match wins.
func refineScale(provisional ScaleType, tonic int, present map[int]bool) ScaleType {
	has := func(interval int) bool {
		return present[(tonic+interval)%12]
	}

	switch provisional {
	case ScaleNaturalMinor:
		switch {
		case has(8): // minor sixth
			return ScaleDorian
		case has(11): // major seventh
			return ScaleMelodicMinor
		case has(3) && has(6): // augmented-second gap
			return ScaleHarmonicMinor
		}
	case ScaleMajor:
		switch {
		case has(6): // raised fourth
			return ScaleLydian
		case has(10): // flat seventh
			return ScaleMixolydian
		}
	}

	return provisional
}

// IsChordInKey reports whether a chord is diatonic to the key. Strict
// mode requires the quality built on that degree to match as well.
func (e *Estimator) IsChordInKey(chord theory.Chord, key Key, strict bool) bool {
	rootClass, err := chord.RootClass()
	if err != nil {
		return false
	}
	tonic, err := theory.PitchClassIndex(key.Tonic)
	if err != nil {
		return false
	}

	degrees := ScaleDegrees(tonic, key.Scale)
	inScale := false
	for _, degree := range degrees {
		if degree == rootClass {
			inScale = true
			break
		}
	}
	if !inScale {
		return false
	}
	if !strict {
		return true
	}

	diatonic, err := DiatonicChords(key)
	if err != nil {
		return false
	}
	for _, d := range diatonic {
		dClass, _ := d.RootClass()
		if dClass == rootClass && d.Quality == chord.Quality {
			return true
		}
	}
	return false
}

// NearestDiatonic substitutes a chord with its closest diatonic
// equivalent. A chord whose root and quality already match a diatonic
// chord is returned unchanged; otherwise the scale degree at minimal
// circular semitone distance from the chord's root wins.
func (e *Estimator) NearestDiatonic(chord theory.Chord, key Key) theory.Chord {
	if e.IsChordInKey(chord, key, true) {
		return chord
	}

	rootClass, err := chord.RootClass()
	if err != nil {
		return chord
	}
	tonic, err := theory.PitchClassIndex(key.Tonic)
	if err != nil {
		return chord
	}

	degrees := ScaleDegrees(tonic, key.Scale)
	closest := degrees[0]
	closestDistance := circularDistance(degrees[0], rootClass)
	for _, degree := range degrees[1:] {
		if d := circularDistance(degree, rootClass); d < closestDistance {
			closestDistance = d
			closest = degree
		}
	}

	diatonic, derr := DiatonicChords(key)
	if derr != nil {
		return chord
	}
	for _, d := range diatonic {
		dClass, _ := d.RootClass()
		if dClass == closest {
			return d
		}
	}

	return theory.NewChord(theory.PitchClassName(closest), "maj7")
}
