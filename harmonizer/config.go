package harmonizer

// Config configures progression synthesis (simplified for users)
type Config struct {
	// Order is the Markov order of the underlying transition model
	Order int `json:"order"`

	// Meter
	BeatsPerBar int `json:"beats_per_bar"`
	BeatUnit    int `json:"beat_unit"`

	// RestThreshold is the minimum rest, in beats, that splits phrases
	RestThreshold float64 `json:"rest_threshold"`

	// KeyConstraints enables diatonic substitution against the detected key
	KeyConstraints bool `json:"key_constraints"`

	// DiatonicBias scales how strongly creativity relaxes the diatonic
	// substitution: substitution probability is 1 - creativity*DiatonicBias
	DiatonicBias float64 `json:"diatonic_bias"`

	// Sampling temperature is MinTemperature + creativity*TemperatureSpan
	MinTemperature  float64 `json:"min_temperature"`
	TemperatureSpan float64 `json:"temperature_span"`

	// CadenceWindowBeats marks how far before the final phrase's end a
	// prediction point counts as cadential
	CadenceWindowBeats float64 `json:"cadence_window_beats"`
}

// DefaultConfig returns the standard configuration: an order-2 model in
// common time with key constraints on
func DefaultConfig() Config {
	return Config{
		Order:              2,
		BeatsPerBar:        4,
		BeatUnit:           4,
		RestThreshold:      1.5,
		KeyConstraints:     true,
		DiatonicBias:       0.7,
		MinTemperature:     0.1,
		TemperatureSpan:    1.9,
		CadenceWindowBeats: 2.0,
	}
}
