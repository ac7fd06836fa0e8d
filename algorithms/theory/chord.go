package theory

import (
	"fmt"
	"sort"
	"strings"
)

// Chord is an immutable chord symbol: a root pitch-class name, a quality
// ("maj7", "m7", "7", "m7b5", "dim7", ...) and an optional set of tension
// labels ("9", "#11", "13", ...). Two chords with the same root and
// quality but different extension sets are distinct.
type Chord struct {
	Root       string   `json:"root"`
	Quality    string   `json:"quality"`
	Extensions []string `json:"extensions,omitempty"`
}

// qualityAliases maps alternative quality spellings found on lead sheets
// to the canonical form
var qualityAliases = map[string]string{
	"Δ":     "maj7",
	"ma7":   "maj7",
	"MA7":   "maj7",
	"M7":    "maj7",
	"mi7":   "m7",
	"-7":    "m7",
	"min7":  "m7",
	"ø":     "m7b5",
	"hdim7": "m7b5",
	"o":     "dim7",
	"dim":   "dim7",
}

// NewChord creates a chord from a root name, quality and optional
// extensions
func NewChord(root, quality string, extensions ...string) Chord {
	var exts []string
	if len(extensions) > 0 {
		exts = make([]string, len(extensions))
		copy(exts, extensions)
	}
	return Chord{Root: root, Quality: quality, Extensions: exts}
}

// Normalize returns the chord with its quality rewritten to the canonical
// spelling
func (c Chord) Normalize() Chord {
	if canonical, ok := qualityAliases[c.Quality]; ok {
		return Chord{Root: c.Root, Quality: canonical, Extensions: c.Extensions}
	}
	return c
}

// Simplify returns the chord with extensions stripped, for coarse analysis
func (c Chord) Simplify() Chord {
	return Chord{Root: c.Root, Quality: c.Quality}
}

// Equal reports structural equality. Extensions compare as an unordered
// set.
func (c Chord) Equal(other Chord) bool {
	if c.Root != other.Root || c.Quality != other.Quality {
		return false
	}
	if len(c.Extensions) != len(other.Extensions) {
		return false
	}
	return c.extensionKey() == other.extensionKey()
}

// Key returns a canonical encoding ("root:quality:ext,ext") suitable as a
// map key and stable across extension ordering. ParseChordKey is its
// inverse.
func (c Chord) Key() string {
	return c.Root + ":" + c.Quality + ":" + c.extensionKey()
}

func (c Chord) extensionKey() string {
	if len(c.Extensions) == 0 {
		return ""
	}
	sorted := make([]string, len(c.Extensions))
	copy(sorted, c.Extensions)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// ParseChordKey decodes the canonical encoding produced by Key
func ParseChordKey(key string) (Chord, error) {
	parts := strings.SplitN(key, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
		return Chord{}, fmt.Errorf("%w: malformed chord key %q", ErrInvalidArgument, key)
	}
	if _, err := PitchClassIndex(parts[0]); err != nil {
		return Chord{}, err
	}
	chord := Chord{Root: parts[0], Quality: parts[1]}
	if parts[2] != "" {
		chord.Extensions = strings.Split(parts[2], ",")
	}
	return chord, nil
}

// String renders the chord the way it appears on a chart, e.g. "Dm7" or
// "G7(b9,13)"
func (c Chord) String() string {
	base := c.Root + c.Quality
	if len(c.Extensions) == 0 {
		return base
	}
	return base + "(" + strings.Join(c.Extensions, ",") + ")"
}

// RootClass returns the pitch class of the chord root
func (c Chord) RootClass() (int, error) {
	return PitchClassIndex(c.Root)
}

// ParseChord parses a common chord symbol such as "Dm7", "Cmaj7",
// "Bm7b5" or "G7". Quality suffixes are matched longest-first; a bare
// note name is read as a major seventh chord.
func ParseChord(symbol string) (Chord, error) {
	if symbol == "" {
		return Chord{}, fmt.Errorf("%w: empty chord symbol", ErrInvalidArgument)
	}

	// Longest-first so "m7b5" wins over "m7" and "maj7" over "7"
	suffixes := []string{"m7b5", "hdim7", "maj7", "dim7", "min7", "m7", "-7", "dim", "ø", "Δ", "7"}

	for _, suffix := range suffixes {
		if strings.HasSuffix(symbol, suffix) && len(symbol) > len(suffix) {
			root := strings.TrimSuffix(symbol, suffix)
			if _, err := PitchClassIndex(root); err != nil {
				continue
			}
			return Chord{Root: root, Quality: suffix}.Normalize(), nil
		}
	}

	if _, err := PitchClassIndex(symbol); err == nil {
		return Chord{Root: symbol, Quality: "maj7"}, nil
	}

	return Chord{}, fmt.Errorf("%w: unparsable chord symbol %q", ErrInvalidArgument, symbol)
}
