package theory

import "errors"

// Error taxonomy shared by all packages in this module.
//
// ErrInvalidArgument marks a caller contract violation on an input value
// (empty melody, zero-duration note, unparsable symbol). ErrInvalidConfig
// marks a construction or call-parameter error (model order below 1,
// negative temperature, creativity outside its range). Both are wrapped
// with fmt.Errorf("...: %w", ...) at the failure site so callers can test
// with errors.Is.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
