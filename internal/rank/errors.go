package rank

import (
	"errors"
	"fmt"
)

// Configuration errors, reported once while building a Ranker
var (
	ErrUnknownExtractor       = errors.New("unknown extractor")
	ErrUnknownNormalizer      = errors.New("unknown normalizer")
	ErrUnexpectedParameters   = errors.New("extractor does not expect these parameters")
	ErrMissingParameters      = errors.New("extractor requires parameters")
	ErrInvalidParameter       = errors.New("invalid extractor parameter")
	ErrIncompatibleNormalizer = errors.New("normalizer does not accept the extractor's scores")
)

// Data errors, reported per comparison
var (
	ErrMissingChangeDate = errors.New("record has no qualifying CAT field and no 005 field")
	ErrNotNumeric        = errors.New("score is not numeric")
	ErrVectorLength      = errors.New("vector length mismatch")
)

// ConfigError locates a configuration error at a feature.
//
// The error kind can be tested with errors.Is against the sentinels above.
type ConfigError struct {
	Feature int
	Name    string
	Err     error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("feature %d (%s): %v", e.Feature, e.Name, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }
