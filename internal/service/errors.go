package service

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is returned when chunking or query parameters
	// fail validation. It is rejected before any work begins.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrIndexNotFound is returned when a query arrives before any successful
	// ingest or index load.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIncompatibleIndexVersion is returned when a persisted index was
	// written by an incompatible format version.
	ErrIncompatibleIndexVersion = errors.New("incompatible index version")
	// ErrUpstreamGeneration is returned when the language model call fails or
	// times out. The request is terminal; retry policy belongs to the caller.
	ErrUpstreamGeneration = errors.New("upstream generation error")
	// ErrEvaluationParse marks a judge response that could not be parsed. It
	// never escapes the evaluator; the metric degrades to an ERROR verdict.
	ErrEvaluationParse = errors.New("evaluation parse error")
	// ErrUnsupportedFormat is returned for document types without an extractor.
	ErrUnsupportedFormat = errors.New("unsupported document format")
)

// ConfigError describes a rejected parameter with enough detail for the
// caller to self-correct. It matches ErrInvalidConfiguration under errors.Is.
type ConfigError struct {
	Param   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Param, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// WrapError wraps an error with additional context, passing nil through.
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}
