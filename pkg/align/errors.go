package align

import (
	"context"
	"errors"
	"fmt"
)

// MalformedInputError reports a precondition violation inside the scorer:
// negative offsets, inverted spans, or a non-monotonic boundary set. It
// indicates a bug in an upstream collaborator, so it fails the whole
// file's analysis instead of silently producing a wrong score.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

// ParseError reports that the grammar could not parse a file. The file is
// skipped and recorded; the run continues.
type ParseError struct {
	Language string
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse failed for language %s", e.Language)
	}
	return fmt.Sprintf("parse failed for language %s: %v", e.Language, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TokenizationError reports that a tokenizer failed or returned no
// offsets for a file. The file is skipped and recorded.
type TokenizationError struct {
	Model string
	Err   error
}

func (e *TokenizationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("tokenization failed for model %s", e.Model)
	}
	return fmt.Sprintf("tokenization failed for model %s: %v", e.Model, e.Err)
}

func (e *TokenizationError) Unwrap() error { return e.Err }

// ErrorKind classifies per-file failures for the run's error list.
type ErrorKind string

const (
	KindParse          ErrorKind = "parse_error"
	KindTokenization   ErrorKind = "tokenization_error"
	KindMalformedInput ErrorKind = "malformed_input"
	KindUndefinedScore ErrorKind = "undefined_score"
	KindTimeout        ErrorKind = "timeout"
)

// FileError records one per-file failure. Per-file errors are local: each
// removes exactly one (file, model) pair from the aggregate and never
// aborts the batch.
type FileError struct {
	FileID   string    `json:"file_id"`
	Language string    `json:"language"`
	Model    string    `json:"model"`
	Kind     ErrorKind `json:"kind"`
	Message  string    `json:"message"`
}

// ClassifyError maps an error from the per-file pipeline onto its kind.
func ClassifyError(err error) ErrorKind {
	var parseErr *ParseError
	var tokErr *TokenizationError
	var malformed *MalformedInputError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.As(err, &malformed):
		return KindMalformedInput
	case errors.As(err, &parseErr):
		return KindParse
	case errors.As(err, &tokErr):
		return KindTokenization
	default:
		return KindMalformedInput
	}
}
