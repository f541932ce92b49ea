// Package errors provides error handling for jolt.
//
// This package re-exports github.com/cockroachdb/errors, providing:
//   - Stack traces for debugging
//   - Error wrapping and context
//   - User-facing hints printed by the CLI
//
// Usage:
//
//	// Wrap with context
//	if err := src.Open(); err != nil {
//	    return errors.Wrap(err, "failed to open input")
//	}
//
//	// Add hints for users
//	return errors.WithHint(err, "pass a file path or pipe data on stdin")
//
//	// Check errors
//	if errors.Is(err, errors.ErrEmptyInput) {
//	    // nothing to do
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is             = crdb.Is
	IsAny          = crdb.IsAny
	As             = crdb.As
	Unwrap         = crdb.Unwrap
	UnwrapAll      = crdb.UnwrapAll
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenHints   = crdb.FlattenHints
	FlattenDetails = crdb.FlattenDetails
)

// Sentinel errors for the ingestion taxonomy.
// Use these with errors.Is(); wrap them with errors.Wrap() to add context.
var (
	// ErrDocumentParse indicates the input is not a single JSON document.
	// Recovered by falling back to line mode; never surfaced to users.
	ErrDocumentParse = New("input is not a single JSON document")

	// ErrLineParse indicates a line or reassembled block failed to parse.
	// Recovered by degrading the line to a raw-text record.
	ErrLineParse = New("line is not valid JSON")

	// ErrIngestion indicates reading the input failed; fatal.
	ErrIngestion = New("ingestion failed")

	// ErrEmptyInput indicates there was nothing to ingest
	ErrEmptyInput = New("empty input")

	// ErrInvalidRequest indicates a malformed flag, expression or config value
	ErrInvalidRequest = New("invalid request")

	// ErrNotFound indicates the requested helper or key does not exist
	ErrNotFound = New("not found")

	// ErrInvalidExpression indicates an expression failed to compile
	ErrInvalidExpression = New("invalid expression")

	// ErrHelperNotFound indicates an expression named an unregistered helper
	ErrHelperNotFound = New("helper not found")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsRecoverable reports whether err belongs to the per-document or per-line
// parse failures that ingestion absorbs instead of surfacing.
func IsRecoverable(err error) bool {
	return err != nil && IsAny(err, ErrDocumentParse, ErrLineParse)
}

// NewNotFoundError creates a not-found error with a formatted message
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrap(ErrNotFound, Newf(format, args...).Error())
}

// NewInvalidRequestError creates an invalid-request error with a formatted message
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrap(ErrInvalidRequest, Newf(format, args...).Error())
}
