package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents stable error codes for all failure modes
type ErrorCode string

const (
	// MalformedInput indicates a trace, node-info or ground-truth record that does not parse
	MalformedInput ErrorCode = "MALFORMED_INPUT"
	// MissingGroundTruth indicates no ground-truth entry exists for the requested version
	MissingGroundTruth ErrorCode = "MISSING_GROUND_TRUTH"
	// ConfigInvalid indicates a configuration value outside its allowed domain
	ConfigInvalid ErrorCode = "CONFIG_INVALID"
	// UnsupportedFormat indicates an input file whose encoding cannot be read
	UnsupportedFormat ErrorCode = "UNSUPPORTED_FORMAT"
	// IOError indicates an input or output file could not be opened, read or written
	IOError ErrorCode = "IO_ERROR"
	// InternalError indicates unexpected error
	InternalError ErrorCode = "INTERNAL_ERROR"
)

// FixActionType represents the type of fix action
type FixActionType string

const (
	// RunCommand suggests running a command
	RunCommand FixActionType = "run-command"
	// EditInput suggests correcting an input file by hand
	EditInput FixActionType = "edit-input"
)

// FixAction represents a suggested fix for an error
type FixAction struct {
	Type        FixActionType `json:"type"`
	Command     string        `json:"command,omitempty"`
	Description string        `json:"description,omitempty"`
}

// RankError is a coded error carrying the input location it was raised at.
type RankError struct {
	Code           ErrorCode   `json:"code"`
	Message        string      `json:"message"`
	Source         string      `json:"source,omitempty"`
	Line           int         `json:"line,omitempty"`
	Column         int         `json:"column,omitempty"`
	SuggestedFixes []FixAction `json:"suggestedFixes,omitempty"`
	cause          error       // Underlying error (not exported to JSON)
}

// New creates a new RankError without location information
func New(code ErrorCode, message string, cause error) *RankError {
	return &RankError{
		Code:           code,
		Message:        message,
		SuggestedFixes: GetSuggestedFixes(code),
		cause:          cause,
	}
}

// Newf creates a new RankError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *RankError {
	return New(code, fmt.Sprintf(format, args...), nil)
}

// Malformed creates a MALFORMED_INPUT error located at source:line.
func Malformed(source string, line int, message string, cause error) *RankError {
	e := New(MalformedInput, message, cause)
	e.Source = source
	e.Line = line
	return e
}

// Error implements the error interface
func (e *RankError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if loc := e.Location(); loc != "" {
		msg = fmt.Sprintf("[%s] %s: %s", e.Code, loc, e.Message)
	}
	if e.cause != nil {
		return msg + ": " + e.cause.Error()
	}
	return msg
}

// Location renders source:line[:column], or "" when the error has no source.
func (e *RankError) Location() string {
	if e.Source == "" {
		return ""
	}
	switch {
	case e.Line > 0 && e.Column > 0:
		return fmt.Sprintf("%s:%d:%d", e.Source, e.Line, e.Column)
	case e.Line > 0:
		return fmt.Sprintf("%s:%d", e.Source, e.Line)
	default:
		return e.Source
	}
}

// Unwrap returns the underlying error
func (e *RankError) Unwrap() error {
	return e.cause
}

// AtColumn sets the column of the error location
func (e *RankError) AtColumn(col int) *RankError {
	e.Column = col
	return e
}

// HasCode reports whether err, or any error it wraps, is a RankError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var re *RankError
	if stderrors.As(err, &re) {
		return re.Code == code
	}
	return false
}

// ErrorActions maps error codes to suggested fix actions
var ErrorActions = map[ErrorCode][]FixAction{
	MalformedInput: {
		{
			Type:        EditInput,
			Description: "Fix or regenerate the record at the reported location; the file is not ingested partially",
		},
	},
	MissingGroundTruth: {
		{
			Type:        EditInput,
			Description: "Add the version to the ground-truth mapping, or use [-1] to mark it inapplicable",
		},
	},
	ConfigInvalid: {
		{
			Type:        RunCommand,
			Command:     "tracerank config show",
			Description: "Inspect the effective configuration",
		},
	},
}

// GetSuggestedFixes returns suggested fixes for an error code
func GetSuggestedFixes(code ErrorCode) []FixAction {
	if fixes, ok := ErrorActions[code]; ok {
		return fixes
	}
	return nil
}
