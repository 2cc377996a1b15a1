// Package redactqcerr defines RedactQC's error taxonomy (spec.md §7).
// Each sentinel is surfaced, recorded, or suppressed by its callers per the
// propagation policy described there.
package redactqcerr

import "errors"

// Code identifies a RedactQC error category.
type Code string

const (
	CodeInvalidPath   Code = "INVALID_PATH"
	CodeBusy          Code = "BUSY"
	CodeNotFound      Code = "NOT_FOUND"
	CodeExtractFail   Code = "EXTRACT_FAIL"
	CodeInternalError Code = "INTERNAL_ERROR"
	CodeCancelled     Code = "CANCELLED"
	CodeReportFail    Code = "REPORT_FAIL"
)

// Error is a structured RedactQC error carrying a stable Code for callers
// that need to branch on category (e.g. the HTTP layer mapping to a status).
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// Is allows errors.Is(err, redactqcerr.ErrBusy) style comparisons against
// the sentinel values below.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons. Construct wrapped instances with the
// New* constructors below; compare with errors.Is(err, redactqcerr.ErrBusy).
var (
	ErrInvalidPath   = &Error{Code: CodeInvalidPath, Message: "invalid path"}
	ErrBusy          = &Error{Code: CodeBusy, Message: "store busy"}
	ErrNotFound      = &Error{Code: CodeNotFound, Message: "not found"}
	ErrExtractFail   = &Error{Code: CodeExtractFail, Message: "extraction failed"}
	ErrInternalError = &Error{Code: CodeInternalError, Message: "internal error"}
	ErrCancelled     = &Error{Code: CodeCancelled, Message: "cancelled"}
	ErrReportFail    = &Error{Code: CodeReportFail, Message: "report generation failed"}
)

func NewInvalidPath(path string) *Error {
	return &Error{Code: CodeInvalidPath, Message: "invalid source path: " + path}
}

func NewBusy(op string) *Error {
	return &Error{Code: CodeBusy, Message: "store busy: " + op + " timed out waiting for writer lock"}
}

func NewNotFound(kind, id string) *Error {
	return &Error{Code: CodeNotFound, Message: kind + " not found: " + id}
}

func NewExtractFail(detail string) *Error {
	return &Error{Code: CodeExtractFail, Message: "extraction failed: " + detail}
}

func NewInternalError(detail string) *Error {
	return &Error{Code: CodeInternalError, Message: "internal error: " + detail}
}

func NewReportFail(detail string) *Error {
	return &Error{Code: CodeReportFail, Message: "report generation failed: " + detail}
}

// CodeOf extracts the Code from err if it (or something it wraps) is a
// *Error, otherwise returns "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
