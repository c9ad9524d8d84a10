package types

import (
	"fmt"
	"log/slog"
)

// ErrorCode classifies failures from the data-access layer. Codes are
// stable strings: callers branch on them with errors.As plus a comparison,
// never by matching message text.
type ErrorCode string

// Every code this module produces. Use the constants, not the raw strings.
const (
	// Caller input that cannot be used as given.
	ErrCodeValidationInvalidFilter ErrorCode = "validation_invalid_filter"
	ErrCodeValidationMissingField  ErrorCode = "validation_missing_required_field"

	// Lookups that matched nothing. A miss is not a database failure,
	// so it never shares a code with internal_database_error.
	ErrCodeNotFoundUser        ErrorCode = "not_found_user"
	ErrCodeNotFoundProperty    ErrorCode = "not_found_property"
	ErrCodeNotFoundReservation ErrorCode = "not_found_reservation"

	// Unique-constraint collisions surfaced as domain conflicts.
	ErrCodeConflictEmail ErrorCode = "conflict_email_exists"

	// Failures of the module or the database itself.
	ErrCodeInternalDB         ErrorCode = "internal_database_error"
	ErrCodeInternalUnexpected ErrorCode = "internal_unexpected_error"
)

// AppError carries a stable code, a human-readable message, an optional
// wrapped cause, and optional structured details. Every error that crosses
// a package boundary in this module is an *AppError.
type AppError struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Err     error          `json:"-"`
	Details map[string]any `json:"details,omitempty"`
}

// NewAppError builds an *AppError wrapping err, which may be nil.
func NewAppError(code ErrorCode, msg string, err error) *AppError {
	return &AppError{Code: code, Message: msg, Err: err}
}

// NewAppErrorWithDetails is NewAppError plus structured details for the caller.
func NewAppErrorWithDetails(code ErrorCode, msg string, err error, details map[string]any) *AppError {
	return &AppError{Code: code, Message: msg, Err: err, Details: details}
}

// Error renders as "code: message".
func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy with extra merged over the existing details.
// The receiver is left untouched; keys in extra win on collision.
func (e *AppError) WithDetails(extra map[string]any) *AppError {
	out := &AppError{Code: e.Code, Message: e.Message, Err: e.Err}
	out.Details = make(map[string]any, len(e.Details)+len(extra))
	for k, v := range e.Details {
		out.Details[k] = v
	}
	for k, v := range extra {
		out.Details[k] = v
	}
	return out
}

// LogValue renders the error as a structured group so slog output keeps the
// code and cause separate instead of flattening everything into one string.
func (e *AppError) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if e.Err != nil {
		attrs = append(attrs, slog.String("cause", e.Err.Error()))
	}
	return slog.GroupValue(attrs...)
}
