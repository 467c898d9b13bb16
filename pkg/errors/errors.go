package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Severity classifies how a notice derived from the error is rendered.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Error represents a typed domain error with HTTP and notice awareness.
type Error struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Status   int      `json:"status"`
	Severity Severity `json:"-"`
	Err      error    `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target carries the same code, so sentinel comparisons
// survive Clone and Wrap.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e != nil && other != nil && e.Code == other.Code
}

// New creates a new Error instance.
func New(code string, status int, severity Severity, message string) *Error {
	return &Error{Code: code, Status: status, Severity: severity, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Severity: SeverityDanger, Message: message, Err: err}
}

// Predefined errors covering the ledger's failure taxonomy.
var (
	ErrValidation          = New("VALIDATION_ERROR", http.StatusBadRequest, SeverityDanger, "validation failed")
	ErrNotFound            = New("NOT_FOUND", http.StatusNotFound, SeverityDanger, "resource not found")
	ErrDuplicateKey        = New("DUPLICATE_KEY", http.StatusConflict, SeverityDanger, "register number already exists")
	ErrWorkstationOccupied = New("WORKSTATION_OCCUPIED", http.StatusConflict, SeverityWarning, "system is already occupied")
	ErrAlreadyCheckedIn    = New("ALREADY_CHECKED_IN", http.StatusConflict, SeverityWarning, "student is already inside the lab")
	ErrNoOpenEntry         = New("NO_OPEN_ENTRY", http.StatusConflict, SeverityInfo, "no open entry found")
	ErrInvalidCredentials  = New("INVALID_CREDENTIALS", http.StatusUnauthorized, SeverityDanger, "invalid username or password")
	ErrUnauthorized        = New("UNAUTHORIZED", http.StatusUnauthorized, SeverityWarning, "please log in to continue")
	ErrInternal            = New("INTERNAL_ERROR", http.StatusInternalServerError, SeverityDanger, "internal server error")
	ErrCacheMiss           = New("CACHE_MISS", http.StatusNotFound, SeverityInfo, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}
