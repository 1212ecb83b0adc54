package errors

import (
	stderrors "errors"
	"fmt"
	"strconv"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Field   string // Offending input, if any
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches on error code so callers can use errors.Is against the
// sentinel values below.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Field:   appErr.Field,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// IsAppError checks if an error is (or wraps) an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// GetField returns the offending input name, or "" when none was recorded
func GetField(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Field
	}
	return ""
}

// IsCode reports whether any error in the chain carries code
func IsCode(err error, code string) bool {
	return stderrors.Is(err, &AppError{Code: code})
}

// Predefined error codes
const (
	CodeConfigInvalid    = "CONFIG_INVALID"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeInternalError    = "INTERNAL_ERROR"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeInvalidParameter = "INVALID_PARAMETER"
	CodeDivisionByZero   = "DIVISION_BY_ZERO"
)

// Sentinels for errors.Is
var (
	ErrInvalidParameter = New(CodeInvalidParameter, "invalid parameter")
	ErrDivisionByZero   = New(CodeDivisionByZero, "division by zero")
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// InvalidParameter reports an out-of-domain numeric input, e.g.
// "invalid parameter alpha=1.5: must be in (0, 1)"
func InvalidParameter(field string, value float64, constraint string) *AppError {
	return &AppError{
		Code:    CodeInvalidParameter,
		Message: fmt.Sprintf("invalid parameter %s=%s: %s", field, strconv.FormatFloat(value, 'g', -1, 64), constraint),
		Field:   field,
	}
}

// DivisionByZero reports a degenerate denominator such as a zero standard error
func DivisionByZero(field, message string) *AppError {
	return &AppError{
		Code:    CodeDivisionByZero,
		Message: fmt.Sprintf("%s is zero: %s", field, message),
		Field:   field,
	}
}
