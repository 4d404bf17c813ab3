package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoTextExtracted   = errors.New("no text could be extracted from the file")
	ErrProvider          = errors.New("model provider failure")
	ErrNotStructured     = errors.New("result is not structured")
)

// AppError carries a stable code and a user-facing message over a cause.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil || isSentinel(e.Cause) {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Cause)
}

func isSentinel(err error) bool {
	switch err {
	case ErrInvalidInput, ErrUnsupportedFormat, ErrNoTextExtracted, ErrProvider, ErrNotStructured:
		return true
	}
	return false
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// UnsupportedFormat reports an extension outside the allow-list.
func UnsupportedFormat(ext string) *AppError {
	return NewAppError("unsupported_format", fmt.Sprintf("unsupported file format: %s", ext), ErrUnsupportedFormat)
}

// InvalidInput reports a request that failed validation.
func InvalidInput(message string) *AppError {
	return NewAppError("invalid_input", message, ErrInvalidInput)
}
