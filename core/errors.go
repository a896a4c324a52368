package core

import "github.com/pkg/errors"

// FieldError ties a validation message to the struct field it concerns.
type FieldError struct {
	Field string
	Error string
}

// ValidationError carries a request-level error and/or per-field errors.
// The HTTP layer renders it as a 400 with a field-keyed body.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// shutdown signals an unrecoverable integrity problem. The server treats it
// as a request to stop gracefully rather than keep serving.
type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
