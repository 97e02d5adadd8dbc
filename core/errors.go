package core

import (
	goerrs "errors"

	"github.com/pkg/errors"
)

// ErrInvalidID is returned when a provided identifier is not a well-formed
// document id.
var ErrInvalidID = goerrs.New("invalid id")

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

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

// ConflictError indicates a uniqueness violation: the request was well-formed
// but an equivalent record already exists.
type ConflictError struct {
	Err   error
	Field string
}

func NewConflictError(err error, field ...string) error {
	cerr := &ConflictError{Err: err}
	if len(field) > 0 {
		cerr.Field = field[0]
	}
	return cerr
}

func (err ConflictError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// NoOpError indicates a well-formed request that had nothing to do.
type NoOpError struct {
	Err error
}

func NewNoOpError(err error) error {
	return &NoOpError{err}
}

func (err NoOpError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// UpstreamError indicates an invalid or failed response from an external
// service. It is never used for data-consistency failures.
type UpstreamError struct {
	Msg string
	Err error
}

func NewUpstreamError(msg string, err error) error {
	return &UpstreamError{Msg: msg, Err: err}
}

func (err UpstreamError) Error() string {
	if err.Err == nil {
		return err.Msg
	}
	return err.Msg + ": " + err.Err.Error()
}

func (err UpstreamError) Unwrap() error { return err.Err }

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
