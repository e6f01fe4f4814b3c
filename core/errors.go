package core

import "github.com/pkg/errors"

var (
	// ErrNotFound is the cause of every domain "not found" error.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the acting user may not perform an operation.
	ErrForbidden = errors.New("permission denied")
)

// NewNotFoundError returns a not-found error for the named entity; errors.Cause yields ErrNotFound.
func NewNotFoundError(entity string) error {
	return errors.Wrap(ErrNotFound, entity)
}

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

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
