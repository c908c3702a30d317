package reporting

import (
	"context"
	"errors"
	"fmt"

	"github.com/linesmerrill/city-reporter-api/databases"
)

// Kind classifies a failure so callers can react without parsing messages
type Kind string

// failure kinds
const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindDependency  Kind = "dependency"
	KindPersistence Kind = "persistence"
	KindUnknown     Kind = "unknown"
)

var (
	// ErrInvalidStatus is wrapped when a status value is outside its enumeration
	ErrInvalidStatus = errors.New("invalid status")
	// ErrPhotoRequired is wrapped when an upload has no bytes
	ErrPhotoRequired = errors.New("photo is required")
	// ErrNoOffices is wrapped when a submission targets no office
	ErrNoOffices = errors.New("at least one office must be selected")
)

// Error is the failure type returned by every operation in this package.
// Message is safe to show to a client; Err is not.
type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of err, or KindUnknown when err did not come from
// this package
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether repeating the operation may succeed
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}

// MessageOf returns the client-safe message of err
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

func validationError(op, msg string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Message: msg, Err: err}
}

func notFoundError(op, msg string) error {
	return &Error{Kind: KindNotFound, Op: op, Message: msg}
}

func dependencyError(op, msg string, err error) error {
	return &Error{
		Kind:      KindDependency,
		Op:        op,
		Message:   msg,
		Err:       err,
		Retryable: errors.Is(err, context.DeadlineExceeded),
	}
}

func persistenceError(op, msg string, err error) error {
	return &Error{Kind: KindPersistence, Op: op, Message: msg, Err: err}
}

// storeError turns a store failure into not-found or persistence
func storeError(op, notFoundMsg string, err error) error {
	if databases.IsNotFound(err) {
		return notFoundError(op, notFoundMsg)
	}
	return persistenceError(op, "database operation failed", err)
}
