package gymstats

import (
	"errors"
	"fmt"
)

var (
	ErrValidation = errors.New("validation error")

	ErrNoSession       = errors.New("no workout session loaded")
	ErrSessionFinished = errors.New("workout session already finished")
	ErrEmptySession    = errors.New("workout session has no exercises")
	ErrIndexOutOfRange = errors.New("exercise index out of range")
	ErrAtLastExercise  = errors.New("already at the last exercise")
	ErrAtFirstExercise = errors.New("already at the first exercise")
)

// walkErrors are shown to the athlete as they are, without the wrapping context
var walkErrors = []error{
	ErrNoSession,
	ErrSessionFinished,
	ErrEmptySession,
	ErrIndexOutOfRange,
	ErrAtLastExercise,
	ErrAtFirstExercise,
}

const genericErrorMessage = "something went wrong, please try again"

// ValidationError is returned for malformed input detected locally,
// before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// PersistenceError is a write rejected by the backend. Message is the
// backend provided error, verbatim.
type PersistenceError struct {
	StatusCode int
	Message    string
}

func (e *PersistenceError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("backend error: status %d: %s", e.StatusCode, e.Message)
}

// TransientNetworkError means the request could not complete at all.
// Nothing is retried automatically.
type TransientNetworkError struct {
	Op  string
	Err error
}

func (e *TransientNetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %s", e.Op, e.Err)
}

func (e *TransientNetworkError) Unwrap() error {
	return e.Err
}

// UserMessage returns a message a caller can show to the athlete: the backend
// message when there is one, the validation reason, or a generic message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr.Error()
	}

	var persistenceErr *PersistenceError
	if errors.As(err, &persistenceErr) && persistenceErr.Message != "" {
		return persistenceErr.Message
	}

	var networkErr *TransientNetworkError
	if errors.As(err, &networkErr) {
		return "network unavailable, please try again"
	}

	for _, sentinel := range walkErrors {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}

	return genericErrorMessage
}
