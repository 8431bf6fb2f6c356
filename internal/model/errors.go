package model

import (
	"errors"
	"fmt"
)

// ErrorKind is the machine-readable class of an engine error.
type ErrorKind string

const (
	ErrKindValidation  ErrorKind = "validation"
	ErrKindPersistence ErrorKind = "persistence"
	ErrKindCompletion  ErrorKind = "completion"
	ErrKindUnknown     ErrorKind = "unknown"
)

// ValidationError reports bad caller input. Never retried.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation: " + e.Msg
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// Kind returns ErrKindValidation.
func (e *ValidationError) Kind() ErrorKind { return ErrKindValidation }

// PersistenceError reports a Storage failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Kind returns ErrKindPersistence.
func (e *PersistenceError) Kind() ErrorKind { return ErrKindPersistence }

// CompletionReason subdivides completion failures.
type CompletionReason string

const (
	ReasonRateLimit CompletionReason = "rate_limit"
	ReasonTimeout   CompletionReason = "timeout"
	ReasonAuth      CompletionReason = "auth"
	ReasonMalformed CompletionReason = "malformed_response"
	ReasonProvider  CompletionReason = "provider"
	ReasonCanceled  CompletionReason = "canceled"
)

// CompletionError reports an external generation failure.
type CompletionError struct {
	Reason CompletionReason
	Err    error
}

func (e *CompletionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("completion: %s", e.Reason)
	}
	return fmt.Sprintf("completion: %s: %v", e.Reason, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Kind returns ErrKindCompletion.
func (e *CompletionError) Kind() ErrorKind { return ErrKindCompletion }

// Transient reports whether the failure may succeed on retry.
func (e *CompletionError) Transient() bool {
	return e.Reason == ReasonRateLimit || e.Reason == ReasonTimeout
}

// KindOf returns the error kind of the first typed error in err's chain.
func KindOf(err error) ErrorKind {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ErrKindUnknown
}
