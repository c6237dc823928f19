package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a quiz session id is unknown.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionNotStarted is returned for operations that require Start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionCompleted is returned when mutating a terminal session.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrSessionNotCompleted is returned when the final score is read early.
	ErrSessionNotCompleted = errors.New("quiz session not completed")
	// ErrDatasetNotFound indicates the reference dataset could not be loaded.
	ErrDatasetNotFound = errors.New("dataset not found")
	// ErrDatasetEmpty indicates the dataset loaded but holds no items;
	// quiz setup cannot proceed.
	ErrDatasetEmpty = errors.New("dataset is empty")
)

// FieldError is a single user-correctable problem with a submission field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects a submission before any persistence happens.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+": "+f.Message)
	}
	return "invalid submission: " + strings.Join(msgs, "; ")
}

// StorageError is an opaque persistence failure. The transport layer
// maps it to a generic response; it is never retried internally.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
