// Package errs defines the error taxonomy shared by the mapper, store, and
// pipeline layers.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Use errors.Is against these, not string comparison.
var (
	// ErrRecordNotFound means a SELECT by id or hash returned no row.
	ErrRecordNotFound = errors.New("record not found")
	// ErrColumnNotFound means a required column was absent from a row image.
	ErrColumnNotFound = errors.New("column not found")
	// ErrLocked means a record is already locked by another worker. Never
	// surfaced to the store or the log; callers retry locally.
	ErrLocked = errors.New("record locked")
	// ErrParse means a subscription frame failed to decode.
	ErrParse = errors.New("parse error")
	// ErrChecksum means a trit conversion failed.
	ErrChecksum = errors.New("checksum error")
	// ErrTime means the timestamp of a frame could not be normalized.
	ErrTime = errors.New("time error")
)

// StoreError wraps a driver-level error encountered while executing a
// statement against the relational store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Store wraps err as a StoreError tagged with op. Returns nil if err is nil.
func Store(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
