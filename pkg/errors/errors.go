// Package errors provides the typed errors used across legistry. They make
// failure modes programmatically checkable: store failures, malformed
// snapshots, and batch-level aborts are distinct types, while "not found"
// and "ambiguous" conditions are sentinels resolvers report without raising.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's chain matches target.
var Is = errors.Is

// As finds the first error in err's chain that matches target.
var As = errors.As

// Common sentinel errors.
var (
	// ErrNotFound indicates that a requested record was not found.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a record with the same key exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid.
	ErrInvalidInput = errors.New("invalid input")
)

// NotFoundError reports a missing record.
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports invalid input to an operation.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// SnapshotError reports a malformed scraped snapshot. The record is skipped
// and the batch continues.
type SnapshotError struct {
	Kind    string // legislator, committee, bill, vote
	Field   string
	Message string
}

// Error implements the error interface.
func (e *SnapshotError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("malformed %s snapshot: field %s: %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("malformed %s snapshot: %s", e.Kind, e.Message)
}

// Is implements errors.Is support.
func (e *SnapshotError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewSnapshotError creates a new SnapshotError.
func NewSnapshotError(kind, field, message string) *SnapshotError {
	return &SnapshotError{Kind: kind, Field: field, Message: message}
}

// StoreError reports a failure in the underlying document store.
type StoreError struct {
	Operation string // get, put, insert, find, increment
	Kind      string
	ID        string
	Err       error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s of %s %s failed: %v", e.Operation, e.Kind, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s of %s failed: %v", e.Operation, e.Kind, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(operation, kind, id string, err error) *StoreError {
	return &StoreError{Operation: operation, Kind: kind, ID: id, Err: err}
}

// BatchError aborts a whole jurisdiction batch, e.g. when jurisdiction
// metadata is missing. Already-committed records stay committed.
type BatchError struct {
	Jurisdiction string
	Phase        string // legislators, committees, bills
	Err          error
}

// Error implements the error interface.
func (e *BatchError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("batch for %s aborted during %s phase: %v", e.Jurisdiction, e.Phase, e.Err)
	}
	return fmt.Sprintf("batch for %s aborted: %v", e.Jurisdiction, e.Err)
}

// Unwrap implements errors.Unwrap.
func (e *BatchError) Unwrap() error {
	return e.Err
}

// NewBatchError creates a new BatchError.
func NewBatchError(jurisdiction, phase string, err error) *BatchError {
	return &BatchError{Jurisdiction: jurisdiction, Phase: phase, Err: err}
}

// ConfigError reports a configuration problem.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{Component: component, Message: message, Err: err}
}

// ParseError reports a failure parsing metadata or snapshot files.
type ParseError struct {
	Format  string // json, yaml
	File    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("parse error in %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError.
func NewParseError(format, file, message string, err error) *ParseError {
	return &ParseError{Format: format, File: file, Message: message, Err: err}
}

// Helper functions for error checking.

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if an error is a validation or malformed-snapshot
// error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// Helper wrapping functions for common patterns.

// WrapStore wraps an error as a StoreError.
func WrapStore(operation, kind, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewStoreError(operation, kind, id, err)
}

// WrapParse wraps an error as a ParseError.
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}

// WrapBatch wraps an error as a BatchError.
func WrapBatch(jurisdiction, phase string, err error) error {
	if err == nil {
		return nil
	}
	return NewBatchError(jurisdiction, phase, err)
}
