// Package shared contains common domain types and errors used across all
// domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation   = errors.New("validation error")
	ErrInvalidID    = errors.New("invalid ID")
	ErrInvalidInput = errors.New("invalid input")
	ErrEmptyValue   = errors.New("value cannot be empty")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrExpired         = errors.New("expired")

	// Allocation errors
	ErrConflict     = errors.New("conflicting claim")
	ErrInsufficient = errors.New("insufficient resources")

	// Authorization errors
	ErrForbidden = errors.New("forbidden")

	// Storage errors. Persistence faults are wrapped into this kind so that
	// callers never see driver-level detail.
	ErrStorage = errors.New("storage error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "topic", "reservation", "group"
	Op      string // Operation that failed, e.g., "Reserve", "Assign"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Topic domain errors
var (
	ErrTopicNotFound    = NewDomainError("topic", "Find", ErrNotFound, "topic not found")
	ErrTopicNotFree     = NewDomainError("topic", "Reserve", ErrInvalidState, "topic is not free")
	ErrTopicAssigned    = NewDomainError("topic", "Assign", ErrInvalidState, "topic is already assigned")
	ErrWorkTypeNotFound = NewDomainError("topic", "FindWorkType", ErrNotFound, "work type not found")
)

// Reservation domain errors
var (
	ErrReservationNotFound = NewDomainError("reservation", "Find", ErrNotFound, "reservation not found")
	ErrReservationExists   = NewDomainError("reservation", "Create", ErrConflict, "topic already reserved by another user")
	ErrReservationExpired  = NewDomainError("reservation", "Check", ErrExpired, "reservation has expired")
	ErrNotReservationOwner = NewDomainError("reservation", "Check", ErrForbidden, "topic is not reserved by this user")
)

// Group domain errors
var (
	ErrGroupNotFound      = NewDomainError("group", "Find", ErrNotFound, "group not found")
	ErrStudentNotFound    = NewDomainError("group", "FindStudent", ErrNotFound, "student not found")
	ErrStudentHasTopic    = NewDomainError("group", "CheckStudent", ErrConflict, "student already holds a topic")
	ErrUserNotFound       = NewDomainError("group", "FindUser", ErrNotFound, "user not found")
	ErrUserAlreadyExists  = NewDomainError("group", "CreateUser", ErrAlreadyExists, "user already exists")
	ErrNotEnoughTopics    = NewDomainError("group", "Distribute", ErrInsufficient, "not enough free topics for all students")
	ErrGroupAlreadyExists = NewDomainError("group", "Create", ErrAlreadyExists, "group already exists")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a conflicting-claim error.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidState checks if the error is an illegal-state error.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) || errors.Is(err, ErrStateTransition)
}

// IsExpired checks if the error is a TTL expiry error.
func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}

// IsForbidden checks if the error is an authorization error.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsInsufficient checks if the error is an insufficient-resources error.
func IsInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficient)
}

// IsStorage checks if the error is an internal storage fault.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
