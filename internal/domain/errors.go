package domain

import (
	"errors"
	"fmt"
)

// ErrVersionConflict is returned by stores when a ledger write carries a stale version.
var ErrVersionConflict = errors.New("trip version conflict")

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// InvalidSeatError means the label is not part of the trip's seat map.
type InvalidSeatError struct {
	Seat string
}

func (e InvalidSeatError) Error() string {
	if e.Seat == "" {
		return "seat label is required"
	}
	return fmt.Sprintf("seat %q does not exist on this trip", e.Seat)
}

// SeatTakenError is the benign outcome of losing a claim race.
type SeatTakenError struct {
	Seat string
}

func (e SeatTakenError) Error() string {
	return fmt.Sprintf("seat %s already booked", e.Seat)
}

// NotBookedError is returned when releasing a seat that is already free.
type NotBookedError struct {
	Seat string
}

func (e NotBookedError) Error() string {
	return fmt.Sprintf("seat %s is not booked", e.Seat)
}

type PermissionError struct {
	Msg string
}

func (e PermissionError) Error() string {
	if e.Msg == "" {
		return "permission denied"
	}
	return e.Msg
}

// StorageError wraps persistence failures. Only these are eligible for retry.
type StorageError struct {
	Op  string
	Err error
}

func (e StorageError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("storage error: %v", e.Err)
	}
	return fmt.Sprintf("storage error during %s: %v", e.Op, e.Err)
}

func (e StorageError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsInvalidSeat(err error) bool {
	var target InvalidSeatError
	return errors.As(err, &target)
}

func IsSeatTaken(err error) bool {
	var target SeatTakenError
	return errors.As(err, &target)
}

func IsNotBooked(err error) bool {
	var target NotBookedError
	return errors.As(err, &target)
}

func IsPermission(err error) bool {
	var target PermissionError
	return errors.As(err, &target)
}

func IsStorage(err error) bool {
	var target StorageError
	return errors.As(err, &target)
}
