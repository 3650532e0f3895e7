package reservation

import (
	"errors"
	"fmt"
	"strings"

	"hotel-booking-server/models"
	"hotel-booking-server/storage"
)

type Kind int

const (
	KindValidation Kind = iota + 1
	KindMissingAvailability
	KindInsufficientAvailability
	KindConflict
	KindDataIntegrity
	KindBackend
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "ValidationError"
	case KindMissingAvailability:
		return "MissingAvailabilityError"
	case KindInsufficientAvailability:
		return "InsufficientAvailabilityError"
	case KindConflict:
		return "ConflictError"
	case KindDataIntegrity:
		return "DataIntegrityFault"
	case KindBackend:
		return "BackendFault"
	}
	return "UnknownError"
}

var ErrTooManyNights = fmt.Errorf("numberofNights too large for a single transaction (max %d)", MaxNights)

// ValidationError reports malformed, missing or out-of-range input.
type ValidationError struct {
	Field string
	Code  string
	Msg   string
	Err   error
}

func (e *ValidationError) Error() string { return e.Msg }
func (e *ValidationError) Unwrap() error { return e.Err }
func (e *ValidationError) Kind() Kind    { return KindValidation }

// MissingAvailabilityError lists every stay date with no inventory configured
// for the requested room type.
type MissingAvailabilityError struct {
	RoomType models.RoomType
	Dates    []string
}

func (e *MissingAvailabilityError) Error() string {
	return "no availability record for some dates: " + strings.Join(e.Dates, ", ")
}
func (e *MissingAvailabilityError) Kind() Kind { return KindMissingAvailability }

type InsufficientDate struct {
	Date      string `json:"date"`
	Available int    `json:"available"`
}

type InsufficientAvailabilityError struct {
	RoomType models.RoomType
	Details  []InsufficientDate
}

func (e *InsufficientAvailabilityError) Error() string {
	parts := make([]string, len(e.Details))
	for i, d := range e.Details {
		parts[i] = fmt.Sprintf("%s (%d left)", d.Date, d.Available)
	}
	return fmt.Sprintf("insufficient %s availability: %s", e.RoomType, strings.Join(parts, ", "))
}
func (e *InsufficientAvailabilityError) Kind() Kind { return KindInsufficientAvailability }

// ConflictError means inventory changed between the pre-check and the
// commit. The whole booking can be attempted again.
type ConflictError struct {
	Reasons []storage.CancellationReason
	// RaceDetected is set when a snapshot would have gone below zero and the
	// transaction was never submitted.
	RaceDetected bool
}

func (e *ConflictError) Error() string {
	if e.RaceDetected {
		return "race detected: availability changed, please retry"
	}
	return "availability changed during booking, please retry"
}
func (e *ConflictError) Kind() Kind { return KindConflict }

// DataIntegrityFault means a stored count is not an integer.
type DataIntegrityFault struct {
	Date     string
	RoomType models.RoomType
	Value    string
}

func (e *DataIntegrityFault) Error() string {
	return fmt.Sprintf("invalid %s value %q on %s, expected stringified int", e.RoomType, e.Value, e.Date)
}
func (e *DataIntegrityFault) Kind() Kind { return KindDataIntegrity }

// BackendFault wraps a store failure unrelated to transaction conditions.
type BackendFault struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *BackendFault) Error() string {
	if e.Timeout {
		return e.Op + ": backend timed out: " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}
func (e *BackendFault) Unwrap() error { return e.Err }
func (e *BackendFault) Kind() Kind    { return KindBackend }

type kinded interface {
	Kind() Kind
}

// KindOf reports the kind of err. Errors that did not come from the engine
// count as backend faults.
func KindOf(err error) Kind {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindBackend
}

// Retryable reports whether re-running the whole booking may succeed.
func Retryable(err error) bool {
	return KindOf(err) == KindConflict
}
