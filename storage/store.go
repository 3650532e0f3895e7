package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hotel-booking-server/models"
)

// MaxTransactItems bounds how many operations one TransactWrite may carry.
const MaxTransactItems = 25

var ErrNotFound = errors.New("record not found")

// Store holds both availability and booking records so that inventory
// decrements and the booking insert can commit as one atomic unit.
type Store interface {
	GetAvailability(ctx context.Context, date string) (*models.AvailabilityRecord, error)
	GetBooking(ctx context.Context, bookingID string) (*models.Booking, error)
	PutAvailability(ctx context.Context, record models.AvailabilityRecord) error
	// TransactWrite applies every item or none of them. When a condition does
	// not hold it returns a *TransactionCanceledError.
	TransactWrite(ctx context.Context, items []TransactItem) error
	Close() error
}

// TransactItem carries exactly one of Update or Put.
type TransactItem struct {
	Update *ConditionalUpdate
	Put    *ConditionalPut
}

// ConditionalUpdate sets the RoomType count on Date to Value, provided the
// stored value still equals Expected.
type ConditionalUpdate struct {
	Date     string
	RoomType models.RoomType
	Expected string
	Value    string
}

// ConditionalPut inserts Booking, provided no booking with its id exists.
type ConditionalPut struct {
	Booking *models.Booking
}

type CancellationReason string

const (
	ReasonNone                   CancellationReason = "None"
	ReasonConditionalCheckFailed CancellationReason = "ConditionalCheckFailed"
	ReasonTransactionConflict    CancellationReason = "TransactionConflict"
)

type TransactionCanceledError struct {
	Reasons []CancellationReason
}

func (e *TransactionCanceledError) Error() string {
	parts := make([]string, len(e.Reasons))
	for i, r := range e.Reasons {
		parts[i] = string(r)
	}
	return "transaction cancelled, reasons [" + strings.Join(parts, ", ") + "]"
}

// Failed returns the indexes of the items whose condition did not hold.
func (e *TransactionCanceledError) Failed() []int {
	var idx []int
	for i, r := range e.Reasons {
		if r != ReasonNone {
			idx = append(idx, i)
		}
	}
	return idx
}

func IsConditionFailure(err error) bool {
	var tce *TransactionCanceledError
	return errors.As(err, &tce)
}

func canceled(n int, reason CancellationReason) *TransactionCanceledError {
	reasons := make([]CancellationReason, n)
	for i := range reasons {
		reasons[i] = reason
	}
	return &TransactionCanceledError{Reasons: reasons}
}

func validateItems(items []TransactItem) error {
	if len(items) == 0 {
		return errors.New("transaction has no items")
	}
	if len(items) > MaxTransactItems {
		return fmt.Errorf("transaction has %d items, limit is %d", len(items), MaxTransactItems)
	}
	seen := make(map[string]bool, len(items))
	for i, item := range items {
		var key string
		switch {
		case item.Update != nil && item.Put == nil:
			if !item.Update.RoomType.Valid() {
				return fmt.Errorf("item %d: unknown room type %q", i, item.Update.RoomType)
			}
			key = "availability:" + item.Update.Date
		case item.Put != nil && item.Update == nil:
			if item.Put.Booking == nil || item.Put.Booking.BookingID == "" {
				return fmt.Errorf("item %d: booking without id", i)
			}
			key = "booking:" + item.Put.Booking.BookingID
		default:
			return fmt.Errorf("item %d: exactly one of Update or Put must be set", i)
		}
		if seen[key] {
			return fmt.Errorf("item %d: %s targeted more than once", i, key)
		}
		seen[key] = true
	}
	return nil
}
