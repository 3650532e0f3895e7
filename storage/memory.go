package storage

import (
	"context"
	"sync"

	"hotel-booking-server/models"
)

// MemoryStore keeps everything in process. A single mutex makes each
// TransactWrite atomic with respect to every other call.
type MemoryStore struct {
	mu           sync.Mutex
	availability map[string]map[models.RoomType]string
	bookings     map[string]models.Booking
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		availability: map[string]map[models.RoomType]string{},
		bookings:     map[string]models.Booking{},
	}
}

func (s *MemoryStore) GetAvailability(ctx context.Context, date string) (*models.AvailabilityRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts, ok := s.availability[date]
	if !ok {
		return nil, ErrNotFound
	}
	rec := &models.AvailabilityRecord{Date: date, Counts: make(map[models.RoomType]string, len(counts))}
	for rt, v := range counts {
		rec.Counts[rt] = v
	}
	return rec, nil
}

func (s *MemoryStore) GetBooking(ctx context.Context, bookingID string) (*models.Booking, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.bookings[bookingID]
	if !ok {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (s *MemoryStore) PutAvailability(ctx context.Context, record models.AvailabilityRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.RoomType]string, len(record.Counts))
	for rt, v := range record.Counts {
		counts[rt] = v
	}
	s.availability[record.Date] = counts
	return nil
}

func (s *MemoryStore) TransactWrite(ctx context.Context, items []TransactItem) error {
	if err := validateItems(items); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reasons := make([]CancellationReason, len(items))
	failed := false
	for i, item := range items {
		reasons[i] = ReasonNone
		switch {
		case item.Update != nil:
			u := item.Update
			current, ok := s.availability[u.Date][u.RoomType]
			if !ok || current != u.Expected {
				reasons[i] = ReasonConditionalCheckFailed
				failed = true
			}
		case item.Put != nil:
			if _, exists := s.bookings[item.Put.Booking.BookingID]; exists {
				reasons[i] = ReasonConditionalCheckFailed
				failed = true
			}
		}
	}
	if failed {
		return &TransactionCanceledError{Reasons: reasons}
	}

	for _, item := range items {
		if u := item.Update; u != nil {
			s.availability[u.Date][u.RoomType] = u.Value
			continue
		}
		s.bookings[item.Put.Booking.BookingID] = *item.Put.Booking
	}
	return nil
}

// BookingCount reports how many bookings have been committed.
func (s *MemoryStore) BookingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bookings)
}

func (s *MemoryStore) Close() error { return nil }
