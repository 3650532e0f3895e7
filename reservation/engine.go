package reservation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"hotel-booking-server/models"
	"hotel-booking-server/storage"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultTimeout = 10 * time.Second
	// readConcurrency bounds the parallel availability reads of one request.
	readConcurrency = 8
)

// Confirmation is returned for a committed booking.
type Confirmation struct {
	BookingID      string          `json:"bookingId"`
	GuestName      string          `json:"guestName"`
	CheckInDate    string          `json:"checkInDate"`
	NumberOfNights int             `json:"numberofNights"`
	RoomType       models.RoomType `json:"roomType"`
	ReservedDates  []string        `json:"reservedDates"`
}

// Engine books stays with a read-then-conditionally-commit cycle. It keeps
// no mutable state between calls; the store's atomic conditional
// transaction is the only synchronization point between concurrent bookings.
type Engine struct {
	store   storage.Store
	newID   func() string
	timeout time.Duration
	log     *slog.Logger
}

type Option func(*Engine)

func WithTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithIDGenerator replaces the booking id source, uuid.NewString by default.
func WithIDGenerator(f func() string) Option {
	return func(e *Engine) { e.newID = f }
}

func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		newID:   uuid.NewString,
		timeout: DefaultTimeout,
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type snapshot struct {
	raw    string
	parsed int
}

// Book validates req, pre-checks every night and commits the decrements and
// the booking record as one unit. Errors are always one of the engine's
// kinds (see KindOf).
func (e *Engine) Book(ctx context.Context, req Request) (*Confirmation, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	a := &attempt{state: stateReceived}

	nr, err := normalize(req)
	if err != nil {
		return nil, err
	}
	a.advance(stateValidated)

	log := e.log.With("checkInDate", nr.CheckInDate, "nights", nr.Nights, "roomType", string(nr.RoomType))

	snaps, err := e.precheck(ctx, nr)
	if err != nil {
		log.Info("booking rejected at pre-check", "kind", KindOf(err).String(), "error", err)
		return nil, err
	}
	a.advance(statePrechecked)

	bookingID := e.newID()
	log = log.With("bookingId", bookingID)

	items, err := buildTransaction(bookingID, nr, snaps)
	if err != nil {
		if KindOf(err) == KindConflict {
			a.advance(stateConflict)
			log.Error("refusing to submit negative decrement", "error", err)
		} else {
			a.advance(stateFault)
			log.Error("building booking transaction", "error", err)
		}
		return nil, err
	}

	a.advance(stateCommitting)
	if err := e.store.TransactWrite(ctx, items); err != nil {
		if storage.IsConditionFailure(err) {
			a.advance(stateConflict)
			var tce *storage.TransactionCanceledError
			errors.As(err, &tce)
			log.Info("booking lost optimistic concurrency race", "error", err)
			return nil, &ConflictError{Reasons: tce.Reasons}
		}
		a.advance(stateFault)
		fault := backendFault(ctx, "commit booking", err)
		log.Error("booking transaction failed", "error", fault)
		return nil, fault
	}
	a.advance(stateCommitted)
	log.Info("booking committed")

	return &Confirmation{
		BookingID:      bookingID,
		GuestName:      nr.GuestName,
		CheckInDate:    nr.CheckInDate,
		NumberOfNights: nr.Nights,
		RoomType:       nr.RoomType,
		ReservedDates:  nr.StayDates,
	}, nil
}

type dateOutcome int

const (
	outcomeAvailable dateOutcome = iota
	outcomeMissing
	outcomeInsufficient
	outcomeCorrupt
)

type dateResult struct {
	outcome dateOutcome
	snap    snapshot
	raw     string
}

func (e *Engine) precheck(ctx context.Context, nr *normalizedRequest) (map[string]snapshot, error) {
	results := make([]dateResult, len(nr.StayDates))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(readConcurrency)
	for i, date := range nr.StayDates {
		i, date := i, date
		g.Go(func() error {
			rec, err := e.store.GetAvailability(gctx, date)
			if errors.Is(err, storage.ErrNotFound) {
				results[i] = dateResult{outcome: outcomeMissing}
				return nil
			}
			if err != nil {
				return backendFault(gctx, "read availability for "+date, err)
			}
			results[i] = classify(rec, nr.RoomType)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var (
		missing      []string
		insufficient []InsufficientDate
		snaps        = make(map[string]snapshot, len(nr.StayDates))
	)
	for i, date := range nr.StayDates {
		r := results[i]
		switch r.outcome {
		case outcomeCorrupt:
			return nil, &DataIntegrityFault{Date: date, RoomType: nr.RoomType, Value: r.raw}
		case outcomeMissing:
			missing = append(missing, date)
		case outcomeInsufficient:
			insufficient = append(insufficient, InsufficientDate{Date: date, Available: r.snap.parsed})
		default:
			snaps[date] = r.snap
		}
	}
	if len(missing) > 0 {
		return nil, &MissingAvailabilityError{RoomType: nr.RoomType, Dates: missing}
	}
	if len(insufficient) > 0 {
		return nil, &InsufficientAvailabilityError{RoomType: nr.RoomType, Details: insufficient}
	}
	return snaps, nil
}

func classify(rec *models.AvailabilityRecord, rt models.RoomType) dateResult {
	raw, ok := rec.Count(rt)
	if !ok {
		return dateResult{outcome: outcomeMissing}
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return dateResult{outcome: outcomeCorrupt, raw: raw}
	}
	snap := snapshot{raw: raw, parsed: n}
	if n < 1 {
		return dateResult{outcome: outcomeInsufficient, snap: snap}
	}
	return dateResult{outcome: outcomeAvailable, snap: snap}
}

func buildTransaction(bookingID string, nr *normalizedRequest, snaps map[string]snapshot) ([]storage.TransactItem, error) {
	items := make([]storage.TransactItem, 0, len(nr.StayDates)+1)
	for _, date := range nr.StayDates {
		snap := snaps[date]
		next := snap.parsed - 1
		if next < 0 {
			return nil, &ConflictError{RaceDetected: true}
		}
		items = append(items, storage.TransactItem{Update: &storage.ConditionalUpdate{
			Date:     date,
			RoomType: nr.RoomType,
			Expected: snap.raw,
			Value:    strconv.Itoa(next),
		}})
	}

	booking, err := models.NewBooking(bookingID, nr.GuestName, nr.CheckInDate, nr.RoomType, nr.StayDates)
	if err != nil {
		return nil, &BackendFault{Op: "encode booking", Err: err}
	}
	items = append(items, storage.TransactItem{Put: &storage.ConditionalPut{Booking: booking}})
	return items, nil
}

func backendFault(ctx context.Context, op string, err error) *BackendFault {
	timeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)
	return &BackendFault{Op: op, Timeout: timeout, Err: err}
}

// Lookup returns a committed booking.
func (e *Engine) Lookup(ctx context.Context, bookingID string) (*models.Booking, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	b, err := e.store.GetBooking(ctx, bookingID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, backendFault(ctx, "read booking", err)
	}
	return b, err
}

// Availability reads the inventory of one date under the engine timeout.
func (e *Engine) Availability(ctx context.Context, date string) (*models.AvailabilityRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	rec, err := e.store.GetAvailability(ctx, date)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, backendFault(ctx, "read availability for "+date, err)
	}
	return rec, err
}

type state int

const (
	stateReceived state = iota
	stateValidated
	statePrechecked
	stateCommitting
	stateCommitted
	stateConflict
	stateFault
)

var transitions = map[state][]state{
	stateReceived:   {stateValidated},
	stateValidated:  {statePrechecked},
	statePrechecked: {stateCommitting, stateConflict, stateFault},
	stateCommitting: {stateCommitted, stateConflict, stateFault},
}

type attempt struct {
	state state
}

func (a *attempt) advance(to state) {
	for _, allowed := range transitions[a.state] {
		if allowed == to {
			a.state = to
			return
		}
	}
	panic(fmt.Sprintf("reservation: illegal transition %d -> %d", a.state, to))
}
