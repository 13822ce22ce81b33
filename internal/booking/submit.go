// Package booking owns the submission workflow for confirmed bookings: an
// at-most-once durable write per booking id, with a local fallback copy so
// user data survives a durable-store outage.
package booking

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/pkg/events"
	"github.com/cartour/cartour-rentals/pkg/logger"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusSaved   Status = "saved"
	StatusFailed  Status = "failed"
)

// Result reports the outcome of a Submit call. Duplicate marks a no-op
// success: the booking was already durably saved and RefID points at the
// existing row.
type Result struct {
	Status    Status `json:"status"`
	RefID     string `json:"refId,omitempty"`
	Duplicate bool   `json:"duplicate,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Store is the durable system of record, keyed logically by booking id.
type Store interface {
	// FindByBookingID returns (nil, nil) when no booking exists.
	FindByBookingID(ctx context.Context, bookingID string) (*domain.StoredBooking, error)
	// Insert writes the record with server metadata attached. It must be
	// conditional on the booking id being absent; inserted=false means a
	// concurrent or earlier write won and refID references that row.
	Insert(ctx context.Context, rec domain.BookingRecord, source string) (refID int64, inserted bool, err error)
}

// Fallback is the same-device cache of booking data. It is written on every
// submission regardless of durable-store availability, but only the durable
// store decides idempotency; the saved-marker merely short-circuits reloads
// of an already-synced confirmation.
type Fallback interface {
	SaveCurrent(ctx context.Context, rec domain.BookingRecord) error
	Append(ctx context.Context, rec domain.BookingRecord) error
	LastSaved(ctx context.Context) (bookingID, refID string, err error)
	MarkSaved(ctx context.Context, bookingID, refID string) error
}

type latchState int

const (
	latchIdle latchState = iota
	latchInFlight
	latchDone
)

type latch struct {
	state  latchState
	result Result
}

// Submitter performs the idempotent persistence workflow. The in-process
// latch stops the same session from racing itself; the store-level existence
// check and conditional insert are the authoritative defense against
// duplicates from reloads or other processes.
type Submitter struct {
	store    Store
	fallback Fallback
	bus      events.Publisher
	source   string

	mu      sync.Mutex
	latches map[string]*latch
}

func NewSubmitter(store Store, fallback Fallback, bus events.Publisher, source string) *Submitter {
	if source == "" {
		source = "website"
	}
	return &Submitter{
		store:    store,
		fallback: fallback,
		bus:      bus,
		source:   source,
		latches:  make(map[string]*latch),
	}
}

// Submit persists a confirmed booking. Calling it again with the same
// record is safe: a submission already in flight reports Pending, a
// completed one reports the original saved result, and a failed one may be
// retried manually.
func (s *Submitter) Submit(ctx context.Context, rec domain.BookingRecord) Result {
	if rec.BookingID == "" {
		return Result{Status: StatusFailed, Reason: "booking id is empty"}
	}

	s.mu.Lock()
	l, ok := s.latches[rec.BookingID]
	if !ok {
		l = &latch{}
		s.latches[rec.BookingID] = l
	}
	switch l.state {
	case latchInFlight:
		s.mu.Unlock()
		return Result{Status: StatusPending}
	case latchDone:
		res := l.result
		res.Duplicate = true
		s.mu.Unlock()
		return res
	}
	l.state = latchInFlight
	s.mu.Unlock()

	res := s.submit(ctx, rec)

	s.mu.Lock()
	if res.Status == StatusSaved {
		l.state = latchDone
		l.result = res
	} else {
		// leave the latch open so a manual retry can run the workflow again
		l.state = latchIdle
	}
	s.mu.Unlock()
	return res
}

func (s *Submitter) submit(ctx context.Context, rec domain.BookingRecord) Result {
	// Reload short-circuit: the saved-marker is set only after a durable
	// write succeeded, so matching it means the booking is already synced.
	if lastID, lastRef, err := s.fallback.LastSaved(ctx); err == nil && lastID == rec.BookingID {
		logger.InfoContext(ctx, "booking already marked saved locally, skipping write", "booking_id", rec.BookingID)
		return Result{Status: StatusSaved, RefID: lastRef, Duplicate: true}
	}

	// Authoritative existence check. Must complete before the write is
	// attempted.
	existing, err := s.store.FindByBookingID(ctx, rec.BookingID)
	if err != nil {
		return s.degraded(ctx, rec, fmt.Errorf("existence check: %w", err))
	}
	if existing != nil {
		ref := strconv.FormatInt(existing.RefID, 10)
		s.writeFallback(ctx, rec, ref)
		logger.InfoContext(ctx, "booking already exists in store", "booking_id", rec.BookingID, "ref_id", ref)
		return Result{Status: StatusSaved, RefID: ref, Duplicate: true}
	}

	refID, inserted, err := s.store.Insert(ctx, rec, s.source)
	if err != nil {
		return s.degraded(ctx, rec, fmt.Errorf("insert booking: %w", err))
	}
	ref := strconv.FormatInt(refID, 10)
	s.writeFallback(ctx, rec, ref)

	if !inserted {
		// the unique constraint caught a near-simultaneous duplicate the
		// existence check raced past
		logger.WarnContext(ctx, "conditional insert lost to concurrent write", "booking_id", rec.BookingID, "ref_id", ref)
		return Result{Status: StatusSaved, RefID: ref, Duplicate: true}
	}

	if s.bus != nil {
		evt := events.BookingSavedEvent{
			BookingID:     rec.BookingID,
			RefID:         refID,
			CustomerName:  rec.Customer.Name,
			CustomerEmail: rec.Customer.Email,
			VehicleName:   rec.Vehicle.Name,
			PickupDate:    rec.Trip.PickupDate,
			TotalAmount:   rec.TotalAmount.InRupees(),
			CreatedAt:     rec.CreatedAt,
		}
		if err := s.bus.Publish(ctx, events.BookingSaved, evt); err != nil {
			logger.ErrorContext(ctx, "failed to publish booking saved event", "error", err, "booking_id", rec.BookingID)
		}
	}

	logger.InfoContext(ctx, "booking saved", "booking_id", rec.BookingID, "ref_id", ref)
	return Result{Status: StatusSaved, RefID: ref}
}

// degraded keeps the user-visible data alive in the fallback store and
// reports the durable failure. Consistency recovers only through a manual
// retry.
func (s *Submitter) degraded(ctx context.Context, rec domain.BookingRecord, cause error) Result {
	if err := s.fallback.SaveCurrent(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "fallback save failed", "error", err, "booking_id", rec.BookingID)
	}
	if err := s.fallback.Append(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "fallback append failed", "error", err, "booking_id", rec.BookingID)
	}
	logger.ErrorContext(ctx, "durable booking write failed", "error", cause, "booking_id", rec.BookingID)

	if s.bus != nil {
		evt := events.BookingSyncFailedEvent{
			BookingID: rec.BookingID,
			Reason:    cause.Error(),
			FailedAt:  time.Now().UTC(),
		}
		if err := s.bus.Publish(ctx, events.BookingSyncFailed, evt); err != nil {
			logger.ErrorContext(ctx, "failed to publish sync failed event", "error", err, "booking_id", rec.BookingID)
		}
	}
	return Result{Status: StatusFailed, Reason: cause.Error()}
}

// writeFallback records the local copy and the saved-marker. Fallback
// errors are logged, never surfaced: the durable write already decided the
// outcome.
func (s *Submitter) writeFallback(ctx context.Context, rec domain.BookingRecord, refID string) {
	if err := s.fallback.SaveCurrent(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "fallback save failed", "error", err, "booking_id", rec.BookingID)
	}
	if err := s.fallback.Append(ctx, rec); err != nil {
		logger.ErrorContext(ctx, "fallback append failed", "error", err, "booking_id", rec.BookingID)
	}
	if err := s.fallback.MarkSaved(ctx, rec.BookingID, refID); err != nil {
		logger.ErrorContext(ctx, "fallback mark-saved failed", "error", err, "booking_id", rec.BookingID)
	}
}
