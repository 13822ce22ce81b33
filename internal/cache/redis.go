// Package cache is the local fallback store for booking data: a same-device
// copy that survives a durable-store outage. It mirrors the storefront's
// keys (bookingData, allBookings, lastSavedBookingId) and is never consulted
// as a source of truth for idempotency.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cartour/cartour-rentals/internal/booking"
	"github.com/cartour/cartour-rentals/internal/domain"
	"github.com/cartour/cartour-rentals/pkg/config"
)

const (
	keyBookingData  = "bookingData"
	keyAllBookings  = "allBookings"
	keyLastSavedID  = "lastSavedBookingId"
	keyLastSavedRef = "lastSavedRef"
)

type RedisFallback struct {
	client *redis.Client
}

func NewRedisFallback(cfg config.RedisConfig) (*RedisFallback, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}
	return &RedisFallback{client: redis.NewClient(opts)}, nil
}

func (f *RedisFallback) Close() error { return f.client.Close() }

// localRecord wraps a booking with the moment it was cached locally, so the
// fallback copy is distinguishable from the durable write.
type localRecord struct {
	domain.BookingRecord
	SavedAt time.Time `json:"savedAt"`
}

// SaveCurrent stores the most recent confirmed record.
func (f *RedisFallback) SaveCurrent(ctx context.Context, rec domain.BookingRecord) error {
	payload, err := json.Marshal(localRecord{BookingRecord: rec, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return f.client.Set(ctx, keyBookingData, payload, 0).Err()
}

// Append adds the record to the append-only set of locally-seen bookings.
// Re-submitting the same booking id leaves the first entry untouched.
func (f *RedisFallback) Append(ctx context.Context, rec domain.BookingRecord) error {
	payload, err := json.Marshal(localRecord{BookingRecord: rec, SavedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return f.client.HSetNX(ctx, keyAllBookings, rec.BookingID, payload).Err()
}

// LastSaved returns the marker of the last durably-saved booking, or empty
// strings when none is set.
func (f *RedisFallback) LastSaved(ctx context.Context) (string, string, error) {
	vals, err := f.client.MGet(ctx, keyLastSavedID, keyLastSavedRef).Result()
	if err != nil {
		return "", "", err
	}
	id, _ := vals[0].(string)
	ref, _ := vals[1].(string)
	return id, ref, nil
}

// MarkSaved records that a booking id reached the durable store, so reloads
// of the confirmation view can short-circuit re-submission.
func (f *RedisFallback) MarkSaved(ctx context.Context, bookingID, refID string) error {
	return f.client.MSet(ctx, keyLastSavedID, bookingID, keyLastSavedRef, refID).Err()
}

// ListAll returns every locally-seen booking.
func (f *RedisFallback) ListAll(ctx context.Context) ([]domain.BookingRecord, error) {
	vals, err := f.client.HVals(ctx, keyAllBookings).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}
	out := make([]domain.BookingRecord, 0, len(vals))
	for _, v := range vals {
		var lr localRecord
		if err := json.Unmarshal([]byte(v), &lr); err != nil {
			return nil, err
		}
		out = append(out, lr.BookingRecord)
	}
	return out, nil
}

var _ booking.Fallback = (*RedisFallback)(nil)
