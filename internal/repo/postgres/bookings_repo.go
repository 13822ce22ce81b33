package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cartour/cartour-rentals/internal/booking"
	"github.com/cartour/cartour-rentals/internal/domain"
)

// BookingRepo is the durable store for confirmed bookings. booking_id
// carries a unique constraint, so the conditional insert is the real
// idempotency guarantee; the application-level existence check only keeps
// the common path cheap.
type BookingRepo struct{ pool *pgxpool.Pool }

func NewBookingRepo(pool *pgxpool.Pool) *BookingRepo { return &BookingRepo{pool: pool} }

const bookingCols = `id, record, status, payment_status, read, source, updated_at`

func (r *BookingRepo) FindByBookingID(ctx context.Context, bookingID string) (*domain.StoredBooking, error) {
	const q = `SELECT ` + bookingCols + ` FROM bookings WHERE booking_id=$1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var (
		sb      domain.StoredBooking
		payload []byte
	)
	err := r.pool.QueryRow(ctx, q, bookingID).Scan(
		&sb.RefID, &payload, &sb.Status, &sb.PaymentStatus,
		&sb.Read, &sb.Source, &sb.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, &sb.BookingRecord); err != nil {
		return nil, fmt.Errorf("decode booking record: %w", err)
	}
	return &sb, nil
}

func (r *BookingRepo) Insert(ctx context.Context, rec domain.BookingRecord, source string) (int64, bool, error) {
	const q = `INSERT INTO bookings (
    booking_id, customer_name, customer_email, customer_phone,
    vehicle_name, pricing_model, payment_method, total_paise,
    record, status, payment_status, read, source
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,'confirmed','pending',false,$10)
  ON CONFLICT (booking_id) DO NOTHING
  RETURNING id`

	payload, err := json.Marshal(rec)
	if err != nil {
		return 0, false, fmt.Errorf("encode booking record: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var id int64
	err = r.pool.QueryRow(ctx, q,
		rec.BookingID, rec.Customer.Name, rec.Customer.Email, rec.Customer.Phone,
		rec.Vehicle.Name, rec.PricingModel, rec.PaymentMethod, int64(rec.TotalAmount),
		payload, source,
	).Scan(&id)
	if err == pgx.ErrNoRows {
		// another writer won the conflict; hand back its reference
		const sel = `SELECT id FROM bookings WHERE booking_id=$1`
		if err := r.pool.QueryRow(ctx, sel, rec.BookingID).Scan(&id); err != nil {
			return 0, false, err
		}
		return id, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

var _ booking.Store = (*BookingRepo)(nil)
