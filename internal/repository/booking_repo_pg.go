package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	CreatePending(ctx context.Context, booking *domain.Booking) error
	GetByReference(ctx context.Context, ref string) (*domain.Booking, error)
	UpdateStatus(ctx context.Context, ref string, status domain.BookingStatus) (*domain.Booking, error)
	MarkConfirmed(ctx context.Context, ref, transactionID string) (*domain.Booking, error)
	ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, offer_id, status, total_cents, currency, email, session_id, payload, transaction_id, expires_at, created_at, updated_at`

func (r *PGBookingRepository) CreatePending(ctx context.Context, booking *domain.Booking) error {
	payload, err := json.Marshal(booking.Payload)
	if err != nil {
		return fmt.Errorf("encode booking payload: %w", err)
	}

	booking.Status = domain.BookingStatusPending
	return r.db.QueryRow(ctx, `INSERT INTO bookings (reference, offer_id, status, total_cents, currency, email, session_id, payload, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		booking.Reference, booking.OfferID, booking.Status, int64(booking.TotalAmount), booking.Currency, booking.Email, booking.SessionID, payload, booking.ExpiresAt).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *PGBookingRepository) GetByReference(ctx context.Context, ref string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE reference=$1`, ref)
	return scanBooking(row)
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, ref string, status domain.BookingStatus) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE reference=$2 RETURNING `+bookingColumns, status, ref)
	return scanBooking(row)
}

// MarkConfirmed confirms a booking that is still pending.
func (r *PGBookingRepository) MarkConfirmed(ctx context.Context, ref, transactionID string) (*domain.Booking, error) {
	row := r.db.QueryRow(ctx, `UPDATE bookings SET status=$1, transaction_id=$2, updated_at=now()
		WHERE reference=$3 AND status=$4 RETURNING `+bookingColumns,
		domain.BookingStatusConfirmed, transactionID, ref, domain.BookingStatusPending)
	b, err := scanBooking(row)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return nil, domain.ErrBookingNotPending
	}
	return b, err
}

func (r *PGBookingRepository) ExpirePendingBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET status=$1, updated_at=now() WHERE status=$2 AND expires_at <= $3 RETURNING `+bookingColumns,
		domain.BookingStatusExpired, domain.BookingStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var expired []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		expired = append(expired, *b)
	}
	return expired, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b       domain.Booking
		total   int64
		payload []byte
		txID    *string
	)
	if err := row.Scan(&b.ID, &b.Reference, &b.OfferID, &b.Status, &total, &b.Currency, &b.Email, &b.SessionID, &payload, &txID, &b.ExpiresAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	b.TotalAmount = domain.Amount(total)
	if txID != nil {
		b.TransactionID = *txID
	}
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &b.Payload); err != nil {
			return nil, fmt.Errorf("decode booking payload: %w", err)
		}
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
