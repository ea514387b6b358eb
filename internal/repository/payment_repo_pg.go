package repository

import (
	"context"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaymentAttempt is one charge made against a booking.
type PaymentAttempt struct {
	ID            int64
	BookingRef    string
	Amount        domain.Amount
	Currency      string
	Success       bool
	TransactionID string
	Error         string
	CreatedAt     time.Time
}

type PaymentRepository interface {
	Record(ctx context.Context, attempt *PaymentAttempt) error
	ListByBooking(ctx context.Context, ref string) ([]PaymentAttempt, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) Record(ctx context.Context, attempt *PaymentAttempt) error {
	return r.db.QueryRow(ctx, `INSERT INTO payment_attempts (booking_reference, amount_cents, currency, success, transaction_id, error)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
		RETURNING id, created_at`,
		attempt.BookingRef, int64(attempt.Amount), attempt.Currency, attempt.Success, attempt.TransactionID, attempt.Error).
		Scan(&attempt.ID, &attempt.CreatedAt)
}

func (r *PGPaymentRepository) ListByBooking(ctx context.Context, ref string) ([]PaymentAttempt, error) {
	rows, err := r.db.Query(ctx, `SELECT id, booking_reference, amount_cents, currency, success, COALESCE(transaction_id, ''), COALESCE(error, ''), created_at
		FROM payment_attempts WHERE booking_reference=$1 ORDER BY created_at`, ref)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]PaymentAttempt, 0)
	for rows.Next() {
		var (
			a      PaymentAttempt
			amount int64
		)
		if err := rows.Scan(&a.ID, &a.BookingRef, &amount, &a.Currency, &a.Success, &a.TransactionID, &a.Error, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Amount = domain.Amount(amount)
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)
