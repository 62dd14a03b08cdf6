package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// ErrPendingPaymentExists maps the partial unique index on
// payments(booking_id) WHERE status = 'pending'.
var ErrPendingPaymentExists = errors.New("booking already has a pending payment")

// Payment is an audit record of one checkout attempt. Rows are never deleted
// and only ever transition pending -> completed or pending -> failed.
type Payment struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	AmountCents int64     `json:"amount_cents"`
	Status      string    `json:"status"`
	TxRef       string    `json:"tx_ref"`
	ChapaRef    string    `json:"chapa_ref,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type PaymentsStore struct {
	db *pgxpool.Pool
}

func (s *PaymentsStore) Create(ctx context.Context, payment *Payment) error {
	query := `
		INSERT INTO payments (booking_id, amount_cents, status, tx_ref)
		VALUES ($1, $2, 'pending', $3)
		RETURNING id, status, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		payment.BookingID,
		payment.AmountCents,
		payment.TxRef,
	).Scan(&payment.ID, &payment.Status, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrPendingPaymentExists
		}
		return fmt.Errorf("create payment: %w", err)
	}
	return nil
}

func (s *PaymentsStore) GetByTxRef(ctx context.Context, txRef string) (*Payment, error) {
	query := `
		SELECT id, booking_id, amount_cents, status, tx_ref, COALESCE(chapa_ref, ''), created_at, updated_at
		FROM payments
		WHERE tx_ref = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var payment Payment
	err := s.db.QueryRow(ctx, query, txRef).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.AmountCents,
		&payment.Status,
		&payment.TxRef,
		&payment.ChapaRef,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &payment, nil
}

func (s *PaymentsStore) GetPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	query := `
		SELECT id, booking_id, amount_cents, status, tx_ref, COALESCE(chapa_ref, ''), created_at, updated_at
		FROM payments
		WHERE booking_id = $1 AND status = 'pending'
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var payment Payment
	err := s.db.QueryRow(ctx, query, bookingID).Scan(
		&payment.ID,
		&payment.BookingID,
		&payment.AmountCents,
		&payment.Status,
		&payment.TxRef,
		&payment.ChapaRef,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &payment, nil
}

// MarkCompleted transitions pending -> completed and records the gateway's
// transaction id. The status guard makes concurrent verifies race-safe: the
// loser gets false and must re-read.
func (s *PaymentsStore) MarkCompleted(ctx context.Context, txRef, chapaRef string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE payments SET status = 'completed', chapa_ref = $2, updated_at = now()
		WHERE tx_ref = $1 AND status = 'pending'
	`, txRef, chapaRef)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *PaymentsStore) MarkFailed(ctx context.Context, txRef string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE payments SET status = 'failed', updated_at = now()
		WHERE tx_ref = $1 AND status = 'pending'
	`, txRef)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
