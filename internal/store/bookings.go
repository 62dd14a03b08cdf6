package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCanceled  = "canceled"
)

// Booking represents a stay reservation. Status moves pending -> confirmed
// only through the payment flow, and pending -> canceled through Cancel.
type Booking struct {
	ID              uuid.UUID `json:"id"`
	ListingID       uuid.UUID `json:"listing_id"`
	UserID          uuid.UUID `json:"user_id"`
	Reference       string    `json:"reference"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	TotalPriceCents int64     `json:"total_price_cents"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// Joined fields for list views
	ListingName     string `json:"listing_name,omitempty"`
	ListingLocation string `json:"listing_location,omitempty"`
}

type BookingsStore struct {
	db *pgxpool.Pool
}

func (s *BookingsStore) Create(ctx context.Context, booking *Booking) error {
	query := `
		INSERT INTO bookings (listing_id, user_id, reference, start_date, end_date, total_price_cents, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if booking.Status == "" {
		booking.Status = BookingStatusPending
	}

	return s.db.QueryRow(ctx, query,
		booking.ListingID,
		booking.UserID,
		booking.Reference,
		booking.StartDate,
		booking.EndDate,
		booking.TotalPriceCents,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (s *BookingsStore) GetByID(ctx context.Context, bookingID uuid.UUID) (*Booking, error) {
	query := `
		SELECT id, listing_id, user_id, reference, start_date, end_date, total_price_cents, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var booking Booking
	err := s.db.QueryRow(ctx, query, bookingID).Scan(
		&booking.ID,
		&booking.ListingID,
		&booking.UserID,
		&booking.Reference,
		&booking.StartDate,
		&booking.EndDate,
		&booking.TotalPriceCents,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &booking, nil
}

func (s *BookingsStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]Booking, error) {
	query := `
		SELECT b.id, b.listing_id, b.user_id, b.reference, b.start_date, b.end_date,
		       b.total_price_cents, b.status, b.created_at, b.updated_at,
		       l.name, l.location
		FROM bookings b
		JOIN listings l ON l.id = b.listing_id
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []Booking
	for rows.Next() {
		var booking Booking
		err := rows.Scan(
			&booking.ID,
			&booking.ListingID,
			&booking.UserID,
			&booking.Reference,
			&booking.StartDate,
			&booking.EndDate,
			&booking.TotalPriceCents,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.ListingName,
			&booking.ListingLocation,
		)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, booking)
	}
	return bookings, rows.Err()
}

// HasOverlap reports whether a non-canceled booking already covers any night
// in [startDate, endDate).
func (s *BookingsStore) HasOverlap(ctx context.Context, listingID uuid.UUID, startDate, endDate time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM bookings
			WHERE listing_id = $1
			  AND status <> 'canceled'
			  AND start_date < $3
			  AND end_date > $2
		)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := s.db.QueryRow(ctx, query, listingID, startDate, endDate).Scan(&exists)
	return exists, err
}

// Confirm transitions pending -> confirmed. The status guard in the WHERE
// clause is the concurrency control: a second caller sees zero rows.
func (s *BookingsStore) Confirm(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET status = 'confirmed', updated_at = now()
		WHERE id = $1 AND status = 'pending'
	`, bookingID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *BookingsStore) Cancel(ctx context.Context, bookingID, userID uuid.UUID) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE bookings SET status = 'canceled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'
	`, bookingID, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
