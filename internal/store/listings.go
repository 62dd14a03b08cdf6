package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Listing is a property available for booking.
type Listing struct {
	ID                 uuid.UUID `json:"id"`
	HostID             uuid.UUID `json:"host_id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Location           string    `json:"location"`
	PricePerNightCents int64     `json:"price_per_night_cents"`
	PhotoURLs          []string  `json:"photo_urls"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

type ListingsStore struct {
	db *pgxpool.Pool
}

func (s *ListingsStore) Create(ctx context.Context, listing *Listing) error {
	query := `
		INSERT INTO listings (host_id, name, description, location, price_per_night_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query,
		listing.HostID,
		listing.Name,
		listing.Description,
		listing.Location,
		listing.PricePerNightCents,
	).Scan(&listing.ID, &listing.CreatedAt, &listing.UpdatedAt)
}

func (s *ListingsStore) GetByID(ctx context.Context, listingID uuid.UUID) (*Listing, error) {
	query := `
		SELECT id, host_id, name, description, location, price_per_night_cents, photo_urls, created_at, updated_at
		FROM listings
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var listing Listing
	err := s.db.QueryRow(ctx, query, listingID).Scan(
		&listing.ID,
		&listing.HostID,
		&listing.Name,
		&listing.Description,
		&listing.Location,
		&listing.PricePerNightCents,
		&listing.PhotoURLs,
		&listing.CreatedAt,
		&listing.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &listing, nil
}

func (s *ListingsStore) List(ctx context.Context, limit, offset int) ([]Listing, error) {
	query := `
		SELECT id, host_id, name, description, location, price_per_night_cents, photo_urls, created_at, updated_at
		FROM listings
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []Listing
	for rows.Next() {
		var listing Listing
		err := rows.Scan(
			&listing.ID,
			&listing.HostID,
			&listing.Name,
			&listing.Description,
			&listing.Location,
			&listing.PricePerNightCents,
			&listing.PhotoURLs,
			&listing.CreatedAt,
			&listing.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	return listings, rows.Err()
}

// Update writes the mutable fields; the host check rides in the WHERE clause
// so a non-owner update reports not found rather than clobbering.
func (s *ListingsStore) Update(ctx context.Context, listing *Listing) error {
	query := `
		UPDATE listings
		SET name = $1, description = $2, location = $3, price_per_night_cents = $4, updated_at = now()
		WHERE id = $5 AND host_id = $6
		RETURNING updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := s.db.QueryRow(ctx, query,
		listing.Name,
		listing.Description,
		listing.Location,
		listing.PricePerNightCents,
		listing.ID,
		listing.HostID,
	).Scan(&listing.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (s *ListingsStore) Delete(ctx context.Context, listingID, hostID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `DELETE FROM listings WHERE id = $1 AND host_id = $2`, listingID, hostID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ListingsStore) AddPhotoURL(ctx context.Context, listingID uuid.UUID, url string) error {
	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, `
		UPDATE listings SET photo_urls = array_append(photo_urls, $1), updated_at = now()
		WHERE id = $2
	`, url, listingID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
