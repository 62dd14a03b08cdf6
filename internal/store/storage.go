package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("resource already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		GetByID(context.Context, uuid.UUID) (*User, error)
		GetByEmail(context.Context, string) (*User, error)
		CreateAndInvite(ctx context.Context, user *User, token string, exp time.Duration) error
		Activate(context.Context, string) error
		Delete(ctx context.Context, userID uuid.UUID) error
		SetRefreshToken(ctx context.Context, userID uuid.UUID, token string) error
		GetByRefreshToken(context.Context, string) (*User, error)
		ClearRefreshToken(ctx context.Context, userID uuid.UUID) error
	}
	Listings interface {
		Create(context.Context, *Listing) error
		GetByID(context.Context, uuid.UUID) (*Listing, error)
		List(ctx context.Context, limit, offset int) ([]Listing, error)
		Update(context.Context, *Listing) error
		Delete(ctx context.Context, listingID, hostID uuid.UUID) error
		AddPhotoURL(ctx context.Context, listingID uuid.UUID, url string) error
	}
	Bookings interface {
		Create(context.Context, *Booking) error
		GetByID(context.Context, uuid.UUID) (*Booking, error)
		ListByUser(context.Context, uuid.UUID) ([]Booking, error)
		HasOverlap(ctx context.Context, listingID uuid.UUID, startDate, endDate time.Time) (bool, error)
		Confirm(ctx context.Context, bookingID uuid.UUID) (bool, error)
		Cancel(ctx context.Context, bookingID, userID uuid.UUID) (bool, error)
	}
	Payments interface {
		Create(context.Context, *Payment) error
		GetByTxRef(context.Context, string) (*Payment, error)
		GetPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*Payment, error)
		MarkCompleted(ctx context.Context, txRef, chapaRef string) (bool, error)
		MarkFailed(ctx context.Context, txRef string) (bool, error)
	}
	Reviews interface {
		Create(context.Context, *Review) error
		ListByListing(context.Context, uuid.UUID) ([]Review, error)
		Delete(ctx context.Context, reviewID, userID uuid.UUID) error
	}
	Messages interface {
		Create(context.Context, *Message) error
		ListForUser(context.Context, uuid.UUID) ([]Message, error)
		Conversation(ctx context.Context, userID, otherID uuid.UUID) ([]Message, error)
	}
	PushTokens interface {
		Register(ctx context.Context, userID uuid.UUID, token string) error
		GetByUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:      &UsersStore{db},
		Listings:   &ListingsStore{db},
		Bookings:   &BookingsStore{db},
		Payments:   &PaymentsStore{db},
		Reviews:    &ReviewsStore{db},
		Messages:   &MessagesStore{db},
		PushTokens: &PushTokensStore{db},
	}
}
