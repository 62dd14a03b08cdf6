package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"voyago/internal/mailer"
	"voyago/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type sentMail struct {
	template string
	email    string
}

type mailerStub struct {
	sent chan sentMail
	err  error
}

func (m *mailerStub) Send(templateFile, username, email string, data any) (int, error) {
	m.sent <- sentMail{template: templateFile, email: email}
	if m.err != nil {
		return -1, m.err
	}
	return 200, nil
}

type fakeBookings struct {
	booking *store.Booking
}

func (f *fakeBookings) Create(context.Context, *store.Booking) error { return nil }
func (f *fakeBookings) GetByID(context.Context, uuid.UUID) (*store.Booking, error) {
	return f.booking, nil
}
func (f *fakeBookings) ListByUser(context.Context, uuid.UUID) ([]store.Booking, error) {
	return nil, nil
}
func (f *fakeBookings) HasOverlap(context.Context, uuid.UUID, time.Time, time.Time) (bool, error) {
	return false, nil
}
func (f *fakeBookings) Confirm(context.Context, uuid.UUID) (bool, error) { return true, nil }
func (f *fakeBookings) Cancel(context.Context, uuid.UUID, uuid.UUID) (bool, error) {
	return true, nil
}

type fakeUsers struct {
	user *store.User
}

func (f *fakeUsers) GetByID(context.Context, uuid.UUID) (*store.User, error) { return f.user, nil }
func (f *fakeUsers) GetByEmail(context.Context, string) (*store.User, error) { return f.user, nil }
func (f *fakeUsers) CreateAndInvite(context.Context, *store.User, string, time.Duration) error {
	return nil
}
func (f *fakeUsers) Activate(context.Context, string) error           { return nil }
func (f *fakeUsers) Delete(context.Context, uuid.UUID) error          { return nil }
func (f *fakeUsers) SetRefreshToken(context.Context, uuid.UUID, string) error  { return nil }
func (f *fakeUsers) GetByRefreshToken(context.Context, string) (*store.User, error) {
	return f.user, nil
}
func (f *fakeUsers) ClearRefreshToken(context.Context, uuid.UUID) error { return nil }

type fakeListings struct {
	listing *store.Listing
}

func (f *fakeListings) Create(context.Context, *store.Listing) error { return nil }
func (f *fakeListings) GetByID(context.Context, uuid.UUID) (*store.Listing, error) {
	return f.listing, nil
}
func (f *fakeListings) List(context.Context, int, int) ([]store.Listing, error) { return nil, nil }
func (f *fakeListings) Update(context.Context, *store.Listing) error            { return nil }
func (f *fakeListings) Delete(context.Context, uuid.UUID, uuid.UUID) error      { return nil }
func (f *fakeListings) AddPhotoURL(context.Context, uuid.UUID, string) error    { return nil }

type fakePushTokens struct{}

func (f *fakePushTokens) Register(context.Context, uuid.UUID, string) error { return nil }
func (f *fakePushTokens) GetByUser(context.Context, uuid.UUID) ([]string, error) {
	return nil, nil
}

func testStorage() store.Storage {
	user := &store.User{ID: uuid.New(), FirstName: "Abel", Email: "guest@example.com"}
	listing := &store.Listing{ID: uuid.New(), Name: "Lakeside Villa", Location: "Bahir Dar"}
	booking := &store.Booking{
		ID:              uuid.New(),
		ListingID:       listing.ID,
		UserID:          user.ID,
		Reference:       "BKNG1",
		StartDate:       time.Now(),
		EndDate:         time.Now().AddDate(0, 0, 2),
		TotalPriceCents: 10000,
		Status:          store.BookingStatusConfirmed,
	}
	return store.Storage{
		Users:      &fakeUsers{user: user},
		Listings:   &fakeListings{listing: listing},
		Bookings:   &fakeBookings{booking: booking},
		PushTokens: &fakePushTokens{},
	}
}

func TestQueue_FullReportsError(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Enqueue(Job{}))
	require.ErrorIs(t, q.Enqueue(Job{}), ErrQueueFull)
}

func TestWorker_DeliversConfirmationEmail(t *testing.T) {
	q := NewQueue(4)
	mail := &mailerStub{sent: make(chan sentMail, 1)}
	w := NewWorker(q, testStorage(), mail, nil, zap.NewNop().Sugar(), 2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, w.EnqueueConfirmation(uuid.New(), uuid.New(), uuid.New()))

	select {
	case got := <-mail.sent:
		require.Equal(t, mailer.BookingConfirmationTemplate, got.template)
		require.Equal(t, "guest@example.com", got.email)
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation email was never sent")
	}
}

func TestWorker_KeepsConsumingAfterMailerFailure(t *testing.T) {
	q := NewQueue(4)
	mail := &mailerStub{sent: make(chan sentMail, 2), err: errors.New("smtp down")}
	w := NewWorker(q, testStorage(), mail, nil, zap.NewNop().Sugar(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, w.EnqueueConfirmation(uuid.New(), uuid.New(), uuid.New()))
	require.NoError(t, w.EnqueueConfirmation(uuid.New(), uuid.New(), uuid.New()))

	for i := 0; i < 2; i++ {
		select {
		case <-mail.sent:
		case <-time.After(2 * time.Second):
			t.Fatalf("job %d was never processed", i+1)
		}
	}
}
