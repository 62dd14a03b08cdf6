package notify

import (
	"context"
	"fmt"
	"sync"

	"voyago/internal/mailer"
	"voyago/internal/store"

	"github.com/9ssi7/exponent"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Worker consumes confirmation jobs and sends the booking email plus a
// best-effort push. It satisfies the orchestrator's Dispatcher port.
type Worker struct {
	queue   Queue
	store   store.Storage
	mailer  mailer.Client
	push    PushSender
	logger  *zap.SugaredLogger
	workers int
}

func NewWorker(queue Queue, storage store.Storage, mail mailer.Client, push PushSender, logger *zap.SugaredLogger, workers int) *Worker {
	if workers < 1 {
		workers = 1
	}
	return &Worker{
		queue:   queue,
		store:   storage,
		mailer:  mail,
		push:    push,
		logger:  logger,
		workers: workers,
	}
}

func (w *Worker) EnqueueConfirmation(bookingID, paymentID, userID uuid.UUID) error {
	return w.queue.Enqueue(Job{BookingID: bookingID, PaymentID: paymentID, UserID: userID})
}

// Run blocks until ctx is canceled and all workers have drained out.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Drain(ctx, w.queue, w.process)
		}()
	}
	wg.Wait()
}

func (w *Worker) process(ctx context.Context, job Job) {
	booking, err := w.store.Bookings.GetByID(ctx, job.BookingID)
	if err != nil {
		w.logger.Errorw("notify: load booking failed", "booking_id", job.BookingID, "err", err)
		return
	}

	user, err := w.store.Users.GetByID(ctx, job.UserID)
	if err != nil {
		w.logger.Errorw("notify: load user failed", "user_id", job.UserID, "err", err)
		return
	}

	listing, err := w.store.Listings.GetByID(ctx, booking.ListingID)
	if err != nil {
		w.logger.Errorw("notify: load listing failed", "listing_id", booking.ListingID, "err", err)
		return
	}

	vars := struct {
		Username        string
		Reference       string
		ListingName     string
		ListingLocation string
		StartDate       string
		EndDate         string
		Amount          string
	}{
		Username:        user.FirstName,
		Reference:       booking.Reference,
		ListingName:     listing.Name,
		ListingLocation: listing.Location,
		StartDate:       booking.StartDate.Format("Mon, 02 Jan 2006"),
		EndDate:         booking.EndDate.Format("Mon, 02 Jan 2006"),
		Amount:          fmt.Sprintf("%d.%02d", booking.TotalPriceCents/100, booking.TotalPriceCents%100),
	}

	if _, err := w.mailer.Send(mailer.BookingConfirmationTemplate, user.FirstName, user.Email, vars); err != nil {
		w.logger.Errorw("notify: confirmation email failed", "booking_id", booking.ID, "email", user.Email, "err", err)
	} else {
		w.logger.Infow("confirmation email sent", "booking_id", booking.ID, "reference", booking.Reference)
	}

	w.sendPush(ctx, booking, user)
}

func (w *Worker) sendPush(ctx context.Context, booking *store.Booking, user *store.User) {
	if w.push == nil {
		return
	}

	tokens, err := w.store.PushTokens.GetByUser(ctx, user.ID)
	if err != nil {
		w.logger.Errorw("notify: load push tokens failed", "user_id", user.ID, "err", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: "Booking confirmed",
			Body:  fmt.Sprintf("Your booking %s is confirmed. Enjoy your stay! 🎉", booking.Reference),
			Data: map[string]string{
				"type":      "booking",
				"bookingId": booking.ID.String(),
				"screen":    "bookings",
			},
		})
	}

	if _, err := w.push.Publish(ctx, msgs); err != nil {
		w.logger.Errorw("notify: push publish failed", "booking_id", booking.ID, "err", err)
	}
}
