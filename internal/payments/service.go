package payments

import (
	"context"
	"errors"
	"fmt"

	"voyago/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrAmountMismatch     = errors.New("amount does not match the booking total")
	ErrDuplicatePending   = errors.New("booking already has a payment in progress")
	ErrBookingNotPending  = errors.New("booking is not awaiting payment")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

type BookingStore interface {
	GetByID(ctx context.Context, bookingID uuid.UUID) (*store.Booking, error)
	Confirm(ctx context.Context, bookingID uuid.UUID) (bool, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *store.Payment) error
	GetByTxRef(ctx context.Context, txRef string) (*store.Payment, error)
	GetPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*store.Payment, error)
	MarkCompleted(ctx context.Context, txRef, chapaRef string) (bool, error)
	MarkFailed(ctx context.Context, txRef string) (bool, error)
}

// Dispatcher hands confirmation notifications off to the background workers.
// Delivery is at-least-once and never blocks the payment flow.
type Dispatcher interface {
	EnqueueConfirmation(bookingID, paymentID, userID uuid.UUID) error
}

// Service drives the payment lifecycle: pending on initiate, then exactly one
// transition to completed or failed on a verified gateway outcome.
type Service struct {
	bookings   BookingStore
	payments   PaymentStore
	gateway    Gateway
	dispatcher Dispatcher
	logger     *zap.SugaredLogger

	callbackBaseURL string
	returnURL       string
}

func NewService(
	bookings BookingStore,
	payments PaymentStore,
	gateway Gateway,
	dispatcher Dispatcher,
	logger *zap.SugaredLogger,
	callbackBaseURL, returnURL string,
) *Service {
	return &Service{
		bookings:        bookings,
		payments:        payments,
		gateway:         gateway,
		dispatcher:      dispatcher,
		logger:          logger,
		callbackBaseURL: callbackBaseURL,
		returnURL:       returnURL,
	}
}

// Initiate validates the booking, records a pending Payment with a fresh
// tx_ref and asks the gateway for a checkout URL. A gateway failure leaves
// the pending row in place so the attempt can be reconciled later.
func (s *Service) Initiate(ctx context.Context, bookingID uuid.UUID, amountCents int64, customer Customer) (InitiateResponse, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return InitiateResponse{}, err
	}

	if booking.Status != store.BookingStatusPending {
		return InitiateResponse{}, ErrBookingNotPending
	}

	if amountCents <= 0 || amountCents != booking.TotalPriceCents {
		return InitiateResponse{}, ErrAmountMismatch
	}

	_, err = s.payments.GetPendingByBooking(ctx, bookingID)
	switch {
	case err == nil:
		return InitiateResponse{}, ErrDuplicatePending
	case errors.Is(err, store.ErrNotFound):
	default:
		return InitiateResponse{}, err
	}

	payment := &store.Payment{
		BookingID:   bookingID,
		AmountCents: amountCents,
		TxRef:       "voyago-" + uuid.New().String(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		if errors.Is(err, store.ErrPendingPaymentExists) {
			return InitiateResponse{}, ErrDuplicatePending
		}
		return InitiateResponse{}, err
	}

	resp, err := s.gateway.Initialize(ctx, InitiateRequest{
		TxRef:       payment.TxRef,
		AmountCents: amountCents,
		Customer:    customer,
		CallbackURL: fmt.Sprintf("%s/v1/payments/verify/%s", s.callbackBaseURL, payment.TxRef),
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		// The pending row stays put: a later verify call settles it.
		s.logger.Errorw("gateway initialize failed", "tx_ref", payment.TxRef, "booking_id", bookingID, "err", err)
		return InitiateResponse{}, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	return resp, nil
}

// VerifyOutcome tells the caller which terminal state the payment landed in
// so it can pick the right redirect target.
type VerifyOutcome struct {
	Status    string
	BookingID uuid.UUID
}

// Verify settles a checkout session. The redirect that triggers it is
// advisory only: the gateway's server-side answer, cross-checked against the
// stored amount, is what decides the transition. Replays of an already
// settled tx_ref return the stored state without calling the gateway or
// re-dispatching notifications.
func (s *Service) Verify(ctx context.Context, txRef string) (VerifyOutcome, error) {
	payment, err := s.payments.GetByTxRef(ctx, txRef)
	if err != nil {
		return VerifyOutcome{}, err
	}

	if payment.Status != store.PaymentStatusPending {
		return VerifyOutcome{Status: payment.Status, BookingID: payment.BookingID}, nil
	}

	result, err := s.gateway.Verify(ctx, txRef)
	if err != nil {
		s.logger.Warnw("gateway verify inconclusive", "tx_ref", txRef, "err", err)
		return VerifyOutcome{Status: store.PaymentStatusPending, BookingID: payment.BookingID},
			fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	switch result.Status {
	case GatewayStatusSuccess:
	case GatewayStatusPending:
		// Not a terminal answer: the payer may still complete checkout.
		// Hold the row pending so a later verify can settle it.
		s.logger.Infow("gateway reports payment still pending", "tx_ref", txRef)
		return VerifyOutcome{Status: store.PaymentStatusPending, BookingID: payment.BookingID}, nil
	default:
		return s.settleFailed(ctx, payment)
	}

	if result.AmountCents != payment.AmountCents {
		s.logger.Errorw("gateway amount mismatch, failing payment",
			"tx_ref", txRef, "expected_cents", payment.AmountCents, "reported_cents", result.AmountCents)
		return s.settleFailed(ctx, payment)
	}

	updated, err := s.payments.MarkCompleted(ctx, txRef, result.Reference)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !updated {
		// Lost the race against a concurrent verify; report what won.
		return s.reload(ctx, txRef)
	}

	confirmed, err := s.bookings.Confirm(ctx, payment.BookingID)
	if err != nil {
		s.logger.Errorw("booking confirm failed after completed payment", "booking_id", payment.BookingID, "err", err)
	} else if !confirmed {
		s.logger.Warnw("booking was not pending at confirmation time", "booking_id", payment.BookingID)
	}

	booking, err := s.bookings.GetByID(ctx, payment.BookingID)
	if err != nil {
		s.logger.Errorw("load booking for notification failed", "booking_id", payment.BookingID, "err", err)
	} else if err := s.dispatcher.EnqueueConfirmation(booking.ID, payment.ID, booking.UserID); err != nil {
		s.logger.Errorw("confirmation dispatch failed", "booking_id", booking.ID, "payment_id", payment.ID, "err", err)
	}

	return VerifyOutcome{Status: store.PaymentStatusCompleted, BookingID: payment.BookingID}, nil
}

func (s *Service) settleFailed(ctx context.Context, payment *store.Payment) (VerifyOutcome, error) {
	updated, err := s.payments.MarkFailed(ctx, payment.TxRef)
	if err != nil {
		return VerifyOutcome{}, err
	}
	if !updated {
		return s.reload(ctx, payment.TxRef)
	}
	// Booking stays pending so the user can retry checkout.
	return VerifyOutcome{Status: store.PaymentStatusFailed, BookingID: payment.BookingID}, nil
}

func (s *Service) reload(ctx context.Context, txRef string) (VerifyOutcome, error) {
	payment, err := s.payments.GetByTxRef(ctx, txRef)
	if err != nil {
		return VerifyOutcome{}, err
	}
	return VerifyOutcome{Status: payment.Status, BookingID: payment.BookingID}, nil
}
