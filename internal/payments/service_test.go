package payments

import (
	"context"
	"errors"
	"strings"
	"testing"

	"voyago/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceMocks struct {
	bookings   *BookingStoreMock
	payments   *PaymentStoreMock
	gateway    *GatewayMock
	dispatcher *DispatcherMock
}

func newTestService() (*Service, serviceMocks) {
	m := serviceMocks{
		bookings:   new(BookingStoreMock),
		payments:   new(PaymentStoreMock),
		gateway:    new(GatewayMock),
		dispatcher: new(DispatcherMock),
	}
	svc := NewService(
		m.bookings, m.payments, m.gateway, m.dispatcher,
		zap.NewNop().Sugar(),
		"https://api.voyago.test", "https://app.voyago.test/payments/done",
	)
	return svc, m
}

func pendingBooking(totalCents int64) *store.Booking {
	return &store.Booking{
		ID:              uuid.New(),
		ListingID:       uuid.New(),
		UserID:          uuid.New(),
		Reference:       "BKNG1",
		TotalPriceCents: totalCents,
		Status:          store.BookingStatusPending,
	}
}

var testCustomer = Customer{
	Email:     "guest@example.com",
	FirstName: "Abel",
	LastName:  "Tesfaye",
	Phone:     "0911121314",
}

func TestService_Initiate(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown booking", func(t *testing.T) {
		svc, m := newTestService()
		bookingID := uuid.New()
		m.bookings.On("GetByID", ctx, bookingID).Return(nil, store.ErrNotFound)

		_, err := svc.Initiate(ctx, bookingID, 10000, testCustomer)
		require.ErrorIs(t, err, store.ErrNotFound)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("amount mismatch creates nothing", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)

		_, err := svc.Initiate(ctx, booking.ID, 5000, testCustomer)
		require.ErrorIs(t, err, ErrAmountMismatch)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		m.gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(0)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)

		_, err := svc.Initiate(ctx, booking.ID, 0, testCustomer)
		require.ErrorIs(t, err, ErrAmountMismatch)
	})

	t.Run("booking already confirmed", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		booking.Status = store.BookingStatusConfirmed
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)

		_, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
		require.ErrorIs(t, err, ErrBookingNotPending)
	})

	t.Run("duplicate pending payment rejected", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)
		m.payments.On("GetPendingByBooking", ctx, booking.ID).
			Return(&store.Payment{BookingID: booking.ID, Status: store.PaymentStatusPending}, nil)

		_, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
		require.ErrorIs(t, err, ErrDuplicatePending)
		m.payments.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("duplicate pending race caught by index", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)
		m.payments.On("GetPendingByBooking", ctx, booking.ID).Return(nil, store.ErrNotFound)
		m.payments.On("Create", ctx, mock.AnythingOfType("*store.Payment")).Return(store.ErrPendingPaymentExists)

		_, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
		require.ErrorIs(t, err, ErrDuplicatePending)
	})

	t.Run("gateway failure keeps pending payment", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)
		m.payments.On("GetPendingByBooking", ctx, booking.ID).Return(nil, store.ErrNotFound)
		m.payments.On("Create", ctx, mock.AnythingOfType("*store.Payment")).Return(nil)
		m.gateway.On("Initialize", ctx, mock.AnythingOfType("payments.InitiateRequest")).
			Return(InitiateResponse{}, errors.New("connection refused"))

		_, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
		require.ErrorIs(t, err, ErrGatewayUnavailable)
		m.payments.AssertCalled(t, "Create", ctx, mock.AnythingOfType("*store.Payment"))
	})

	t.Run("success returns checkout url and tx_ref", func(t *testing.T) {
		svc, m := newTestService()
		booking := pendingBooking(10000)
		m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)
		m.payments.On("GetPendingByBooking", ctx, booking.ID).Return(nil, store.ErrNotFound)

		var created *store.Payment
		m.payments.On("Create", ctx, mock.AnythingOfType("*store.Payment")).
			Run(func(args mock.Arguments) {
				created = args.Get(1).(*store.Payment)
			}).Return(nil)

		var initReq InitiateRequest
		m.gateway.On("Initialize", ctx, mock.AnythingOfType("payments.InitiateRequest")).
			Run(func(args mock.Arguments) {
				initReq = args.Get(1).(InitiateRequest)
			}).
			Return(InitiateResponse{CheckoutURL: "https://checkout.chapa.co/checkout/123"}, nil)

		resp, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
		require.NoError(t, err)
		require.Equal(t, "https://checkout.chapa.co/checkout/123", resp.CheckoutURL)

		require.NotNil(t, created)
		require.Equal(t, booking.ID, created.BookingID)
		require.Equal(t, int64(10000), created.AmountCents)
		require.True(t, strings.HasPrefix(created.TxRef, "voyago-"))

		require.Equal(t, created.TxRef, initReq.TxRef)
		require.Equal(t, int64(10000), initReq.AmountCents)
		require.Equal(t, "https://api.voyago.test/v1/payments/verify/"+created.TxRef, initReq.CallbackURL)
	})

	t.Run("tx_refs are unique across attempts", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 5; i++ {
			svc, m := newTestService()
			booking := pendingBooking(10000)
			m.bookings.On("GetByID", ctx, booking.ID).Return(booking, nil)
			m.payments.On("GetPendingByBooking", ctx, booking.ID).Return(nil, store.ErrNotFound)

			var created *store.Payment
			m.payments.On("Create", ctx, mock.AnythingOfType("*store.Payment")).
				Run(func(args mock.Arguments) { created = args.Get(1).(*store.Payment) }).Return(nil)
			m.gateway.On("Initialize", ctx, mock.AnythingOfType("payments.InitiateRequest")).
				Return(InitiateResponse{CheckoutURL: "https://checkout.chapa.co/c"}, nil)

			_, err := svc.Initiate(ctx, booking.ID, 10000, testCustomer)
			require.NoError(t, err)
			require.False(t, seen[created.TxRef])
			seen[created.TxRef] = true
		}
	})
}

func TestService_Verify(t *testing.T) {
	ctx := context.Background()

	newPendingPayment := func() *store.Payment {
		return &store.Payment{
			ID:          uuid.New(),
			BookingID:   uuid.New(),
			AmountCents: 10000,
			Status:      store.PaymentStatusPending,
			TxRef:       "voyago-" + uuid.New().String(),
		}
	}

	t.Run("unknown tx_ref", func(t *testing.T) {
		svc, m := newTestService()
		m.payments.On("GetByTxRef", ctx, "voyago-nope").Return(nil, store.ErrNotFound)

		_, err := svc.Verify(ctx, "voyago-nope")
		require.ErrorIs(t, err, store.ErrNotFound)
		m.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("replay of completed payment is idempotent", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		payment.Status = store.PaymentStatusCompleted
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusCompleted, outcome.Status)
		require.Equal(t, payment.BookingID, outcome.BookingID)

		m.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
		m.dispatcher.AssertNotCalled(t, "EnqueueConfirmation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("replay of failed payment is idempotent", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		payment.Status = store.PaymentStatusFailed
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusFailed, outcome.Status)
		m.gateway.AssertNotCalled(t, "Verify", mock.Anything, mock.Anything)
	})

	t.Run("gateway outage leaves payment pending", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).Return(VerifyResult{}, errors.New("timeout"))

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.ErrorIs(t, err, ErrGatewayUnavailable)
		require.Equal(t, store.PaymentStatusPending, outcome.Status)

		m.payments.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
		m.payments.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
	})

	t.Run("gateway success completes payment, confirms booking, notifies once", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		booking := pendingBooking(payment.AmountCents)
		booking.ID = payment.BookingID

		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusSuccess, Reference: "APq3Gv", AmountCents: payment.AmountCents}, nil)
		m.payments.On("MarkCompleted", ctx, payment.TxRef, "APq3Gv").Return(true, nil)
		m.bookings.On("Confirm", ctx, payment.BookingID).Return(true, nil)
		m.bookings.On("GetByID", ctx, payment.BookingID).Return(booking, nil)
		m.dispatcher.On("EnqueueConfirmation", booking.ID, payment.ID, booking.UserID).Return(nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusCompleted, outcome.Status)

		m.dispatcher.AssertNumberOfCalls(t, "EnqueueConfirmation", 1)
	})

	t.Run("lost race returns settled state without notifying", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		settled := *payment
		settled.Status = store.PaymentStatusCompleted

		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil).Once()
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusSuccess, Reference: "APq3Gv", AmountCents: payment.AmountCents}, nil)
		m.payments.On("MarkCompleted", ctx, payment.TxRef, "APq3Gv").Return(false, nil)
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(&settled, nil).Once()

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusCompleted, outcome.Status)

		m.bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
		m.dispatcher.AssertNotCalled(t, "EnqueueConfirmation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gateway still pending leaves payment pending", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusPending, AmountCents: payment.AmountCents}, nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusPending, outcome.Status)
		require.Equal(t, payment.BookingID, outcome.BookingID)

		// Nothing settles: a later verify must still be able to complete it.
		m.payments.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
		m.payments.AssertNotCalled(t, "MarkFailed", mock.Anything, mock.Anything)
		m.bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
		m.dispatcher.AssertNotCalled(t, "EnqueueConfirmation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("gateway failure settles failed, booking untouched", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusFailed}, nil)
		m.payments.On("MarkFailed", ctx, payment.TxRef).Return(true, nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusFailed, outcome.Status)

		m.bookings.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything)
		m.dispatcher.AssertNotCalled(t, "EnqueueConfirmation", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("reported amount mismatch settles failed", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusSuccess, Reference: "APq3Gv", AmountCents: payment.AmountCents - 1}, nil)
		m.payments.On("MarkFailed", ctx, payment.TxRef).Return(true, nil)

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusFailed, outcome.Status)
		m.payments.AssertNotCalled(t, "MarkCompleted", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("dispatch failure does not fail the verification", func(t *testing.T) {
		svc, m := newTestService()
		payment := newPendingPayment()
		booking := pendingBooking(payment.AmountCents)
		booking.ID = payment.BookingID

		m.payments.On("GetByTxRef", ctx, payment.TxRef).Return(payment, nil)
		m.gateway.On("Verify", ctx, payment.TxRef).
			Return(VerifyResult{Status: GatewayStatusSuccess, Reference: "APq3Gv", AmountCents: payment.AmountCents}, nil)
		m.payments.On("MarkCompleted", ctx, payment.TxRef, "APq3Gv").Return(true, nil)
		m.bookings.On("Confirm", ctx, payment.BookingID).Return(true, nil)
		m.bookings.On("GetByID", ctx, payment.BookingID).Return(booking, nil)
		m.dispatcher.On("EnqueueConfirmation", booking.ID, payment.ID, booking.UserID).
			Return(errors.New("queue full"))

		outcome, err := svc.Verify(ctx, payment.TxRef)
		require.NoError(t, err)
		require.Equal(t, store.PaymentStatusCompleted, outcome.Status)
	})
}
