package payments

import (
	"context"

	"voyago/internal/store"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type BookingStoreMock struct {
	mock.Mock
}

func (m *BookingStoreMock) GetByID(ctx context.Context, bookingID uuid.UUID) (*store.Booking, error) {
	args := m.Called(ctx, bookingID)
	if b := args.Get(0); b != nil {
		return b.(*store.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookingStoreMock) Confirm(ctx context.Context, bookingID uuid.UUID) (bool, error) {
	args := m.Called(ctx, bookingID)
	return args.Bool(0), args.Error(1)
}

type PaymentStoreMock struct {
	mock.Mock
}

func (m *PaymentStoreMock) Create(ctx context.Context, payment *store.Payment) error {
	args := m.Called(ctx, payment)
	if args.Error(0) == nil && payment.ID == uuid.Nil {
		payment.ID = uuid.New()
		payment.Status = store.PaymentStatusPending
	}
	return args.Error(0)
}

func (m *PaymentStoreMock) GetByTxRef(ctx context.Context, txRef string) (*store.Payment, error) {
	args := m.Called(ctx, txRef)
	if p := args.Get(0); p != nil {
		return p.(*store.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PaymentStoreMock) GetPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*store.Payment, error) {
	args := m.Called(ctx, bookingID)
	if p := args.Get(0); p != nil {
		return p.(*store.Payment), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PaymentStoreMock) MarkCompleted(ctx context.Context, txRef, chapaRef string) (bool, error) {
	args := m.Called(ctx, txRef, chapaRef)
	return args.Bool(0), args.Error(1)
}

func (m *PaymentStoreMock) MarkFailed(ctx context.Context, txRef string) (bool, error) {
	args := m.Called(ctx, txRef)
	return args.Bool(0), args.Error(1)
}

type GatewayMock struct {
	mock.Mock
}

func (m *GatewayMock) Initialize(ctx context.Context, req InitiateRequest) (InitiateResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(InitiateResponse), args.Error(1)
}

func (m *GatewayMock) Verify(ctx context.Context, txRef string) (VerifyResult, error) {
	args := m.Called(ctx, txRef)
	return args.Get(0).(VerifyResult), args.Error(1)
}

type DispatcherMock struct {
	mock.Mock
}

func (m *DispatcherMock) EnqueueConfirmation(bookingID, paymentID, userID uuid.UUID) error {
	args := m.Called(bookingID, paymentID, userID)
	return args.Error(0)
}
