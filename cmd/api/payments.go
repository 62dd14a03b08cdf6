package main

import (
	"errors"
	"fmt"
	"net/http"

	"voyago/internal/payments"
	"voyago/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type InitiatePaymentPayload struct {
	BookingID string  `json:"booking_id" validate:"required,uuid"`
	Amount    float64 `json:"amount" validate:"required,gt=0"`
}

// initiatePaymentHandler godoc
//
//	@Summary		Initiate a checkout session
//	@Description	Creates a pending payment for the booking and returns the gateway's hosted checkout URL
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		InitiatePaymentPayload	true	"Booking and amount"
//	@Success		200		{object}	payments.InitiateResponse
//	@Failure		400		{object}	ErrorBadRequestResponse	"Amount mismatch or malformed payload"
//	@Failure		404		{object}	error					"Booking not found"
//	@Failure		409		{object}	error					"Payment already in progress or booking not pending"
//	@Failure		502		{object}	error					"Gateway unavailable"
//	@Security		ApiKeyAuth
//	@Router			/payments/initiate [post]
func (app *application) initiatePaymentHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload InitiatePaymentPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	bookingID, err := uuid.Parse(payload.BookingID)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	booking, err := app.store.Bookings.GetByID(r.Context(), bookingID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Only the booker pays for a booking.
	if booking.UserID != user.ID {
		app.notFoundResponse(w, r, errors.New("booking does not belong to the user"))
		return
	}

	resp, err := app.payflow.Initiate(r.Context(), bookingID, toCents(payload.Amount), payments.Customer{
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		case errors.Is(err, payments.ErrAmountMismatch):
			app.badRequestResponse(w, r, err)
		case errors.Is(err, payments.ErrBookingNotPending):
			app.conflictResponse(w, r, err)
		case errors.Is(err, payments.ErrDuplicatePending):
			app.conflictResponse(w, r, err)
		case errors.Is(err, payments.ErrGatewayUnavailable):
			app.badGatewayResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, resp); err != nil {
		app.internalServerError(w, r, err)
	}
}

// verifyPaymentHandler godoc
//
//	@Summary		Verify a checkout session
//	@Description	Called by the gateway redirect after checkout; re-verifies the transaction server-side and redirects the browser to the matching frontend result page
//	@Tags			payments
//	@Produce		json
//	@Param			txRef	path		string	true	"Transaction reference"
//	@Success		302		{string}	string	"Redirect to the frontend result page"
//	@Failure		404		{object}	error	"Unknown transaction reference"
//	@Router			/payments/verify/{txRef} [get]
func (app *application) verifyPaymentHandler(w http.ResponseWriter, r *http.Request) {
	txRef := chi.URLParam(r, "txRef")
	if txRef == "" {
		app.badRequestResponse(w, r, errors.New("missing transaction reference"))
		return
	}

	outcome, err := app.payflow.Verify(r.Context(), txRef)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
			return
		case errors.Is(err, payments.ErrGatewayUnavailable):
			// Inconclusive: nothing settled, send the user to a waiting page.
			http.Redirect(w, r, app.config.frontendURL+"/payments/pending?tx_ref="+txRef, http.StatusFound)
			return
		default:
			app.internalServerError(w, r, err)
			return
		}
	}

	var target string
	switch outcome.Status {
	case store.PaymentStatusCompleted:
		target = fmt.Sprintf("%s/payments/success?booking_id=%s", app.config.frontendURL, outcome.BookingID)
	case store.PaymentStatusFailed:
		target = fmt.Sprintf("%s/payments/failure?booking_id=%s", app.config.frontendURL, outcome.BookingID)
	default:
		target = app.config.frontendURL + "/payments/pending?tx_ref=" + txRef
	}

	http.Redirect(w, r, target, http.StatusFound)
}
