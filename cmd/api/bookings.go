package main

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"voyago/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// toCents converts a major-unit amount from a JSON payload to cents,
// rounding to the nearest cent.
func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

type CreateBookingPayload struct {
	ListingID string `json:"listing_id" validate:"required,uuid"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// createBookingHandler godoc
//
//	@Summary		Create a booking
//	@Description	Books a stay for [start_date, end_date); the total is nights times the listing's nightly price
//	@Tags			bookings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateBookingPayload	true	"Booking dates"
//	@Success		201		{object}	store.Booking
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error	"Listing not found"
//	@Failure		409		{object}	error	"Dates overlap an existing booking"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/bookings [post]
func (app *application) createBookingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateBookingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listingID, err := uuid.Parse(payload.ListingID)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	startDate, err := time.Parse("2006-01-02", payload.StartDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	endDate, err := time.Parse("2006-01-02", payload.EndDate)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	nights := int64(endDate.Sub(startDate).Hours() / 24)
	if nights < 1 {
		app.badRequestResponse(w, r, fmt.Errorf("end_date must be after start_date"))
		return
	}
	if !startDate.After(time.Now().AddDate(0, 0, -1)) {
		app.badRequestResponse(w, r, fmt.Errorf("start_date must be in the future"))
		return
	}

	ctx := r.Context()

	listing, err := app.store.Listings.GetByID(ctx, listingID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	overlaps, err := app.store.Bookings.HasOverlap(ctx, listingID, startDate, endDate)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if overlaps {
		app.conflictResponse(w, r, errors.New("the listing is already booked for those dates"))
		return
	}

	reference, err := app.refcodes.FromCounter(time.Now().UnixNano())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	booking := &store.Booking{
		ListingID:       listingID,
		UserID:          user.ID,
		Reference:       reference,
		StartDate:       startDate,
		EndDate:         endDate,
		TotalPriceCents: nights * listing.PricePerNightCents,
	}

	if err := app.store.Bookings.Create(ctx, booking); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMyBookingsHandler godoc
//
//	@Summary		List my bookings
//	@Description	Lists the current user's bookings, newest first
//	@Tags			bookings
//	@Produce		json
//	@Success		200	{array}		store.Booking
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/bookings [get]
func (app *application) listMyBookingsHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	bookings, err := app.store.Bookings.ListByUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, bookings); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getBookingHandler godoc
//
//	@Summary		Get a booking
//	@Description	Returns a booking; only the booker can see it
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingID	path		string	true	"Booking ID"
//	@Success		200			{object}	store.Booking
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingID} [get]
func (app *application) getBookingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
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

	// Not-found rather than forbidden, so booking IDs cannot be probed.
	if booking.UserID != user.ID {
		app.notFoundResponse(w, r, errors.New("booking does not belong to the user"))
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, booking); err != nil {
		app.internalServerError(w, r, err)
	}
}

// cancelBookingHandler godoc
//
//	@Summary		Cancel a booking
//	@Description	Cancels a pending booking owned by the current user
//	@Tags			bookings
//	@Produce		json
//	@Param			bookingID	path	string	true	"Booking ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		409	{object}	error	"Booking is no longer pending"
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/bookings/{bookingID}/cancel [post]
func (app *application) cancelBookingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	bookingID, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	canceled, err := app.store.Bookings.Cancel(r.Context(), bookingID, user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if !canceled {
		// Either it is not theirs, does not exist, or already left pending.
		booking, err := app.store.Bookings.GetByID(r.Context(), bookingID)
		if err != nil || booking.UserID != user.ID {
			app.notFoundResponse(w, r, errors.New("booking not found"))
			return
		}
		app.conflictResponse(w, r, fmt.Errorf("booking is %s and can no longer be canceled", booking.Status))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
