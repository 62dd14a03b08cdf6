package main

import (
	"errors"
	"net/http"

	"voyago/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type CreateReviewPayload struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

// createReviewHandler godoc
//
//	@Summary		Review a listing
//	@Description	Creates a review; one review per user per listing
//	@Tags			reviews
//	@Accept			json
//	@Produce		json
//	@Param			listingID	path		string				true	"Listing ID"
//	@Param			payload		body		CreateReviewPayload	true	"Review data"
//	@Success		201			{object}	store.Review
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error	"Listing not found"
//	@Failure		409			{object}	error	"Already reviewed"
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID}/reviews [post]
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload CreateReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if _, err := app.store.Listings.GetByID(r.Context(), listingID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	review := &store.Review{
		ListingID: listingID,
		UserID:    user.ID,
		Rating:    payload.Rating,
		Comment:   payload.Comment,
	}

	if err := app.store.Reviews.Create(r.Context(), review); err != nil {
		switch {
		case errors.Is(err, store.ErrDuplicateReview):
			app.conflictResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, review); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getListingReviewsHandler godoc
//
//	@Summary		List reviews for a listing
//	@Tags			reviews
//	@Produce		json
//	@Param			listingID	path		string	true	"Listing ID"
//	@Success		200			{array}		store.Review
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/listings/{listingID}/reviews [get]
func (app *application) getListingReviewsHandler(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListByListing(r.Context(), listingID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, reviews); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteReviewHandler godoc
//
//	@Summary		Delete a review
//	@Description	Deletes the current user's review
//	@Tags			reviews
//	@Produce		json
//	@Param			listingID	path	string	true	"Listing ID"
//	@Param			reviewID	path	string	true	"Review ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID}/reviews/{reviewID} [delete]
func (app *application) deleteReviewHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	reviewID, err := uuid.Parse(chi.URLParam(r, "reviewID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Reviews.Delete(r.Context(), reviewID, user.ID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
