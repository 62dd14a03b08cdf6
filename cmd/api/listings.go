package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"voyago/internal/store"

	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// for cloudinary uploadParams
func boolPtr(b bool) *bool {
	return &b
}

type CreateListingPayload struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Description   string  `json:"description" validate:"required,max=2000"`
	Location      string  `json:"location" validate:"required,max=255"`
	PricePerNight float64 `json:"price_per_night" validate:"required,gt=0"`
}

// createListingHandler godoc
//
//	@Summary		Create a listing
//	@Description	Creates a property listing owned by the current user
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateListingPayload	true	"Listing data"
//	@Success		201		{object}	store.Listing
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings [post]
func (app *application) createListingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload CreateListingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listing := &store.Listing{
		HostID:             user.ID,
		Name:               payload.Name,
		Description:        payload.Description,
		Location:           payload.Location,
		PricePerNightCents: toCents(payload.PricePerNight),
	}

	if err := app.store.Listings.Create(r.Context(), listing); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, listing); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listListingsHandler godoc
//
//	@Summary		List listings
//	@Description	Lists listings, newest first
//	@Tags			listings
//	@Produce		json
//	@Param			limit	query		int	false	"Page size (max 50)"
//	@Param			offset	query		int	false	"Offset"
//	@Success		200		{array}		store.Listing
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Router			/listings [get]
func (app *application) listListingsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 || parsed > 50 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = parsed
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			app.badRequestResponse(w, r, fmt.Errorf("invalid offset %q", v))
			return
		}
		offset = parsed
	}

	listings, err := app.store.Listings.List(r.Context(), limit, offset)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, listings); err != nil {
		app.internalServerError(w, r, err)
	}
}

// getListingHandler godoc
//
//	@Summary		Get a listing
//	@Tags			listings
//	@Produce		json
//	@Param			listingID	path		string	true	"Listing ID"
//	@Success		200			{object}	store.Listing
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Router			/listings/{listingID} [get]
func (app *application) getListingHandler(w http.ResponseWriter, r *http.Request) {
	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listing, err := app.store.Listings.GetByID(r.Context(), listingID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, listing); err != nil {
		app.internalServerError(w, r, err)
	}
}

type UpdateListingPayload struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Description   string  `json:"description" validate:"required,max=2000"`
	Location      string  `json:"location" validate:"required,max=255"`
	PricePerNight float64 `json:"price_per_night" validate:"required,gt=0"`
}

// updateListingHandler godoc
//
//	@Summary		Update a listing
//	@Description	Updates a listing; only the owning host can update
//	@Tags			listings
//	@Accept			json
//	@Produce		json
//	@Param			listingID	path		string					true	"Listing ID"
//	@Param			payload		body		UpdateListingPayload	true	"New listing data"
//	@Success		200			{object}	store.Listing
//	@Failure		400			{object}	ErrorBadRequestResponse
//	@Failure		404			{object}	error
//	@Failure		500			{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID} [patch]
func (app *application) updateListingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	var payload UpdateListingPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listing := &store.Listing{
		ID:                 listingID,
		HostID:             user.ID,
		Name:               payload.Name,
		Description:        payload.Description,
		Location:           payload.Location,
		PricePerNightCents: toCents(payload.PricePerNight),
	}

	if err := app.store.Listings.Update(r.Context(), listing); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, listing); err != nil {
		app.internalServerError(w, r, err)
	}
}

// deleteListingHandler godoc
//
//	@Summary		Delete a listing
//	@Tags			listings
//	@Produce		json
//	@Param			listingID	path	string	true	"Listing ID"
//	@Success		204
//	@Failure		404	{object}	error
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID} [delete]
func (app *application) deleteListingHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := app.store.Listings.Delete(r.Context(), listingID, user.ID); err != nil {
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

// uploadListingPhotoHandler godoc
//
//	@Summary		Upload a listing photo
//	@Description	Uploads a photo to Cloudinary and appends its URL to the listing
//	@Tags			listings
//	@Accept			mpfd
//	@Produce		json
//	@Param			listingID	path		string	true	"Listing ID"
//	@Param			photo		formData	file	true	"Photo file, size limit is 5MB"
//	@Success		200			{string}	string	"Photo URL"
//	@Failure		400			{object}	error	"Unable to parse form or retrieve file"
//	@Failure		403			{object}	error	"Not the listing owner"
//	@Failure		500			{object}	error	"Upload or database failure"
//	@Security		ApiKeyAuth
//	@Router			/listings/{listingID}/photos [post]
func (app *application) uploadListingPhotoHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	listingID, err := uuid.Parse(chi.URLParam(r, "listingID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	listing, err := app.store.Listings.GetByID(r.Context(), listingID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	if listing.HostID != user.ID {
		app.forbiddenResponse(w, r)
		return
	}

	// Parse the multipart form
	if err := r.ParseMultipartForm(5 << 20); err != nil { // 5 MB
		http.Error(w, "Unable to parse form, file size limit is 5MB", http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("photo")
	if err != nil {
		http.Error(w, "Unable to retrieve file", http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Validate file type (allow only JPEG & PNG)
	contentType := fileHeader.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		http.Error(w, "Only JPEG and PNG images are allowed", http.StatusBadRequest)
		return
	}

	uploadParams := uploader.UploadParams{
		PublicID:       fmt.Sprintf("%s/%s", listingID, uuid.New()),
		Overwrite:      boolPtr(false),
		Folder:         "listing_photos",
		Transformation: "w_1280,h_960,c_fill,q_auto",
	}
	uploadResult, err := app.cld.Upload.Upload(r.Context(), file, uploadParams)
	if err != nil {
		http.Error(w, "Failed to upload image to Cloudinary", http.StatusInternalServerError)
		return
	}

	if err := app.store.Listings.AddPhotoURL(r.Context(), listingID, uploadResult.SecureURL); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"photo_url": uploadResult.SecureURL}); err != nil {
		app.internalServerError(w, r, err)
	}
}
