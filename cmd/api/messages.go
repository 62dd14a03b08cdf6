package main

import (
	"errors"
	"net/http"

	"voyago/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type SendMessagePayload struct {
	RecipientID string `json:"recipient_id" validate:"required,uuid"`
	Body        string `json:"body" validate:"required,max=4000"`
}

// sendMessageHandler godoc
//
//	@Summary		Send a message
//	@Description	Sends a direct message to another user
//	@Tags			messages
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		SendMessagePayload	true	"Message"
//	@Success		201		{object}	store.Message
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		404		{object}	error	"Recipient not found"
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/messages [post]
func (app *application) sendMessageHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	var payload SendMessagePayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	recipientID, err := uuid.Parse(payload.RecipientID)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if recipientID == user.ID {
		app.badRequestResponse(w, r, errors.New("cannot message yourself"))
		return
	}

	if _, err := app.store.Users.GetByID(r.Context(), recipientID); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			app.notFoundResponse(w, r, err)
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	message := &store.Message{
		SenderID:    user.ID,
		RecipientID: recipientID,
		Body:        payload.Body,
	}

	if err := app.store.Messages.Create(r.Context(), message); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusCreated, message); err != nil {
		app.internalServerError(w, r, err)
	}
}

// listMessagesHandler godoc
//
//	@Summary		List my messages
//	@Description	Lists messages sent or received by the current user, newest first
//	@Tags			messages
//	@Produce		json
//	@Success		200	{array}		store.Message
//	@Failure		500	{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/messages [get]
func (app *application) listMessagesHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	messages, err := app.store.Messages.ListForUser(r.Context(), user.ID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, messages); err != nil {
		app.internalServerError(w, r, err)
	}
}

// conversationHandler godoc
//
//	@Summary		Get a conversation
//	@Description	Lists the message thread between the current user and another user, oldest first
//	@Tags			messages
//	@Produce		json
//	@Param			userID	path		string	true	"Other user's ID"
//	@Success		200		{array}		store.Message
//	@Failure		400		{object}	ErrorBadRequestResponse
//	@Failure		500		{object}	ErrorInternalServerResponse
//	@Security		ApiKeyAuth
//	@Router			/messages/{userID} [get]
func (app *application) conversationHandler(w http.ResponseWriter, r *http.Request) {
	user := getUserFromContext(r)

	otherID, err := uuid.Parse(chi.URLParam(r, "userID"))
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	messages, err := app.store.Messages.Conversation(r.Context(), user.ID, otherID)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.jsonResponse(w, http.StatusOK, messages); err != nil {
		app.internalServerError(w, r, err)
	}
}
