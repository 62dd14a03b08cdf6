package mailer

import "embed"

const (
	FromName                    = "Voyago"
	maxRetries                  = 3
	UserWelcomeTemplate         = "user_invitation.tmpl"
	BookingConfirmationTemplate = "booking_confirmation.tmpl"
)

//go:embed "templates"
var FS embed.FS

type Client interface {
	Send(templateFile, username, email string, data any) (int, error)
}
