package payments

// Customer is the payer information forwarded to the gateway's hosted
// checkout page.
type Customer struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
}

type InitiateRequest struct {
	TxRef       string
	AmountCents int64
	Customer    Customer
	CallbackURL string
	ReturnURL   string
}

type InitiateResponse struct {
	CheckoutURL string `json:"checkout_url"`
	TxRef       string `json:"tx_ref"`
}

// Gateway-reported definitive statuses.
const (
	GatewayStatusSuccess = "success"
	GatewayStatusFailed  = "failed"
	GatewayStatusPending = "pending"
)

// VerifyResult is the gateway's authoritative view of a transaction. A
// returned result means the gateway answered; transport problems surface as
// errors instead.
type VerifyResult struct {
	Status      string
	Reference   string // gateway-side transaction id
	AmountCents int64
}
