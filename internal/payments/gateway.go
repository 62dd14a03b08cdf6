package payments

import "context"

// Gateway is the outbound port to the hosted payment provider. Adapters are
// pure: they never touch application state, and they report errors rather
// than swallowing them.
type Gateway interface {
	Initialize(ctx context.Context, req InitiateRequest) (InitiateResponse, error)
	Verify(ctx context.Context, txRef string) (VerifyResult, error)
}
