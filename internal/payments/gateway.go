package payments

import (
	"context"
	"time"
)

// Gateway is the payment provider boundary. Amounts are minor units.
type Gateway interface {
	Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error)
	Verify(ctx context.Context, reference string) (*VerifyResult, error)
}

type InitializeRequest struct {
	Email       string
	Amount      int64
	Currency    string
	CallbackURL string
	Metadata    map[string]interface{}
}

type InitializeResult struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// VerifyResult is the gateway's view of a transaction. Verified is true only
// when the provider reports the charge as successful; Status carries the raw
// provider state (success, failed, abandoned, ...).
type VerifyResult struct {
	Verified        bool
	Status          string
	Reference       string
	Amount          int64
	Currency        string
	Channel         string
	PaidAt          *time.Time
	Authorization   string
	CustomerID      string
	GatewayResponse string
}
