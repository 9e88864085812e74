package gateway

import (
	"context"
	"errors"
)

const (
	// StatusSuccess is the gateway status for a captured payment.
	StatusSuccess = "success"
)

var (
	// ErrTimeout indicates the gateway did not answer within the configured deadline.
	ErrTimeout = errors.New("gateway timeout")

	// ErrUnauthorized indicates the configured secret key was rejected.
	ErrUnauthorized = errors.New("gateway rejected credentials")

	// ErrNotFound indicates the gateway has no record of the reference.
	ErrNotFound = errors.New("reference not found")

	// ErrGateway covers any other non-2xx or malformed gateway response.
	ErrGateway = errors.New("gateway error")
)

// Checkout is the session handed back to the client so it can complete the
// hosted payment step. Reference is the durable correlation key.
type Checkout struct {
	AccessCode string
	Reference  string
}

// Verification is the gateway's authoritative view of one checkout attempt.
type Verification struct {
	Status string
	Amount int64
}

// InitializeRequest carries the data needed to open a checkout session. UserID
// travels in the session metadata so verification can cross-check the initiator.
type InitializeRequest struct {
	Amount int64
	Email  string
	UserID string
}

// Client is the connector to the external card-processing provider. It holds
// no local state; failures propagate to the wallet service unchanged.
type Client interface {
	Initialize(ctx context.Context, req InitializeRequest) (Checkout, error)
	Verify(ctx context.Context, reference string) (Verification, error)
}
