package gateway

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Static simulates the gateway for development and tests. Sessions it
// initializes verify as captured at the initialized amount.
type Static struct {
	mu       sync.Mutex
	sessions map[string]int64
}

// NewStatic builds the simulated gateway.
func NewStatic() *Static {
	return &Static{sessions: make(map[string]int64)}
}

// Initialize hands out a synthetic checkout session.
func (s *Static) Initialize(_ context.Context, req InitializeRequest) (Checkout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := uuid.NewString()
	s.sessions[ref] = req.Amount
	return Checkout{AccessCode: "ac_" + ref[:8], Reference: ref}, nil
}

// Verify reports any initialized session as captured in full.
func (s *Static) Verify(_ context.Context, reference string) (Verification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	amount, ok := s.sessions[reference]
	if !ok {
		return Verification{}, ErrNotFound
	}
	return Verification{Status: StatusSuccess, Amount: amount}, nil
}
