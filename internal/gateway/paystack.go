package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/chatter-app/chatter-wallet/internal/config"
)

const (
	initializePath = "/transaction/initialize"
	verifyPath     = "/transaction/verify/"
)

// Paystack talks to the Paystack REST API using a server-held secret key.
type Paystack struct {
	cfg    config.Gateway
	client *http.Client
}

// NewPaystack builds the HTTP gateway client with a bounded request timeout.
func NewPaystack(cfg config.Gateway) *Paystack {
	return &Paystack{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

type initializeRequest struct {
	Amount   int64             `json:"amount"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata"`
}

type initializeData struct {
	AccessCode string `json:"access_code"`
	Reference  string `json:"reference"`
}

type verifyData struct {
	Status string `json:"status"`
	Amount int64  `json:"amount"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize opens a hosted checkout session tagged with the initiating user.
func (p *Paystack) Initialize(ctx context.Context, req InitializeRequest) (Checkout, error) {
	body := initializeRequest{
		Amount:   req.Amount,
		Email:    req.Email,
		Metadata: map[string]string{"uid": req.UserID},
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return Checkout{}, fmt.Errorf("encode initialize request: %w", err)
	}

	data, err := p.do(ctx, http.MethodPost, p.cfg.BaseURL+initializePath, &buf)
	if err != nil {
		return Checkout{}, err
	}

	var parsed initializeData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Checkout{}, fmt.Errorf("decode initialize response: %w", err)
	}
	if parsed.AccessCode == "" || parsed.Reference == "" {
		return Checkout{}, fmt.Errorf("%w: initialize response missing session fields", ErrGateway)
	}
	return Checkout{AccessCode: parsed.AccessCode, Reference: parsed.Reference}, nil
}

// Verify fetches the authoritative status and captured amount for a reference.
func (p *Paystack) Verify(ctx context.Context, reference string) (Verification, error) {
	if reference == "" {
		return Verification{}, fmt.Errorf("reference is required")
	}

	data, err := p.do(ctx, http.MethodGet, p.cfg.BaseURL+verifyPath+reference, nil)
	if err != nil {
		return Verification{}, err
	}

	var parsed verifyData
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Verification{}, fmt.Errorf("decode verify response: %w", err)
	}
	return Verification{Status: parsed.Status, Amount: parsed.Amount}, nil
}

func (p *Paystack) do(ctx context.Context, method, url string, body *bytes.Buffer) (json.RawMessage, error) {
	var reader *bytes.Buffer
	if body == nil {
		reader = &bytes.Buffer{}
	} else {
		reader = body
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		var netErr interface{ Timeout() bool }
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, ErrTimeout
		}
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, mapStatusToError(resp.StatusCode)
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode gateway envelope: %w", err)
	}
	if !env.Status {
		return nil, fmt.Errorf("%w: %s", ErrGateway, env.Message)
	}
	return env.Data, nil
}

func mapStatusToError(statusCode int) error {
	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return fmt.Errorf("%w: status %d", ErrGateway, statusCode)
	}
}
