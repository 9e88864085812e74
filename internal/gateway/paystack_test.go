package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/chatter-app/chatter-wallet/internal/config"
)

func TestPaystackInitialize(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status":  true,
			"message": "Authorization URL created",
			"data":    map[string]any{"access_code": "ac_xyz", "reference": "ref_123"},
		})
	}))
	defer srv.Close()

	client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk_test_abc", Timeout: time.Second})

	checkout, err := client.Initialize(context.Background(), InitializeRequest{Amount: 500, Email: "a@b.com", UserID: "user-1"})
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if checkout.AccessCode != "ac_xyz" || checkout.Reference != "ref_123" {
		t.Fatalf("unexpected checkout: %+v", checkout)
	}

	if gotAuth != "Bearer sk_test_abc" {
		t.Fatalf("expected bearer secret, got %q", gotAuth)
	}
	if gotBody["amount"].(float64) != 500 || gotBody["email"] != "a@b.com" {
		t.Fatalf("unexpected request body: %v", gotBody)
	}
	meta, _ := gotBody["metadata"].(map[string]any)
	if meta["uid"] != "user-1" {
		t.Fatalf("expected uid metadata, got %v", gotBody["metadata"])
	}
}

func TestPaystackVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ref_123" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "success", "amount": 500},
		})
	}))
	defer srv.Close()

	client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk", Timeout: time.Second})

	v, err := client.Verify(context.Background(), "ref_123")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Status != StatusSuccess || v.Amount != 500 {
		t.Fatalf("unexpected verification: %+v", v)
	}
}

func TestPaystackVerifyPendingStatusPassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "abandoned", "amount": 0},
		})
	}))
	defer srv.Close()

	client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk", Timeout: time.Second})

	v, err := client.Verify(context.Background(), "ref_pending")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if v.Status == StatusSuccess {
		t.Fatalf("expected non-success status, got %+v", v)
	}
}

func TestPaystackStatusMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusBadGateway, ErrGateway},
	}

	for _, tc := range cases {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(tc.code)
		}))

		client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk", Timeout: time.Second})
		_, err := client.Verify(context.Background(), "ref")
		if !errors.Is(err, tc.want) {
			t.Errorf("status %d: expected %v, got %v", tc.code, tc.want, err)
		}
		srv.Close()
	}
}

func TestPaystackTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk", Timeout: 20 * time.Millisecond})

	if _, err := client.Verify(context.Background(), "ref"); !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestPaystackUnsuccessfulEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": false, "message": "Invalid key"})
	}))
	defer srv.Close()

	client := NewPaystack(config.Gateway{BaseURL: srv.URL, SecretKey: "sk", Timeout: time.Second})

	if _, err := client.Initialize(context.Background(), InitializeRequest{Amount: 100, Email: "a@b.com"}); !errors.Is(err, ErrGateway) {
		t.Fatalf("expected gateway error, got %v", err)
	}
}
