package middleware

import (
	"io"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chatter-app/chatter-wallet/internal/logging"
)

func setupTestApp(t *testing.T) (*fiber.App, *atomic.Int64, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}

	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	app := fiber.New()
	app.Use(Idempotency(cache, time.Minute, logging.Discard()))

	var calls atomic.Int64
	app.Post("/transfer", func(c *fiber.Ctx) error {
		calls.Add(1)
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"transaction_id": "tx-1"})
	})

	cleanup := func() {
		cache.Close()
		mr.Close()
	}

	return app, &calls, cleanup
}

func TestIdempotencyRequiresHeader(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader("{}"))
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected %d got %d", fiber.StatusBadRequest, resp.StatusCode)
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	app, calls, cleanup := setupTestApp(t)
	defer cleanup()

	send := func() (int, string) {
		req := httptest.NewRequest(fiber.MethodPost, "/transfer", strings.NewReader("{}"))
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		req.Header.Set(idempotencyKeyHeader, "key-1")
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("app.Test: %v", err)
		}
		payload, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		resp.Body.Close()
		return resp.StatusCode, string(payload)
	}

	status1, body1 := send()
	if status1 != fiber.StatusCreated {
		t.Fatalf("expected %d got %d", fiber.StatusCreated, status1)
	}

	status2, body2 := send()
	if status2 != fiber.StatusCreated || body2 != body1 {
		t.Fatalf("expected replayed response, got status=%d body=%q", status2, body2)
	}

	if calls.Load() != 1 {
		t.Fatalf("handler invoked %d times, expected 1", calls.Load())
	}
}

func TestIdempotencyGetPassesThrough(t *testing.T) {
	app, _, cleanup := setupTestApp(t)
	defer cleanup()

	app.Get("/balance", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	// Safe methods do not need the header.
	req := httptest.NewRequest(fiber.MethodGet, "/balance", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected %d got %d", fiber.StatusOK, resp.StatusCode)
	}
}
