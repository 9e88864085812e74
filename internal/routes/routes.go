package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/chatter-app/chatter-wallet/internal/auth"
	"github.com/chatter-app/chatter-wallet/internal/config"
	"github.com/chatter-app/chatter-wallet/internal/gateway"
	"github.com/chatter-app/chatter-wallet/internal/identity"
	"github.com/chatter-app/chatter-wallet/internal/ledger"
	"github.com/chatter-app/chatter-wallet/internal/middleware"
	"github.com/chatter-app/chatter-wallet/internal/notification"
	"github.com/chatter-app/chatter-wallet/internal/stream"
	"github.com/chatter-app/chatter-wallet/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	// Middlewares
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	// Health
	RegisterHealthRoutes(app, d)

	// Services and handlers
	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var gatewayClient gateway.Client
	if d.Cfg.Gateway.SecretKey != "" {
		gatewayClient = gateway.NewPaystack(d.Cfg.Gateway)
	} else {
		// Dev fallback: simulate instantly-captured checkouts.
		gatewayClient = gateway.NewStatic()
	}

	var broker *stream.Broker
	if d.Cache != nil {
		broker = stream.NewBroker(d.Cache, d.Logger)
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}
	identitySvc := identity.NewService(identityRepo)
	authSvc := auth.NewService(d.Cfg, identityRepo)
	authHandler := auth.NewHandler(identitySvc, authSvc)

	notifier := notification.NewLoggerNotifier(d.Logger)
	walletSvc := wallet.NewService(ledgerBackend, gatewayClient, broker, notifier, d.Logger, d.Cfg.DefaultCurrency)
	walletHandler := wallet.NewHandler(walletSvc)

	// API routes
	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals("X-Request-ID").(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identitySvc, walletSvc, d.Logger)
	loginLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, loginLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Post("/auth/logout", authHandler.Logout)
	protected.Get("/me", func(c *fiber.Ctx) error {
		uid, _ := c.Locals("user_id").(string)
		if uid == "" {
			return c.SendStatus(http.StatusUnauthorized)
		}
		user, err := identityRepo.FindByID(c.UserContext(), uid)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "user not found")
		}
		return c.JSON(fiber.Map{
			"user_id":      user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
			"created_at":   user.CreatedAt,
		})
	})
	topUpLimiter := middleware.TopUpRateLimit(d.Cache, 10)
	RegisterWalletRoutes(protected, walletHandler, topUpLimiter)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}
