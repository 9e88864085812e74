package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatter-app/chatter-wallet/internal/identity"
	"github.com/chatter-app/chatter-wallet/internal/wallet"
)

// RegisterIdentityRoutes wires identity endpoints. Registration is the
// account-creation trigger: every new user gets a zero balance provisioned
// before the response goes out, and the provisioning write is creation-only so
// a retried registration flow cannot reset anything.
func RegisterIdentityRoutes(r fiber.Router, ids *identity.Service, wallets *wallet.Service, logger *slog.Logger) {
	r.Post("/identity/register", func(c *fiber.Ctx) error {
		var req struct {
			Email       string `json:"email"`
			Password    string `json:"password"`
			DisplayName string `json:"display_name"`
		}
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		user, err := ids.Register(c.UserContext(), identity.Credentials{Email: req.Email, Password: req.Password, DisplayName: req.DisplayName})
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		if err := wallets.CreateForUser(c.UserContext(), user.ID); err != nil {
			// The user exists but has no balance record; surface the failure
			// so the client retries registration completion.
			logger.Error("wallet provisioning failed", slog.String("user_id", user.ID), slog.Any("error", err))
			return fiber.NewError(http.StatusInternalServerError, "wallet provisioning failed")
		}
		logger.Info("identity.register completed",
			slog.String("user_id", user.ID),
			slog.String("email", user.Email),
			slog.Int("status", http.StatusCreated),
		)
		return c.Status(http.StatusCreated).JSON(fiber.Map{
			"user_id":      user.ID,
			"email":        user.Email,
			"display_name": user.DisplayName,
		})
	})
}
