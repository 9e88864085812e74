package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatter-app/chatter-wallet/internal/wallet"
)

// RegisterWalletRoutes wires the wallet operations for the authenticated caller.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, topUpLimiter fiber.Handler) {
	r.Get("/wallet", h.Balance)
	r.Get("/wallet/transactions", h.History)
	if topUpLimiter != nil {
		r.Post("/wallet/topup/initialize", topUpLimiter, h.InitializeTopUp)
	} else {
		r.Post("/wallet/topup/initialize", h.InitializeTopUp)
	}
	r.Post("/wallet/topup/verify", h.VerifyTopUp)
	r.Post("/wallet/transfer", h.Transfer)
}
