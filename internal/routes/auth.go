package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/chatter-app/chatter-wallet/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, loginLimiter fiber.Handler) {
	group := r.Group("/auth")
	if loginLimiter != nil {
		group.Post("/login", loginLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/refresh", h.Refresh)
}
