package wallet

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/chatter-app/chatter-wallet/internal/gateway"
	"github.com/chatter-app/chatter-wallet/internal/ledger"
)

// Handler exposes wallet HTTP endpoints. Caller identity comes from the
// user_id local set by the JWT middleware.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type initializeTopUpRequest struct {
	Amount int64  `json:"amount"`
	Email  string `json:"email"`
}

type verifyTopUpRequest struct {
	Reference string `json:"reference"`
	Amount    int64  `json:"amount"`
}

type transferRequest struct {
	ToUserID string `json:"to_user_id"`
	Amount   int64  `json:"amount"`
}

// InitializeTopUp opens a gateway checkout session for the caller.
func (h *Handler) InitializeTopUp(c *fiber.Ctx) error {
	uid, ok := callerID(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req initializeTopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	checkout, err := h.service.InitializeTopUp(c.UserContext(), uid, req.Amount, req.Email)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"access_code": checkout.AccessCode,
		"reference":   checkout.Reference,
	})
}

// VerifyTopUp confirms a completed checkout and credits the caller.
func (h *Handler) VerifyTopUp(c *fiber.Ctx) error {
	uid, ok := callerID(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req verifyTopUpRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.service.VerifyTopUp(c.UserContext(), uid, req.Reference, req.Amount)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"success":        true,
		"transaction_id": receipt.EntryID,
		"balance":        receipt.Balance,
	})
}

// Transfer moves funds from the caller to another user.
func (h *Handler) Transfer(c *fiber.Ctx) error {
	uid, ok := callerID(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}

	receipt, err := h.service.Transfer(c.UserContext(), uid, req.ToUserID, req.Amount)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"transaction_id": receipt.TransactionID,
		"balance":        receipt.FromBalance,
	})
}

// Balance returns the caller's balance record.
func (h *Handler) Balance(c *fiber.Ctx) error {
	uid, ok := callerID(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	acct, err := h.service.Balance(c.UserContext(), uid)
	if err != nil {
		return mapError(err)
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"user_id":    acct.UserID,
		"balance":    acct.Balance,
		"currency":   acct.Currency,
		"updated_at": acct.UpdatedAt,
	})
}

// History lists the caller's transaction log entries, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	uid, ok := callerID(c)
	if !ok {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}

	entries, err := h.service.History(c.UserContext(), uid, c.QueryInt("limit", 50))
	if err != nil {
		return mapError(err)
	}

	out := make([]fiber.Map, 0, len(entries))
	for _, e := range entries {
		item := fiber.Map{
			"id":        e.ID,
			"type":      e.Kind,
			"amount":    e.Amount,
			"status":    e.Status,
			"to":        e.To,
			"timestamp": e.CreatedAt,
		}
		if e.From != "" {
			item["from"] = e.From
		}
		if e.Reference != "" {
			item["reference"] = e.Reference
		}
		out = append(out, item)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"transactions": out})
}

func callerID(c *fiber.Ctx) (string, bool) {
	uid, _ := c.Locals("user_id").(string)
	return uid, uid != ""
}

// mapError translates service failures into HTTP semantics. Precondition
// failures are distinguishable from transient gateway trouble so clients know
// whether a retry can help.
func mapError(err error) error {
	switch {
	case errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrEmailRequired),
		errors.Is(err, ErrRecipientRequired),
		errors.Is(err, ErrSelfTransfer):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrTopUpNotConfirmed),
		errors.Is(err, ledger.ErrInsufficientFunds),
		errors.Is(err, ledger.ErrCurrencyMismatch):
		return fiber.NewError(http.StatusPreconditionFailed, err.Error())
	case errors.Is(err, ledger.ErrAccountNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, gateway.ErrTimeout), errors.Is(err, gateway.ErrGateway),
		errors.Is(err, gateway.ErrUnauthorized), errors.Is(err, gateway.ErrNotFound):
		return fiber.NewError(http.StatusBadGateway, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
