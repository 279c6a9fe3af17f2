package wallet

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/httperr"
	"github.com/siamex/siamex/internal/ledger"
)

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
	devMode bool
}

// NewHandler builds a wallet HTTP handler. devMode enables the balance
// override endpoint used by local fixtures.
func NewHandler(service *Service, devMode bool) *Handler {
	return &Handler{service: service, devMode: devMode}
}

type walletResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Currency  string    `json:"currency"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

func toWalletResponse(w ledger.Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		UserID:    w.UserID,
		Currency:  w.Currency.String(),
		Balance:   w.Balance.String(),
		CreatedAt: w.CreatedAt,
	}
}

// List returns all wallets of the authenticated user.
func (h *Handler) List(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	wallets, err := h.service.List(c.UserContext(), userID)
	if err != nil {
		return httperr.Translate(err)
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toWalletResponse(w))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Balance returns the balance of one wallet owned by the caller.
func (h *Handler) Balance(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	w, err := h.service.Get(c.UserContext(), userID, c.Params("walletId"))
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"wallet_id": w.ID,
		"currency":  w.Currency,
		"balance":   w.Balance.String(),
		"timestamp": time.Now().UTC(),
	})
}

type setBalanceRequest struct {
	Balance string `json:"balance"`
}

// SetBalance overwrites a wallet balance. Only mounted in development.
func (h *Handler) SetBalance(c *fiber.Ctx) error {
	if !h.devMode {
		return fiber.NewError(http.StatusForbidden, "balance override disabled")
	}
	var req setBalanceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	balance, err := decimal.NewFromString(req.Balance)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid balance")
	}
	userID, _ := c.Locals("user_id").(string)
	w, err := h.service.SetBalance(c.UserContext(), userID, c.Params("walletId"), balance)
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}
