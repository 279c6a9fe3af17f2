package transfers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/httperr"
	"github.com/siamex/siamex/internal/ledger"
)

// Handler exposes transfer endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transactionResponse struct {
	ID           string    `json:"id"`
	FromWalletID string    `json:"from_wallet_id"`
	ToWalletID   string    `json:"to_wallet_id"`
	OrderID      string    `json:"order_id,omitempty"`
	Amount       string    `json:"amount"`
	Currency     string    `json:"currency"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toTransactionResponse(tx ledger.Transaction) transactionResponse {
	return transactionResponse{
		ID:           tx.ID,
		FromWalletID: tx.FromWalletID,
		ToWalletID:   tx.ToWalletID,
		OrderID:      tx.OrderID,
		Amount:       tx.Amount.String(),
		Currency:     tx.Currency.String(),
		Type:         tx.Type,
		Status:       tx.Status,
		CreatedAt:    tx.CreatedAt,
	}
}

type transferRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	ToWalletID   string `json:"to_wallet_id"`
	Amount       string `json:"amount"`
}

// Internal processes a wallet-to-wallet transfer.
func (h *Handler) Internal(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	userID, _ := c.Locals("user_id").(string)

	tx, err := h.service.Transfer(c.UserContext(), TransferInput{
		UserID:       userID,
		FromWalletID: req.FromWalletID,
		ToWalletID:   req.ToWalletID,
		Amount:       amount,
	})
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
}

type externalRequest struct {
	FromWalletID string `json:"from_wallet_id"`
	Address      string `json:"address"`
	Amount       string `json:"amount"`
}

// External processes a withdrawal to an address outside the platform.
func (h *Handler) External(c *fiber.Ctx) error {
	var req externalRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	userID, _ := c.Locals("user_id").(string)

	tx, err := h.service.External(c.UserContext(), ExternalInput{
		UserID:       userID,
		FromWalletID: req.FromWalletID,
		Address:      req.Address,
		Amount:       amount,
	})
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusCreated).JSON(toTransactionResponse(tx))
}

// History lists the caller's transactions, newest first.
func (h *Handler) History(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	txs, err := h.service.History(c.UserContext(), userID)
	if err != nil {
		return httperr.Translate(err)
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, toTransactionResponse(tx))
	}
	return c.Status(http.StatusOK).JSON(out)
}
