package orders

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/siamex/siamex/internal/httperr"
	"github.com/siamex/siamex/internal/ledger"
)

// Handler exposes order endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs an order handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type orderRequest struct {
	Type           string `json:"type"`
	CryptoCurrency string `json:"crypto_currency"`
	FiatCurrency   string `json:"fiat_currency"`
	Amount         string `json:"amount"`
	PricePerUnit   string `json:"price_per_unit"`
}

func (r orderRequest) input(userID string) (Input, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return Input{}, fiber.NewError(http.StatusBadRequest, "invalid amount")
	}
	price, err := decimal.NewFromString(r.PricePerUnit)
	if err != nil {
		return Input{}, fiber.NewError(http.StatusBadRequest, "invalid price_per_unit")
	}
	return Input{
		UserID:         userID,
		Type:           r.Type,
		CryptoCurrency: r.CryptoCurrency,
		FiatCurrency:   r.FiatCurrency,
		Amount:         amount,
		PricePerUnit:   price,
	}, nil
}

type orderResponse struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Type           string    `json:"type"`
	CryptoCurrency string    `json:"crypto_currency"`
	FiatCurrency   string    `json:"fiat_currency"`
	Amount         string    `json:"amount"`
	PricePerUnit   string    `json:"price_per_unit"`
	TotalFiat      string    `json:"total_fiat"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

func toOrderResponse(o ledger.Order) orderResponse {
	return orderResponse{
		ID:             o.ID,
		UserID:         o.UserID,
		Type:           o.Type,
		CryptoCurrency: o.CryptoCurrency.String(),
		FiatCurrency:   o.FiatCurrency.String(),
		Amount:         o.Amount.String(),
		PricePerUnit:   o.PricePerUnit.String(),
		TotalFiat:      o.TotalFiat().String(),
		Status:         o.Status,
		CreatedAt:      o.CreatedAt,
	}
}

// Execute settles an order immediately at the submitted price.
func (h *Handler) Execute(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	input, err := req.input(userID)
	if err != nil {
		return err
	}
	order, tx, err := h.service.Execute(c.UserContext(), input)
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"order":          toOrderResponse(order),
		"transaction_id": tx.ID,
	})
}

// Place records a resting order without moving funds.
func (h *Handler) Place(c *fiber.Ctx) error {
	var req orderRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	userID, _ := c.Locals("user_id").(string)
	input, err := req.input(userID)
	if err != nil {
		return err
	}
	order, err := h.service.Place(c.UserContext(), input)
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusCreated).JSON(toOrderResponse(order))
}

// Cancel transitions one of the caller's pending orders to cancelled.
func (h *Handler) Cancel(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	order, err := h.service.Cancel(c.UserContext(), userID, c.Params("orderId"))
	if err != nil {
		return httperr.Translate(err)
	}
	return c.Status(http.StatusOK).JSON(toOrderResponse(order))
}

// ListMine returns the caller's orders, newest first.
func (h *Handler) ListMine(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	list, err := h.service.ListMine(c.UserContext(), userID)
	if err != nil {
		return httperr.Translate(err)
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// ListOpen returns all pending orders on the platform, newest first.
func (h *Handler) ListOpen(c *fiber.Ctx) error {
	list, err := h.service.ListOpen(c.UserContext())
	if err != nil {
		return httperr.Translate(err)
	}
	out := make([]orderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderResponse(o))
	}
	return c.Status(http.StatusOK).JSON(out)
}
