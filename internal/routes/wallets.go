package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/siamex/siamex/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. The balance override route is
// always mounted; the handler rejects it outside development.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId/balance", h.Balance)
	r.Put("/wallets/:walletId/balance", h.SetBalance)
}
