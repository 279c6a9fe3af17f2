package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/siamex/siamex/internal/transfers"
)

// RegisterTransferRoutes wires transfer endpoints.
func RegisterTransferRoutes(r fiber.Router, h *transfers.Handler) {
	r.Post("/transfers", h.Internal)
	r.Post("/transfers/external", h.External)
	r.Get("/transfers/history", h.History)
}
