package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/siamex/siamex/internal/orders"
)

// RegisterOrderRoutes wires order endpoints.
func RegisterOrderRoutes(r fiber.Router, h *orders.Handler) {
	r.Post("/orders/execute", h.Execute)
	r.Post("/orders", h.Place)
	r.Post("/orders/:orderId/cancel", h.Cancel)
	r.Get("/orders", h.ListOpen)
	r.Get("/orders/my-orders", h.ListMine)
}
