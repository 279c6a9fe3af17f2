package server

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/siamex/siamex/internal/config"
	"github.com/siamex/siamex/internal/identity"
	"github.com/siamex/siamex/internal/ledger"
	"github.com/siamex/siamex/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app  *fiber.App
	cfg  config.Config
	deps routes.Deps
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	deps := routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}
	if err := routes.Setup(app, &deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, deps: deps}, nil
}

// Ledger exposes the wired ledger backend for startup tasks like seeding.
func (s *Server) Ledger() ledger.Ledger {
	return s.deps.Ledger
}

// Identity exposes the wired identity service for startup tasks like seeding.
func (s *Server) Identity() *identity.Service {
	return s.deps.Identity
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
