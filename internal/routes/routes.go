package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/siamex/siamex/internal/auth"
	"github.com/siamex/siamex/internal/config"
	"github.com/siamex/siamex/internal/identity"
	"github.com/siamex/siamex/internal/ledger"
	"github.com/siamex/siamex/internal/middleware"
	"github.com/siamex/siamex/internal/notification"
	"github.com/siamex/siamex/internal/orders"
	"github.com/siamex/siamex/internal/transfers"
	"github.com/siamex/siamex/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Services built during Setup, exposed for startup tasks like seeding.
	Ledger   ledger.Ledger
	Identity *identity.Service
}

// Setup configures middlewares and all application routes. It mutates d to
// expose the wired ledger and identity service.
func Setup(app *fiber.App, d *Deps) error {
	// Enforce DB/Redis presence outside of dev, even though main also checks.
	if !isDev(d.Cfg.AppEnv) {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, *d)

	var ledgerBackend ledger.Ledger
	if d.DB != nil {
		ledgerBackend = ledger.NewPostgresLedger(d.DB)
	} else {
		ledgerBackend = ledger.NewInMemory()
	}

	var identityRepo identity.Repository
	if d.DB != nil {
		identityRepo = identity.NewPostgresRepository(d.DB)
	} else {
		identityRepo = identity.NewMemoryRepository()
	}

	identitySvc := identity.NewService(identityRepo, ledgerBackend)
	walletSvc := wallet.NewService(ledgerBackend)
	notifier := notification.NewLoggerNotifier(d.Logger)
	transferSvc := transfers.NewService(ledgerBackend, notifier)
	orderSvc := orders.NewService(ledgerBackend, notifier)
	authSvc := auth.NewService(d.Cfg)

	identityHandler := identity.NewHandler(identitySvc)
	authHandler := auth.NewHandler(identitySvc, authSvc)
	walletHandler := wallet.NewHandler(walletSvc, isDev(d.Cfg.AppEnv))
	transferHandler := transfers.NewHandler(transferSvc)
	orderHandler := orders.NewHandler(orderSvc)

	d.Ledger = ledgerBackend
	d.Identity = identitySvc

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": middleware.RequestIDFrom(c),
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	// Public routes
	RegisterIdentityRoutes(api, identityHandler)
	rateLimiter := middleware.LoginRateLimit(d.Cache, 5)
	RegisterAuthRoutes(api, authHandler, rateLimiter)

	// Protected routes
	jwtmw := middleware.JWTAuth(d.Cfg, identityRepo)
	protected := api.Group("", jwtmw)
	protected.Get("/me", identityHandler.Profile)
	RegisterWalletRoutes(protected, walletHandler)
	RegisterTransferRoutes(protected, transferHandler)
	RegisterOrderRoutes(protected, orderHandler)

	return nil
}

func isDev(env string) bool {
	switch strings.ToLower(env) {
	case "", "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}
