// Package server exposes the account service over JSON/HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/verte-zerg/stundenplan/internal/account"
)

// Config controls middleware of the HTTP app.
type Config struct {
	RateLimit  int
	RateWindow time.Duration
	StaticDir  string
	// Ping reports database health on /api/health; nil skips the check.
	Ping func(context.Context) error
}

// New builds the fiber app with all routes and middleware.
func New(svc *account.Service, logger *zap.Logger, cfg Config) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "stundenplan",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler(logger),
	})

	app.Use(fiberrecover.New())
	app.Use(requestLogger(logger))
	app.Use(cors.New())
	if cfg.RateLimit > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        cfg.RateLimit,
			Expiration: cfg.RateWindow,
			LimitReached: func(c *fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many requests, please try again later"})
			},
		}))
	}

	h := &handlers{svc: svc, logger: logger, ping: cfg.Ping}
	auth := authRequired(svc)

	api := app.Group("/api")
	api.Get("/health", h.health)
	api.Post("/signup", h.signup)
	api.Post("/login", h.login)
	api.Get("/profile", auth, h.profile)
	api.Get("/settings", auth, h.getSettings)
	api.Put("/settings", auth, h.putSettings)
	api.Put("/password", auth, h.changePassword)
	api.Get("/login-count", auth, h.loginCount)
	api.Get("/login-history", auth, h.loginHistory)

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}
	return app
}

// Run serves app on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down: %w", err)
	}
	if err := <-errCh; err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			return c.Status(ferr.Code).JSON(fiber.Map{"error": ferr.Message})
		}
		logger.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
