package bootstrap

import (
	"fortyacres-backend/internal/config"
	"fortyacres-backend/internal/interfaces/router"
	"fortyacres-backend/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for serverless deployments (the api handler
// imports this package, not internal). Lot release is not scheduled here;
// cmd/api runs it.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(logger.Config{Level: cfg.LogLevel, Pretty: false, Service: "fortyacres-api"})
	app, _, _, err := router.CreateApp(cfg)
	return app, err
}
