package server

import (
	"fmt"

	"scan-station/internal/core/config"
	"scan-station/internal/core/logger"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "scan-station/docs/swagger"
)

// Server is the station's HTTP surface: the Fiber app the scanner UI and the
// dispatch board talk to.
type Server struct {
	// App is the Fiber application with the shared middleware chain applied.
	App *fiber.App
	// cfg holds the station configuration.
	cfg *config.AppConfig
}

// New builds the Fiber app with the station middleware chain: a per-request
// ray ID (echoed in error payloads as X-Ray-ID), zap request logging and the
// swagger UI.
func New(cfg *config.AppConfig) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "scan-station",
	})

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
	}))

	app.Get("/swagger/*", swagger.HandlerDefault)

	return &Server{
		App: app,
		cfg: cfg,
	}
}

// Run blocks serving HTTP on the configured station port.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Scan station listening",
		zap.String("address", addr),
		zap.String("environment", s.cfg.Environment),
	)
	return s.App.Listen(addr)
}
