// Package app assembles the fiber application.
package app

import (
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/reelforge/reelforge/internal/api/v1/handlers"
	"github.com/reelforge/reelforge/internal/api/v1/routes"
)

// New builds the HTTP application with the given handlers.
func New(jobs *handlers.JobHandler, approvals *handlers.ApprovalHandler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
	})

	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	routes.Register(app, jobs, approvals)
	return app
}

func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
