// Package routes wires the v1 handlers to their paths.
package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/reelforge/reelforge/internal/api/v1/handlers"
)

// Register registers the v1 routes
func Register(app *fiber.App, jobs *handlers.JobHandler, approvals *handlers.ApprovalHandler) {
	v1Group := app.Group("/api/v1")

	jobsGroup := v1Group.Group("/jobs")
	jobsGroup.Post("/", jobs.CreateJob)
	jobsGroup.Get("/", jobs.ListJobs)
	jobsGroup.Get("/:id", jobs.GetJob)
	jobsGroup.Post("/:id/retry", jobs.RetryJob)
	jobsGroup.Post("/:id/salvage", jobs.SalvageJob)

	v1Group.Get("/requesters/:id/last", jobs.GetLastForRequester)

	v1Group.Post("/approvals/:jobID/:checkpoint", approvals.Decide)
}
