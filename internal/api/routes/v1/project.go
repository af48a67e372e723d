package v1

import (
	"slideforge-backend/internal/handlers"

	"github.com/gofiber/fiber/v2"
)

func registerProject(r fiber.Router) {
	initDeps()

	// Initialize handler
	projectHandler := handlers.NewProjectHandler(coord, gate, hub, appLog)

	// Register routes
	r.Get("/projects", projectHandler.ListProjects)
	r.Post("/projects", projectHandler.CreateProject)
	r.Get("/projects/:projectId", projectHandler.GetProject)
	r.Get("/projects/:projectId/validate", projectHandler.ValidateProject)
	r.Patch("/projects/:projectId/status", projectHandler.SetStatus)
	r.Delete("/projects/:projectId", projectHandler.DeleteProject)
}
