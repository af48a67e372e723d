package v1

import (
	"slideforge-backend/internal/handlers"
	"slideforge-backend/internal/libraries"

	"github.com/gofiber/fiber/v2"
)

func registerSession(r fiber.Router) {
	initDeps()

	sessionHandler := handlers.NewSessionHandler(sessions, gate, hub, appLog)

	s := r.Group("/projects/:projectId/session")

	// lifecycle
	s.Post("/open", sessionHandler.Open)
	s.Get("/", sessionHandler.Snapshot)
	s.Post("/save", sessionHandler.Save)
	s.Post("/close", sessionHandler.Close)
	s.Post("/undo", sessionHandler.Undo)
	s.Post("/redo", sessionHandler.Redo)

	// slides
	s.Post("/slides", sessionHandler.AddSlide)
	s.Put("/slides/:slideId", sessionHandler.UpdateSlide)
	s.Delete("/slides/:slideId", sessionHandler.DeleteSlide)
	s.Post("/slides/:slideId/current", sessionHandler.SetCurrentSlide)

	// elements
	s.Post("/elements", sessionHandler.AddElement)
	s.Put("/elements/:elementId", sessionHandler.UpdateElement)
	s.Delete("/elements/:elementId", sessionHandler.DeleteElement)
	s.Post("/elements/:elementId/front", sessionHandler.BringToFront)
	s.Post("/elements/:elementId/back", sessionHandler.SendToBack)
	s.Post("/elements/:elementId/transform", sessionHandler.ApplyTransform)

	// selection and clipboard
	s.Post("/select", sessionHandler.Select)
	s.Post("/deselect", sessionHandler.Deselect)
	s.Post("/selection/clear", sessionHandler.ClearSelection)
	s.Post("/copy", sessionHandler.Copy)
	s.Post("/paste", sessionHandler.Paste)
	s.Post("/duplicate", sessionHandler.Duplicate)
	s.Post("/transform", sessionHandler.CommitGroupTransform)

	// render surface
	s.Get("/scene", sessionHandler.Scene)
	s.Post("/trigger", sessionHandler.TriggerAt)

	// quiz suggestion
	s.Post("/slides/:slideId/quiz-suggestion", func(c *fiber.Ctx) error {
		if suggester == nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Quiz suggestion is not configured",
			})
		}
		return sessionHandler.SuggestQuiz(c, suggester)
	})

	// Use the Hub-based WebSocket handler for live session events
	r.Get("/ws", libraries.WebSocketHandler(hub))
}
