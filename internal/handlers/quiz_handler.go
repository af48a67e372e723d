package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"slideforge-backend/internal/libraries"
	"slideforge-backend/internal/models"
)

// SuggestQuiz asks the LLM for a quiz built from the slide's text
// elements. The suggestion is returned to the client; nothing is
// persisted until the client applies it through the session.
func (h *SessionHandler) SuggestQuiz(c *fiber.Ctx, suggester *libraries.QuizSuggester) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	slideId, err := uuid.Parse(c.Params("slideId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid slide ID",
		})
	}

	p, err := sess.Project()
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	slide := p.SlideByID(slideId)
	if slide == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Slide not found",
		})
	}

	var texts []string
	for _, el := range p.ElementsOnSlide(slideId) {
		if el.Type == models.ElementText && el.Text != nil && el.Text.Text != "" {
			texts = append(texts, el.Text.Text)
		}
	}

	quiz, err := suggester.SuggestQuiz(c.Context(), slide.Title, texts)
	if err != nil {
		h.log.Error("quiz suggestion failed", "project_id", sess.ProjectID(),
			"slide_id", slideId, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to suggest quiz",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"quiz": quiz})
}
