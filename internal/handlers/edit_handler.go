package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"slideforge-backend/internal/models"
	"slideforge-backend/internal/render"
	"slideforge-backend/internal/session"
)

// Selection, clipboard, z-order, and render-surface routes. These are
// SessionHandler methods; they live here to keep the CRUD file sane.

func (h *SessionHandler) Select(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var dto struct {
		ElementID string `json:"elementId"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	elementId, err := uuid.Parse(dto.ElementID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid element ID",
		})
	}
	if err := sess.Select(elementId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"selection": sess.SelectedIDs()})
}

func (h *SessionHandler) Deselect(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var dto struct {
		ElementID string `json:"elementId"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	elementId, err := uuid.Parse(dto.ElementID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid element ID",
		})
	}
	if err := sess.Deselect(elementId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"selection": sess.SelectedIDs()})
}

func (h *SessionHandler) ClearSelection(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	if err := sess.ClearSelection(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"selection": sess.SelectedIDs()})
}

func (h *SessionHandler) Copy(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	if err := sess.Copy(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Copied"})
}

func (h *SessionHandler) Paste(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	els, err := sess.Paste()
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"elements": els})
}

func (h *SessionHandler) Duplicate(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	els, err := sess.Duplicate()
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"elements": els})
}

func (h *SessionHandler) BringToFront(c *fiber.Ctx) error {
	return h.reorder(c, (*session.Session).BringToFront)
}

func (h *SessionHandler) SendToBack(c *fiber.Ctx) error {
	return h.reorder(c, (*session.Session).SendToBack)
}

func (h *SessionHandler) reorder(c *fiber.Ctx, op func(*session.Session, uuid.UUID) error) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	elementId, err := uuid.Parse(c.Params("elementId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid element ID",
		})
	}
	if err := op(sess, elementId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyElement(sess, elementId)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Reordered"})
}

// function to commit a group transform of the selection
func (h *SessionHandler) CommitGroupTransform(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var t session.GroupTransform
	if err := c.BodyParser(&t); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := sess.CommitGroupTransform(t); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Transform committed"})
}

// function to read the renderable scene for the current slide
func (h *SessionHandler) Scene(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	binding := render.NewBinding(sess)
	if err := binding.Rebuild(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"scene": binding.Scene()})
}

// function to commit a single-element transform from the surface
func (h *SessionHandler) ApplyTransform(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	elementId, err := uuid.Parse(c.Params("elementId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid element ID",
		})
	}
	var delta render.TransformDelta
	if err := c.BodyParser(&delta); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	binding := render.NewBinding(sess)
	if err := binding.Rebuild(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	if err := binding.ApplyTransform(elementId, delta); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyElement(sess, elementId)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Transform applied"})
}

// function to resolve a viewer interaction trigger against the scene
func (h *SessionHandler) TriggerAt(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var dto struct {
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		Trigger string  `json:"trigger"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	binding := render.NewBinding(sess)
	if err := binding.Rebuild(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	var hit *render.Renderable
	if dto.Trigger == "" {
		hit = binding.HitTest(dto.X, dto.Y)
	} else {
		hit = binding.TriggerAt(dto.X, dto.Y, models.TriggerType(dto.Trigger))
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"hit": hit})
}
