package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"slideforge-backend/internal/access"
	"slideforge-backend/internal/libraries"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
	"slideforge-backend/internal/render"
	"slideforge-backend/internal/session"
)

type SessionHandler struct {
	mgr  *session.Manager
	gate access.Gate
	hub  *libraries.Hub
	log  *logger.Logger
}

func NewSessionHandler(mgr *session.Manager, gate access.Gate, hub *libraries.Hub, log *logger.Logger) *SessionHandler {
	return &SessionHandler{
		mgr:  mgr,
		gate: gate,
		hub:  hub,
		log:  log.With("handler", "session"),
	}
}

func sessionStatusForError(err error) int {
	switch {
	case errors.Is(err, session.ErrSaveInFlight):
		return fiber.StatusConflict
	case errors.Is(err, session.ErrNotLoaded):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrSlideNotFound),
		errors.Is(err, session.ErrElementNotFound),
		errors.Is(err, render.ErrNotInScene):
		return fiber.StatusNotFound
	case errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, session.ErrNothingToRedo),
		errors.Is(err, session.ErrEmptySelection),
		errors.Is(err, session.ErrEmptyClipboard),
		errors.Is(err, session.ErrBadTransform):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *SessionHandler) authorize(c *fiber.Ctx, projectID uuid.UUID, min models.AccessLevel) error {
	level, err := h.gate.ResolveAccessLevel(c.Context(), projectID, identityOf(c))
	if err != nil {
		h.log.Error("access resolution failed", "project_id", projectID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to resolve access",
		})
	}
	if !level.AtLeast(min) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": "Insufficient access",
		})
	}
	return nil
}

// projectParam pulls and validates the project id, or writes a 400.
func (h *SessionHandler) projectParam(c *fiber.Ctx) (uuid.UUID, bool) {
	projectId, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		_ = c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
		return uuid.Nil, false
	}
	return projectId, true
}

// editorSession authorizes the caller as editor and returns the live
// session for the project.
func (h *SessionHandler) editorSession(c *fiber.Ctx) (*session.Session, bool) {
	projectId, ok := h.projectParam(c)
	if !ok {
		return nil, false
	}
	if err := h.authorize(c, projectId, models.AccessEditor); err != nil {
		return nil, false
	}
	sess, err := h.mgr.Get(projectId)
	if err != nil {
		_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No open session for project",
		})
		return nil, false
	}
	return sess, true
}

func (h *SessionHandler) notifyDirty(sess *session.Session) {
	h.hub.BroadcastSessionEvent(libraries.WebSocketMessageTypeSessionDirty, libraries.SessionEventPayload{
		ProjectID: sess.ProjectID().String(),
		State:     string(sess.State()),
	})
}

// function to open (or rejoin) the editing session for a project
func (h *SessionHandler) Open(c *fiber.Ctx) error {
	projectId, ok := h.projectParam(c)
	if !ok {
		return nil
	}
	if err := h.authorize(c, projectId, models.AccessEditor); err != nil {
		return err
	}

	sess, err := h.mgr.Open(c.Context(), projectId)
	if err != nil {
		h.log.Error("open session failed", "project_id", projectId, "error", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"state":        sess.State(),
		"currentSlide": sess.CurrentSlide(),
	})
}

// function to read the session snapshot: document text plus editor state
func (h *SessionHandler) Snapshot(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	text, err := sess.Snapshot()
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"state":        sess.State(),
		"currentSlide": sess.CurrentSlide(),
		"selection":    sess.SelectedIDs(),
		"document":     json.RawMessage(text),
	})
}

// function to save the session. A save racing another save is
// rejected with 409, not queued.
func (h *SessionHandler) Save(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	if err := sess.Save(c.Context()); err != nil {
		h.log.Error("save failed", "project_id", sess.ProjectID(), "error", err)
		h.hub.BroadcastSessionEvent(libraries.WebSocketMessageTypeSaveFailed, libraries.SessionEventPayload{
			ProjectID: sess.ProjectID().String(),
			State:     string(sess.State()),
		})
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.hub.BroadcastSessionEvent(libraries.WebSocketMessageTypeSaveCompleted, libraries.SessionEventPayload{
		ProjectID: sess.ProjectID().String(),
		State:     string(sess.State()),
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"state":   sess.State(),
		"message": "Saved successfully",
	})
}

// function to close the session, dropping unsaved local state
func (h *SessionHandler) Close(c *fiber.Ctx) error {
	projectId, ok := h.projectParam(c)
	if !ok {
		return nil
	}
	if err := h.authorize(c, projectId, models.AccessEditor); err != nil {
		return err
	}
	h.mgr.Close(projectId)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Session closed",
	})
}

func (h *SessionHandler) Undo(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	if err := sess.Undo(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"state": sess.State()})
}

func (h *SessionHandler) Redo(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	if err := sess.Redo(); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"state": sess.State()})
}

// function to add a slide
func (h *SessionHandler) AddSlide(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var dto struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	slide, err := sess.AddSlide(dto.Title)
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"slide": slide})
}

// function to update a slide
func (h *SessionHandler) UpdateSlide(c *fiber.Ctx) error {
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
	var slide models.Slide
	if err := c.BodyParser(&slide); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	slide.ID = slideId
	if err := sess.UpdateSlide(&slide); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Slide updated"})
}

func (h *SessionHandler) DeleteSlide(c *fiber.Ctx) error {
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
	if err := sess.DeleteSlide(slideId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Slide deleted"})
}

// function to switch the current slide; clears the selection
func (h *SessionHandler) SetCurrentSlide(c *fiber.Ctx) error {
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
	if err := sess.SetCurrentSlide(slideId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"currentSlide": slideId})
}

// function to add an element to a slide
func (h *SessionHandler) AddElement(c *fiber.Ctx) error {
	sess, ok := h.editorSession(c)
	if !ok {
		return nil
	}
	var el models.Element
	if err := c.BodyParser(&el); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if !el.Type.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown element type",
		})
	}
	if el.Interaction.Type == "" {
		el.Interaction.Type = models.InteractionNone
	}
	created, err := sess.AddElement(&el)
	if err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyElement(sess, created.ID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"element": created})
}

func (h *SessionHandler) UpdateElement(c *fiber.Ctx) error {
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
	var el models.Element
	if err := c.BodyParser(&el); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	el.ID = elementId
	if err := sess.UpdateElement(&el); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyElement(sess, elementId)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Element updated"})
}

func (h *SessionHandler) DeleteElement(c *fiber.Ctx) error {
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
	if err := sess.DeleteElement(elementId); err != nil {
		return c.Status(sessionStatusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	h.notifyDirty(sess)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Element deleted"})
}

func (h *SessionHandler) notifyElement(sess *session.Session, elementID uuid.UUID) {
	h.hub.BroadcastSessionEvent(libraries.WebSocketMessageTypeElementUpdate, libraries.SessionEventPayload{
		ProjectID: sess.ProjectID().String(),
		State:     string(sess.State()),
		ElementID: elementID.String(),
	})
}
