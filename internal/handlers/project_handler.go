package handlers

import (
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"slideforge-backend/internal/access"
	"slideforge-backend/internal/coordinator"
	"slideforge-backend/internal/document"
	"slideforge-backend/internal/libraries"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/models"
)

// for simple crud operations service layer is not required
type ProjectHandler struct {
	coord *coordinator.Coordinator
	gate  access.Gate
	hub   *libraries.Hub
	log   *logger.Logger
}

func NewProjectHandler(coord *coordinator.Coordinator, gate access.Gate, hub *libraries.Hub, log *logger.Logger) *ProjectHandler {
	return &ProjectHandler{
		coord: coord,
		gate:  gate,
		hub:   hub,
		log:   log.With("handler", "project"),
	}
}

// identity comes from the auth layer in front of us; the gate only
// maps it to an access level
func identityOf(c *fiber.Ctx) string {
	id := c.Get("X-Identity")
	if id == "" {
		return "anonymous"
	}
	return id
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, coordinator.ErrNotFound),
		errors.Is(err, coordinator.ErrOrphaned):
		return fiber.StatusNotFound
	case errors.Is(err, coordinator.ErrInvalidStatus),
		errors.Is(err, coordinator.ErrValidation),
		errors.Is(err, document.ErrParse):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (h *ProjectHandler) authorize(c *fiber.Ctx, projectID uuid.UUID, min models.AccessLevel) error {
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

// function to list all projects from the index, no blobs touched
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	rows, err := h.coord.ListProjects(c.Context())
	if err != nil {
		h.log.Error("list projects failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list projects",
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"projects": rows,
	})
}

// function to create a project
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var dto struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	p, err := h.coord.CreateProject(c.Context(), dto.Title)
	if err != nil {
		h.log.Error("create project failed", "error", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	// creator becomes owner
	if err := h.gate.Grant(c.Context(), p.ID, identityOf(c), models.AccessOwner); err != nil {
		h.log.Warn("owner grant failed", "project_id", p.ID, "error", err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":      p.ID.String(),
		"title":   p.Title,
		"status":  p.Status,
		"message": "Project created successfully",
	})
}

// function to get a project document by ID
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	projectId, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}
	if err := h.authorize(c, projectId, models.AccessViewer); err != nil {
		return err
	}

	text, err := h.coord.LoadDocument(c.Context(), projectId)
	if err != nil {
		h.log.Error("load document failed", "project_id", projectId, "error", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"project": json.RawMessage(text),
	})
}

// function to validate a project document without mutating it
func (h *ProjectHandler) ValidateProject(c *fiber.Ctx) error {
	projectId, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}
	if err := h.authorize(c, projectId, models.AccessViewer); err != nil {
		return err
	}

	text, err := h.coord.LoadDocument(c.Context(), projectId)
	if err != nil {
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	p, err := document.Parse(text)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	violations := document.Validate(p)
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"valid":      len(violations) == 0,
		"violations": violations,
	})
}

// function to update project status
func (h *ProjectHandler) SetStatus(c *fiber.Ctx) error {
	projectId, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}
	if err := h.authorize(c, projectId, models.AccessEditor); err != nil {
		return err
	}

	var dto struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&dto); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	err = h.coord.SetStatus(c.Context(), projectId, models.ProjectStatus(dto.Status))
	if err != nil {
		h.log.Error("set status failed", "project_id", projectId, "error", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	h.hub.BroadcastSessionEvent(libraries.WebSocketMessageTypeStatusChange, libraries.SessionEventPayload{
		ProjectID: projectId.String(),
		Detail:    dto.Status,
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Status updated successfully",
	})
}

// function to delete a project. Deleting twice is fine; the second
// call is an idempotent success.
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	projectId, err := uuid.Parse(c.Params("projectId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid project ID",
		})
	}
	if err := h.authorize(c, projectId, models.AccessAdmin); err != nil {
		return err
	}

	result, err := h.coord.DeleteProject(c.Context(), projectId)
	if err != nil {
		h.log.Error("delete project failed", "project_id", projectId, "error", err)
		return c.Status(statusForError(err)).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := h.gate.Revoke(c.Context(), projectId); err != nil {
		h.log.Warn("access revoke failed", "project_id", projectId, "error", err)
	}

	resp := fiber.Map{"message": "Project deleted successfully"}
	if result.Warning != "" {
		resp["warning"] = result.Warning
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}
