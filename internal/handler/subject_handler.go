package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/service"
	"github.com/marigot-labs/school-report-api/internal/utils"
)

// SubjectHandler exposes class subject administration.
type SubjectHandler struct {
	subjects service.SubjectService
	logger   zerolog.Logger
}

// NewSubjectHandler constructs the handler.
func NewSubjectHandler(subjects service.SubjectService, logger zerolog.Logger) *SubjectHandler {
	return &SubjectHandler{
		subjects: subjects,
		logger:   logger.With().Str("component", "subject_handler").Logger(),
	}
}

// Register attaches subject endpoints to the router group.
func (h *SubjectHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/", h.list)
}

func (h *SubjectHandler) create(c *fiber.Ctx) error {
	var payload dto.SubjectCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	subject, err := h.subjects.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			h.logger.Error().Err(err).Msg("failed to create subject")
			return utils.SendError(c, status, "failed to create subject")
		}
		return utils.SendError(c, status, err.Error())
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "subject created", subject)
}

func (h *SubjectHandler) list(c *fiber.Ctx) error {
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}
	standardID, err := parseQueryUint(c, "standard_id")
	if err != nil || standardID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "standard_id is required")
	}

	subjects, err := h.subjects.List(c.Context(), yearID, standardID)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to list subjects")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list subjects")
	}
	return utils.SendSuccess(c, "subjects retrieved", subjects)
}
