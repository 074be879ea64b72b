package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/service"
	"github.com/marigot-labs/school-report-api/internal/utils"
)

// CalendarHandler exposes date resolution and academic year administration.
type CalendarHandler struct {
	calendar *service.CachedCalendarService
	logger   zerolog.Logger
}

// NewCalendarHandler constructs the handler.
func NewCalendarHandler(calendar *service.CachedCalendarService, logger zerolog.Logger) *CalendarHandler {
	return &CalendarHandler{
		calendar: calendar,
		logger:   logger.With().Str("component", "calendar_handler").Logger(),
	}
}

// Register attaches calendar endpoints under a school scope.
func (h *CalendarHandler) Register(router fiber.Router) {
	router.Get("/:schoolID/calendar/resolve", h.resolve)
	router.Get("/:schoolID/years", h.listYears)
	router.Post("/:schoolID/years", h.createYear)
}

func (h *CalendarHandler) resolve(c *fiber.Ctx) error {
	schoolID, err := parseUintParam(c, "schoolID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	day, err := parseDateQuery(c, "date")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "date must be YYYY-MM-DD")
	}

	resolution, err := h.calendar.ResolveDTO(c.Context(), schoolID, day)
	if err != nil {
		if errors.Is(err, service.ErrYearUnresolved) {
			h.logger.Error().Err(err).Uint("school_id", schoolID).Msg("calendar invariant violated")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve date")
		}
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			h.logger.Error().Err(err).Uint("school_id", schoolID).Msg("failed to resolve date")
			return utils.SendError(c, status, "failed to resolve date")
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccess(c, "date resolved", resolution)
}

func (h *CalendarHandler) listYears(c *fiber.Ctx) error {
	schoolID, err := parseUintParam(c, "schoolID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	years, err := h.calendar.ListYears(c.Context(), schoolID)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			h.logger.Error().Err(err).Uint("school_id", schoolID).Msg("failed to list years")
			return utils.SendError(c, status, "failed to list years")
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccess(c, "years retrieved", years)
}

func (h *CalendarHandler) createYear(c *fiber.Ctx) error {
	schoolID, err := parseUintParam(c, "schoolID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.YearCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	year, err := h.calendar.CreateYear(c.Context(), schoolID, payload)
	if err != nil {
		status := statusForError(err)
		if status == fiber.StatusInternalServerError {
			h.logger.Error().Err(err).Uint("school_id", schoolID).Msg("failed to create year")
			return utils.SendError(c, status, "failed to create year")
		}
		return utils.SendError(c, status, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "year created", year)
}
