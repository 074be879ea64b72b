package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/service"
	"github.com/marigot-labs/school-report-api/internal/utils"
)

// ReportHandler exposes student term review endpoints.
type ReportHandler struct {
	reports service.ReportService
	logger  zerolog.Logger
}

// NewReportHandler constructs the handler.
func NewReportHandler(reports service.ReportService, logger zerolog.Logger) *ReportHandler {
	return &ReportHandler{
		reports: reports,
		logger:  logger.With().Str("component", "report_handler").Logger(),
	}
}

// Register attaches review endpoints under a term scope.
func (h *ReportHandler) Register(router fiber.Router) {
	router.Get("/:termID/students/:studentID/review", h.getReview)
	router.Patch("/:termID/students/:studentID/review", h.updateReview)
	router.Put("/:termID/final-exam", h.setFinalExam)
	router.Get("/:termID/standards/:standardID/reviews", h.listClassReviews)
	router.Post("/:termID/reviews/finalize", h.finalizeClassReviews)
}

func (h *ReportHandler) getReview(c *fiber.Ctx) error {
	termID, studentID, err := h.reviewParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	review, err := h.reports.GetReview(c.Context(), termID, studentID)
	if err != nil {
		return h.fail(c, err, "failed to load review")
	}
	return utils.SendSuccess(c, "review retrieved", review)
}

func (h *ReportHandler) updateReview(c *fiber.Ctx) error {
	termID, studentID, err := h.reviewParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReviewUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	review, err := h.reports.UpdateReview(c.Context(), termID, studentID, payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to update review")
	}
	return utils.SendSuccess(c, "review updated", review)
}

func (h *ReportHandler) setFinalExam(c *fiber.Ctx) error {
	termID, err := parseUintParam(c, "termID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var entry dto.FinalExamEntry
	if err := c.BodyParser(&entry); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	review, err := h.reports.SetFinalExam(c.Context(), termID, entry, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to record final exam")
	}
	return utils.SendSuccess(c, "final exam recorded", review)
}

func (h *ReportHandler) listClassReviews(c *fiber.Ctx) error {
	termID, err := parseUintParam(c, "termID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	standardID, err := parseUintParam(c, "standardID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	reviews, err := h.reports.ListClassReviews(c.Context(), termID, standardID)
	if err != nil {
		return h.fail(c, err, "failed to list reviews")
	}
	return utils.SendSuccess(c, "reviews retrieved", reviews)
}

func (h *ReportHandler) finalizeClassReviews(c *fiber.Ctx) error {
	termID, err := parseUintParam(c, "termID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.ReviewFinalizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	finalized, err := h.reports.FinalizeClassReviews(c.Context(), termID, payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to finalize reviews")
	}
	return utils.SendSuccess(c, "reviews finalized", fiber.Map{"term_id": termID, "finalized": finalized})
}

func (h *ReportHandler) reviewParams(c *fiber.Ctx) (uint, uint, error) {
	termID, err := parseUintParam(c, "termID")
	if err != nil {
		return 0, 0, err
	}
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return 0, 0, err
	}
	return termID, studentID, nil
}

func (h *ReportHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, status, fallback)
	}
	return utils.SendError(c, status, err.Error())
}
