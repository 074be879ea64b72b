package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/service"
	"github.com/marigot-labs/school-report-api/internal/utils"
)

// BindingHandler exposes the teacher and student assignment ledgers.
type BindingHandler struct {
	ledger service.LedgerService
	logger zerolog.Logger
}

// NewBindingHandler constructs the handler.
func NewBindingHandler(ledger service.LedgerService, logger zerolog.Logger) *BindingHandler {
	return &BindingHandler{
		ledger: ledger,
		logger: logger.With().Str("component", "binding_handler").Logger(),
	}
}

// Register attaches binding endpoints to the router group.
func (h *BindingHandler) Register(router fiber.Router) {
	router.Post("/teachers/bind", h.bindTeacher)
	router.Post("/teachers/unbind", h.unbindTeacher)
	router.Get("/teachers/:teacherID/current", h.currentTeacher)
	router.Get("/teachers/:teacherID/history", h.teacherHistory)

	router.Post("/students/bind", h.bindStudent)
	router.Post("/students/unbind", h.unbindStudent)
	router.Get("/students/:studentID/current", h.currentStudent)
	router.Get("/students/:studentID/history", h.studentHistory)

	router.Get("/standards/:standardID/roster", h.roster)
	router.Get("/standards/:standardID/teacher", h.classTeacher)
}

func (h *BindingHandler) bindTeacher(c *fiber.Ctx) error {
	var payload dto.TeacherBindRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	binding, err := h.ledger.BindTeacher(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to bind teacher")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "teacher bound", binding)
}

func (h *BindingHandler) unbindTeacher(c *fiber.Ctx) error {
	var payload dto.TeacherUnbindRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	binding, err := h.ledger.UnbindTeacher(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to unbind teacher")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "teacher unbound", binding)
}

func (h *BindingHandler) bindStudent(c *fiber.Ctx) error {
	var payload dto.StudentBindRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	binding, err := h.ledger.BindStudent(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to enroll student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student enrolled", binding)
}

func (h *BindingHandler) unbindStudent(c *fiber.Ctx) error {
	var payload dto.StudentUnbindRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	binding, err := h.ledger.UnbindStudent(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to withdraw student")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "student withdrawn", binding)
}

func (h *BindingHandler) currentTeacher(c *fiber.Ctx) error {
	teacherID, err := parseUintParam(c, "teacherID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	current, err := h.ledger.CurrentTeacherAssignment(c.Context(), yearID, teacherID)
	if err != nil {
		return h.fail(c, err, "failed to read assignment")
	}
	return utils.SendSuccess(c, "current assignment", current)
}

func (h *BindingHandler) currentStudent(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	current, err := h.ledger.CurrentStudentAssignment(c.Context(), yearID, studentID)
	if err != nil {
		return h.fail(c, err, "failed to read enrollment")
	}
	return utils.SendSuccess(c, "current enrollment", current)
}

func (h *BindingHandler) teacherHistory(c *fiber.Ctx) error {
	teacherID, err := parseUintParam(c, "teacherID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	history, err := h.ledger.TeacherHistory(c.Context(), yearID, teacherID)
	if err != nil {
		return h.fail(c, err, "failed to read history")
	}
	return utils.SendSuccess(c, "assignment history", history)
}

func (h *BindingHandler) studentHistory(c *fiber.Ctx) error {
	studentID, err := parseUintParam(c, "studentID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	history, err := h.ledger.StudentHistory(c.Context(), yearID, studentID)
	if err != nil {
		return h.fail(c, err, "failed to read history")
	}
	return utils.SendSuccess(c, "enrollment history", history)
}

func (h *BindingHandler) roster(c *fiber.Ctx) error {
	standardID, err := parseUintParam(c, "standardID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	roster, err := h.ledger.Roster(c.Context(), yearID, standardID)
	if err != nil {
		return h.fail(c, err, "failed to read roster")
	}
	return utils.SendSuccess(c, "class roster", roster)
}

func (h *BindingHandler) classTeacher(c *fiber.Ctx) error {
	standardID, err := parseUintParam(c, "standardID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}
	yearID, err := parseQueryUint(c, "year_id")
	if err != nil || yearID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "year_id is required")
	}

	teacherID, ok, err := h.ledger.ClassTeacher(c.Context(), yearID, standardID)
	if err != nil {
		return h.fail(c, err, "failed to read class teacher")
	}
	if !ok {
		return utils.SendSuccess(c, "class has no current teacher", nil)
	}
	return utils.SendSuccess(c, "class teacher", fiber.Map{"teacher_id": teacherID, "year_id": yearID, "standard_id": standardID})
}

func (h *BindingHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, status, fallback)
	}
	return utils.SendError(c, status, err.Error())
}
