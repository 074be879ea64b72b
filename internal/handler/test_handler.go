package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/service"
	"github.com/marigot-labs/school-report-api/internal/utils"
)

// TestHandler exposes the test lifecycle endpoints.
type TestHandler struct {
	tests  service.TestService
	logger zerolog.Logger
}

// NewTestHandler constructs the handler.
func NewTestHandler(tests service.TestService, logger zerolog.Logger) *TestHandler {
	return &TestHandler{
		tests:  tests,
		logger: logger.With().Str("component", "test_handler").Logger(),
	}
}

// Register attaches test endpoints to the router group.
func (h *TestHandler) Register(router fiber.Router) {
	router.Post("/", h.create)
	router.Get("/:id", h.get)
	router.Patch("/:id/subjects/:subjectID", h.setSubject)
	router.Put("/:id/subjects/:subjectID/scores", h.bulkSetScores)
	router.Put("/:id/subjects/:subjectID/score", h.setScore)
	router.Get("/:id/subjects/:subjectID/scores", h.listScores)
	router.Post("/:id/finalize", h.finalize)
}

// RegisterTermRoutes attaches the term-scoped listing endpoint.
func (h *TestHandler) RegisterTermRoutes(router fiber.Router) {
	router.Get("/:termID/tests", h.listByTerm)
}

func (h *TestHandler) listByTerm(c *fiber.Ctx) error {
	termID, err := parseUintParam(c, "termID")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var standardID *uint
	if v, err := parseQueryUint(c, "standard_id"); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid standard_id")
	} else if v > 0 {
		standardID = &v
	}

	tests, err := h.tests.ListByTerm(c.Context(), termID, standardID)
	if err != nil {
		return h.fail(c, err, "failed to list tests")
	}
	return utils.SendSuccess(c, "tests retrieved", tests)
}

func (h *TestHandler) create(c *fiber.Ctx) error {
	var payload dto.TestCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	test, err := h.tests.Create(c.Context(), payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to create test")
	}
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "test created", test)
}

func (h *TestHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	test, err := h.tests.Get(c.Context(), id)
	if err != nil {
		return h.fail(c, err, "failed to load test")
	}
	return utils.SendSuccess(c, "test retrieved", test)
}

func (h *TestHandler) setSubject(c *fiber.Ctx) error {
	id, subjectID, err := h.gridParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.TestSubjectUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	subject, err := h.tests.SetSubject(c.Context(), id, subjectID, payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to update subject")
	}
	return utils.SendSuccess(c, "subject updated", subject)
}

func (h *TestHandler) setScore(c *fiber.Ctx) error {
	id, subjectID, err := h.gridParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var entry dto.ScoreEntry
	if err := c.BodyParser(&entry); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	score, err := h.tests.SetScore(c.Context(), id, subjectID, entry, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to record score")
	}
	return utils.SendSuccess(c, "score recorded", score)
}

func (h *TestHandler) bulkSetScores(c *fiber.Ctx) error {
	id, subjectID, err := h.gridParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	var payload dto.BulkScoresRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	scores, err := h.tests.BulkSetScores(c.Context(), id, subjectID, payload, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to record scores")
	}
	return utils.SendSuccess(c, "scores recorded", scores)
}

func (h *TestHandler) listScores(c *fiber.Ctx) error {
	id, subjectID, err := h.gridParams(c)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	scores, err := h.tests.ListScores(c.Context(), id, subjectID)
	if err != nil {
		return h.fail(c, err, "failed to list scores")
	}
	return utils.SendSuccess(c, "scores retrieved", scores)
}

func (h *TestHandler) finalize(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid identifier")
	}

	result, err := h.tests.Finalize(c.Context(), id, activityActorFromContext(c))
	if err != nil {
		return h.fail(c, err, "failed to finalize test")
	}
	return utils.SendSuccess(c, "test finalized", result)
}

func (h *TestHandler) gridParams(c *fiber.Ctx) (uint, uint, error) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return 0, 0, err
	}
	subjectID, err := parseUintParam(c, "subjectID")
	if err != nil {
		return 0, 0, err
	}
	return id, subjectID, nil
}

func (h *TestHandler) fail(c *fiber.Ctx, err error, fallback string) error {
	status := statusForError(err)
	if status == fiber.StatusInternalServerError {
		h.logger.Error().Err(err).Msg(fallback)
		return utils.SendError(c, status, fallback)
	}
	return utils.SendError(c, status, err.Error())
}
