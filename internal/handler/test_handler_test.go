package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/handler"
	"github.com/marigot-labs/school-report-api/internal/service"
)

type mockTestService struct {
	lastCreate   dto.TestCreateRequest
	lastActor    service.ActivityActor
	lastEntry    dto.ScoreEntry
	testResponse dto.TestResponse
	finalize     dto.FinalizeResponse
	err          error
}

func (m *mockTestService) Create(_ context.Context, payload dto.TestCreateRequest, actor service.ActivityActor) (dto.TestResponse, error) {
	m.lastCreate = payload
	m.lastActor = actor
	if m.err != nil {
		return dto.TestResponse{}, m.err
	}
	return m.testResponse, nil
}

func (m *mockTestService) Get(_ context.Context, testID uint) (dto.TestResponse, error) {
	if m.err != nil {
		return dto.TestResponse{}, m.err
	}
	return m.testResponse, nil
}

func (m *mockTestService) ListByTerm(_ context.Context, termID uint, standardID *uint) ([]dto.TestResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.TestResponse{m.testResponse}, nil
}

func (m *mockTestService) SetSubject(_ context.Context, testID, subjectID uint, payload dto.TestSubjectUpdateRequest, actor service.ActivityActor) (dto.TestSubjectResponse, error) {
	if m.err != nil {
		return dto.TestSubjectResponse{}, m.err
	}
	return dto.TestSubjectResponse{ID: subjectID, Enabled: true, MaxScore: 100}, nil
}

func (m *mockTestService) SetScore(_ context.Context, testID, subjectID uint, entry dto.ScoreEntry, actor service.ActivityActor) (dto.ScoreResponse, error) {
	m.lastEntry = entry
	if m.err != nil {
		return dto.ScoreResponse{}, m.err
	}
	return dto.ScoreResponse{StudentID: entry.StudentID, Score: entry.Score}, nil
}

func (m *mockTestService) BulkSetScores(_ context.Context, testID, subjectID uint, payload dto.BulkScoresRequest, actor service.ActivityActor) ([]dto.ScoreResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]dto.ScoreResponse, 0, len(payload.Scores))
	for _, s := range payload.Scores {
		out = append(out, dto.ScoreResponse{StudentID: s.StudentID, Score: s.Score})
	}
	return out, nil
}

func (m *mockTestService) ListScores(_ context.Context, testID, subjectID uint) ([]dto.ScoreResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return []dto.ScoreResponse{{StudentID: 7, Score: 42}}, nil
}

func (m *mockTestService) Finalize(_ context.Context, testID uint, actor service.ActivityActor) (dto.FinalizeResponse, error) {
	m.lastActor = actor
	if m.err != nil {
		return dto.FinalizeResponse{}, m.err
	}
	return m.finalize, nil
}

func newTestApp(svc service.TestService) *fiber.App {
	app := fiber.New()
	group := app.Group("/api/tests", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(9))
		c.Locals("user_role", "teacher")
		return c.Next()
	})
	handler.NewTestHandler(svc, zerolog.New(io.Discard)).Register(group)
	return app
}

func decodeJSON(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(target))
}

func TestTestHandler_CreatePassesActor(t *testing.T) {
	svc := &mockTestService{testResponse: dto.TestResponse{ID: 11, TestType: "quiz"}}
	app := newTestApp(svc)

	payload := dto.TestCreateRequest{StandardID: 1, TermID: 2, TestType: "quiz", TestDate: "2024-10-03"}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/tests/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var response struct {
		Success bool             `json:"success"`
		Data    dto.TestResponse `json:"data"`
		Message string           `json:"message"`
	}
	decodeJSON(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, uint(11), response.Data.ID)
	require.Equal(t, uint(9), svc.lastActor.ID)
	require.Equal(t, "teacher", svc.lastActor.Role)
}

func TestTestHandler_ErrorMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		statusCode int
	}{
		{name: "finalized", err: service.ErrTestFinalized, statusCode: fiber.StatusConflict},
		{name: "not found", err: service.ErrTestNotFound, statusCode: fiber.StatusNotFound},
		{name: "validation", err: service.ErrDateOutsideTerm, statusCode: fiber.StatusBadRequest},
		{name: "generic", err: errors.New("boom"), statusCode: fiber.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(&mockTestService{err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/api/tests/5/finalize", nil)
			resp, err := app.Test(req)
			require.NoError(t, err)
			require.Equal(t, tc.statusCode, resp.StatusCode)
		})
	}
}

func TestTestHandler_FinalizeReportsCounts(t *testing.T) {
	svc := &mockTestService{finalize: dto.FinalizeResponse{TestID: 5, Updated: 12, Skipped: 1}}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodPost, "/api/tests/5/finalize", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.FinalizeResponse `json:"data"`
	}
	decodeJSON(t, resp, &response)
	require.Equal(t, 12, response.Data.Updated)
	require.Equal(t, 1, response.Data.Skipped)
}

func TestTestHandler_SetScoreRejectsMalformedBody(t *testing.T) {
	svc := &mockTestService{}
	app := newTestApp(svc)

	req := httptest.NewRequest(http.MethodPut, "/api/tests/5/subjects/3/score", bytes.NewReader([]byte("{not json")))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	require.Zero(t, svc.lastEntry.StudentID)
}

func TestTestHandler_InvalidIdentifier(t *testing.T) {
	app := newTestApp(&mockTestService{})

	req := httptest.NewRequest(http.MethodGet, "/api/tests/abc", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}
