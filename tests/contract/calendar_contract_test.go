package contract_test

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/handler"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
	"github.com/marigot-labs/school-report-api/internal/service"
)

func newResolveApp(t *testing.T) (*fiber.App, uint) {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.School{}, &models.AcademicYear{}, &models.Term{}))

	school := models.School{Name: "Soufriere Primary", Slug: "soufriere-primary", Active: true}
	require.NoError(t, db.Create(&school).Error)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	year := models.AcademicYear{
		SchoolID:  school.ID,
		StartYear: 2024,
		Terms: []models.Term{
			{TermNumber: 1, StartDate: day(2024, time.September, 1), EndDate: day(2024, time.December, 15), SchoolDays: 70},
			{TermNumber: 2, StartDate: day(2025, time.January, 8), EndDate: day(2025, time.April, 12), SchoolDays: 65},
			{TermNumber: 3, StartDate: day(2025, time.April, 22), EndDate: day(2025, time.July, 5), SchoolDays: 55},
		},
	}
	require.NoError(t, db.Create(&year).Error)

	logger := zerolog.Nop()
	calendar := service.NewCachedCalendarService(
		service.NewCalendarService(
			repository.NewAcademicRepository(db),
			repository.NewSchoolRepository(db),
			validator.New(validator.WithRequiredStructEnabled()),
			logger,
		),
		nil, 0, logger,
	)

	app := fiber.New()
	handler.NewCalendarHandler(calendar, logger).Register(app.Group("/api/v1/schools"))
	return app, school.ID
}

func TestCalendarResolveContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "calendar_resolve.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	app, schoolID := newResolveApp(t)

	// Both shapes of the payload must satisfy the contract: a term hit and
	// a vacation gap.
	for _, date := range []string{"2024-10-03", "2024-12-20"} {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/schools/%d/calendar/resolve?date=%s", schoolID, date), nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()

		var payload interface{}
		require.NoError(t, json.Unmarshal(body, &payload))
		require.NoError(t, schema.Validate(payload), "date %s", date)
	}
}
