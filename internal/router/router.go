package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/marigot-labs/school-report-api/internal/config"
	"github.com/marigot-labs/school-report-api/internal/handler"
	"github.com/marigot-labs/school-report-api/internal/middleware"
	"github.com/marigot-labs/school-report-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	CalendarHandler *handler.CalendarHandler
	BindingHandler  *handler.BindingHandler
	SubjectHandler  *handler.SubjectHandler
	TestHandler     *handler.TestHandler
	ReportHandler   *handler.ReportHandler
	ActivityHandler *handler.ActivityHandler
	JWTMiddleware   fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	// Use provided JWT middleware, or a no-op if nil
	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	mutationLimit := middleware.RateLimit("mutations", cfg.MutationRateMax, cfg.MutationRateWin)
	staffOnly := middleware.RequireRole("admin", "teacher")

	// Calendar resolution and year administration, scoped per school
	if deps.CalendarHandler != nil {
		schools := api.Group("/schools", jwtMiddleware)
		deps.CalendarHandler.Register(schools)
	}

	// Teacher and student class assignments
	if deps.BindingHandler != nil {
		bindings := api.Group("/bindings", jwtMiddleware, staffOnly)
		deps.BindingHandler.Register(bindings)
	}

	// Standard subject catalogue
	if deps.SubjectHandler != nil {
		subjects := api.Group("/subjects", jwtMiddleware, staffOnly)
		deps.SubjectHandler.Register(subjects)
	}

	// Test lifecycle and score entry
	if deps.TestHandler != nil {
		tests := api.Group("/tests", jwtMiddleware, staffOnly, mutationLimit)
		deps.TestHandler.Register(tests)
	}

	// Term-scoped listings and report workflows
	if deps.TestHandler != nil || deps.ReportHandler != nil {
		terms := api.Group("/terms", jwtMiddleware, staffOnly)
		if deps.TestHandler != nil {
			deps.TestHandler.RegisterTermRoutes(terms)
		}
		if deps.ReportHandler != nil {
			deps.ReportHandler.Register(terms)
		}
	}

	// Activity log
	if deps.ActivityHandler != nil {
		activity := api.Group("/activity", jwtMiddleware, middleware.RequireRole("admin"))
		deps.ActivityHandler.Register(activity)
	}
}
