package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/marigot-labs/school-report-api/internal/config"
	"github.com/marigot-labs/school-report-api/internal/database"
	"github.com/marigot-labs/school-report-api/internal/handler"
	"github.com/marigot-labs/school-report-api/internal/middleware"
	"github.com/marigot-labs/school-report-api/internal/repository"
	"github.com/marigot-labs/school-report-api/internal/router"
	"github.com/marigot-labs/school-report-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	academicRepo := repository.NewAcademicRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	teacherLedgerRepo := repository.NewTeacherLedgerRepository(db)
	enrollmentLedgerRepo := repository.NewEnrollmentLedgerRepository(db)
	subjectRepo := repository.NewStandardSubjectRepository(db)
	testRepo := repository.NewTestRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, validate, logger)
	events := service.NewEventPublisher(natsConn, logger)
	aggregator := service.NewAggregationService(logger)

	calendarService := service.NewCachedCalendarService(
		service.NewCalendarService(academicRepo, schoolRepo, validate, logger),
		redisClient, cfg.CalendarCacheTTL, logger,
	)
	ledgerService := service.NewLedgerService(db, academicRepo, schoolRepo, teacherLedgerRepo, enrollmentLedgerRepo, activityService, validate, logger)
	subjectService := service.NewSubjectService(subjectRepo, academicRepo, schoolRepo, validate, logger)
	testService := service.NewTestService(db, testRepo, subjectRepo, academicRepo, schoolRepo, ledgerService, aggregator, activityService, events, validate, logger)
	reportService := service.NewReportService(db, reviewRepo, academicRepo, schoolRepo, subjectRepo, ledgerService, activityService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		CalendarHandler: handler.NewCalendarHandler(calendarService, logger),
		BindingHandler:  handler.NewBindingHandler(ledgerService, logger),
		SubjectHandler:  handler.NewSubjectHandler(subjectService, logger),
		TestHandler:     handler.NewTestHandler(testService, logger),
		ReportHandler:   handler.NewReportHandler(reportService, logger),
		ActivityHandler: handler.NewActivityHandler(activityService, logger),
		JWTMiddleware:   middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
