package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/observability"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

// TestService drives the test lifecycle: draft creation with provisioned
// subject columns and score rows, draft-only edits, and the finalize
// transition that locks the test and folds its scores into term reports.
type TestService interface {
	Create(ctx context.Context, payload dto.TestCreateRequest, actor ActivityActor) (dto.TestResponse, error)
	Get(ctx context.Context, testID uint) (dto.TestResponse, error)
	ListByTerm(ctx context.Context, termID uint, standardID *uint) ([]dto.TestResponse, error)
	SetSubject(ctx context.Context, testID, standardSubjectID uint, payload dto.TestSubjectUpdateRequest, actor ActivityActor) (dto.TestSubjectResponse, error)
	SetScore(ctx context.Context, testID, standardSubjectID uint, entry dto.ScoreEntry, actor ActivityActor) (dto.ScoreResponse, error)
	BulkSetScores(ctx context.Context, testID, standardSubjectID uint, payload dto.BulkScoresRequest, actor ActivityActor) ([]dto.ScoreResponse, error)
	ListScores(ctx context.Context, testID, standardSubjectID uint) ([]dto.ScoreResponse, error)
	Finalize(ctx context.Context, testID uint, actor ActivityActor) (dto.FinalizeResponse, error)
}

type testService struct {
	db         *gorm.DB
	tests      repository.TestRepository
	subjects   repository.StandardSubjectRepository
	academic   repository.AcademicRepository
	schools    repository.SchoolRepository
	ledger     LedgerService
	aggregator AggregationService
	activity   ActivityRecorder
	events     EventPublisher
	validator  *validator.Validate
	logger     zerolog.Logger
	now        func() time.Time
}

// NewTestService constructs the test lifecycle service.
func NewTestService(db *gorm.DB, tests repository.TestRepository, subjects repository.StandardSubjectRepository, academic repository.AcademicRepository, schools repository.SchoolRepository, ledgerSvc LedgerService, aggregator AggregationService, activity ActivityRecorder, events EventPublisher, validator *validator.Validate, logger zerolog.Logger) TestService {
	return &testService{
		db:         db,
		tests:      tests,
		subjects:   subjects,
		academic:   academic,
		schools:    schools,
		ledger:     ledgerSvc,
		aggregator: aggregator,
		activity:   activity,
		events:     events,
		validator:  validator,
		logger:     logger.With().Str("component", "test_service").Logger(),
		now:        time.Now,
	}
}

// Create opens a draft test and provisions its grid in one transaction: a
// disabled subject column per registered class subject and a zero score row
// per currently enrolled student under each column.
func (s *testService) Create(ctx context.Context, payload dto.TestCreateRequest, actor ActivityActor) (dto.TestResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if !models.ValidTestType(payload.TestType) {
		return dto.TestResponse{}, fmt.Errorf("%w: unknown test type %q", ErrValidation, payload.TestType)
	}

	term, err := s.academic.GetTerm(ctx, payload.TermID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResponse{}, ErrTermNotFound
		}
		return dto.TestResponse{}, err
	}

	testDate, err := time.ParseInLocation(time.DateOnly, payload.TestDate, time.UTC)
	if err != nil {
		return dto.TestResponse{}, fmt.Errorf("%w: test date: %s", ErrValidation, err.Error())
	}
	if !term.Contains(testDate) {
		return dto.TestResponse{}, ErrDateOutsideTerm
	}

	standard, err := s.schools.GetStandard(ctx, payload.StandardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResponse{}, ErrStandardNotFound
		}
		return dto.TestResponse{}, err
	}

	year, err := s.academic.GetYear(ctx, term.YearID)
	if err != nil {
		return dto.TestResponse{}, err
	}
	if standard.SchoolID != year.SchoolID {
		return dto.TestResponse{}, fmt.Errorf("%w: standard %d belongs to another school", ErrValidation, payload.StandardID)
	}

	classSubjects, err := s.subjects.ListByStandardYear(ctx, payload.StandardID, term.YearID)
	if err != nil {
		return dto.TestResponse{}, err
	}

	roster, err := s.ledger.Roster(ctx, term.YearID, payload.StandardID)
	if err != nil {
		return dto.TestResponse{}, err
	}

	test := models.Test{
		StandardID:  payload.StandardID,
		TermID:      payload.TermID,
		TestType:    payload.TestType,
		TestDate:    testDate,
		Description: payload.Description,
		CreatedBy:   actor.ID,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&test).Error; err != nil {
			return err
		}
		for _, subject := range classSubjects {
			column := models.TestSubject{
				TestID:            test.ID,
				StandardSubjectID: subject.ID,
				MaxScore:          100,
				Enabled:           false,
			}
			if err := tx.Create(&column).Error; err != nil {
				return err
			}
			for _, studentID := range roster.StudentIDs {
				score := models.TestScore{
					TestSubjectID: column.ID,
					StudentID:     studentID,
					Score:         0,
				}
				if err := tx.Create(&score).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return dto.TestResponse{}, err
	}

	s.record(ctx, year.SchoolID, actor, "test_created", &test,
		map[string]interface{}{"test_type": test.TestType, "standard_id": test.StandardID, "term_id": test.TermID})

	created, err := s.tests.GetByID(ctx, test.ID)
	if err != nil {
		return dto.TestResponse{}, err
	}
	return dto.NewTestResponse(created), nil
}

func (s *testService) Get(ctx context.Context, testID uint) (dto.TestResponse, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestResponse{}, ErrTestNotFound
		}
		return dto.TestResponse{}, err
	}
	return dto.NewTestResponse(test), nil
}

func (s *testService) ListByTerm(ctx context.Context, termID uint, standardID *uint) ([]dto.TestResponse, error) {
	tests, err := s.tests.ListByTerm(ctx, termID, standardID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.TestResponse, 0, len(tests))
	for _, t := range tests {
		responses = append(responses, dto.NewTestResponse(t))
	}
	return responses, nil
}

// SetSubject toggles a subject column or changes its maximum. Finalized
// tests reject every edit.
func (s *testService) SetSubject(ctx context.Context, testID, standardSubjectID uint, payload dto.TestSubjectUpdateRequest, actor ActivityActor) (dto.TestSubjectResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.TestSubjectResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	if _, err := s.draftTest(ctx, testID); err != nil {
		return dto.TestSubjectResponse{}, err
	}

	column, err := s.tests.GetSubject(ctx, testID, standardSubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestSubjectResponse{}, ErrSubjectNotFound
		}
		return dto.TestSubjectResponse{}, err
	}

	updated := false
	loweredMax := false
	if payload.Enabled != nil && column.Enabled != *payload.Enabled {
		column.Enabled = *payload.Enabled
		updated = true
	}
	if payload.MaxScore != nil && column.MaxScore != *payload.MaxScore {
		loweredMax = *payload.MaxScore < column.MaxScore
		column.MaxScore = *payload.MaxScore
		updated = true
	}
	if updated {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Save(&column).Error; err != nil {
				return err
			}
			if !loweredMax {
				return nil
			}
			// Clamp draft scores that a lowered maximum left out of range.
			return tx.Model(&models.TestScore{}).
				Where("test_subject_id = ? AND score > ?", column.ID, column.MaxScore).
				Update("score", column.MaxScore).Error
		})
		if err != nil {
			return dto.TestSubjectResponse{}, err
		}
	}

	return dto.TestSubjectResponse{
		ID:                column.ID,
		StandardSubjectID: column.StandardSubjectID,
		MaxScore:          column.MaxScore,
		Enabled:           column.Enabled,
	}, nil
}

// SetScore records one student's score, clamped into [0, max]. Scores are
// editable only while the test is a draft.
func (s *testService) SetScore(ctx context.Context, testID, standardSubjectID uint, entry dto.ScoreEntry, actor ActivityActor) (dto.ScoreResponse, error) {
	if err := s.validator.Struct(entry); err != nil {
		return dto.ScoreResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if _, err := s.draftTest(ctx, testID); err != nil {
		return dto.ScoreResponse{}, err
	}

	column, err := s.tests.GetSubject(ctx, testID, standardSubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoreResponse{}, ErrSubjectNotFound
		}
		return dto.ScoreResponse{}, err
	}

	var resp dto.ScoreResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := applyScoreEntry(ctx, tx, column, entry)
		if err != nil {
			return err
		}
		resp = r
		return nil
	})
	if err != nil {
		return dto.ScoreResponse{}, err
	}
	return resp, nil
}

// BulkSetScores records a batch of scores atomically: either every entry
// lands or none do.
func (s *testService) BulkSetScores(ctx context.Context, testID, standardSubjectID uint, payload dto.BulkScoresRequest, actor ActivityActor) ([]dto.ScoreResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if _, err := s.draftTest(ctx, testID); err != nil {
		return nil, err
	}

	column, err := s.tests.GetSubject(ctx, testID, standardSubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}

	responses := make([]dto.ScoreResponse, 0, len(payload.Scores))
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, entry := range payload.Scores {
			r, err := applyScoreEntry(ctx, tx, column, entry)
			if err != nil {
				return err
			}
			responses = append(responses, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func (s *testService) ListScores(ctx context.Context, testID, standardSubjectID uint) ([]dto.ScoreResponse, error) {
	column, err := s.tests.GetSubject(ctx, testID, standardSubjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, err
	}
	scores, err := s.tests.ListScores(ctx, column.ID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.ScoreResponse, 0, len(scores))
	for _, score := range scores {
		responses = append(responses, dto.ScoreResponse{StudentID: score.StudentID, Score: score.Score})
	}
	return responses, nil
}

// Finalize locks the test and aggregates its scores into the term reports
// inside one transaction. A second finalize returns ErrTestFinalized without
// touching the reports again.
func (s *testService) Finalize(ctx context.Context, testID uint, actor ActivityActor) (dto.FinalizeResponse, error) {
	tracer := otel.Tracer("github.com/marigot-labs/school-report-api/internal/service/test")
	ctx, span := tracer.Start(ctx, "test.finalize")
	span.SetAttributes(
		attribute.Int64("test.id", int64(testID)),
		attribute.Int64("test.actor_id", int64(actor.ID)),
	)
	defer span.End()

	var (
		test   models.Test
		result AggregateResult
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&test, testID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTestNotFound
			}
			return err
		}
		if test.IsFinalized {
			return ErrTestFinalized
		}

		finalizedAt := s.now()
		test.IsFinalized = true
		test.FinalizedAt = &finalizedAt
		test.FinalizedBy = &actor.ID
		if err := tx.Save(&test).Error; err != nil {
			return err
		}

		r, err := s.aggregator.AggregateTest(ctx, tx, test)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		span.RecordError(err)
		switch {
		case errors.Is(err, ErrTestFinalized):
			span.SetStatus(codes.Error, "already_finalized")
		case errors.Is(err, ErrTestNotFound):
			span.SetStatus(codes.Error, "test_not_found")
		default:
			span.SetStatus(codes.Error, "finalize_failed")
		}
		return dto.FinalizeResponse{}, err
	}

	span.SetAttributes(
		attribute.Int("test.report_lines_updated", result.Updated),
		attribute.Int("test.report_lines_skipped", result.Skipped),
	)

	observability.TestsFinalized().Inc()
	observability.ReportLinesUpdated().Add(float64(result.Updated))
	observability.ReportLinesSkipped().Add(float64(result.Skipped))

	schoolID := s.testSchoolID(ctx, test)
	s.record(ctx, schoolID, actor, "test_finalized", &test,
		map[string]interface{}{"updated": result.Updated, "skipped": result.Skipped})

	s.events.TestFinalized(TestFinalizedEvent{
		TestID:      test.ID,
		TermID:      test.TermID,
		StandardID:  test.StandardID,
		TestType:    test.TestType,
		FinalizedBy: test.ActorID(),
		Updated:     result.Updated,
		Skipped:     result.Skipped,
	})

	s.logger.Info().Uint("test_id", test.ID).Int("updated", result.Updated).Int("skipped", result.Skipped).Msg("test finalized")
	return dto.FinalizeResponse{TestID: test.ID, Updated: result.Updated, Skipped: result.Skipped}, nil
}

// applyScoreEntry clamps and upserts one score row. Students enrolled after
// the test was provisioned get their row created here.
func applyScoreEntry(ctx context.Context, tx *gorm.DB, column models.TestSubject, entry dto.ScoreEntry) (dto.ScoreResponse, error) {
	clamped := entry.Score
	if clamped < 0 {
		clamped = 0
	}
	if clamped > column.MaxScore {
		clamped = column.MaxScore
	}

	row := models.TestScore{TestSubjectID: column.ID, StudentID: entry.StudentID}
	if err := tx.WithContext(ctx).
		Where("test_subject_id = ? AND student_id = ?", column.ID, entry.StudentID).
		FirstOrCreate(&row).Error; err != nil {
		return dto.ScoreResponse{}, err
	}
	row.Score = clamped
	if err := tx.WithContext(ctx).Save(&row).Error; err != nil {
		return dto.ScoreResponse{}, err
	}
	return dto.ScoreResponse{StudentID: row.StudentID, Score: row.Score}, nil
}

// draftTest loads a test and rejects finalized ones.
func (s *testService) draftTest(ctx context.Context, testID uint) (models.Test, error) {
	test, err := s.tests.GetByID(ctx, testID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Test{}, ErrTestNotFound
		}
		return models.Test{}, err
	}
	if test.IsFinalized {
		return models.Test{}, ErrTestFinalized
	}
	return test, nil
}

func (s *testService) testSchoolID(ctx context.Context, test models.Test) uint {
	term, err := s.academic.GetTerm(ctx, test.TermID)
	if err != nil {
		return 0
	}
	year, err := s.academic.GetYear(ctx, term.YearID)
	if err != nil {
		return 0
	}
	return year.SchoolID
}

func (s *testService) record(ctx context.Context, schoolID uint, actor ActivityActor, action string, test *models.Test, metadata map[string]interface{}) {
	if s.activity == nil {
		return
	}
	entry := ActivityEntry{
		SchoolID:   schoolID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "test",
		EntityID:   &test.ID,
		Metadata:   metadata,
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record test activity")
	}
}
