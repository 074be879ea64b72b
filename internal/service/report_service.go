package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

// ReportService manages student term reviews: attendance and qualitative
// ratings entered by teachers, final exam lines, and the per-class
// finalization that closes a term's reports.
type ReportService interface {
	GetReview(ctx context.Context, termID, studentID uint) (dto.ReviewResponse, error)
	UpdateReview(ctx context.Context, termID, studentID uint, payload dto.ReviewUpdateRequest, actor ActivityActor) (dto.ReviewResponse, error)
	SetFinalExam(ctx context.Context, termID uint, entry dto.FinalExamEntry, actor ActivityActor) (dto.ReviewResponse, error)
	ListClassReviews(ctx context.Context, termID, standardID uint) ([]dto.ReviewResponse, error)
	FinalizeClassReviews(ctx context.Context, termID uint, payload dto.ReviewFinalizeRequest, actor ActivityActor) (int, error)
}

type reportService struct {
	db        *gorm.DB
	reviews   repository.ReviewRepository
	academic  repository.AcademicRepository
	schools   repository.SchoolRepository
	subjects  repository.StandardSubjectRepository
	ledger    LedgerService
	activity  ActivityRecorder
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	now       func() time.Time
}

// NewReportService constructs the term review service.
func NewReportService(db *gorm.DB, reviews repository.ReviewRepository, academic repository.AcademicRepository, schools repository.SchoolRepository, subjects repository.StandardSubjectRepository, ledgerSvc LedgerService, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) ReportService {
	return &reportService{
		db:        db,
		reviews:   reviews,
		academic:  academic,
		schools:   schools,
		subjects:  subjects,
		ledger:    ledgerSvc,
		activity:  activity,
		validator: validator,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "report_service").Logger(),
		now:       time.Now,
	}
}

// GetReview returns the (term, student) review, provisioning a blank one
// with neutral ratings on first access.
func (s *reportService) GetReview(ctx context.Context, termID, studentID uint) (dto.ReviewResponse, error) {
	if err := s.checkTermStudent(ctx, termID, studentID); err != nil {
		return dto.ReviewResponse{}, err
	}

	review, err := s.reviews.GetOrCreate(ctx, termID, studentID)
	if err != nil {
		return dto.ReviewResponse{}, err
	}
	return s.withSubjectScores(ctx, review)
}

// UpdateReview applies the non-nil fields of the payload. Remarks pass
// through an HTML-stripping sanitizer before storage. Finalized reviews
// reject every edit.
func (s *reportService) UpdateReview(ctx context.Context, termID, studentID uint, payload dto.ReviewUpdateRequest, actor ActivityActor) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ReviewResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := s.checkTermStudent(ctx, termID, studentID); err != nil {
		return dto.ReviewResponse{}, err
	}

	review, err := s.reviews.GetOrCreate(ctx, termID, studentID)
	if err != nil {
		return dto.ReviewResponse{}, err
	}
	if review.IsFinalized {
		return dto.ReviewResponse{}, ErrReviewFinalized
	}

	applyIfSet := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	applyIfSet(&review.DaysPresent, payload.DaysPresent)
	applyIfSet(&review.DaysLate, payload.DaysLate)
	applyIfSet(&review.Attitude, payload.Attitude)
	applyIfSet(&review.Respect, payload.Respect)
	applyIfSet(&review.ParentalSupport, payload.ParentalSupport)
	applyIfSet(&review.Attendance, payload.Attendance)
	applyIfSet(&review.AssignmentCompletion, payload.AssignmentCompletion)
	applyIfSet(&review.ClassParticipation, payload.ClassParticipation)
	applyIfSet(&review.TimeManagement, payload.TimeManagement)
	if payload.Remarks != nil {
		review.Remarks = strings.TrimSpace(s.sanitizer.Sanitize(*payload.Remarks))
	}

	if err := s.reviews.Update(ctx, &review); err != nil {
		return dto.ReviewResponse{}, err
	}

	s.record(ctx, actor, "review_updated", &review)
	return s.withSubjectScores(ctx, review)
}

// SetFinalExam records a final exam result directly on the report line,
// bypassing test aggregation. Used for exams administered outside the
// test grid.
func (s *reportService) SetFinalExam(ctx context.Context, termID uint, entry dto.FinalExamEntry, actor ActivityActor) (dto.ReviewResponse, error) {
	if err := s.validator.Struct(entry); err != nil {
		return dto.ReviewResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}
	if err := s.checkTermStudent(ctx, termID, entry.StudentID); err != nil {
		return dto.ReviewResponse{}, err
	}
	if _, err := s.subjects.GetByID(ctx, entry.StandardSubjectID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ReviewResponse{}, ErrSubjectNotFound
		}
		return dto.ReviewResponse{}, err
	}

	review, err := s.reviews.GetOrCreate(ctx, termID, entry.StudentID)
	if err != nil {
		return dto.ReviewResponse{}, err
	}
	if review.IsFinalized {
		return dto.ReviewResponse{}, ErrReviewFinalized
	}

	score := entry.Score
	if score > entry.MaxScore {
		score = entry.MaxScore
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		line := models.StudentSubjectScore{TermReviewID: review.ID, StandardSubjectID: entry.StandardSubjectID}
		if err := tx.Where("term_review_id = ? AND standard_subject_id = ?", review.ID, entry.StandardSubjectID).
			FirstOrCreate(&line).Error; err != nil {
			return err
		}
		line.FinalExamScore = score
		line.FinalExamMaxScore = entry.MaxScore
		return tx.Save(&line).Error
	})
	if err != nil {
		return dto.ReviewResponse{}, err
	}

	s.record(ctx, actor, "final_exam_recorded", &review)
	return s.withSubjectScores(ctx, review)
}

// ListClassReviews returns the reviews of every student currently enrolled
// in the class, provisioning blanks so the list always matches the roster.
func (s *reportService) ListClassReviews(ctx context.Context, termID, standardID uint) ([]dto.ReviewResponse, error) {
	term, err := s.academic.GetTerm(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTermNotFound
		}
		return nil, err
	}

	roster, err := s.ledger.Roster(ctx, term.YearID, standardID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.ReviewResponse, 0, len(roster.StudentIDs))
	for _, studentID := range roster.StudentIDs {
		review, err := s.reviews.GetOrCreate(ctx, termID, studentID)
		if err != nil {
			return nil, err
		}
		resp, err := s.withSubjectScores(ctx, review)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// FinalizeClassReviews closes every open review in the class roster in one
// transaction and returns how many were finalized. Already finalized
// reviews are left untouched.
func (s *reportService) FinalizeClassReviews(ctx context.Context, termID uint, payload dto.ReviewFinalizeRequest, actor ActivityActor) (int, error) {
	if err := s.validator.Struct(payload); err != nil {
		return 0, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	term, err := s.academic.GetTerm(ctx, termID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrTermNotFound
		}
		return 0, err
	}

	roster, err := s.ledger.Roster(ctx, term.YearID, payload.StandardID)
	if err != nil {
		return 0, err
	}

	finalizedAt := s.now()
	finalized := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, studentID := range roster.StudentIDs {
			review := models.StudentTermReview{TermID: termID, StudentID: studentID}
			if err := tx.Where("term_id = ? AND student_id = ?", termID, studentID).
				FirstOrCreate(&review).Error; err != nil {
				return err
			}
			if review.IsFinalized {
				continue
			}
			review.IsFinalized = true
			review.FinalizedAt = &finalizedAt
			review.FinalizedBy = &actor.ID
			if err := tx.Save(&review).Error; err != nil {
				return err
			}
			finalized++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if s.activity != nil {
		entry := ActivityEntry{
			SchoolID:   s.termSchoolID(ctx, term),
			ActorID:    actor.ID,
			ActorRole:  actor.Role,
			Action:     "reviews_finalized",
			EntityType: "term",
			EntityID:   &term.ID,
			Metadata: map[string]interface{}{
				"standard_id": payload.StandardID,
				"finalized":   finalized,
			},
		}
		if _, err := s.activity.Record(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record review finalization activity")
		}
	}

	s.logger.Info().Uint("term_id", termID).Uint("standard_id", payload.StandardID).Int("finalized", finalized).Msg("class reviews finalized")
	return finalized, nil
}

func (s *reportService) withSubjectScores(ctx context.Context, review models.StudentTermReview) (dto.ReviewResponse, error) {
	if len(review.SubjectScores) == 0 {
		lines, err := s.reviews.ListSubjectScores(ctx, review.ID)
		if err != nil {
			return dto.ReviewResponse{}, err
		}
		review.SubjectScores = lines
	}
	return dto.NewReviewResponse(review), nil
}

func (s *reportService) checkTermStudent(ctx context.Context, termID, studentID uint) error {
	if _, err := s.academic.GetTerm(ctx, termID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTermNotFound
		}
		return err
	}
	if _, err := s.schools.GetStudent(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrStudentNotFound
		}
		return err
	}
	return nil
}

func (s *reportService) termSchoolID(ctx context.Context, term models.Term) uint {
	year, err := s.academic.GetYear(ctx, term.YearID)
	if err != nil {
		return 0
	}
	return year.SchoolID
}

func (s *reportService) record(ctx context.Context, actor ActivityActor, action string, review *models.StudentTermReview) {
	if s.activity == nil {
		return
	}
	entry := ActivityEntry{
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     action,
		EntityType: "student_term_review",
		EntityID:   &review.ID,
		Metadata: map[string]interface{}{
			"term_id":    review.TermID,
			"student_id": review.StudentID,
		},
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to record review activity")
	}
}
