package service

import (
	"context"
	"math"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// AggregateResult reports how many report lines a finalize touched. Skipped
// counts students whose report rows could not be written; their failure does
// not abort the rest of the batch.
type AggregateResult struct {
	Updated int
	Skipped int
}

// AggregationService folds finalized test scores into per-student term
// report lines. It always operates on the caller's transaction so the
// report rows commit or roll back together with the finalize itself.
type AggregationService interface {
	AggregateTest(ctx context.Context, tx *gorm.DB, test models.Test) (AggregateResult, error)
}

type aggregationService struct {
	logger zerolog.Logger
}

// NewAggregationService constructs the score aggregator.
func NewAggregationService(logger zerolog.Logger) AggregationService {
	return &aggregationService{
		logger: logger.With().Str("component", "aggregation_service").Logger(),
	}
}

// AggregateTest pushes one finalized test into the term reports. Final exams
// overwrite the subject's exam fields with the raw score; assessment tests
// recompute the mean percentage across every finalized assessment of the
// same subject and term.
func (s *aggregationService) AggregateTest(ctx context.Context, tx *gorm.DB, test models.Test) (AggregateResult, error) {
	var result AggregateResult

	if test.TestType == models.TestTypeOther {
		return result, nil
	}

	var subjects []models.TestSubject
	if err := tx.WithContext(ctx).
		Where("test_id = ? AND enabled = ?", test.ID, true).
		Find(&subjects).Error; err != nil {
		return result, err
	}

	for _, subject := range subjects {
		var scores []models.TestScore
		if err := tx.WithContext(ctx).
			Where("test_subject_id = ?", subject.ID).
			Find(&scores).Error; err != nil {
			return result, err
		}

		for _, score := range scores {
			// Fence each report line with a savepoint so a failed write
			// does not poison the surrounding finalize transaction.
			if err := tx.SavePoint("report_line").Error; err != nil {
				return result, err
			}
			if err := s.applyScore(ctx, tx, test, subject, score); err != nil {
				if rbErr := tx.RollbackTo("report_line").Error; rbErr != nil {
					return result, rbErr
				}
				result.Skipped++
				s.logger.Warn().Err(err).
					Uint("test_id", test.ID).
					Uint("student_id", score.StudentID).
					Uint("standard_subject_id", subject.StandardSubjectID).
					Msg("skipped report line during aggregation")
				continue
			}
			result.Updated++
		}
	}

	return result, nil
}

func (s *aggregationService) applyScore(ctx context.Context, tx *gorm.DB, test models.Test, subject models.TestSubject, score models.TestScore) error {
	review := models.StudentTermReview{TermID: test.TermID, StudentID: score.StudentID}
	if err := tx.WithContext(ctx).
		Where("term_id = ? AND student_id = ?", test.TermID, score.StudentID).
		FirstOrCreate(&review).Error; err != nil {
		return err
	}

	line := models.StudentSubjectScore{TermReviewID: review.ID, StandardSubjectID: subject.StandardSubjectID}
	if err := tx.WithContext(ctx).
		Where("term_review_id = ? AND standard_subject_id = ?", review.ID, subject.StandardSubjectID).
		FirstOrCreate(&line).Error; err != nil {
		return err
	}

	if test.TestType == models.TestTypeFinalExam {
		line.FinalExamScore = score.Score
		line.FinalExamMaxScore = subject.MaxScore
		return tx.WithContext(ctx).Save(&line).Error
	}

	mean, err := s.assessmentMean(ctx, tx, test.TermID, subject.StandardSubjectID, score.StudentID)
	if err != nil {
		return err
	}
	line.TermAssessmentPercentage = mean
	return tx.WithContext(ctx).Save(&line).Error
}

// assessmentMean averages the percentage of every finalized assessment score
// the student holds for the subject in the term.
func (s *aggregationService) assessmentMean(ctx context.Context, tx *gorm.DB, termID, standardSubjectID, studentID uint) (float64, error) {
	type scoredRow struct {
		Score    float64
		MaxScore float64
	}

	var rows []scoredRow
	err := tx.WithContext(ctx).
		Table("test_scores").
		Select("test_scores.score AS score, test_subjects.max_score AS max_score").
		Joins("JOIN test_subjects ON test_subjects.id = test_scores.test_subject_id").
		Joins("JOIN tests ON tests.id = test_subjects.test_id").
		Where("tests.term_id = ? AND tests.is_finalized = ?", termID, true).
		Where("tests.test_type IN ?", models.AssessmentTestTypes).
		Where("test_subjects.standard_subject_id = ? AND test_subjects.enabled = ?", standardSubjectID, true).
		Where("test_scores.student_id = ?", studentID).
		Scan(&rows).Error
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	var sum float64
	for _, row := range rows {
		if row.MaxScore > 0 {
			sum += row.Score / row.MaxScore * 100
		}
	}
	return round2(sum / float64(len(rows))), nil
}

// round2 rounds to two decimals, halves away from zero.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
