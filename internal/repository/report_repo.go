package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// ReviewRepository persists term reviews and their subject score rows.
type ReviewRepository interface {
	// GetOrCreate returns the (term, student) review, inserting one with
	// neutral defaults when absent.
	GetOrCreate(ctx context.Context, termID, studentID uint) (models.StudentTermReview, error)
	Get(ctx context.Context, termID, studentID uint) (models.StudentTermReview, error)
	Update(ctx context.Context, review *models.StudentTermReview) error
	ListByTerm(ctx context.Context, termID uint, studentIDs []uint) ([]models.StudentTermReview, error)
	ListSubjectScores(ctx context.Context, reviewID uint) ([]models.StudentSubjectScore, error)
}

type reviewRepository struct {
	db *gorm.DB
}

// NewReviewRepository instantiates a GORM-backed review repository.
func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) GetOrCreate(ctx context.Context, termID, studentID uint) (models.StudentTermReview, error) {
	review := models.StudentTermReview{
		TermID:               termID,
		StudentID:            studentID,
		Attitude:             models.RatingNeutral,
		Respect:              models.RatingNeutral,
		ParentalSupport:      models.RatingNeutral,
		Attendance:           models.RatingNeutral,
		AssignmentCompletion: models.RatingNeutral,
		ClassParticipation:   models.RatingNeutral,
		TimeManagement:       models.RatingNeutral,
	}

	err := r.db.WithContext(ctx).
		Where("term_id = ? AND student_id = ?", termID, studentID).
		FirstOrCreate(&review).Error
	if err != nil {
		return models.StudentTermReview{}, err
	}

	return review, nil
}

func (r *reviewRepository) Get(ctx context.Context, termID, studentID uint) (models.StudentTermReview, error) {
	var review models.StudentTermReview
	err := r.db.WithContext(ctx).
		Preload("SubjectScores").
		Where("term_id = ? AND student_id = ?", termID, studentID).
		First(&review).Error
	if err != nil {
		return models.StudentTermReview{}, err
	}
	return review, nil
}

func (r *reviewRepository) Update(ctx context.Context, review *models.StudentTermReview) error {
	return r.db.WithContext(ctx).Save(review).Error
}

func (r *reviewRepository) ListByTerm(ctx context.Context, termID uint, studentIDs []uint) ([]models.StudentTermReview, error) {
	query := r.db.WithContext(ctx).Where("term_id = ?", termID)
	if len(studentIDs) > 0 {
		query = query.Where("student_id IN ?", studentIDs)
	}

	var reviews []models.StudentTermReview
	if err := query.Order("student_id ASC").Find(&reviews).Error; err != nil {
		return nil, err
	}
	return reviews, nil
}

func (r *reviewRepository) ListSubjectScores(ctx context.Context, reviewID uint) ([]models.StudentSubjectScore, error) {
	var scores []models.StudentSubjectScore
	err := r.db.WithContext(ctx).
		Preload("StandardSubject").
		Where("term_review_id = ?", reviewID).
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}
