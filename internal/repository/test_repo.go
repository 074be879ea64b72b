package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// TestRepository reads assessment data. Lifecycle mutations run through the
// service-owned transactions; this repository covers the query side.
type TestRepository interface {
	GetByID(ctx context.Context, id uint) (models.Test, error)
	ListByTerm(ctx context.Context, termID uint, standardID *uint) ([]models.Test, error)
	GetSubject(ctx context.Context, testID, subjectID uint) (models.TestSubject, error)
	ListSubjects(ctx context.Context, testID uint) ([]models.TestSubject, error)
	ListScores(ctx context.Context, testSubjectID uint) ([]models.TestScore, error)
}

type testRepository struct {
	db *gorm.DB
}

// NewTestRepository instantiates a GORM-backed assessment repository.
func NewTestRepository(db *gorm.DB) TestRepository {
	return &testRepository{db: db}
}

func (r *testRepository) GetByID(ctx context.Context, id uint) (models.Test, error) {
	var test models.Test
	err := r.db.WithContext(ctx).
		Preload("Term").
		Preload("Subjects").
		First(&test, id).Error
	if err != nil {
		return models.Test{}, err
	}
	return test, nil
}

func (r *testRepository) ListByTerm(ctx context.Context, termID uint, standardID *uint) ([]models.Test, error) {
	query := r.db.WithContext(ctx).Where("term_id = ?", termID)
	if standardID != nil {
		query = query.Where("standard_id = ?", *standardID)
	}

	var tests []models.Test
	if err := query.Order("test_date DESC").Find(&tests).Error; err != nil {
		return nil, err
	}
	return tests, nil
}

func (r *testRepository) GetSubject(ctx context.Context, testID, subjectID uint) (models.TestSubject, error) {
	var subject models.TestSubject
	err := r.db.WithContext(ctx).
		Where("test_id = ? AND standard_subject_id = ?", testID, subjectID).
		First(&subject).Error
	if err != nil {
		return models.TestSubject{}, err
	}
	return subject, nil
}

func (r *testRepository) ListSubjects(ctx context.Context, testID uint) ([]models.TestSubject, error) {
	var subjects []models.TestSubject
	err := r.db.WithContext(ctx).
		Preload("StandardSubject").
		Where("test_id = ?", testID).
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}

func (r *testRepository) ListScores(ctx context.Context, testSubjectID uint) ([]models.TestScore, error) {
	var scores []models.TestScore
	err := r.db.WithContext(ctx).
		Where("test_subject_id = ?", testSubjectID).
		Order("student_id ASC").
		Find(&scores).Error
	if err != nil {
		return nil, err
	}
	return scores, nil
}
