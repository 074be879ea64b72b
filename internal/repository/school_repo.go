package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// SchoolRepository resolves schools, standards and the people bound to them.
type SchoolRepository interface {
	GetSchool(ctx context.Context, id uint) (models.School, error)
	GetSchoolBySlug(ctx context.Context, slug string) (models.School, error)
	GetStandard(ctx context.Context, id uint) (models.Standard, error)
	ListStandards(ctx context.Context, schoolID uint) ([]models.Standard, error)
	GetTeacher(ctx context.Context, id uint) (models.Teacher, error)
	GetStudent(ctx context.Context, id uint) (models.Student, error)
	ListStudents(ctx context.Context, ids []uint) ([]models.Student, error)
}

type schoolRepository struct {
	db *gorm.DB
}

// NewSchoolRepository instantiates a GORM-backed school repository.
func NewSchoolRepository(db *gorm.DB) SchoolRepository {
	return &schoolRepository{db: db}
}

func (r *schoolRepository) GetSchool(ctx context.Context, id uint) (models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).First(&school, id).Error; err != nil {
		return models.School{}, err
	}
	return school, nil
}

func (r *schoolRepository) GetSchoolBySlug(ctx context.Context, slug string) (models.School, error) {
	var school models.School
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&school).Error; err != nil {
		return models.School{}, err
	}
	return school, nil
}

func (r *schoolRepository) GetStandard(ctx context.Context, id uint) (models.Standard, error) {
	var standard models.Standard
	if err := r.db.WithContext(ctx).First(&standard, id).Error; err != nil {
		return models.Standard{}, err
	}
	return standard, nil
}

func (r *schoolRepository) ListStandards(ctx context.Context, schoolID uint) ([]models.Standard, error) {
	var standards []models.Standard
	err := r.db.WithContext(ctx).
		Where("school_id = ?", schoolID).
		Order("level ASC, name ASC").
		Find(&standards).Error
	if err != nil {
		return nil, err
	}
	return standards, nil
}

func (r *schoolRepository) GetTeacher(ctx context.Context, id uint) (models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.WithContext(ctx).First(&teacher, id).Error; err != nil {
		return models.Teacher{}, err
	}
	return teacher, nil
}

func (r *schoolRepository) GetStudent(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *schoolRepository) ListStudents(ctx context.Context, ids []uint) ([]models.Student, error) {
	if len(ids) == 0 {
		return []models.Student{}, nil
	}

	var students []models.Student
	err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("last_name ASC, first_name ASC").
		Find(&students).Error
	if err != nil {
		return nil, err
	}
	return students, nil
}
