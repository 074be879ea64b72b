package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// StandardSubjectRepository persists the subjects taught in a standard per year.
type StandardSubjectRepository interface {
	Create(ctx context.Context, subject *models.StandardSubject) error
	GetByID(ctx context.Context, id uint) (models.StandardSubject, error)
	ListByStandardYear(ctx context.Context, standardID, yearID uint) ([]models.StandardSubject, error)
}

type standardSubjectRepository struct {
	db *gorm.DB
}

// NewStandardSubjectRepository instantiates a GORM-backed subject repository.
func NewStandardSubjectRepository(db *gorm.DB) StandardSubjectRepository {
	return &standardSubjectRepository{db: db}
}

func (r *standardSubjectRepository) Create(ctx context.Context, subject *models.StandardSubject) error {
	return r.db.WithContext(ctx).Create(subject).Error
}

func (r *standardSubjectRepository) GetByID(ctx context.Context, id uint) (models.StandardSubject, error) {
	var subject models.StandardSubject
	if err := r.db.WithContext(ctx).First(&subject, id).Error; err != nil {
		return models.StandardSubject{}, err
	}
	return subject, nil
}

func (r *standardSubjectRepository) ListByStandardYear(ctx context.Context, standardID, yearID uint) ([]models.StandardSubject, error) {
	var subjects []models.StandardSubject
	err := r.db.WithContext(ctx).
		Where("standard_id = ? AND year_id = ?", standardID, yearID).
		Order("name ASC").
		Find(&subjects).Error
	if err != nil {
		return nil, err
	}
	return subjects, nil
}
