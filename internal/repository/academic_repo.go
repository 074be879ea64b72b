package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// AcademicRepository persists academic years and their terms.
type AcademicRepository interface {
	// FindTermContaining returns the school's term whose inclusive span
	// contains the date, with its year preloaded.
	FindTermContaining(ctx context.Context, schoolID uint, date time.Time) (models.Term, error)
	// ListYears returns a school's years ascending by start year, terms
	// preloaded in term-number order.
	ListYears(ctx context.Context, schoolID uint) ([]models.AcademicYear, error)
	// GetYearByStart fetches one year by its (school, start_year) key.
	GetYearByStart(ctx context.Context, schoolID uint, startYear int) (models.AcademicYear, error)
	// CreateYearWithTerms atomically inserts a year and its terms. When a
	// concurrent writer already created the same (school, start_year), the
	// existing row is loaded into year instead of returning an error.
	CreateYearWithTerms(ctx context.Context, year *models.AcademicYear) error
	GetYear(ctx context.Context, id uint) (models.AcademicYear, error)
	GetTerm(ctx context.Context, id uint) (models.Term, error)
	FindTerm(ctx context.Context, yearID uint, termNumber int) (models.Term, error)
}

type academicRepository struct {
	db *gorm.DB
}

// NewAcademicRepository instantiates the GORM-backed academic repository.
func NewAcademicRepository(db *gorm.DB) AcademicRepository {
	return &academicRepository{db: db}
}

func (r *academicRepository) FindTermContaining(ctx context.Context, schoolID uint, date time.Time) (models.Term, error) {
	d := models.DateOnly(date)

	yearIDs := r.db.Model(&models.AcademicYear{}).Select("id").Where("school_id = ?", schoolID)

	var term models.Term
	err := r.db.WithContext(ctx).
		Preload("Year").
		Where("year_id IN (?)", yearIDs).
		Where("start_date <= ? AND end_date >= ?", d, d).
		Order("start_date ASC").
		First(&term).Error
	if err != nil {
		return models.Term{}, err
	}

	return term, nil
}

func (r *academicRepository) ListYears(ctx context.Context, schoolID uint) ([]models.AcademicYear, error) {
	var years []models.AcademicYear
	err := r.db.WithContext(ctx).
		Preload("Terms", func(db *gorm.DB) *gorm.DB { return db.Order("term_number ASC") }).
		Where("school_id = ?", schoolID).
		Order("start_year ASC").
		Find(&years).Error
	if err != nil {
		return nil, err
	}

	return years, nil
}

func (r *academicRepository) GetYearByStart(ctx context.Context, schoolID uint, startYear int) (models.AcademicYear, error) {
	var year models.AcademicYear
	err := r.db.WithContext(ctx).
		Preload("Terms", func(db *gorm.DB) *gorm.DB { return db.Order("term_number ASC") }).
		Where("school_id = ? AND start_year = ?", schoolID, startYear).
		First(&year).Error
	if err != nil {
		return models.AcademicYear{}, err
	}

	return year, nil
}

func (r *academicRepository) CreateYearWithTerms(ctx context.Context, year *models.AcademicYear) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(year).Error
	})
	if err == nil {
		return nil
	}

	// Racing duplicate creates degrade to a reuse: re-read the winner.
	existing, readErr := r.GetYearByStart(ctx, year.SchoolID, year.StartYear)
	if readErr != nil {
		return err
	}

	*year = existing
	return nil
}

func (r *academicRepository) GetYear(ctx context.Context, id uint) (models.AcademicYear, error) {
	var year models.AcademicYear
	err := r.db.WithContext(ctx).
		Preload("Terms", func(db *gorm.DB) *gorm.DB { return db.Order("term_number ASC") }).
		First(&year, id).Error
	if err != nil {
		return models.AcademicYear{}, err
	}

	return year, nil
}

func (r *academicRepository) GetTerm(ctx context.Context, id uint) (models.Term, error) {
	var term models.Term
	if err := r.db.WithContext(ctx).Preload("Year").First(&term, id).Error; err != nil {
		return models.Term{}, err
	}

	return term, nil
}

func (r *academicRepository) FindTerm(ctx context.Context, yearID uint, termNumber int) (models.Term, error) {
	var term models.Term
	err := r.db.WithContext(ctx).
		Preload("Year").
		Where("year_id = ? AND term_number = ?", yearID, termNumber).
		First(&term).Error
	if err != nil {
		return models.Term{}, err
	}

	return term, nil
}
