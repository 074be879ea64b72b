package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// TeacherLedgerRepository reads and appends teacher assignment history. Rows
// are append-only; there are deliberately no update or delete methods.
type TeacherLedgerRepository interface {
	Append(ctx context.Context, row *models.TeacherAssignment) error
	History(ctx context.Context, yearID, teacherID uint) ([]models.TeacherAssignment, error)
	YearHistory(ctx context.Context, yearID uint) ([]models.TeacherAssignment, error)
}

// EnrollmentLedgerRepository mirrors TeacherLedgerRepository for students.
type EnrollmentLedgerRepository interface {
	Append(ctx context.Context, row *models.Enrollment) error
	History(ctx context.Context, yearID, studentID uint) ([]models.Enrollment, error)
	YearHistory(ctx context.Context, yearID uint) ([]models.Enrollment, error)
}

type teacherLedgerRepository struct {
	db *gorm.DB
}

// NewTeacherLedgerRepository instantiates the GORM-backed teacher ledger.
func NewTeacherLedgerRepository(db *gorm.DB) TeacherLedgerRepository {
	return &teacherLedgerRepository{db: db}
}

func (r *teacherLedgerRepository) Append(ctx context.Context, row *models.TeacherAssignment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *teacherLedgerRepository) History(ctx context.Context, yearID, teacherID uint) ([]models.TeacherAssignment, error) {
	var rows []models.TeacherAssignment
	err := r.db.WithContext(ctx).
		Where("year_id = ? AND teacher_id = ?", yearID, teacherID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *teacherLedgerRepository) YearHistory(ctx context.Context, yearID uint) ([]models.TeacherAssignment, error) {
	var rows []models.TeacherAssignment
	err := r.db.WithContext(ctx).
		Where("year_id = ?", yearID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

type enrollmentLedgerRepository struct {
	db *gorm.DB
}

// NewEnrollmentLedgerRepository instantiates the GORM-backed student ledger.
func NewEnrollmentLedgerRepository(db *gorm.DB) EnrollmentLedgerRepository {
	return &enrollmentLedgerRepository{db: db}
}

func (r *enrollmentLedgerRepository) Append(ctx context.Context, row *models.Enrollment) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *enrollmentLedgerRepository) History(ctx context.Context, yearID, studentID uint) ([]models.Enrollment, error) {
	var rows []models.Enrollment
	err := r.db.WithContext(ctx).
		Where("year_id = ? AND student_id = ?", yearID, studentID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *enrollmentLedgerRepository) YearHistory(ctx context.Context, yearID uint) ([]models.Enrollment, error) {
	var rows []models.Enrollment
	err := r.db.WithContext(ctx).
		Where("year_id = ?", yearID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
