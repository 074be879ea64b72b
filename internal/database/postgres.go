package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// ConnectPostgres establishes a connection to the PostgreSQL database using the provided DSN.
func ConnectPostgres(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres dsn must not be empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return db, nil
}

// Migrate applies the schema for every domain model. Ordering matters for the
// foreign keys: owners before dependents.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.School{},
		&models.Standard{},
		&models.Teacher{},
		&models.Student{},
		&models.AcademicYear{},
		&models.Term{},
		&models.TeacherAssignment{},
		&models.Enrollment{},
		&models.StandardSubject{},
		&models.Test{},
		&models.TestSubject{},
		&models.TestScore{},
		&models.StudentTermReview{},
		&models.StudentSubjectScore{},
		&models.ActivityLog{},
	)
}
