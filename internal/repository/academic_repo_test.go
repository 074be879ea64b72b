package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/models"
)

func setupRepoDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.School{},
		&models.Standard{},
		&models.Teacher{},
		&models.Student{},
		&models.AcademicYear{},
		&models.Term{},
		&models.TeacherAssignment{},
		&models.Enrollment{},
		&models.StudentTermReview{},
		&models.StudentSubjectScore{},
	))
	return db
}

func seedSchoolYear(t *testing.T, db *gorm.DB, startYear int) (models.School, models.AcademicYear) {
	t.Helper()
	school := models.School{Name: "Roseau Primary", Slug: "roseau-primary", Active: true}
	require.NoError(t, db.Create(&school).Error)

	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	year := models.AcademicYear{
		SchoolID:  school.ID,
		StartYear: startYear,
		Terms: []models.Term{
			{TermNumber: 1, StartDate: day(startYear, time.September, 1), EndDate: day(startYear, time.December, 15), SchoolDays: 70},
			{TermNumber: 2, StartDate: day(startYear+1, time.January, 8), EndDate: day(startYear+1, time.April, 12), SchoolDays: 65},
			{TermNumber: 3, StartDate: day(startYear+1, time.April, 22), EndDate: day(startYear+1, time.July, 5), SchoolDays: 55},
		},
	}
	require.NoError(t, db.Create(&year).Error)
	return school, year
}

func TestAcademicRepositoryFindTermContaining(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewAcademicRepository(db)
	school, year := seedSchoolYear(t, db, 2024)

	term, err := repo.FindTermContaining(context.Background(), school.ID, time.Date(2024, time.October, 3, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, term.TermNumber)
	require.Equal(t, year.ID, term.Year.ID, "expected the owning year preloaded")

	// Boundaries are inclusive on both ends.
	term, err = repo.FindTermContaining(context.Background(), school.ID, time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, term.TermNumber)

	_, err = repo.FindTermContaining(context.Background(), school.ID, time.Date(2024, time.December, 20, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAcademicRepositoryFindTermContainingScopedToSchool(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewAcademicRepository(db)
	seedSchoolYear(t, db, 2024)

	other := models.School{Name: "Portsmouth Primary", Slug: "portsmouth-primary", Active: true}
	require.NoError(t, db.Create(&other).Error)

	_, err := repo.FindTermContaining(context.Background(), other.ID, time.Date(2024, time.October, 3, 0, 0, 0, 0, time.UTC))
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestAcademicRepositoryListYearsOrdered(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewAcademicRepository(db)
	school, _ := seedSchoolYear(t, db, 2025)

	// Insert an earlier year second; listing must still come back ascending.
	earlier := models.AcademicYear{SchoolID: school.ID, StartYear: 2024, Terms: []models.Term{
		{TermNumber: 2, StartDate: time.Date(2025, time.January, 8, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, time.April, 12, 0, 0, 0, 0, time.UTC), SchoolDays: 65},
		{TermNumber: 1, StartDate: time.Date(2024, time.September, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2024, time.December, 15, 0, 0, 0, 0, time.UTC), SchoolDays: 70},
	}}
	require.NoError(t, db.Create(&earlier).Error)

	years, err := repo.ListYears(context.Background(), school.ID)
	require.NoError(t, err)
	require.Len(t, years, 2)
	require.Equal(t, 2024, years[0].StartYear)
	require.Equal(t, 2025, years[1].StartYear)
	require.Equal(t, 1, years[0].Terms[0].TermNumber, "terms preloaded in term-number order")
	require.Equal(t, 2, years[0].Terms[1].TermNumber)
}

func TestAcademicRepositoryCreateYearWithTermsReusesDuplicate(t *testing.T) {
	db := setupRepoDB(t)
	repo := NewAcademicRepository(db)
	school, existing := seedSchoolYear(t, db, 2024)

	dup := models.AcademicYear{SchoolID: school.ID, StartYear: 2024}
	require.NoError(t, repo.CreateYearWithTerms(context.Background(), &dup))
	require.Equal(t, existing.ID, dup.ID, "duplicate insert must load the winning row")
	require.Len(t, dup.Terms, 3)

	var count int64
	require.NoError(t, db.Model(&models.AcademicYear{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}
