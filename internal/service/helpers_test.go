package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupTestDB(t *testing.T) *gorm.DB {
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
		&models.StandardSubject{},
		&models.Test{},
		&models.TestSubject{},
		&models.TestScore{},
		&models.StudentTermReview{},
		&models.StudentSubjectScore{},
		&models.ActivityLog{},
	))
	return db
}

// testFixture seeds one school with a class, a 2024 academic year using the
// default term pattern, and wires the full service graph on top.
type testFixture struct {
	db       *gorm.DB
	school   models.School
	standard models.Standard
	year     models.AcademicYear

	calendar CalendarService
	ledger   LedgerService
	subjects SubjectService
	tests    TestService
	reports  ReportService
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	db := setupTestDB(t)

	school := models.School{Name: "Marigot Primary", Slug: "marigot-primary", Active: true}
	require.NoError(t, db.Create(&school).Error)

	standard := models.Standard{SchoolID: school.ID, Name: "Standard 3", Level: 3}
	require.NoError(t, db.Create(&standard).Error)

	year := models.AcademicYear{SchoolID: school.ID, StartYear: 2024, Terms: defaultTerms(2024)}
	require.NoError(t, db.Create(&year).Error)
	require.NoError(t, db.Preload("Terms", func(q *gorm.DB) *gorm.DB { return q.Order("term_number ASC") }).First(&year, year.ID).Error)

	validate := testValidator()
	logger := testLogger()

	academicRepo := repository.NewAcademicRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	subjectRepo := repository.NewStandardSubjectRepository(db)
	teacherLedger := repository.NewTeacherLedgerRepository(db)
	enrollmentLedger := repository.NewEnrollmentLedgerRepository(db)
	testRepo := repository.NewTestRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	ledgerSvc := NewLedgerService(db, academicRepo, schoolRepo, teacherLedger, enrollmentLedger, nil, validate, logger)
	aggregator := NewAggregationService(logger)
	events := NewEventPublisher(nil, logger)

	return &testFixture{
		db:       db,
		school:   school,
		standard: standard,
		year:     year,
		calendar: NewCalendarService(academicRepo, schoolRepo, validate, logger),
		ledger:   ledgerSvc,
		subjects: NewSubjectService(subjectRepo, academicRepo, schoolRepo, validate, logger),
		tests:    NewTestService(db, testRepo, subjectRepo, academicRepo, schoolRepo, ledgerSvc, aggregator, nil, events, validate, logger),
		reports:  NewReportService(db, reviewRepo, academicRepo, schoolRepo, subjectRepo, ledgerSvc, nil, validate, logger),
	}
}

func (f *testFixture) term(t *testing.T, number int) models.Term {
	t.Helper()
	for _, term := range f.year.Terms {
		if term.TermNumber == number {
			return term
		}
	}
	t.Fatalf("term %d not seeded", number)
	return models.Term{}
}

func (f *testFixture) addTeacher(t *testing.T, name string) models.Teacher {
	t.Helper()
	teacher := models.Teacher{Name: name, Email: strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@marigot.test"}
	require.NoError(t, f.db.Create(&teacher).Error)
	return teacher
}

func (f *testFixture) addStudent(t *testing.T, first, last string) models.Student {
	t.Helper()
	student := models.Student{
		SchoolID:    f.school.ID,
		FirstName:   first,
		LastName:    last,
		DateOfBirth: time.Date(2016, time.March, 12, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, f.db.Create(&student).Error)
	return student
}

func (f *testFixture) enroll(t *testing.T, studentID uint) {
	t.Helper()
	_, err := f.ledger.BindStudent(context.Background(), dto.StudentBindRequest{
		YearID:     f.year.ID,
		StudentID:  studentID,
		StandardID: f.standard.ID,
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
}

func (f *testFixture) addSubject(t *testing.T, name string) dto.SubjectResponse {
	t.Helper()
	subject, err := f.subjects.Create(context.Background(), dto.SubjectCreateRequest{
		YearID:     f.year.ID,
		StandardID: f.standard.ID,
		Name:       name,
	}, ActivityActor{ID: 1, Role: "admin"})
	require.NoError(t, err)
	return subject
}

func (f *testFixture) createTest(t *testing.T, testType, date string) dto.TestResponse {
	t.Helper()
	test, err := f.tests.Create(context.Background(), dto.TestCreateRequest{
		StandardID: f.standard.ID,
		TermID:     f.term(t, 1).ID,
		TestType:   testType,
		TestDate:   date,
	}, ActivityActor{ID: 7, Role: "teacher"})
	require.NoError(t, err)
	return test
}
