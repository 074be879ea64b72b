package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/ledger"
	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

// LedgerService manages teacher and student class bindings as append-only
// history. Binds and unbinds only ever add rows; the effective assignment is
// folded from history on read.
type LedgerService interface {
	BindTeacher(ctx context.Context, payload dto.TeacherBindRequest, actor ActivityActor) (dto.BindingResponse, error)
	UnbindTeacher(ctx context.Context, payload dto.TeacherUnbindRequest, actor ActivityActor) (dto.BindingResponse, error)
	BindStudent(ctx context.Context, payload dto.StudentBindRequest, actor ActivityActor) (dto.BindingResponse, error)
	UnbindStudent(ctx context.Context, payload dto.StudentUnbindRequest, actor ActivityActor) (dto.BindingResponse, error)

	CurrentTeacherAssignment(ctx context.Context, yearID, teacherID uint) (dto.CurrentAssignmentResponse, error)
	CurrentStudentAssignment(ctx context.Context, yearID, studentID uint) (dto.CurrentAssignmentResponse, error)
	ClassTeacher(ctx context.Context, yearID, standardID uint) (uint, bool, error)
	Roster(ctx context.Context, yearID, standardID uint) (dto.RosterResponse, error)
	TeacherHistory(ctx context.Context, yearID, teacherID uint) ([]dto.BindingResponse, error)
	StudentHistory(ctx context.Context, yearID, studentID uint) ([]dto.BindingResponse, error)
}

type ledgerService struct {
	db          *gorm.DB
	academic    repository.AcademicRepository
	schools     repository.SchoolRepository
	teachers    repository.TeacherLedgerRepository
	enrollments repository.EnrollmentLedgerRepository
	activity    ActivityRecorder
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewLedgerService constructs the binding ledger service. The gorm handle is
// used for the conflict-guarded bind transaction; reads go through the repos.
func NewLedgerService(db *gorm.DB, academic repository.AcademicRepository, schools repository.SchoolRepository, teachers repository.TeacherLedgerRepository, enrollments repository.EnrollmentLedgerRepository, activity ActivityRecorder, validator *validator.Validate, logger zerolog.Logger) LedgerService {
	return &ledgerService{
		db:          db,
		academic:    academic,
		schools:     schools,
		teachers:    teachers,
		enrollments: enrollments,
		activity:    activity,
		validator:   validator,
		logger:      logger.With().Str("component", "ledger_service").Logger(),
		now:         time.Now,
	}
}

// BindTeacher appends a teacher-to-class binding. The one-current-teacher
// precondition is checked against the folded history inside the same
// transaction that inserts the row, so two racing binds cannot both win.
func (s *ledgerService) BindTeacher(ctx context.Context, payload dto.TeacherBindRequest, actor ActivityActor) (dto.BindingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BindingResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	year, err := s.resolveYearContext(ctx, payload.YearID, payload.StandardID)
	if err != nil {
		return dto.BindingResponse{}, err
	}
	if _, err := s.schools.GetTeacher(ctx, payload.TeacherID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BindingResponse{}, fmt.Errorf("%w: teacher %d", ErrValidation, payload.TeacherID)
		}
		return dto.BindingResponse{}, err
	}

	row := models.TeacherAssignment{
		YearID:     payload.YearID,
		TeacherID:  payload.TeacherID,
		StandardID: &payload.StandardID,
		CreatedAt:  s.now(),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var history []models.TeacherAssignment
		if err := tx.Where("year_id = ?", payload.YearID).
			Order("created_at ASC, id ASC").
			Find(&history).Error; err != nil {
			return err
		}
		if holder, ok := ledger.Holder(teacherEvents(history), payload.StandardID); ok && holder != payload.TeacherID {
			return ErrClassOccupied
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		return dto.BindingResponse{}, err
	}

	s.record(ctx, ActivityEntry{
		SchoolID:   year.SchoolID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "teacher_bound",
		EntityType: "teacher_assignment",
		EntityID:   &row.ID,
		Metadata: map[string]interface{}{
			"year_id":     payload.YearID,
			"teacher_id":  payload.TeacherID,
			"standard_id": payload.StandardID,
		},
	})

	return teacherBindingResponse(row), nil
}

// UnbindTeacher appends an unbind row. Unbinding a teacher with no current
// assignment is allowed; the history simply records another nil target.
func (s *ledgerService) UnbindTeacher(ctx context.Context, payload dto.TeacherUnbindRequest, actor ActivityActor) (dto.BindingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BindingResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	year, err := s.academic.GetYear(ctx, payload.YearID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BindingResponse{}, fmt.Errorf("%w: year %d", ErrValidation, payload.YearID)
		}
		return dto.BindingResponse{}, err
	}

	row := models.TeacherAssignment{
		YearID:    payload.YearID,
		TeacherID: payload.TeacherID,
		CreatedAt: s.now(),
	}
	if err := s.teachers.Append(ctx, &row); err != nil {
		return dto.BindingResponse{}, err
	}

	s.record(ctx, ActivityEntry{
		SchoolID:   year.SchoolID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "teacher_unbound",
		EntityType: "teacher_assignment",
		EntityID:   &row.ID,
		Metadata: map[string]interface{}{
			"year_id":    payload.YearID,
			"teacher_id": payload.TeacherID,
		},
	})

	return teacherBindingResponse(row), nil
}

// BindStudent appends a student enrollment row. Classes hold many students,
// so unlike teacher binds there is no occupancy precondition.
func (s *ledgerService) BindStudent(ctx context.Context, payload dto.StudentBindRequest, actor ActivityActor) (dto.BindingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BindingResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	year, err := s.resolveYearContext(ctx, payload.YearID, payload.StandardID)
	if err != nil {
		return dto.BindingResponse{}, err
	}
	if _, err := s.schools.GetStudent(ctx, payload.StudentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BindingResponse{}, fmt.Errorf("%w: student %d", ErrValidation, payload.StudentID)
		}
		return dto.BindingResponse{}, err
	}

	row := models.Enrollment{
		YearID:     payload.YearID,
		StudentID:  payload.StudentID,
		StandardID: &payload.StandardID,
		CreatedAt:  s.now(),
	}
	if err := s.enrollments.Append(ctx, &row); err != nil {
		return dto.BindingResponse{}, err
	}

	s.record(ctx, ActivityEntry{
		SchoolID:   year.SchoolID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "student_enrolled",
		EntityType: "enrollment",
		EntityID:   &row.ID,
		Metadata: map[string]interface{}{
			"year_id":     payload.YearID,
			"student_id":  payload.StudentID,
			"standard_id": payload.StandardID,
		},
	})

	return enrollmentBindingResponse(row), nil
}

// UnbindStudent appends a withdrawal row for the student.
func (s *ledgerService) UnbindStudent(ctx context.Context, payload dto.StudentUnbindRequest, actor ActivityActor) (dto.BindingResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.BindingResponse{}, fmt.Errorf("%w: %s", ErrValidation, err.Error())
	}

	year, err := s.academic.GetYear(ctx, payload.YearID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.BindingResponse{}, fmt.Errorf("%w: year %d", ErrValidation, payload.YearID)
		}
		return dto.BindingResponse{}, err
	}

	row := models.Enrollment{
		YearID:    payload.YearID,
		StudentID: payload.StudentID,
		CreatedAt: s.now(),
	}
	if err := s.enrollments.Append(ctx, &row); err != nil {
		return dto.BindingResponse{}, err
	}

	s.record(ctx, ActivityEntry{
		SchoolID:   year.SchoolID,
		ActorID:    actor.ID,
		ActorRole:  actor.Role,
		Action:     "student_withdrawn",
		EntityType: "enrollment",
		EntityID:   &row.ID,
		Metadata: map[string]interface{}{
			"year_id":    payload.YearID,
			"student_id": payload.StudentID,
		},
	})

	return enrollmentBindingResponse(row), nil
}

func (s *ledgerService) CurrentTeacherAssignment(ctx context.Context, yearID, teacherID uint) (dto.CurrentAssignmentResponse, error) {
	history, err := s.teachers.History(ctx, yearID, teacherID)
	if err != nil {
		return dto.CurrentAssignmentResponse{}, err
	}
	return dto.CurrentAssignmentResponse{
		YearID:     yearID,
		EntityID:   teacherID,
		StandardID: ledger.Current(teacherEvents(history)),
	}, nil
}

func (s *ledgerService) CurrentStudentAssignment(ctx context.Context, yearID, studentID uint) (dto.CurrentAssignmentResponse, error) {
	history, err := s.enrollments.History(ctx, yearID, studentID)
	if err != nil {
		return dto.CurrentAssignmentResponse{}, err
	}
	return dto.CurrentAssignmentResponse{
		YearID:     yearID,
		EntityID:   studentID,
		StandardID: ledger.Current(enrollmentEvents(history)),
	}, nil
}

// ClassTeacher reports the teacher currently holding a class, if any.
func (s *ledgerService) ClassTeacher(ctx context.Context, yearID, standardID uint) (uint, bool, error) {
	history, err := s.teachers.YearHistory(ctx, yearID)
	if err != nil {
		return 0, false, err
	}
	teacherID, ok := ledger.Holder(teacherEvents(history), standardID)
	return teacherID, ok, nil
}

// Roster lists the students currently enrolled in a class, folded from the
// year's full enrollment history.
func (s *ledgerService) Roster(ctx context.Context, yearID, standardID uint) (dto.RosterResponse, error) {
	history, err := s.enrollments.YearHistory(ctx, yearID)
	if err != nil {
		return dto.RosterResponse{}, err
	}

	var studentIDs []uint
	for studentID, current := range ledger.CurrentByEntity(enrollmentEvents(history)) {
		if current != nil && *current == standardID {
			studentIDs = append(studentIDs, studentID)
		}
	}
	sort.Slice(studentIDs, func(i, j int) bool { return studentIDs[i] < studentIDs[j] })

	return dto.RosterResponse{YearID: yearID, StandardID: standardID, StudentIDs: studentIDs}, nil
}

func (s *ledgerService) TeacherHistory(ctx context.Context, yearID, teacherID uint) ([]dto.BindingResponse, error) {
	history, err := s.teachers.History(ctx, yearID, teacherID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.BindingResponse, 0, len(history))
	for _, row := range history {
		responses = append(responses, teacherBindingResponse(row))
	}
	return responses, nil
}

func (s *ledgerService) StudentHistory(ctx context.Context, yearID, studentID uint) ([]dto.BindingResponse, error) {
	history, err := s.enrollments.History(ctx, yearID, studentID)
	if err != nil {
		return nil, err
	}
	responses := make([]dto.BindingResponse, 0, len(history))
	for _, row := range history {
		responses = append(responses, enrollmentBindingResponse(row))
	}
	return responses, nil
}

// resolveYearContext loads the year and checks the standard belongs to the
// same school.
func (s *ledgerService) resolveYearContext(ctx context.Context, yearID, standardID uint) (models.AcademicYear, error) {
	year, err := s.academic.GetYear(ctx, yearID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AcademicYear{}, fmt.Errorf("%w: year %d", ErrValidation, yearID)
		}
		return models.AcademicYear{}, err
	}

	standard, err := s.schools.GetStandard(ctx, standardID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AcademicYear{}, ErrStandardNotFound
		}
		return models.AcademicYear{}, err
	}
	if standard.SchoolID != year.SchoolID {
		return models.AcademicYear{}, fmt.Errorf("%w: standard %d belongs to another school", ErrValidation, standardID)
	}
	return year, nil
}

func (s *ledgerService) record(ctx context.Context, entry ActivityEntry) {
	if s.activity == nil {
		return
	}
	if _, err := s.activity.Record(ctx, entry); err != nil {
		s.logger.Warn().Err(err).Str("action", entry.Action).Msg("failed to record ledger activity")
	}
}

func teacherEvents(rows []models.TeacherAssignment) []ledger.Event {
	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, ledger.Event{
			Seq:        row.ID,
			EntityID:   row.TeacherID,
			Target:     row.StandardID,
			RecordedAt: row.CreatedAt,
		})
	}
	return events
}

func enrollmentEvents(rows []models.Enrollment) []ledger.Event {
	events := make([]ledger.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, ledger.Event{
			Seq:        row.ID,
			EntityID:   row.StudentID,
			Target:     row.StandardID,
			RecordedAt: row.CreatedAt,
		})
	}
	return events
}

func teacherBindingResponse(row models.TeacherAssignment) dto.BindingResponse {
	return dto.BindingResponse{
		ID:         row.ID,
		YearID:     row.YearID,
		EntityID:   row.TeacherID,
		StandardID: row.StandardID,
		RecordedAt: row.CreatedAt,
	}
}

func enrollmentBindingResponse(row models.Enrollment) dto.BindingResponse {
	return dto.BindingResponse{
		ID:         row.ID,
		YearID:     row.YearID,
		EntityID:   row.StudentID,
		StandardID: row.StandardID,
		RecordedAt: row.CreatedAt,
	}
}
