package dto

import "time"

// TeacherBindRequest assigns a teacher to a class for a year.
type TeacherBindRequest struct {
	YearID     uint `json:"year_id" validate:"required"`
	TeacherID  uint `json:"teacher_id" validate:"required"`
	StandardID uint `json:"standard_id" validate:"required"`
}

// TeacherUnbindRequest clears a teacher's class assignment for a year.
type TeacherUnbindRequest struct {
	YearID    uint `json:"year_id" validate:"required"`
	TeacherID uint `json:"teacher_id" validate:"required"`
}

// StudentBindRequest enrolls a student into a class for a year.
type StudentBindRequest struct {
	YearID     uint `json:"year_id" validate:"required"`
	StudentID  uint `json:"student_id" validate:"required"`
	StandardID uint `json:"standard_id" validate:"required"`
}

// StudentUnbindRequest withdraws a student from their class for a year.
type StudentUnbindRequest struct {
	YearID    uint `json:"year_id" validate:"required"`
	StudentID uint `json:"student_id" validate:"required"`
}

// BindingResponse serializes one ledger entry.
type BindingResponse struct {
	ID         uint      `json:"id"`
	YearID     uint      `json:"year_id"`
	EntityID   uint      `json:"entity_id"`
	StandardID *uint     `json:"standard_id"`
	RecordedAt time.Time `json:"recorded_at"`
}

// CurrentAssignmentResponse reports an entity's effective class.
type CurrentAssignmentResponse struct {
	YearID     uint  `json:"year_id"`
	EntityID   uint  `json:"entity_id"`
	StandardID *uint `json:"standard_id"`
}

// RosterResponse lists the students currently enrolled in a class.
type RosterResponse struct {
	YearID     uint   `json:"year_id"`
	StandardID uint   `json:"standard_id"`
	StudentIDs []uint `json:"student_ids"`
}
