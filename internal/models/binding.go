package models

import "time"

// TeacherAssignment is one append-only row of the teacher ledger. A nil
// StandardID marks the teacher as currently unassigned for the year. Rows are
// never updated or deleted; the current assignment is derived from history.
type TeacherAssignment struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	YearID     uint         `gorm:"not null;index" json:"year_id"`
	Year       AcademicYear `json:"-"`
	TeacherID  uint         `gorm:"not null;index" json:"teacher_id"`
	Teacher    Teacher      `json:"-"`
	StandardID *uint        `gorm:"index" json:"standard_id"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Enrollment is one append-only row of the student ledger, mirroring
// TeacherAssignment. A nil StandardID marks the student as unenrolled.
type Enrollment struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	YearID     uint         `gorm:"not null;index" json:"year_id"`
	Year       AcademicYear `json:"-"`
	StudentID  uint         `gorm:"not null;index" json:"student_id"`
	Student    Student      `json:"-"`
	StandardID *uint        `gorm:"index" json:"standard_id"`
	CreatedAt  time.Time    `json:"created_at"`
}
