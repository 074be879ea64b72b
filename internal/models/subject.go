package models

import "time"

// StandardSubject is a subject taught in a standard during a specific academic
// year. (Year, Standard, Name) is unique.
type StandardSubject struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	YearID      uint         `gorm:"not null;uniqueIndex:idx_year_standard_subject" json:"year_id"`
	Year        AcademicYear `json:"-"`
	StandardID  uint         `gorm:"not null;uniqueIndex:idx_year_standard_subject" json:"standard_id"`
	Standard    Standard     `json:"-"`
	Name        string       `gorm:"size:100;not null;uniqueIndex:idx_year_standard_subject" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	CreatedBy   uint         `json:"created_by"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}
