package models

import (
	"fmt"
	"time"
)

// AcademicYear is a school's yearly cycle. StartYear is the calendar year the
// cycle begins in; (SchoolID, StartYear) is unique so concurrent lazy creation
// degrades to a reuse instead of a duplicate.
type AcademicYear struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SchoolID  uint      `gorm:"not null;uniqueIndex:idx_school_start_year" json:"school_id"`
	School    School    `json:"-"`
	StartYear int       `gorm:"not null;uniqueIndex:idx_school_start_year" json:"start_year"`
	Terms     []Term    `gorm:"foreignKey:YearID;constraint:OnDelete:CASCADE" json:"terms,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Label renders the year in the "2024-2025" form used across reports.
func (y AcademicYear) Label() string {
	return fmt.Sprintf("%d-%d", y.StartYear, y.StartYear+1)
}

// Term is one of the three fixed sub-periods of an academic year. Spans are
// inclusive on both ends.
type Term struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	YearID     uint         `gorm:"not null;uniqueIndex:idx_year_term_number" json:"year_id"`
	Year       AcademicYear `json:"-"`
	TermNumber int          `gorm:"not null;uniqueIndex:idx_year_term_number" json:"term_number"`
	StartDate  time.Time    `gorm:"not null" json:"start_date"`
	EndDate    time.Time    `gorm:"not null" json:"end_date"`
	SchoolDays int          `gorm:"not null" json:"school_days"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Contains reports whether the date falls within the term span, boundaries
// included.
func (t Term) Contains(date time.Time) bool {
	d := DateOnly(date)
	return !d.Before(DateOnly(t.StartDate)) && !d.After(DateOnly(t.EndDate))
}

// DateOnly truncates a timestamp to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
