package dto

import (
	"time"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// TermInput describes one term inside a year creation payload.
type TermInput struct {
	TermNumber int    `json:"term_number" validate:"required,min=1,max=3"`
	StartDate  string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate    string `json:"end_date" validate:"required,datetime=2006-01-02"`
	SchoolDays int    `json:"school_days" validate:"required,min=1,max=120"`
}

// YearCreateRequest captures an explicit academic year definition.
type YearCreateRequest struct {
	StartYear int         `json:"start_year" validate:"required,min=1990,max=2100"`
	Terms     []TermInput `json:"terms" validate:"required,len=3,dive"`
}

// TermResponse serializes a single term.
type TermResponse struct {
	ID         uint   `json:"id"`
	TermNumber int    `json:"term_number"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	SchoolDays int    `json:"school_days"`
}

// YearResponse serializes an academic year with its terms.
type YearResponse struct {
	ID        uint           `json:"id"`
	SchoolID  uint           `json:"school_id"`
	StartYear int            `json:"start_year"`
	Label     string         `json:"label"`
	Terms     []TermResponse `json:"terms"`
}

// ResolveResponse reports where a calendar date falls for a school.
type ResolveResponse struct {
	Date       string `json:"date"`
	YearID     uint   `json:"year_id"`
	YearLabel  string `json:"year_label"`
	TermID     *uint  `json:"term_id"`
	TermNumber *int   `json:"term_number"`
	Vacation   string `json:"vacation,omitempty"`
}

// NewTermResponse maps a term model to its response form.
func NewTermResponse(t models.Term) TermResponse {
	return TermResponse{
		ID:         t.ID,
		TermNumber: t.TermNumber,
		StartDate:  t.StartDate.Format(time.DateOnly),
		EndDate:    t.EndDate.Format(time.DateOnly),
		SchoolDays: t.SchoolDays,
	}
}

// NewYearResponse maps a year model to its response form.
func NewYearResponse(y models.AcademicYear) YearResponse {
	resp := YearResponse{
		ID:        y.ID,
		SchoolID:  y.SchoolID,
		StartYear: y.StartYear,
		Label:     y.Label(),
		Terms:     make([]TermResponse, 0, len(y.Terms)),
	}
	for _, t := range y.Terms {
		resp.Terms = append(resp.Terms, NewTermResponse(t))
	}
	return resp
}
