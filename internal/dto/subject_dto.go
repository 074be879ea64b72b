package dto

import "github.com/marigot-labs/school-report-api/internal/models"

// SubjectCreateRequest registers a subject for a class in a given year.
type SubjectCreateRequest struct {
	YearID      uint   `json:"year_id" validate:"required"`
	StandardID  uint   `json:"standard_id" validate:"required"`
	Name        string `json:"name" validate:"required,min=2,max=100"`
	Description string `json:"description" validate:"omitempty,max=1000"`
}

// SubjectResponse serializes a class subject.
type SubjectResponse struct {
	ID          uint   `json:"id"`
	YearID      uint   `json:"year_id"`
	StandardID  uint   `json:"standard_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// NewSubjectResponse maps a subject model to its response form.
func NewSubjectResponse(s models.StandardSubject) SubjectResponse {
	return SubjectResponse{
		ID:          s.ID,
		YearID:      s.YearID,
		StandardID:  s.StandardID,
		Name:        s.Name,
		Description: s.Description,
	}
}
