package dto

import (
	"time"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// TestCreateRequest opens a new test in draft state.
type TestCreateRequest struct {
	StandardID  uint   `json:"standard_id" validate:"required"`
	TermID      uint   `json:"term_id" validate:"required"`
	TestType    string `json:"test_type" validate:"required,oneof=quiz assignment midterm project final_exam other"`
	TestDate    string `json:"test_date" validate:"required,datetime=2006-01-02"`
	Description string `json:"description" validate:"omitempty,max=500"`
}

// TestSubjectUpdateRequest toggles a subject column on a draft test.
type TestSubjectUpdateRequest struct {
	Enabled  *bool    `json:"enabled"`
	MaxScore *float64 `json:"max_score" validate:"omitempty,gt=0,max=1000"`
}

// ScoreEntry records one student's raw score on a test subject.
type ScoreEntry struct {
	StudentID uint    `json:"student_id" validate:"required"`
	Score     float64 `json:"score"`
}

// BulkScoresRequest records a batch of scores for one test subject.
type BulkScoresRequest struct {
	Scores []ScoreEntry `json:"scores" validate:"required,min=1,dive"`
}

// TestSubjectResponse serializes one subject column of a test.
type TestSubjectResponse struct {
	ID                uint    `json:"id"`
	StandardSubjectID uint    `json:"standard_subject_id"`
	SubjectName       string  `json:"subject_name,omitempty"`
	MaxScore          float64 `json:"max_score"`
	Enabled           bool    `json:"enabled"`
}

// TestResponse serializes a test and its subject columns.
type TestResponse struct {
	ID          uint                  `json:"id"`
	StandardID  uint                  `json:"standard_id"`
	TermID      uint                  `json:"term_id"`
	TestType    string                `json:"test_type"`
	TestDate    string                `json:"test_date"`
	Description string                `json:"description,omitempty"`
	IsFinalized bool                  `json:"is_finalized"`
	FinalizedAt *time.Time            `json:"finalized_at,omitempty"`
	Subjects    []TestSubjectResponse `json:"subjects"`
}

// ScoreResponse serializes one recorded score.
type ScoreResponse struct {
	StudentID uint    `json:"student_id"`
	Score     float64 `json:"score"`
}

// FinalizeResponse reports the outcome of test finalization.
type FinalizeResponse struct {
	TestID  uint `json:"test_id"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
}

// NewTestResponse maps a test model to its response form.
func NewTestResponse(t models.Test) TestResponse {
	resp := TestResponse{
		ID:          t.ID,
		StandardID:  t.StandardID,
		TermID:      t.TermID,
		TestType:    t.TestType,
		TestDate:    t.TestDate.Format(time.DateOnly),
		Description: t.Description,
		IsFinalized: t.IsFinalized,
		FinalizedAt: t.FinalizedAt,
		Subjects:    make([]TestSubjectResponse, 0, len(t.Subjects)),
	}
	for _, s := range t.Subjects {
		item := TestSubjectResponse{
			ID:                s.ID,
			StandardSubjectID: s.StandardSubjectID,
			MaxScore:          s.MaxScore,
			Enabled:           s.Enabled,
		}
		if s.StandardSubject.ID != 0 {
			item.SubjectName = s.StandardSubject.Name
		}
		resp.Subjects = append(resp.Subjects, item)
	}
	return resp
}
