package dto

import (
	"time"

	"github.com/marigot-labs/school-report-api/internal/models"
)

// ReviewUpdateRequest captures attendance and qualitative ratings for a
// student's term review. Nil fields are left unchanged.
type ReviewUpdateRequest struct {
	DaysPresent          *int    `json:"days_present" validate:"omitempty,min=0,max=120"`
	DaysLate             *int    `json:"days_late" validate:"omitempty,min=0,max=120"`
	Attitude             *int    `json:"attitude" validate:"omitempty,min=1,max=5"`
	Respect              *int    `json:"respect" validate:"omitempty,min=1,max=5"`
	ParentalSupport      *int    `json:"parental_support" validate:"omitempty,min=1,max=5"`
	Attendance           *int    `json:"attendance" validate:"omitempty,min=1,max=5"`
	AssignmentCompletion *int    `json:"assignment_completion" validate:"omitempty,min=1,max=5"`
	ClassParticipation   *int    `json:"class_participation" validate:"omitempty,min=1,max=5"`
	TimeManagement       *int    `json:"time_management" validate:"omitempty,min=1,max=5"`
	Remarks              *string `json:"remarks" validate:"omitempty,max=2000"`
}

// FinalExamEntry sets a student's final exam result for one subject.
type FinalExamEntry struct {
	StudentID         uint    `json:"student_id" validate:"required"`
	StandardSubjectID uint    `json:"standard_subject_id" validate:"required"`
	Score             float64 `json:"score" validate:"min=0"`
	MaxScore          float64 `json:"max_score" validate:"required,gt=0"`
}

// ReviewFinalizeRequest finalizes the reviews of a whole class for a term.
type ReviewFinalizeRequest struct {
	StandardID uint `json:"standard_id" validate:"required"`
}

// SubjectScoreResponse serializes one subject line of a term review.
type SubjectScoreResponse struct {
	StandardSubjectID        uint    `json:"standard_subject_id"`
	SubjectName              string  `json:"subject_name,omitempty"`
	TermAssessmentPercentage float64 `json:"term_assessment_percentage"`
	FinalExamScore           float64 `json:"final_exam_score"`
	FinalExamMaxScore        float64 `json:"final_exam_max_score"`
}

// ReviewResponse serializes a student's term review.
type ReviewResponse struct {
	ID                   uint                   `json:"id"`
	TermID               uint                   `json:"term_id"`
	StudentID            uint                   `json:"student_id"`
	DaysPresent          int                    `json:"days_present"`
	DaysLate             int                    `json:"days_late"`
	Attitude             int                    `json:"attitude"`
	Respect              int                    `json:"respect"`
	ParentalSupport      int                    `json:"parental_support"`
	Attendance           int                    `json:"attendance"`
	AssignmentCompletion int                    `json:"assignment_completion"`
	ClassParticipation   int                    `json:"class_participation"`
	TimeManagement       int                    `json:"time_management"`
	Remarks              string                 `json:"remarks,omitempty"`
	IsFinalized          bool                   `json:"is_finalized"`
	FinalizedAt          *time.Time             `json:"finalized_at,omitempty"`
	SubjectScores        []SubjectScoreResponse `json:"subject_scores"`
}

// NewReviewResponse maps a review model to its response form.
func NewReviewResponse(r models.StudentTermReview) ReviewResponse {
	resp := ReviewResponse{
		ID:                   r.ID,
		TermID:               r.TermID,
		StudentID:            r.StudentID,
		DaysPresent:          r.DaysPresent,
		DaysLate:             r.DaysLate,
		Attitude:             r.Attitude,
		Respect:              r.Respect,
		ParentalSupport:      r.ParentalSupport,
		Attendance:           r.Attendance,
		AssignmentCompletion: r.AssignmentCompletion,
		ClassParticipation:   r.ClassParticipation,
		TimeManagement:       r.TimeManagement,
		Remarks:              r.Remarks,
		IsFinalized:          r.IsFinalized,
		FinalizedAt:          r.FinalizedAt,
		SubjectScores:        make([]SubjectScoreResponse, 0, len(r.SubjectScores)),
	}
	for _, s := range r.SubjectScores {
		item := SubjectScoreResponse{
			StandardSubjectID:        s.StandardSubjectID,
			TermAssessmentPercentage: s.TermAssessmentPercentage,
			FinalExamScore:           s.FinalExamScore,
			FinalExamMaxScore:        s.FinalExamMaxScore,
		}
		if s.StandardSubject.ID != 0 {
			item.SubjectName = s.StandardSubject.Name
		}
		resp.SubjectScores = append(resp.SubjectScores, item)
	}
	return resp
}
