package models

import "time"

// Rating bounds for the qualitative review fields.
const (
	RatingMin     = 1
	RatingMax     = 5
	RatingNeutral = 3
)

// StudentTermReview is the per-(term, student) report record. It is created on
// demand by aggregation or by explicit blank-report provisioning and upserted
// from then on, never deleted by normal flow.
type StudentTermReview struct {
	ID        uint    `gorm:"primaryKey" json:"id"`
	TermID    uint    `gorm:"not null;uniqueIndex:idx_term_student" json:"term_id"`
	Term      Term    `json:"-"`
	StudentID uint    `gorm:"not null;uniqueIndex:idx_term_student" json:"student_id"`
	Student   Student `json:"-"`

	DaysPresent int `gorm:"not null;default:0" json:"days_present"`
	DaysLate    int `gorm:"not null;default:0" json:"days_late"`

	Attitude             int `gorm:"not null;default:3" json:"attitude"`
	Respect              int `gorm:"not null;default:3" json:"respect"`
	ParentalSupport      int `gorm:"not null;default:3" json:"parental_support"`
	Attendance           int `gorm:"not null;default:3" json:"attendance"`
	AssignmentCompletion int `gorm:"not null;default:3" json:"assignment_completion"`
	ClassParticipation   int `gorm:"not null;default:3" json:"class_participation"`
	TimeManagement       int `gorm:"not null;default:3" json:"time_management"`

	Remarks     string     `gorm:"type:text" json:"remarks"`
	IsFinalized bool       `gorm:"not null;default:false" json:"is_finalized"`
	FinalizedAt *time.Time `json:"finalized_at"`
	FinalizedBy *uint      `json:"finalized_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	SubjectScores []StudentSubjectScore `gorm:"foreignKey:TermReviewID;constraint:OnDelete:CASCADE" json:"subject_scores,omitempty"`
}

// ActorID implements Attributed for review finalization activity entries.
func (r StudentTermReview) ActorID() uint {
	if r.FinalizedBy != nil {
		return *r.FinalizedBy
	}
	return 0
}

// StudentSubjectScore carries the aggregated outcome for one subject on a term
// review. TermAssessmentPercentage is recomputed by the aggregator and never
// hand-entered; the final exam fields are overwritten from the latest finalized
// final exam.
type StudentSubjectScore struct {
	ID                uint              `gorm:"primaryKey" json:"id"`
	TermReviewID      uint              `gorm:"not null;uniqueIndex:idx_review_subject" json:"term_review_id"`
	TermReview        StudentTermReview `json:"-"`
	StandardSubjectID uint              `gorm:"not null;uniqueIndex:idx_review_subject" json:"standard_subject_id"`
	StandardSubject   StandardSubject   `json:"-"`

	TermAssessmentPercentage float64 `gorm:"not null;default:0" json:"term_assessment_percentage"`
	FinalExamScore           float64 `gorm:"not null;default:0" json:"final_exam_score"`
	FinalExamMaxScore        float64 `gorm:"not null;default:0" json:"final_exam_max_score"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Attributed exposes the actor responsible for an entity's most recent
// meaningful change. Implemented per type and dispatched statically.
type Attributed interface {
	ActorID() uint
}
