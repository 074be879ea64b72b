package models

import "time"

// Test types. FinalExam scores are carried into reports verbatim; the other
// finalized types feed the term assessment average.
const (
	TestTypeQuiz       = "quiz"
	TestTypeAssignment = "assignment"
	TestTypeMidterm    = "midterm"
	TestTypeProject    = "project"
	TestTypeFinalExam  = "final_exam"
	TestTypeOther      = "other"
)

// AssessmentTestTypes are the finalized test types that contribute to the
// term assessment percentage.
var AssessmentTestTypes = []string{TestTypeQuiz, TestTypeAssignment, TestTypeMidterm, TestTypeProject}

// ValidTestType reports whether the given type is one of the known test types.
func ValidTestType(t string) bool {
	switch t {
	case TestTypeQuiz, TestTypeAssignment, TestTypeMidterm, TestTypeProject, TestTypeFinalExam, TestTypeOther:
		return true
	}
	return false
}

// Test is a single assessment for a standard within a term. IsFinalized is
// monotonic: once true it never returns to false.
type Test struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	StandardID  uint       `gorm:"not null;index" json:"standard_id"`
	Standard    Standard   `json:"-"`
	TermID      uint       `gorm:"not null;index" json:"term_id"`
	Term        Term       `json:"-"`
	TestType    string     `gorm:"size:20;not null" json:"test_type"`
	TestDate    time.Time  `gorm:"not null" json:"test_date"`
	Description string     `gorm:"type:text" json:"description"`
	CreatedBy   uint       `gorm:"not null" json:"created_by"`
	IsFinalized bool       `gorm:"not null;default:false" json:"is_finalized"`
	FinalizedAt *time.Time `json:"finalized_at"`
	FinalizedBy *uint      `json:"finalized_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	Subjects []TestSubject `gorm:"constraint:OnDelete:CASCADE" json:"subjects,omitempty"`
}

// ActorID implements Attributed; the finalizer wins over the creator so
// activity entries attribute the state change, not the draft.
func (t Test) ActorID() uint {
	if t.FinalizedBy != nil {
		return *t.FinalizedBy
	}
	return t.CreatedBy
}

// TestSubject links a test to one of the standard's subjects. Provisioned
// disabled for every subject at test creation; only enabled subjects count
// toward aggregation.
type TestSubject struct {
	ID                uint            `gorm:"primaryKey" json:"id"`
	TestID            uint            `gorm:"not null;uniqueIndex:idx_test_subject" json:"test_id"`
	Test              Test            `json:"-"`
	StandardSubjectID uint            `gorm:"not null;uniqueIndex:idx_test_subject" json:"standard_subject_id"`
	StandardSubject   StandardSubject `json:"-"`
	MaxScore          float64         `gorm:"not null;default:100" json:"max_score"`
	Enabled           bool            `gorm:"not null;default:false" json:"enabled"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// TestScore holds one student's score for one test subject. Provisioned at
// zero for every enrolled student at test creation.
type TestScore struct {
	ID            uint        `gorm:"primaryKey" json:"id"`
	TestSubjectID uint        `gorm:"not null;uniqueIndex:idx_subject_student" json:"test_subject_id"`
	TestSubject   TestSubject `json:"-"`
	StudentID     uint        `gorm:"not null;uniqueIndex:idx_subject_student" json:"student_id"`
	Student       Student     `json:"-"`
	Score         float64     `gorm:"not null;default:0" json:"score"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Percentage returns the score as a percentage of the subject maximum.
func (s TestScore) Percentage(maxScore float64) float64 {
	if maxScore <= 0 {
		return 0
	}
	return s.Score / maxScore * 100
}
