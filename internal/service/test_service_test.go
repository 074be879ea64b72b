package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marigot-labs/school-report-api/internal/dto"
	"github.com/marigot-labs/school-report-api/internal/models"
)

func TestCreateTestProvisionsGrid(t *testing.T) {
	f := newTestFixture(t)

	f.addSubject(t, "Mathematics")
	f.addSubject(t, "English")
	for _, name := range []string{"Ana", "Ben", "Cleo"} {
		student := f.addStudent(t, name, "Pierre")
		f.enroll(t, student.ID)
	}

	test := f.createTest(t, models.TestTypeQuiz, "2024-10-03")
	require.Len(t, test.Subjects, 2)
	for _, subject := range test.Subjects {
		require.False(t, subject.Enabled, "subjects start disabled")
		require.Equal(t, float64(100), subject.MaxScore)
	}

	var scoreCount int64
	require.NoError(t, f.db.Model(&models.TestScore{}).Count(&scoreCount).Error)
	require.EqualValues(t, 6, scoreCount, "one zero row per subject per enrolled student")

	var zeroCount int64
	require.NoError(t, f.db.Model(&models.TestScore{}).Where("score = 0").Count(&zeroCount).Error)
	require.Equal(t, scoreCount, zeroCount)
}

func TestCreateTestRejectsDateOutsideTerm(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.tests.Create(context.Background(), dto.TestCreateRequest{
		StandardID: f.standard.ID,
		TermID:     f.term(t, 1).ID,
		TestType:   models.TestTypeQuiz,
		TestDate:   "2024-12-20",
	}, ActivityActor{ID: 7, Role: "teacher"})
	require.ErrorIs(t, err, ErrDateOutsideTerm)
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateTestRejectsUnknownType(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.tests.Create(context.Background(), dto.TestCreateRequest{
		StandardID: f.standard.ID,
		TermID:     f.term(t, 1).ID,
		TestType:   "pop_quiz",
		TestDate:   "2024-10-03",
	}, ActivityActor{ID: 7, Role: "teacher"})
	require.ErrorIs(t, err, ErrValidation)
}

func TestSetScoreClampsIntoRange(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 7, Role: "teacher"}

	math := f.addSubject(t, "Mathematics")
	ana := f.addStudent(t, "Ana", "Pierre")
	f.enroll(t, ana.ID)

	test := f.createTest(t, models.TestTypeQuiz, "2024-10-03")

	maxScore := 50.0
	enabled := true
	_, err := f.tests.SetSubject(ctx, test.ID, math.ID, dto.TestSubjectUpdateRequest{Enabled: &enabled, MaxScore: &maxScore}, actor)
	require.NoError(t, err)

	resp, err := f.tests.SetScore(ctx, test.ID, math.ID, dto.ScoreEntry{StudentID: ana.ID, Score: 75}, actor)
	require.NoError(t, err)
	require.Equal(t, 50.0, resp.Score)

	resp, err = f.tests.SetScore(ctx, test.ID, math.ID, dto.ScoreEntry{StudentID: ana.ID, Score: -3}, actor)
	require.NoError(t, err)
	require.Equal(t, 0.0, resp.Score)
}

func TestLoweringMaxScoreReclampsDraftScores(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 7, Role: "teacher"}

	math := f.addSubject(t, "Mathematics")
	ana := f.addStudent(t, "Ana", "Pierre")
	f.enroll(t, ana.ID)

	quiz := f.createTest(t, models.TestTypeQuiz, "2024-09-20")
	enableAndScore(t, f, quiz.ID, math.ID, 100, ana.ID, 80)

	lowered := 50.0
	_, err := f.tests.SetSubject(ctx, quiz.ID, math.ID, dto.TestSubjectUpdateRequest{MaxScore: &lowered}, actor)
	require.NoError(t, err)

	var score models.TestScore
	require.NoError(t, f.db.Where("student_id = ?", ana.ID).First(&score).Error)
	require.Equal(t, 50.0, score.Score)
}

func TestFinalizeIsIdempotentAtStateLayer(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 7, Role: "teacher"}

	math := f.addSubject(t, "Mathematics")
	ana := f.addStudent(t, "Ana", "Pierre")
	f.enroll(t, ana.ID)

	test := f.createTest(t, models.TestTypeQuiz, "2024-10-03")
	enabled := true
	_, err := f.tests.SetSubject(ctx, test.ID, math.ID, dto.TestSubjectUpdateRequest{Enabled: &enabled}, actor)
	require.NoError(t, err)
	_, err = f.tests.SetScore(ctx, test.ID, math.ID, dto.ScoreEntry{StudentID: ana.ID, Score: 80}, actor)
	require.NoError(t, err)

	first, err := f.tests.Finalize(ctx, test.ID, actor)
	require.NoError(t, err)
	require.Equal(t, 1, first.Updated)

	var before []models.StudentSubjectScore
	require.NoError(t, f.db.Order("id").Find(&before).Error)

	_, err = f.tests.Finalize(ctx, test.ID, actor)
	require.ErrorIs(t, err, ErrTestFinalized)
	require.ErrorIs(t, err, ErrState)

	var after []models.StudentSubjectScore
	require.NoError(t, f.db.Order("id").Find(&after).Error)
	require.Equal(t, before, after, "repeat finalize must not touch report lines")
}

func TestFinalizedTestRejectsEdits(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 7, Role: "teacher"}

	math := f.addSubject(t, "Mathematics")
	ana := f.addStudent(t, "Ana", "Pierre")
	f.enroll(t, ana.ID)

	test := f.createTest(t, models.TestTypeQuiz, "2024-10-03")
	_, err := f.tests.Finalize(ctx, test.ID, actor)
	require.NoError(t, err)

	enabled := true
	_, err = f.tests.SetSubject(ctx, test.ID, math.ID, dto.TestSubjectUpdateRequest{Enabled: &enabled}, actor)
	require.ErrorIs(t, err, ErrTestFinalized)

	_, err = f.tests.SetScore(ctx, test.ID, math.ID, dto.ScoreEntry{StudentID: ana.ID, Score: 10}, actor)
	require.ErrorIs(t, err, ErrTestFinalized)
}

func TestBulkSetScoresIsAtomic(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 7, Role: "teacher"}

	math := f.addSubject(t, "Mathematics")
	ana := f.addStudent(t, "Ana", "Pierre")
	ben := f.addStudent(t, "Ben", "Joseph")
	f.enroll(t, ana.ID)
	f.enroll(t, ben.ID)

	test := f.createTest(t, models.TestTypeQuiz, "2024-10-03")
	enabled := true
	_, err := f.tests.SetSubject(ctx, test.ID, math.ID, dto.TestSubjectUpdateRequest{Enabled: &enabled}, actor)
	require.NoError(t, err)

	responses, err := f.tests.BulkSetScores(ctx, test.ID, math.ID, dto.BulkScoresRequest{
		Scores: []dto.ScoreEntry{
			{StudentID: ana.ID, Score: 88},
			{StudentID: ben.ID, Score: 120},
		},
	}, actor)
	require.NoError(t, err)
	require.Len(t, responses, 2)
	require.Equal(t, 88.0, responses[0].Score)
	require.Equal(t, 100.0, responses[1].Score, "bulk entries clamp like single ones")
}

func TestFinalizeUnknownTest(t *testing.T) {
	f := newTestFixture(t)

	_, err := f.tests.Finalize(context.Background(), 999, ActivityActor{ID: 7, Role: "teacher"})
	require.ErrorIs(t, err, ErrTestNotFound)
}
