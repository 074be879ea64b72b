package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marigot-labs/school-report-api/internal/dto"
)

func TestBindTeacherConflict(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: "admin"}

	alice := f.addTeacher(t, "Alice Jules")
	bob := f.addTeacher(t, "Bob Henry")

	_, err := f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{
		YearID: f.year.ID, TeacherID: alice.ID, StandardID: f.standard.ID,
	}, actor)
	require.NoError(t, err)

	_, err = f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{
		YearID: f.year.ID, TeacherID: bob.ID, StandardID: f.standard.ID,
	}, actor)
	require.ErrorIs(t, err, ErrClassOccupied)
	require.ErrorIs(t, err, ErrConflict)

	_, err = f.ledger.UnbindTeacher(ctx, dto.TeacherUnbindRequest{
		YearID: f.year.ID, TeacherID: alice.ID,
	}, actor)
	require.NoError(t, err)

	_, err = f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{
		YearID: f.year.ID, TeacherID: bob.ID, StandardID: f.standard.ID,
	}, actor)
	require.NoError(t, err)

	holder, ok, err := f.ledger.ClassTeacher(ctx, f.year.ID, f.standard.ID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, bob.ID, holder)
}

func TestBindTeacherRoundTripKeepsHistory(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: "admin"}

	alice := f.addTeacher(t, "Alice Jules")

	_, err := f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: f.year.ID, TeacherID: alice.ID, StandardID: f.standard.ID}, actor)
	require.NoError(t, err)
	_, err = f.ledger.UnbindTeacher(ctx, dto.TeacherUnbindRequest{YearID: f.year.ID, TeacherID: alice.ID}, actor)
	require.NoError(t, err)
	_, err = f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: f.year.ID, TeacherID: alice.ID, StandardID: f.standard.ID}, actor)
	require.NoError(t, err)

	history, err := f.ledger.TeacherHistory(ctx, f.year.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.NotNil(t, history[0].StandardID)
	require.Nil(t, history[1].StandardID)
	require.NotNil(t, history[2].StandardID)

	current, err := f.ledger.CurrentTeacherAssignment(ctx, f.year.ID, alice.ID)
	require.NoError(t, err)
	require.NotNil(t, current.StandardID)
	require.Equal(t, f.standard.ID, *current.StandardID)
}

func TestCurrentAssignmentEmptyHistory(t *testing.T) {
	f := newTestFixture(t)

	alice := f.addTeacher(t, "Alice Jules")
	current, err := f.ledger.CurrentTeacherAssignment(context.Background(), f.year.ID, alice.ID)
	require.NoError(t, err)
	require.Nil(t, current.StandardID)
}

func TestRebindCurrentHolderAllowed(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: "admin"}

	alice := f.addTeacher(t, "Alice Jules")
	_, err := f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: f.year.ID, TeacherID: alice.ID, StandardID: f.standard.ID}, actor)
	require.NoError(t, err)
	_, err = f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: f.year.ID, TeacherID: alice.ID, StandardID: f.standard.ID}, actor)
	require.NoError(t, err)

	history, err := f.ledger.TeacherHistory(ctx, f.year.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestRosterFollowsEnrollmentHistory(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: "admin"}

	ana := f.addStudent(t, "Ana", "Pierre")
	ben := f.addStudent(t, "Ben", "Joseph")
	f.enroll(t, ana.ID)
	f.enroll(t, ben.ID)

	roster, err := f.ledger.Roster(ctx, f.year.ID, f.standard.ID)
	require.NoError(t, err)
	require.ElementsMatch(t, []uint{ana.ID, ben.ID}, roster.StudentIDs)

	_, err = f.ledger.UnbindStudent(ctx, dto.StudentUnbindRequest{YearID: f.year.ID, StudentID: ben.ID}, actor)
	require.NoError(t, err)

	roster, err = f.ledger.Roster(ctx, f.year.ID, f.standard.ID)
	require.NoError(t, err)
	require.Equal(t, []uint{ana.ID}, roster.StudentIDs)
}

func TestBindValidation(t *testing.T) {
	f := newTestFixture(t)
	ctx := context.Background()
	actor := ActivityActor{ID: 1, Role: "admin"}

	alice := f.addTeacher(t, "Alice Jules")

	_, err := f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: 999, TeacherID: alice.ID, StandardID: f.standard.ID}, actor)
	require.ErrorIs(t, err, ErrValidation)

	_, err = f.ledger.BindTeacher(ctx, dto.TeacherBindRequest{YearID: f.year.ID, TeacherID: 999, StandardID: f.standard.ID}, actor)
	require.ErrorIs(t, err, ErrValidation)
}
