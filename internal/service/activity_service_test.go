package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/marigot-labs/school-report-api/internal/models"
	"github.com/marigot-labs/school-report-api/internal/repository"
)

type memoryActivityRepo struct {
	entries []models.ActivityLog
}

func (m *memoryActivityRepo) Create(ctx context.Context, entry *models.ActivityLog) error {
	entry.ID = uint(len(m.entries) + 1)
	entry.CreatedAt = time.Now()
	m.entries = append(m.entries, *entry)
	return nil
}

func (m *memoryActivityRepo) List(ctx context.Context, filter repository.ActivityLogFilter) ([]models.ActivityLog, int64, error) {
	return append([]models.ActivityLog(nil), m.entries...), int64(len(m.entries)), nil
}

func TestActivityServiceRecordMasksEmail(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testValidator(), testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		SchoolID:   3,
		ActorID:    1,
		ActorRole:  "Admin",
		Action:     "student.updated",
		EntityType: "student",
		EntityID:   ptrUint(5),
		Metadata: map[string]interface{}{
			"email": "student@example.com",
			"field": "status",
		},
	})
	require.NoError(t, err)
	require.Equal(t, "***", entry.Metadata["email"])
	require.Equal(t, "status", entry.Metadata["field"])
	require.Equal(t, uint(3), entry.SchoolID)
	require.Equal(t, "admin", entry.ActorRole)
}

func TestActivityServiceRecordNormalizesAction(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testValidator(), testLogger())

	entry, err := svc.Record(context.Background(), ActivityEntry{
		ActorID:    1,
		Action:     "  Test_Finalized ",
		EntityType: "Test",
	})
	require.NoError(t, err)
	require.Equal(t, "test_finalized", entry.Action)
	require.Equal(t, "test", entry.EntityType)
	require.Equal(t, "system", entry.ActorRole, "blank roles fall back to system")
}

func TestActivityServiceRecordRequiresAction(t *testing.T) {
	repo := &memoryActivityRepo{}
	svc := NewActivityService(repo, testValidator(), testLogger())

	_, err := svc.Record(context.Background(), ActivityEntry{ActorID: 1, EntityType: "test"})
	require.Error(t, err)
	require.Empty(t, repo.entries)
}

func ptrUint(v uint) *uint {
	return &v
}
