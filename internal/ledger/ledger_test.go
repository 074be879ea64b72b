package ledger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(v uint) *uint { return &v }

func TestCurrentEmptyHistory(t *testing.T) {
	require.Nil(t, Current(nil))
	require.Nil(t, Current([]Event{}))
}

func TestCurrentLastEventWins(t *testing.T) {
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 1, EntityID: 7, Target: ptr(10), RecordedAt: base},
		{Seq: 2, EntityID: 7, Target: nil, RecordedAt: base.Add(time.Hour)},
		{Seq: 3, EntityID: 7, Target: ptr(11), RecordedAt: base.Add(2 * time.Hour)},
	}

	current := Current(events)
	require.NotNil(t, current)
	require.Equal(t, uint(11), *current)
}

func TestCurrentUnbindResolvesToNil(t *testing.T) {
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 1, EntityID: 7, Target: ptr(10), RecordedAt: base},
		{Seq: 2, EntityID: 7, Target: nil, RecordedAt: base.Add(time.Hour)},
	}

	require.Nil(t, Current(events))
}

func TestCurrentTieBrokenBySeq(t *testing.T) {
	at := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 5, EntityID: 7, Target: ptr(20), RecordedAt: at},
		{Seq: 4, EntityID: 7, Target: ptr(10), RecordedAt: at},
	}

	current := Current(events)
	require.NotNil(t, current)
	require.Equal(t, uint(20), *current)
}

func TestRebindAfterUnbindRoundTrip(t *testing.T) {
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 1, EntityID: 3, Target: ptr(42), RecordedAt: base},
		{Seq: 2, EntityID: 3, Target: nil, RecordedAt: base.Add(time.Minute)},
		{Seq: 3, EntityID: 3, Target: ptr(42), RecordedAt: base.Add(2 * time.Minute)},
	}

	require.Len(t, events, 3)
	current := Current(events)
	require.NotNil(t, current)
	require.Equal(t, uint(42), *current)
}

func TestCurrentByEntity(t *testing.T) {
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 1, EntityID: 1, Target: ptr(10), RecordedAt: base},
		{Seq: 2, EntityID: 2, Target: ptr(11), RecordedAt: base.Add(time.Minute)},
		{Seq: 3, EntityID: 1, Target: nil, RecordedAt: base.Add(2 * time.Minute)},
	}

	current := CurrentByEntity(events)
	require.Len(t, current, 2)
	require.Nil(t, current[1])
	require.NotNil(t, current[2])
	require.Equal(t, uint(11), *current[2])
}

func TestHolder(t *testing.T) {
	base := time.Date(2024, 9, 1, 8, 0, 0, 0, time.UTC)
	events := []Event{
		{Seq: 1, EntityID: 1, Target: ptr(10), RecordedAt: base},
		{Seq: 2, EntityID: 1, Target: nil, RecordedAt: base.Add(time.Minute)},
		{Seq: 3, EntityID: 2, Target: ptr(10), RecordedAt: base.Add(2 * time.Minute)},
	}

	holder, ok := Holder(events, 10)
	require.True(t, ok)
	require.Equal(t, uint(2), holder)

	_, ok = Holder(events, 99)
	require.False(t, ok)
}
