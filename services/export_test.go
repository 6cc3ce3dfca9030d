package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"wellness-rewards-system/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memObjects struct {
	key, contentType string
	body             []byte
	err              error
}

func (m *memObjects) PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.key, m.body, m.contentType = key, body, contentType
	return "https://cdn.example.test/" + key, nil
}

func TestSnapshotExport(t *testing.T) {
	ctx := context.Background()
	e, gw := newTestEngine(t)
	h := seedHabit(t, gw, "owner-1", "Meditate")
	for i := 0; i < 3; i++ {
		complete(t, e, h.ID, "owner-1", today.AddDays(i))
	}
	_, err := NewGoalService(gw, testLogger(t)).Create(ctx, NewSavingsGoal{OwnerID: "owner-1", Title: "Phone", TargetAmount: decimal.NewFromInt(300000)})
	require.NoError(t, err)

	objects := &memObjects{}
	x := NewSnapshotExporter(gw, objects, testCalendar(), testLogger(t))
	url, err := x.Export(ctx, "owner-1")
	require.NoError(t, err)

	assert.Equal(t, "snapshots/owner-1/20240310T093000Z.json", objects.key)
	assert.Equal(t, "https://cdn.example.test/"+objects.key, url)
	assert.Equal(t, "application/json", objects.contentType)

	var snap ProgressSnapshot
	require.NoError(t, json.Unmarshal(objects.body, &snap))
	assert.Equal(t, "owner-1", snap.OwnerID)
	assert.Equal(t, int64(80), snap.TotalPoints)
	assert.Equal(t, snap.TotalPoints, snap.LedgerSum)
	assert.Len(t, snap.Ledger, 4)
	assert.Len(t, snap.Grants, 1)
	require.Len(t, snap.Habits, 1)
	assert.Equal(t, 3, snap.Habits[0].Streak)
	assert.Len(t, snap.Goals, 1)
}

func TestSnapshotExportFailures(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemoryGateway()

	_, err := NewSnapshotExporter(gw, nil, testCalendar(), testLogger(t)).Export(ctx, "owner-1")
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)

	broken := &memObjects{err: errors.New("bucket missing")}
	_, err = NewSnapshotExporter(gw, broken, testCalendar(), testLogger(t)).Export(ctx, "owner-1")
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.True(t, Retriable(err))

	_, err = NewSnapshotExporter(gw, &memObjects{}, testCalendar(), testLogger(t)).Export(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
