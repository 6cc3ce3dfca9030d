package services

import (
	"context"
	"testing"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dayPtr(d models.Day) *models.Day { return &d }

func TestNextStreak(t *testing.T) {
	cases := []struct {
		name   string
		habit  models.Habit
		day    models.Day
		expect int
	}{
		{"first completion", models.Habit{}, today, 1},
		{"consecutive day", models.Habit{Streak: 4, LastCompleted: dayPtr(today.AddDays(-1))}, today, 5},
		{"same day", models.Habit{Streak: 4, LastCompleted: dayPtr(today)}, today, 4},
		{"missed a day", models.Habit{Streak: 4, LastCompleted: dayPtr(today.AddDays(-2))}, today, 1},
		{"back-filled day", models.Habit{Streak: 4, LastCompleted: dayPtr(today)}, today.AddDays(-3), 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := tc.habit
			assert.Equal(t, tc.expect, nextStreak(&h, tc.day))
		})
	}
}

func TestApplyCompletionKeepsLongestAtLeastStreak(t *testing.T) {
	h := &models.Habit{}
	// D, D+1, D+2, gap, D+5, D+6, back-fill D+3
	for _, offset := range []int{0, 1, 2, 5, 6, 3} {
		applyCompletion(h, today.AddDays(offset))
		require.GreaterOrEqual(t, h.LongestStreak, h.Streak)
	}
	assert.Equal(t, 2, h.Streak)
	assert.Equal(t, 3, h.LongestStreak)
	assert.Equal(t, 6, h.TotalCompletions)
	require.NotNil(t, h.LastCompleted)
	assert.Equal(t, today.AddDays(6), *h.LastCompleted)
}

func TestDeriveFromHistory(t *testing.T) {
	p := DeriveFromHistory(nil)
	assert.Zero(t, p.Streak)
	assert.Nil(t, p.LastCompleted)

	days := []models.Day{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-07", "2024-03-08"}
	p = DeriveFromHistory(days)
	assert.Equal(t, 2, p.Streak)
	assert.Equal(t, 4, p.LongestStreak)
	assert.Equal(t, 6, p.TotalCompletions)
	require.NotNil(t, p.LastCompleted)
	assert.Equal(t, models.Day("2024-03-08"), *p.LastCompleted)

	// month boundary
	p = DeriveFromHistory([]models.Day{"2024-02-28", "2024-02-29", "2024-03-01"})
	assert.Equal(t, 3, p.Streak)
}

func TestOnCompletionRemovedOnlyMovesLatest(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemoryGateway()
	tracker := NewStreakTracker(testLogger(t))
	h := seedHabit(t, gw, "owner-1", "Read")

	for _, d := range []models.Day{today.AddDays(-2), today.AddDays(-1), today} {
		require.NoError(t, gw.InsertCompletion(ctx, &models.HabitCompletion{HabitID: h.ID, CompletionDate: d}))
		_, err := tracker.OnCompletionAdded(ctx, gw, h, d)
		require.NoError(t, err)
	}
	require.Equal(t, 3, h.Streak)

	// older day: nothing cached changes
	require.NoError(t, gw.DeleteCompletion(ctx, h.ID, today.AddDays(-2)))
	require.NoError(t, tracker.OnCompletionRemoved(ctx, gw, h, today.AddDays(-2)))
	assert.Equal(t, today, *h.LastCompleted)

	require.NoError(t, gw.DeleteCompletion(ctx, h.ID, today))
	require.NoError(t, tracker.OnCompletionRemoved(ctx, gw, h, today))
	assert.Equal(t, today.AddDays(-1), *h.LastCompleted)
	assert.Equal(t, 3, h.Streak)

	require.NoError(t, gw.DeleteCompletion(ctx, h.ID, today.AddDays(-1)))
	require.NoError(t, tracker.OnCompletionRemoved(ctx, gw, h, today.AddDays(-1)))
	assert.Nil(t, h.LastCompleted)

	stored, err := gw.GetHabit(ctx, h.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.LastCompleted)
	assert.Equal(t, 3, stored.Streak)
}

func TestRebuildNeverShrinksLongest(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemoryGateway()
	tracker := NewStreakTracker(testLogger(t))
	h := seedHabit(t, gw, "owner-1", "Run")
	h.LongestStreak = 12
	h.Streak = 9
	require.NoError(t, gw.UpdateHabitProgress(ctx, h))

	for _, d := range []models.Day{today.AddDays(-1), today} {
		require.NoError(t, gw.InsertCompletion(ctx, &models.HabitCompletion{HabitID: h.ID, CompletionDate: d}))
	}
	require.NoError(t, tracker.Rebuild(ctx, gw, h))

	assert.Equal(t, 2, h.Streak)
	assert.Equal(t, 12, h.LongestStreak)
	assert.Equal(t, 2, h.TotalCompletions)
	assert.Equal(t, today, *h.LastCompleted)
}
