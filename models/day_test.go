package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	d, err := ParseDay("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, Day("2024-02-29"), d)

	_, err = ParseDay("2023-02-29")
	assert.Error(t, err)
	_, err = ParseDay("29/02/2024")
	assert.Error(t, err)
	assert.False(t, Day("").Valid())
}

func TestDayArithmetic(t *testing.T) {
	d := Day("2024-12-31")
	assert.Equal(t, Day("2025-01-01"), d.AddDays(1))
	assert.Equal(t, Day("2024-12-26"), d.AddDays(-5))
	assert.Equal(t, 1, DaysBetween(d, d.AddDays(1)))
	assert.Equal(t, 0, DaysBetween(d, d))
	assert.Equal(t, -3, DaysBetween(d, d.AddDays(-3)))
	assert.True(t, d.Before(d.AddDays(1)))
}

func TestDayOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	instant := time.Date(2024, 3, 10, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, Day("2024-03-10"), DayOf(instant))
	assert.Equal(t, Day("2024-03-11"), DayOf(instant.In(loc)))
}

func TestSavingsMilestonesSorted(t *testing.T) {
	for i := 1; i < len(SavingsMilestones); i++ {
		assert.True(t, SavingsMilestones[i-1].Amount.LessThan(SavingsMilestones[i].Amount))
	}
	assert.True(t, IsHabitMilestone(7))
	assert.False(t, IsHabitMilestone(8))
}
