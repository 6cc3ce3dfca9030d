package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDetector(t *testing.T, gw store.Gateway) *BadgeDetector {
	return NewBadgeDetector(gw, NewPointsLedger(gw, testLogger(t)), testLogger(t))
}

func TestCheckHabitMilestoneExactMatchOnly(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemoryGateway()
	d := newTestDetector(t, gw)
	h := &models.Habit{ID: "habit-1", Title: "Meditate"}

	for _, streak := range []int{1, 2, 4, 6, 8, 20, 22, 100} {
		grants, err := d.CheckHabitMilestone(ctx, "owner-1", h, streak)
		require.NoError(t, err)
		assert.Empty(t, grants, "streak %d", streak)
	}
	assert.Zero(t, ownerTotal(t, gw, "owner-1"))

	grants, err := d.CheckHabitMilestone(ctx, "owner-1", h, 7)
	require.NoError(t, err)
	require.Len(t, grants, 1)
	assert.Equal(t, "7 Days Meditate ✅", grants[0].Title)
	assert.Equal(t, "Completed 7 days of Meditate", grants[0].Description)
	assert.Equal(t, grantCode(models.RewardCategoryHabit, "7 Days Meditate ✅"), grants[0].Code)
	assert.True(t, strings.HasPrefix(grants[0].Code, "7-days-meditate-"), grants[0].Code)
	assert.Equal(t, models.RewardCategoryHabit, grants[0].Category)
	assert.Equal(t, int64(MilestoneBadgePoints), ownerTotal(t, gw, "owner-1"))

	// the same milestone again grants nothing and awards nothing
	grants, err = d.CheckHabitMilestone(ctx, "owner-1", h, 7)
	require.NoError(t, err)
	assert.Empty(t, grants)
	assert.Equal(t, int64(MilestoneBadgePoints), ownerTotal(t, gw, "owner-1"))
}

func TestCheckSavingsMilestonesSweep(t *testing.T) {
	cases := []struct {
		target int64
		want   []string
	}{
		{5000, []string{"Savings Goal Achieved: Bike 💰"}},
		{10000, []string{"Savings Goal Achieved: Bike 💰", "First 10K Saved 🎯"}},
		{120000, []string{"Savings Goal Achieved: Bike 💰", "First 10K Saved 🎯", "50K Milestone Achieved 💵", "100K Savings Champion 🏆"}},
		{600000, []string{"Savings Goal Achieved: Bike 💰", "First 10K Saved 🎯", "50K Milestone Achieved 💵", "100K Savings Champion 🏆", "Half Million Saver ⭐"}},
	}
	for _, tc := range cases {
		gw := store.NewMemoryGateway()
		d := newTestDetector(t, gw)

		grants, err := d.CheckSavingsMilestones(context.Background(), "owner-1", decimal.NewFromInt(tc.target), "Bike")
		require.NoError(t, err)
		var titles []string
		for _, g := range grants {
			titles = append(titles, g.Title)
			assert.Equal(t, models.RewardCategoryFinancial, g.Category)
		}
		assert.Equal(t, tc.want, titles, "target %d", tc.target)
		// savings badges carry no points of their own
		assert.Zero(t, ownerTotal(t, gw, "owner-1"))
	}
}

func TestCheckSavingsMilestonesDescriptions(t *testing.T) {
	gw := store.NewMemoryGateway()
	d := newTestDetector(t, gw)

	grants, err := d.CheckSavingsMilestones(context.Background(), "owner-1", decimal.NewFromInt(120000), "Laptop")
	require.NoError(t, err)
	require.Len(t, grants, 4)
	assert.Equal(t, "Successfully saved 120,000 TZS", grants[0].Description)
	assert.Equal(t, "Reached 10,000 TZS savings milestone", grants[1].Description)
}

func TestCheckSavingsMilestonesDeduplicates(t *testing.T) {
	ctx := context.Background()
	gw := store.NewMemoryGateway()
	d := newTestDetector(t, gw)

	first, err := d.CheckSavingsMilestones(ctx, "owner-1", decimal.NewFromInt(60000), "Car")
	require.NoError(t, err)
	assert.Len(t, first, 3)

	// a second goal only adds what is new: its own goal badge and 100K
	second, err := d.CheckSavingsMilestones(ctx, "owner-1", decimal.NewFromInt(150000), "House")
	require.NoError(t, err)
	var titles []string
	for _, g := range second {
		titles = append(titles, g.Title)
	}
	assert.Equal(t, []string{"Savings Goal Achieved: House 💰", "100K Savings Champion 🏆"}, titles)

	all, err := gw.ListRewardGrants(ctx, "owner-1", 0)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCheckSavingsMilestonesKeepsGoingOnFailure(t *testing.T) {
	f := &faults{}
	gw := &flakyGateway{Gateway: store.NewMemoryGateway(), f: f}
	d := newTestDetector(t, gw)
	f.set(false, true)

	grants, err := d.CheckSavingsMilestones(context.Background(), "owner-1", decimal.NewFromInt(60000), "Car")
	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.Empty(t, grants)
}

func TestGrantCodeSeparatesTitlesThatSlugAlike(t *testing.T) {
	ctx := context.Background()

	t.Run("habit titles differing in case and punctuation", func(t *testing.T) {
		gw := store.NewMemoryGateway()
		d := newTestDetector(t, gw)

		first, err := d.CheckHabitMilestone(ctx, "owner-1", &models.Habit{ID: "h-1", Title: "Run!"}, 3)
		require.NoError(t, err)
		second, err := d.CheckHabitMilestone(ctx, "owner-1", &models.Habit{ID: "h-2", Title: "run"}, 3)
		require.NoError(t, err)

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
		assert.Equal(t, int64(2*MilestoneBadgePoints), ownerTotal(t, gw, "owner-1"))
	})

	t.Run("emoji-only habit titles", func(t *testing.T) {
		gw := store.NewMemoryGateway()
		d := newTestDetector(t, gw)

		first, err := d.CheckHabitMilestone(ctx, "owner-1", &models.Habit{ID: "h-1", Title: "💪"}, 7)
		require.NoError(t, err)
		second, err := d.CheckHabitMilestone(ctx, "owner-1", &models.Habit{ID: "h-2", Title: "🏃"}, 7)
		require.NoError(t, err)

		require.Len(t, first, 1)
		require.Len(t, second, 1)
		assert.NotEqual(t, first[0].Code, second[0].Code)
	})

	t.Run("goal titles differing in case and punctuation", func(t *testing.T) {
		gw := store.NewMemoryGateway()
		d := newTestDetector(t, gw)

		first, err := d.CheckSavingsMilestones(ctx, "owner-1", decimal.NewFromInt(5000), "Car")
		require.NoError(t, err)
		second, err := d.CheckSavingsMilestones(ctx, "owner-1", decimal.NewFromInt(5000), "CAR!!")
		require.NoError(t, err)

		assert.Len(t, first, 1)
		assert.Len(t, second, 1)
	})
}

func TestGrantCodeFitsColumn(t *testing.T) {
	long := strings.Repeat("stretch and breathe ", 10)
	code := grantCode(models.RewardCategoryHabit, fmt.Sprintf("30 Days %s ✅", long))
	assert.LessOrEqual(t, len(code), 191)

	// same title in another category is a different grant
	assert.NotEqual(t, grantCode(models.RewardCategoryHabit, "Starter"), grantCode(models.RewardCategoryFinancial, "Starter"))
}
