package models

import "github.com/shopspring/decimal"

// HabitMilestones are the streak lengths that earn a badge. A milestone fires
// only when the streak lands exactly on it.
var HabitMilestones = []int{3, 7, 21, 30, 60, 90}

// SavingsMilestone is a badge for completing a goal whose target is at least Amount.
type SavingsMilestone struct {
	Amount decimal.Decimal
	Title  string
}

// SavingsMilestones is sorted by Amount ascending. Every entry the target
// reaches is granted, so one completion can earn several.
var SavingsMilestones = []SavingsMilestone{
	{Amount: decimal.NewFromInt(10000), Title: "First 10K Saved 🎯"},
	{Amount: decimal.NewFromInt(50000), Title: "50K Milestone Achieved 💵"},
	{Amount: decimal.NewFromInt(100000), Title: "100K Savings Champion 🏆"},
	{Amount: decimal.NewFromInt(500000), Title: "Half Million Saver ⭐"},
}

// IsHabitMilestone reports whether streak is exactly one of HabitMilestones.
func IsHabitMilestone(streak int) bool {
	for _, m := range HabitMilestones {
		if m == streak {
			return true
		}
	}
	return false
}
