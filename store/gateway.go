// Package store is the persistence gateway behind the progress engine.
package store

import (
	"context"
	"errors"
	"time"

	"wellness-rewards-system/models"
)

var (
	// ErrNotFound is returned when a lookup, update or delete matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrConstraintViolation is returned when a write breaks a uniqueness constraint.
	ErrConstraintViolation = errors.New("constraint violation")
	// ErrUnavailable wraps any other storage failure. Callers may retry.
	ErrUnavailable = errors.New("storage unavailable")
)

// Gateway is the record-level contract the engine needs from storage.
//
// InsertCompletion must enforce (habit_id, completion_date) uniqueness
// atomically and report a duplicate as ErrConstraintViolation.
// InsertRewardGrant does the same for (owner_id, category, code).
// AddToOwnerTotal must be an atomic increment.
//
// The ForUpdate reads and LockOwnerTotals hold a row lock until the
// surrounding WithinTx ends; outside a transaction they are plain reads.
type Gateway interface {
	// WithinTx runs fn against a gateway whose writes commit or roll back together.
	WithinTx(ctx context.Context, fn func(tx Gateway) error) error

	GetHabit(ctx context.Context, id string) (*models.Habit, error)
	GetHabitForUpdate(ctx context.Context, id string) (*models.Habit, error)
	CreateHabit(ctx context.Context, h *models.Habit) error
	ListHabits(ctx context.Context, ownerID string, activeOnly bool) ([]models.Habit, error)
	SetHabitActive(ctx context.Context, id string, active bool) error
	DeleteHabit(ctx context.Context, id string) error
	UpdateHabitProgress(ctx context.Context, h *models.Habit) error

	InsertCompletion(ctx context.Context, c *models.HabitCompletion) error
	DeleteCompletion(ctx context.Context, habitID string, day models.Day) error
	CompletionExists(ctx context.Context, habitID string, day models.Day) (bool, error)
	LatestCompletionBefore(ctx context.Context, habitID string, day models.Day) (*models.Day, error)
	ListCompletionDays(ctx context.Context, habitID string) ([]models.Day, error)
	ListCompletions(ctx context.Context, habitID string) ([]models.HabitCompletion, error)

	AppendLedgerEntry(ctx context.Context, e *models.PointsLedgerEntry) error
	ListLedgerEntries(ctx context.Context, ownerID string, limit int) ([]models.PointsLedgerEntry, error)
	SumLedger(ctx context.Context, ownerID string) (int64, error)
	ListLedgerOwners(ctx context.Context) ([]string, error)
	GetOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error)
	AddToOwnerTotal(ctx context.Context, ownerID string, delta int64) (int64, error)
	UpdateOwnerTotals(ctx context.Context, ownerID string, total int64, level int) error
	// LockOwnerTotals creates the totals row if missing and locks it.
	LockOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error)

	InsertRewardGrant(ctx context.Context, g *models.RewardGrant) error
	ExistingGrant(ctx context.Context, ownerID string, category models.RewardCategory, code string) (bool, error)
	ListRewardGrants(ctx context.Context, ownerID string, limit int) ([]models.RewardGrant, error)
	// ListRewardGrantsSince returns grants at or after since, oldest first.
	ListRewardGrantsSince(ctx context.Context, ownerID string, since time.Time) ([]models.RewardGrant, error)
	CountUnviewedGrants(ctx context.Context, ownerID string) (int64, error)
	MarkRewardGrantsViewed(ctx context.Context, ownerID string) (int64, error)

	CreateSavingsGoal(ctx context.Context, g *models.SavingsGoal) error
	GetSavingsGoal(ctx context.Context, id string) (*models.SavingsGoal, error)
	GetSavingsGoalForUpdate(ctx context.Context, id string) (*models.SavingsGoal, error)
	ListSavingsGoals(ctx context.Context, ownerID string) ([]models.SavingsGoal, error)
	UpdateSavingsGoal(ctx context.Context, g *models.SavingsGoal) error

	CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error
	CreateFinanceEntry(ctx context.Context, e *models.FinanceEntry) error
}

// NewProgress is the totals row of an owner who has never earned points.
func NewProgress(ownerID string) *models.UserProgress {
	return &models.UserProgress{OwnerID: ownerID, TotalPoints: 0, Level: 1}
}
