package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"wellness-rewards-system/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormGateway stores records through GORM. Postgres in production; any
// dialect with unique indexes works.
type GormGateway struct {
	DB *gorm.DB
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{DB: db}
}

// AllModels lists every table the gateway owns, in migration order.
func AllModels() []interface{} {
	return []interface{}{
		&models.Habit{},
		&models.HabitCompletion{},
		&models.UserProgress{},
		&models.PointsLedgerEntry{},
		&models.RewardGrant{},
		&models.SavingsGoal{},
		&models.JournalEntry{},
		&models.FinanceEntry{},
	}
}

func (g *GormGateway) Migrate() error {
	return g.DB.AutoMigrate(AllModels()...)
}

func (g *GormGateway) WithinTx(ctx context.Context, fn func(tx Gateway) error) error {
	err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormGateway{DB: tx})
	})
	return translate(err)
}

func (g *GormGateway) db(ctx context.Context) *gorm.DB {
	return g.DB.WithContext(ctx)
}

// --- Habits ---

func (g *GormGateway) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	return g.getHabit(g.db(ctx), id)
}

func (g *GormGateway) GetHabitForUpdate(ctx context.Context, id string) (*models.Habit, error) {
	return g.getHabit(g.db(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (g *GormGateway) getHabit(db *gorm.DB, id string) (*models.Habit, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var h models.Habit
	if err := db.Where("id = ?", id).First(&h).Error; err != nil {
		return nil, translate(err)
	}
	return &h, nil
}

func (g *GormGateway) CreateHabit(ctx context.Context, h *models.Habit) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(h).Error)
}

func (g *GormGateway) ListHabits(ctx context.Context, ownerID string, activeOnly bool) ([]models.Habit, error) {
	var habits []models.Habit
	q := g.db(ctx).Where("owner_id = ?", ownerID)
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Order("created_at DESC").Find(&habits).Error; err != nil {
		return nil, translate(err)
	}
	return habits, nil
}

func (g *GormGateway) SetHabitActive(ctx context.Context, id string, active bool) error {
	res := g.db(ctx).Model(&models.Habit{}).Where("id = ?", id).Update("is_active", active)
	return affected(res)
}

// DeleteHabit removes the habit and its completions for good.
func (g *GormGateway) DeleteHabit(ctx context.Context, id string) error {
	return g.WithinTx(ctx, func(tx Gateway) error {
		db := tx.(*GormGateway).db(ctx)
		if err := db.Where("habit_id = ?", id).Delete(&models.HabitCompletion{}).Error; err != nil {
			return translate(err)
		}
		return affected(db.Unscoped().Where("id = ?", id).Delete(&models.Habit{}))
	})
}

func (g *GormGateway) UpdateHabitProgress(ctx context.Context, h *models.Habit) error {
	res := g.db(ctx).Model(&models.Habit{}).Where("id = ?", h.ID).Updates(map[string]interface{}{
		"streak":            h.Streak,
		"longest_streak":    h.LongestStreak,
		"total_completions": h.TotalCompletions,
		"last_completed":    h.LastCompleted,
	})
	return affected(res)
}

// --- Completions ---

func (g *GormGateway) InsertCompletion(ctx context.Context, c *models.HabitCompletion) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(c).Error)
}

func (g *GormGateway) DeleteCompletion(ctx context.Context, habitID string, day models.Day) error {
	res := g.db(ctx).Where("habit_id = ? AND completion_date = ?", habitID, day).Delete(&models.HabitCompletion{})
	return affected(res)
}

func (g *GormGateway) CompletionExists(ctx context.Context, habitID string, day models.Day) (bool, error) {
	var count int64
	err := g.db(ctx).Model(&models.HabitCompletion{}).
		Where("habit_id = ? AND completion_date = ?", habitID, day).
		Count(&count).Error
	return count > 0, translate(err)
}

func (g *GormGateway) LatestCompletionBefore(ctx context.Context, habitID string, day models.Day) (*models.Day, error) {
	var days []string
	err := g.db(ctx).Model(&models.HabitCompletion{}).
		Where("habit_id = ? AND completion_date < ?", habitID, day).
		Order("completion_date DESC").
		Limit(1).
		Pluck("completion_date", &days).Error
	if err != nil {
		return nil, translate(err)
	}
	if len(days) == 0 {
		return nil, nil
	}
	latest := models.Day(days[0])
	return &latest, nil
}

func (g *GormGateway) ListCompletionDays(ctx context.Context, habitID string) ([]models.Day, error) {
	var raw []string
	err := g.db(ctx).Model(&models.HabitCompletion{}).
		Where("habit_id = ?", habitID).
		Order("completion_date ASC").
		Pluck("completion_date", &raw).Error
	if err != nil {
		return nil, translate(err)
	}
	days := make([]models.Day, len(raw))
	for i, d := range raw {
		days[i] = models.Day(d)
	}
	return days, nil
}

func (g *GormGateway) ListCompletions(ctx context.Context, habitID string) ([]models.HabitCompletion, error) {
	var completions []models.HabitCompletion
	err := g.db(ctx).Where("habit_id = ?", habitID).
		Order("completion_date DESC").
		Find(&completions).Error
	return completions, translate(err)
}

// --- Points ledger ---

func (g *GormGateway) AppendLedgerEntry(ctx context.Context, e *models.PointsLedgerEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(e).Error)
}

func (g *GormGateway) ListLedgerEntries(ctx context.Context, ownerID string, limit int) ([]models.PointsLedgerEntry, error) {
	var entries []models.PointsLedgerEntry
	q := g.db(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&entries).Error
	return entries, translate(err)
}

func (g *GormGateway) SumLedger(ctx context.Context, ownerID string) (int64, error) {
	var sum int64
	err := g.db(ctx).Model(&models.PointsLedgerEntry{}).
		Where("owner_id = ?", ownerID).
		Select("COALESCE(SUM(delta), 0)").
		Scan(&sum).Error
	return sum, translate(err)
}

func (g *GormGateway) ListLedgerOwners(ctx context.Context) ([]string, error) {
	var owners []string
	err := g.db(ctx).Model(&models.PointsLedgerEntry{}).
		Distinct("owner_id").
		Order("owner_id").
		Pluck("owner_id", &owners).Error
	return owners, translate(err)
}

func (g *GormGateway) GetOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	var prog models.UserProgress
	err := g.db(ctx).Where("owner_id = ?", ownerID).First(&prog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewProgress(ownerID), nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return &prog, nil
}

// AddToOwnerTotal increments total_points in a single UPDATE, so concurrent
// callers never lose a write. The row is created on first use.
func (g *GormGateway) AddToOwnerTotal(ctx context.Context, ownerID string, delta int64) (int64, error) {
	db := g.db(ctx)
	seed := models.UserProgress{ID: uuid.NewString(), OwnerID: ownerID, Level: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return 0, translate(err)
	}

	res := db.Model(&models.UserProgress{}).
		Where("owner_id = ?", ownerID).
		Update("total_points", gorm.Expr("total_points + ?", delta))
	if err := affected(res); err != nil {
		return 0, err
	}

	var total int64
	if err := db.Model(&models.UserProgress{}).
		Where("owner_id = ?", ownerID).
		Select("total_points").
		Scan(&total).Error; err != nil {
		return 0, translate(err)
	}
	return total, nil
}

// LockOwnerTotals seeds the row like AddToOwnerTotal, then reads it with
// FOR UPDATE so awards wait until the caller's transaction ends.
func (g *GormGateway) LockOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	db := g.db(ctx)
	seed := models.UserProgress{ID: uuid.NewString(), OwnerID: ownerID, Level: 1}
	if err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoNothing: true,
	}).Create(&seed).Error; err != nil {
		return nil, translate(err)
	}

	var prog models.UserProgress
	if err := db.Clauses(clause.Locking{Strength: "UPDATE"}).Where("owner_id = ?", ownerID).First(&prog).Error; err != nil {
		return nil, translate(err)
	}
	return &prog, nil
}

func (g *GormGateway) UpdateOwnerTotals(ctx context.Context, ownerID string, total int64, level int) error {
	res := g.db(ctx).Model(&models.UserProgress{}).
		Where("owner_id = ?", ownerID).
		Updates(map[string]interface{}{"total_points": total, "level": level})
	return affected(res)
}

// --- Reward grants ---

func (g *GormGateway) InsertRewardGrant(ctx context.Context, r *models.RewardGrant) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(r).Error)
}

func (g *GormGateway) ExistingGrant(ctx context.Context, ownerID string, category models.RewardCategory, code string) (bool, error) {
	var count int64
	err := g.db(ctx).Model(&models.RewardGrant{}).
		Where("owner_id = ? AND category = ? AND code = ?", ownerID, category, code).
		Count(&count).Error
	return count > 0, translate(err)
}

func (g *GormGateway) ListRewardGrants(ctx context.Context, ownerID string, limit int) ([]models.RewardGrant, error) {
	var grants []models.RewardGrant
	q := g.db(ctx).Where("owner_id = ?", ownerID).Order("granted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&grants).Error
	return grants, translate(err)
}

func (g *GormGateway) ListRewardGrantsSince(ctx context.Context, ownerID string, since time.Time) ([]models.RewardGrant, error) {
	var grants []models.RewardGrant
	err := g.db(ctx).
		Where("owner_id = ? AND granted_at >= ?", ownerID, since).
		Order("granted_at ASC").
		Find(&grants).Error
	return grants, translate(err)
}

func (g *GormGateway) CountUnviewedGrants(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := g.db(ctx).Model(&models.RewardGrant{}).
		Where("owner_id = ? AND viewed = ?", ownerID, false).
		Count(&count).Error
	return count, translate(err)
}

func (g *GormGateway) MarkRewardGrantsViewed(ctx context.Context, ownerID string) (int64, error) {
	res := g.db(ctx).Model(&models.RewardGrant{}).
		Where("owner_id = ? AND viewed = ?", ownerID, false).
		Update("viewed", true)
	return res.RowsAffected, translate(res.Error)
}

// --- Savings goals ---

func (g *GormGateway) CreateSavingsGoal(ctx context.Context, goal *models.SavingsGoal) error {
	if goal.ID == "" {
		goal.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(goal).Error)
}

func (g *GormGateway) GetSavingsGoal(ctx context.Context, id string) (*models.SavingsGoal, error) {
	return g.getSavingsGoal(g.db(ctx), id)
}

func (g *GormGateway) GetSavingsGoalForUpdate(ctx context.Context, id string) (*models.SavingsGoal, error) {
	return g.getSavingsGoal(g.db(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), id)
}

func (g *GormGateway) getSavingsGoal(db *gorm.DB, id string) (*models.SavingsGoal, error) {
	if !validID(id) {
		return nil, ErrNotFound
	}
	var goal models.SavingsGoal
	if err := db.Where("id = ?", id).First(&goal).Error; err != nil {
		return nil, translate(err)
	}
	return &goal, nil
}

func (g *GormGateway) ListSavingsGoals(ctx context.Context, ownerID string) ([]models.SavingsGoal, error) {
	var goals []models.SavingsGoal
	err := g.db(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&goals).Error
	return goals, translate(err)
}

func (g *GormGateway) UpdateSavingsGoal(ctx context.Context, goal *models.SavingsGoal) error {
	res := g.db(ctx).Model(&models.SavingsGoal{}).Where("id = ?", goal.ID).Updates(map[string]interface{}{
		"current_amount": goal.CurrentAmount,
		"is_completed":   goal.IsCompleted,
		"completed_at":   goal.CompletedAt,
	})
	return affected(res)
}

// --- Activity ---

func (g *GormGateway) CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(e).Error)
}

func (g *GormGateway) CreateFinanceEntry(ctx context.Context, e *models.FinanceEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return translate(g.db(ctx).Create(e).Error)
}

// --- Error translation ---

func affected(res *gorm.DB) error {
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// validID reports whether id can name a row. Ids are uuid columns, and
// postgres rejects anything else with 22P02 before looking.
func validID(id string) bool {
	return uuid.Validate(id) == nil
}

// translate maps driver and GORM errors onto the gateway sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConstraintViolation), errors.Is(err, ErrUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound), isInvalidText(err):
		return ErrNotFound
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// isInvalidText matches pg 22P02, raised when a path id is not a uuid.
func isInvalidText(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
