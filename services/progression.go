package services

import (
	"context"
	"errors"
	"fmt"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CompletionInput is one "I did it today" check-in.
type CompletionInput struct {
	HabitID string
	OwnerID string
	// Day defaults to today in the engine's calendar.
	Day     models.Day
	Note    *string
	Trigger *string
	Mood    *int
}

// HabitProgress is the combined state returned by completion writes.
type HabitProgress struct {
	HabitID          string               `json:"habit_id"`
	Day              models.Day           `json:"day"`
	Streak           int                  `json:"streak"`
	LongestStreak    int                  `json:"longest_streak"`
	TotalCompletions int                  `json:"total_completions"`
	LastCompleted    *models.Day          `json:"last_completed,omitempty"`
	PointsAwarded    int64                `json:"points_awarded"`
	TotalPoints      int64                `json:"total_points"`
	Level            int                  `json:"level"`
	LeveledUp        bool                 `json:"leveled_up"`
	BadgesGranted    []models.RewardGrant `json:"badges_granted"`
	AlreadyCompleted bool                 `json:"already_completed"`
	// Warnings lists enrichment steps (points, badges) that failed after the
	// completion itself was stored.
	Warnings []string `json:"warnings,omitempty"`
}

// SavingsProgress is the result of RecordSavingsProgress.
type SavingsProgress struct {
	Goal          *models.SavingsGoal  `json:"goal"`
	JustCompleted bool                 `json:"just_completed"`
	PointsAwarded int64                `json:"points_awarded"`
	TotalPoints   int64                `json:"total_points"`
	Level         int                  `json:"level"`
	LeveledUp     bool                 `json:"leveled_up"`
	BadgesGranted []models.RewardGrant `json:"badges_granted"`
	Warnings      []string             `json:"warnings,omitempty"`
}

// ProgressSummary is an owner's read-only points view.
type ProgressSummary struct {
	OwnerID       string                     `json:"owner_id"`
	TotalPoints   int64                      `json:"total_points"`
	Level         int                        `json:"level"`
	MaxLevel      bool                       `json:"max_level"`
	NextLevelAt   int64                      `json:"next_level_at,omitempty"`
	PointsToNext  int64                      `json:"points_to_next,omitempty"`
	RecentEntries []models.PointsLedgerEntry `json:"recent_entries"`
}

// ProgressionEngine is the only writer of habit progress, points totals and
// reward grants. Handlers, workers and the CLI go through it.
type ProgressionEngine struct {
	Store    store.Gateway
	Calendar *Calendar
	Streaks  *StreakTracker
	Ledger   *PointsLedger
	Badges   *BadgeDetector
	Log      *zap.SugaredLogger
}

func NewProgressionEngine(gw store.Gateway, cal *Calendar, log *zap.SugaredLogger) *ProgressionEngine {
	ledger := NewPointsLedger(gw, log)
	return &ProgressionEngine{
		Store:    gw,
		Calendar: cal,
		Streaks:  NewStreakTracker(log),
		Ledger:   ledger,
		Badges:   NewBadgeDetector(gw, ledger, log),
		Log:      log,
	}
}

// DefaultCompletionNote is written when a check-in carries a trigger but no note.
func DefaultCompletionNote(trigger string, mood *int) string {
	m := "N/A"
	if mood != nil {
		m = fmt.Sprintf("%d", *mood)
	}
	return fmt.Sprintf("Trigger: %s. Mood: %s/10", trigger, m)
}

func (e *ProgressionEngine) resolveDay(op string, day models.Day) (models.Day, error) {
	if day == "" {
		return e.Calendar.Today(), nil
	}
	if !day.Valid() {
		return "", invalid(op, "malformed date %q", string(day))
	}
	return day, nil
}

// ownedHabit loads a habit and hides other owners' habits behind NotFound.
func (e *ProgressionEngine) ownedHabit(ctx context.Context, gw store.Gateway, op, habitID, ownerID string) (*models.Habit, error) {
	h, err := gw.GetHabit(ctx, habitID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if h.OwnerID != ownerID {
		return nil, newError(op, ErrNotFound, fmt.Errorf("habit %s", habitID))
	}
	return h, nil
}

// RecordHabitCompletion stores a completion, advances the streak, then grants
// badges and points. A repeat for the same day is not an error: the result
// carries AlreadyCompleted and the current state.
func (e *ProgressionEngine) RecordHabitCompletion(ctx context.Context, in CompletionInput) (*HabitProgress, error) {
	const op = "record habit completion"
	if in.HabitID == "" || in.OwnerID == "" {
		return nil, invalid(op, "habit id and owner id are required")
	}
	day, err := e.resolveDay(op, in.Day)
	if err != nil {
		return nil, err
	}
	if in.Mood != nil && (*in.Mood < 1 || *in.Mood > 10) {
		return nil, invalid(op, "mood must be between 1 and 10, got %d", *in.Mood)
	}
	note := in.Note
	if note == nil && in.Trigger != nil && *in.Trigger != "" {
		n := DefaultCompletionNote(*in.Trigger, in.Mood)
		note = &n
	}

	if _, err := e.ownedHabit(ctx, e.Store, op, in.HabitID, in.OwnerID); err != nil {
		return nil, err
	}

	var (
		habit  *models.Habit
		streak int
	)
	// The insert runs first: a duplicate day aborts the transaction before
	// anything else is written.
	err = e.Store.WithinTx(ctx, func(tx store.Gateway) error {
		c := &models.HabitCompletion{
			HabitID:        in.HabitID,
			CompletionDate: day,
			Note:           note,
			Trigger:        in.Trigger,
			Mood:           in.Mood,
		}
		if err := tx.InsertCompletion(ctx, c); err != nil {
			return err
		}
		// concurrent completions on other days queue here
		h, err := tx.GetHabitForUpdate(ctx, in.HabitID)
		if err != nil {
			return err
		}
		s, err := e.Streaks.OnCompletionAdded(ctx, tx, h, day)
		if err != nil {
			return err
		}
		habit, streak = h, s
		return nil
	})
	if errors.Is(err, store.ErrConstraintViolation) {
		return e.alreadyCompleted(ctx, op, in.HabitID, in.OwnerID, day, err)
	}
	if err != nil {
		return nil, fromStore(op, err)
	}

	e.Log.Infof("✅ Habit %s completed on %s by %s (streak %d)", habit.ID, day, in.OwnerID, streak)
	res := progressOf(habit, day)

	badges, err := e.Badges.CheckHabitMilestone(ctx, in.OwnerID, habit, streak)
	res.BadgesGranted = append(res.BadgesGranted, badges...)
	if err != nil {
		res.warn(e.Log, "milestone badge", err)
	} else if len(badges) > 0 {
		res.PointsAwarded += MilestoneBadgePoints
	}

	award, err := e.Ledger.Award(ctx, in.OwnerID, HabitCompletionPoints(streak), ReasonHabitCompletion)
	if err != nil {
		res.warn(e.Log, "completion points", err)
	} else {
		res.PointsAwarded += award.Delta
		res.LeveledUp = award.LeveledUp
	}
	e.fillTotals(ctx, in.OwnerID, &res.TotalPoints, &res.Level, &res.Warnings)
	if res.PointsAwarded > 0 && !res.LeveledUp {
		// the milestone award may have crossed the threshold on its own
		res.LeveledUp = LevelOf(res.TotalPoints-res.PointsAwarded) < res.Level
	}
	return res, nil
}

// alreadyCompleted handles a constraint violation on insert. If the day really
// exists it returns the current state, repairing cached habit fields that a
// partially applied earlier attempt left behind.
func (e *ProgressionEngine) alreadyCompleted(ctx context.Context, op, habitID, ownerID string, day models.Day, cause error) (*HabitProgress, error) {
	exists, err := e.Store.CompletionExists(ctx, habitID, day)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if !exists {
		return nil, newError(op, ErrConstraintViolation, cause)
	}

	var h *models.Habit
	err = e.Store.WithinTx(ctx, func(tx store.Gateway) error {
		locked, err := tx.GetHabitForUpdate(ctx, habitID)
		if err != nil {
			return err
		}
		if locked.OwnerID != ownerID {
			return store.ErrNotFound
		}
		h = locked
		if h.LastCompleted != nil && !h.LastCompleted.Before(day) {
			return nil
		}
		e.Log.Warnf("⚠️ Habit %s has completion on %s but cache says %v, rebuilding", habitID, day, h.LastCompleted)
		return e.Streaks.Rebuild(ctx, tx, h)
	})
	if err != nil {
		return nil, fromStore(op, err)
	}

	e.Log.Debugf("Habit %s already completed on %s", habitID, day)
	res := progressOf(h, day)
	res.AlreadyCompleted = true
	e.fillTotals(ctx, ownerID, &res.TotalPoints, &res.Level, &res.Warnings)
	return res, nil
}

// RemoveHabitCompletion deletes the completion for day and moves
// last_completed back. Points and badges already granted stay.
func (e *ProgressionEngine) RemoveHabitCompletion(ctx context.Context, habitID, ownerID string, day models.Day) (*HabitProgress, error) {
	const op = "remove habit completion"
	if habitID == "" || ownerID == "" {
		return nil, invalid(op, "habit id and owner id are required")
	}
	day, err := e.resolveDay(op, day)
	if err != nil {
		return nil, err
	}
	if _, err := e.ownedHabit(ctx, e.Store, op, habitID, ownerID); err != nil {
		return nil, err
	}

	var habit *models.Habit
	err = e.Store.WithinTx(ctx, func(tx store.Gateway) error {
		if err := tx.DeleteCompletion(ctx, habitID, day); err != nil {
			return err
		}
		h, err := tx.GetHabitForUpdate(ctx, habitID)
		if err != nil {
			return err
		}
		if err := e.Streaks.OnCompletionRemoved(ctx, tx, h, day); err != nil {
			return err
		}
		habit = h
		return nil
	})
	if err != nil {
		return nil, fromStore(op, err)
	}

	e.Log.Infof("↩️ Habit %s completion on %s removed by %s", habitID, day, ownerID)
	res := progressOf(habit, day)
	e.fillTotals(ctx, ownerID, &res.TotalPoints, &res.Level, &res.Warnings)
	return res, nil
}

// SavingsUpdate is a change to a savings goal. MarkCompleted completes the
// goal even when CurrentAmount is still below target.
type SavingsUpdate struct {
	CurrentAmount decimal.Decimal
	MarkCompleted bool
}

// RecordSavingsProgress sets a goal's current amount. The first time the
// amount reaches the target the goal is marked completed, savings badges are
// swept and the completion bonus is awarded.
func (e *ProgressionEngine) RecordSavingsProgress(ctx context.Context, goalID, ownerID string, newCurrent decimal.Decimal) (*SavingsProgress, error) {
	return e.UpdateSavingsGoal(ctx, goalID, ownerID, SavingsUpdate{CurrentAmount: newCurrent})
}

// UpdateSavingsGoal applies u. The goal completes, once, when the amount
// reaches the target or the owner marks it completed.
func (e *ProgressionEngine) UpdateSavingsGoal(ctx context.Context, goalID, ownerID string, u SavingsUpdate) (*SavingsProgress, error) {
	const op = "record savings progress"
	newCurrent := u.CurrentAmount
	if goalID == "" || ownerID == "" {
		return nil, invalid(op, "goal id and owner id are required")
	}
	if newCurrent.IsNegative() {
		return nil, invalid(op, "current amount must not be negative, got %s", newCurrent)
	}

	var (
		goal          *models.SavingsGoal
		justCompleted bool
	)
	err := e.Store.WithinTx(ctx, func(tx store.Gateway) error {
		g, err := tx.GetSavingsGoalForUpdate(ctx, goalID)
		if err != nil {
			return err
		}
		if g.OwnerID != ownerID {
			return store.ErrNotFound
		}
		g.CurrentAmount = newCurrent
		// completion is one-way: dropping below target later keeps it
		if !g.IsCompleted && (g.Reached() || u.MarkCompleted) {
			now := e.Calendar.Now()
			g.IsCompleted = true
			g.CompletedAt = &now
			justCompleted = true
		}
		if err := tx.UpdateSavingsGoal(ctx, g); err != nil {
			return err
		}
		goal = g
		return nil
	})
	if err != nil {
		return nil, fromStore(op, err)
	}

	res := &SavingsProgress{Goal: goal, JustCompleted: justCompleted, BadgesGranted: []models.RewardGrant{}}
	if justCompleted {
		e.Log.Infof("💰 Savings goal %q completed by %s", goal.Title, ownerID)

		badges, err := e.Badges.CheckSavingsMilestones(ctx, ownerID, goal.TargetAmount, goal.Title)
		res.BadgesGranted = append(res.BadgesGranted, badges...)
		if err != nil {
			res.Warnings = append(res.Warnings, enrichmentWarning(e.Log, "savings badges", err))
		}

		award, err := e.Ledger.Award(ctx, ownerID, SavingsGoalPoints, ReasonSavingsGoal)
		if err != nil {
			res.Warnings = append(res.Warnings, enrichmentWarning(e.Log, "savings points", err))
		} else {
			res.PointsAwarded = award.Delta
			res.LeveledUp = award.LeveledUp
		}
	}
	e.fillTotals(ctx, ownerID, &res.TotalPoints, &res.Level, &res.Warnings)
	return res, nil
}

// GetProgress reads an owner's totals and the most recent ledger entries.
func (e *ProgressionEngine) GetProgress(ctx context.Context, ownerID string, recent int) (*ProgressSummary, error) {
	const op = "get progress"
	if ownerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	if recent <= 0 {
		recent = 10
	}
	p, err := e.Store.GetOwnerTotals(ctx, ownerID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	entries, err := e.Store.ListLedgerEntries(ctx, ownerID, recent)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if entries == nil {
		entries = []models.PointsLedgerEntry{}
	}

	level := LevelOf(p.TotalPoints)
	sum := &ProgressSummary{
		OwnerID:       ownerID,
		TotalPoints:   p.TotalPoints,
		Level:         level,
		RecentEntries: entries,
	}
	if next, ok := NextLevelAt(level); ok {
		sum.NextLevelAt = next
		sum.PointsToNext = next - p.TotalPoints
	} else {
		sum.MaxLevel = true
	}
	return sum, nil
}

// RebuildHabit re-derives a habit's cached progress from its completions.
func (e *ProgressionEngine) RebuildHabit(ctx context.Context, habitID string) (*models.Habit, error) {
	const op = "rebuild habit"
	var habit *models.Habit
	err := e.Store.WithinTx(ctx, func(tx store.Gateway) error {
		h, err := tx.GetHabitForUpdate(ctx, habitID)
		if err != nil {
			return err
		}
		if err := e.Streaks.Rebuild(ctx, tx, h); err != nil {
			return err
		}
		habit = h
		return nil
	})
	if err != nil {
		return nil, fromStore(op, err)
	}
	return habit, nil
}

func progressOf(h *models.Habit, day models.Day) *HabitProgress {
	return &HabitProgress{
		HabitID:          h.ID,
		Day:              day,
		Streak:           h.Streak,
		LongestStreak:    h.LongestStreak,
		TotalCompletions: h.TotalCompletions,
		LastCompleted:    h.LastCompleted,
		BadgesGranted:    []models.RewardGrant{},
	}
}

func (p *HabitProgress) warn(log *zap.SugaredLogger, step string, err error) {
	p.Warnings = append(p.Warnings, enrichmentWarning(log, step, err))
}

func enrichmentWarning(log *zap.SugaredLogger, step string, err error) string {
	log.Errorf("❌ %s failed: %v", step, err)
	return fmt.Sprintf("%s: %v", step, err)
}

// fillTotals reads the owner's totals for the result. A failed read is a
// warning, not an error, since the primary write already happened.
func (e *ProgressionEngine) fillTotals(ctx context.Context, ownerID string, total *int64, level *int, warnings *[]string) {
	p, err := e.Store.GetOwnerTotals(ctx, ownerID)
	if err != nil {
		*warnings = append(*warnings, enrichmentWarning(e.Log, "read totals", err))
		return
	}
	*total = p.TotalPoints
	*level = LevelOf(p.TotalPoints)
}
