package services

import (
	"context"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"go.uber.org/zap"
)

// StreakTracker owns a habit's streak, longest streak, lifetime completions
// and last completion day. Nothing else writes those fields.
type StreakTracker struct {
	Log *zap.SugaredLogger
}

func NewStreakTracker(log *zap.SugaredLogger) *StreakTracker {
	return &StreakTracker{Log: log}
}

// nextStreak applies the gap rule for a new completion on day.
//
//	no previous completion → 1
//	gap == 1               → streak + 1
//	gap == 0               → unchanged
//	gap > 1                → 1
//
// A day before last_completed (gap < 0) is a back-filled entry: it counts
// toward the total but leaves the current run alone.
func nextStreak(h *models.Habit, day models.Day) int {
	if h.LastCompleted == nil {
		return 1
	}
	gap := models.DaysBetween(*h.LastCompleted, day)
	switch {
	case gap == 1:
		return h.Streak + 1
	case gap <= 0:
		return h.Streak
	default:
		return 1
	}
}

// applyCompletion mutates h for a completion on day and returns the new streak.
func applyCompletion(h *models.Habit, day models.Day) int {
	h.Streak = nextStreak(h, day)
	if h.Streak > h.LongestStreak {
		h.LongestStreak = h.Streak
	}
	h.TotalCompletions++
	if h.LastCompleted == nil || h.LastCompleted.Before(day) {
		d := day
		h.LastCompleted = &d
	}
	return h.Streak
}

// OnCompletionAdded records a completion that the caller has already inserted.
// It persists through gw and returns the new streak.
func (t *StreakTracker) OnCompletionAdded(ctx context.Context, gw store.Gateway, h *models.Habit, day models.Day) (int, error) {
	prev := h.Streak
	streak := applyCompletion(h, day)
	if err := gw.UpdateHabitProgress(ctx, h); err != nil {
		return 0, err
	}
	t.Log.Debugf("🔥 Streak %s: %d → %d (longest %d, total %d)", h.ID, prev, streak, h.LongestStreak, h.TotalCompletions)
	return streak, nil
}

// OnCompletionRemoved moves last_completed back to the latest remaining
// completion before day. Only the latest day matters; removing an older
// completion changes nothing cached.
//
// The streak value is deliberately left as it was: undoing a completion does
// not roll back the increment it produced.
func (t *StreakTracker) OnCompletionRemoved(ctx context.Context, gw store.Gateway, h *models.Habit, day models.Day) error {
	if h.LastCompleted == nil || *h.LastCompleted != day {
		return nil
	}
	latest, err := gw.LatestCompletionBefore(ctx, h.ID, day)
	if err != nil {
		return err
	}
	h.LastCompleted = latest
	if err := gw.UpdateHabitProgress(ctx, h); err != nil {
		return err
	}
	t.Log.Debugf("↩️ Completion %s removed from %s; last completed now %v", day, h.ID, latest)
	return nil
}

// HistoryProgress is habit progress recomputed from the completion days.
type HistoryProgress struct {
	Streak           int
	LongestStreak    int
	TotalCompletions int
	LastCompleted    *models.Day
}

// DeriveFromHistory walks ascending, de-duplicated completion days. Streak is
// the run ending at the last completion.
func DeriveFromHistory(days []models.Day) HistoryProgress {
	var p HistoryProgress
	run := 0
	var prev models.Day
	for i, d := range days {
		if i > 0 && models.DaysBetween(prev, d) == 1 {
			run++
		} else {
			run = 1
		}
		if run > p.LongestStreak {
			p.LongestStreak = run
		}
		prev = d
	}
	p.Streak = run
	p.TotalCompletions = len(days)
	if len(days) > 0 {
		last := days[len(days)-1]
		p.LastCompleted = &last
	}
	return p
}

// Rebuild re-derives the cached fields from the stored completion history.
// The longest streak never shrinks.
func (t *StreakTracker) Rebuild(ctx context.Context, gw store.Gateway, h *models.Habit) error {
	days, err := gw.ListCompletionDays(ctx, h.ID)
	if err != nil {
		return err
	}
	p := DeriveFromHistory(days)
	h.Streak = p.Streak
	if p.LongestStreak > h.LongestStreak {
		h.LongestStreak = p.LongestStreak
	}
	if h.LongestStreak < h.Streak {
		h.LongestStreak = h.Streak
	}
	h.TotalCompletions = p.TotalCompletions
	h.LastCompleted = p.LastCompleted
	if err := gw.UpdateHabitProgress(ctx, h); err != nil {
		return err
	}
	t.Log.Infof("🛠️ Habit %s rebuilt from %d completions: streak=%d longest=%d", h.ID, len(days), h.Streak, h.LongestStreak)
	return nil
}
