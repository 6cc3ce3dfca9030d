package services

import (
	"context"
	"sort"
	"strings"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"go.uber.org/zap"
)

// LevelThresholds holds the minimum total for each level; index i is level i+1.
// Must stay sorted ascending. Totals past the last entry stay at the top level.
var LevelThresholds = []int64{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5500}

// MaxLevel is the highest reachable level.
func MaxLevel() int { return len(LevelThresholds) }

// LevelOf maps a points total onto LevelThresholds.
func LevelOf(total int64) int {
	// first threshold strictly above total
	i := sort.Search(len(LevelThresholds), func(i int) bool { return LevelThresholds[i] > total })
	if i == 0 {
		return 1
	}
	return i
}

// NextLevelAt returns the total needed for level+1, or false at the top level.
func NextLevelAt(level int) (int64, bool) {
	if level < 1 {
		level = 1
	}
	if level >= len(LevelThresholds) {
		return 0, false
	}
	return LevelThresholds[level], true
}

// Award reasons written to the ledger
const (
	ReasonHabitCompletion = "Habit completion"
	ReasonJournalEntry    = "Journal entry"
	ReasonFinanceEntry    = "Finance tracking"
	ReasonSavingsGoal     = "Savings goal completed"
)

// Point values
const (
	HabitCompletionBasePoints = 10
	MilestoneBadgePoints      = 50
	SavingsGoalPoints         = 100
	JournalBasePoints         = 5
	FinanceBasePoints         = 3
	FinanceIncomeBonus        = 2
)

// StreakBonus adds Bonus once the streak is at least MinStreak. Bonuses stack.
type StreakBonus struct {
	MinStreak int
	Bonus     int64
}

var HabitStreakBonuses = []StreakBonus{
	{MinStreak: 7, Bonus: 5},
	{MinStreak: 21, Bonus: 10},
	{MinStreak: 30, Bonus: 15},
}

func HabitCompletionPoints(streak int) int64 {
	points := int64(HabitCompletionBasePoints)
	for _, b := range HabitStreakBonuses {
		if streak >= b.MinStreak {
			points += b.Bonus
		}
	}
	return points
}

// JournalPoints gives 5 per entry, +5 past 100 words and +5 more past 200.
func JournalPoints(content string) int64 {
	words := len(strings.Fields(content))
	points := int64(JournalBasePoints)
	if words > 100 {
		points += 5
	}
	if words > 200 {
		points += 5
	}
	return points
}

func FinancePoints(kind models.FinanceKind) int64 {
	points := int64(FinanceBasePoints)
	if kind == models.FinanceKindIncome {
		points += FinanceIncomeBonus
	}
	return points
}

// AwardResult is the owner's state right after a ledger append.
type AwardResult struct {
	Delta     int64  `json:"delta"`
	Reason    string `json:"reason"`
	Total     int64  `json:"total"`
	Level     int    `json:"level"`
	LeveledUp bool   `json:"leveled_up"`
}

// Rewarder is how call sites outside the engine (journal, finance) grant points.
type Rewarder interface {
	Award(ctx context.Context, ownerID string, delta int64, reason string) (*AwardResult, error)
}

// PointsLedger appends point grants and keeps the cached total and level in step.
type PointsLedger struct {
	Store store.Gateway
	Log   *zap.SugaredLogger
}

func NewPointsLedger(gw store.Gateway, log *zap.SugaredLogger) *PointsLedger {
	return &PointsLedger{Store: gw, Log: log}
}

// Award appends one ledger entry and updates total and level in the same
// transaction. The total is incremented atomically, so concurrent awards to
// one owner never lose points.
func (l *PointsLedger) Award(ctx context.Context, ownerID string, delta int64, reason string) (*AwardResult, error) {
	const op = "award points"
	if ownerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	if delta <= 0 {
		return nil, invalid(op, "delta must be positive, got %d", delta)
	}

	var res *AwardResult
	err := l.Store.WithinTx(ctx, func(tx store.Gateway) error {
		entry := &models.PointsLedgerEntry{OwnerID: ownerID, Delta: delta, Reason: reason}
		if err := tx.AppendLedgerEntry(ctx, entry); err != nil {
			return err
		}
		total, err := tx.AddToOwnerTotal(ctx, ownerID, delta)
		if err != nil {
			return err
		}
		oldLevel := LevelOf(total - delta)
		newLevel := LevelOf(total)
		if err := tx.UpdateOwnerTotals(ctx, ownerID, total, newLevel); err != nil {
			return err
		}
		res = &AwardResult{
			Delta:     delta,
			Reason:    reason,
			Total:     total,
			Level:     newLevel,
			LeveledUp: newLevel > oldLevel,
		}
		return nil
	})
	if err != nil {
		return nil, fromStore(op, err)
	}

	l.Log.Infof("🎮 Points awarded: %s +%d → total=%d, level=%d (reason: %s)", ownerID, delta, res.Total, res.Level, reason)
	if res.LeveledUp {
		l.Log.Infof("⬆️ Level up: %s reached level %d", ownerID, res.Level)
	}
	return res, nil
}
