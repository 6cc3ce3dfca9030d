package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// CurrencyCode is appended to amounts in savings badge descriptions.
var CurrencyCode = "TZS"

var amountPrinter = message.NewPrinter(language.English)

var errGrantHeld = errors.New("grant already held")

// maxCodePrefix bounds the readable part of a grant code so the full code
// fits RewardGrant.Code.
const maxCodePrefix = 100

// grantCode keys a grant on its exact category and title. The slug prefix is
// only for people reading the table; the hash keeps titles that slug to the
// same text apart.
func grantCode(category models.RewardCategory, title string) string {
	sum := sha256.Sum256([]byte(string(category) + "\x00" + title))
	hash := hex.EncodeToString(sum[:])
	prefix := slug.Make(title)
	if len(prefix) > maxCodePrefix {
		prefix = strings.TrimRight(prefix[:maxCodePrefix], "-")
	}
	if prefix == "" {
		return hash
	}
	return prefix + "-" + hash
}

func formatAmount(amount decimal.Decimal) string {
	return amountPrinter.Sprintf("%d %s", amount.IntPart(), CurrencyCode)
}

// BadgeDetector turns streak values and completed savings goals into one-time
// RewardGrant records, plus bonus points for habit milestones.
type BadgeDetector struct {
	Store  store.Gateway
	Ledger Rewarder
	Log    *zap.SugaredLogger
}

func NewBadgeDetector(gw store.Gateway, ledger Rewarder, log *zap.SugaredLogger) *BadgeDetector {
	return &BadgeDetector{Store: gw, Ledger: ledger, Log: log}
}

// CheckHabitMilestone grants a badge when newStreak is exactly a milestone.
// Streaks that jump past a milestone do not earn it.
func (s *BadgeDetector) CheckHabitMilestone(ctx context.Context, ownerID string, habit *models.Habit, newStreak int) ([]models.RewardGrant, error) {
	if !models.IsHabitMilestone(newStreak) {
		return nil, nil
	}

	title := habit.Title
	if title == "" {
		title = "Habit"
	}
	grant := models.RewardGrant{
		OwnerID:     ownerID,
		Category:    models.RewardCategoryHabit,
		Title:       fmt.Sprintf("%d Days %s ✅", newStreak, title),
		Description: fmt.Sprintf("Completed %d days of %s", newStreak, title),
		Metadata:    map[string]interface{}{"habit_id": habit.ID, "streak": newStreak},
	}
	granted, err := s.grantOnce(ctx, &grant)
	if err != nil || !granted {
		return nil, err
	}

	grants := []models.RewardGrant{grant}
	if _, err := s.Ledger.Award(ctx, ownerID, MilestoneBadgePoints, fmt.Sprintf("Milestone badge: %d days", newStreak)); err != nil {
		return grants, err
	}
	return grants, nil
}

// CheckSavingsMilestones runs when a goal turns completed. It always grants
// the "goal achieved" badge, then every SavingsMilestones entry the target
// meets or exceeds. Failures on one grant do not stop the others.
func (s *BadgeDetector) CheckSavingsMilestones(ctx context.Context, ownerID string, targetAmount decimal.Decimal, goalTitle string) ([]models.RewardGrant, error) {
	candidates := []models.RewardGrant{{
		OwnerID:     ownerID,
		Category:    models.RewardCategoryFinancial,
		Title:       fmt.Sprintf("Savings Goal Achieved: %s 💰", goalTitle),
		Description: fmt.Sprintf("Successfully saved %s", formatAmount(targetAmount)),
		Metadata:    map[string]interface{}{"target_amount": targetAmount.String()},
	}}
	for _, m := range models.SavingsMilestones {
		if targetAmount.LessThan(m.Amount) {
			break
		}
		candidates = append(candidates, models.RewardGrant{
			OwnerID:     ownerID,
			Category:    models.RewardCategoryFinancial,
			Title:       m.Title,
			Description: fmt.Sprintf("Reached %s savings milestone", formatAmount(m.Amount)),
			Metadata:    map[string]interface{}{"milestone": m.Amount.String()},
		})
	}

	var (
		grants []models.RewardGrant
		errs   []error
	)
	for i := range candidates {
		granted, err := s.grantOnce(ctx, &candidates[i])
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if granted {
			grants = append(grants, candidates[i])
		}
	}
	return grants, errors.Join(errs...)
}

// grantOnce inserts g unless the owner already holds a grant with the same
// category and code. The unique index catches races the pre-check misses.
func (s *BadgeDetector) grantOnce(ctx context.Context, g *models.RewardGrant) (bool, error) {
	const op = "grant reward"
	if g.Code == "" {
		g.Code = grantCode(g.Category, g.Title)
	}

	err := s.Store.WithinTx(ctx, func(tx store.Gateway) error {
		exists, err := tx.ExistingGrant(ctx, g.OwnerID, g.Category, g.Code)
		if err != nil {
			return err
		}
		if exists {
			return errGrantHeld
		}
		return tx.InsertRewardGrant(ctx, g)
	})
	switch {
	case errors.Is(err, errGrantHeld), errors.Is(err, store.ErrConstraintViolation):
		s.Log.Debugf("Badge %q already held by %s", g.Code, g.OwnerID)
		return false, nil
	case err != nil:
		return false, fromStore(op, err)
	}
	s.Log.Infof("🎖️ Badge awarded: %s → %s", g.Title, g.OwnerID)
	return true, nil
}
