package services

import (
	"context"
	"strings"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// JournalInput is one diary entry.
type JournalInput struct {
	OwnerID string
	Title   *string
	Content string
	Mood    int
	Tags    []string
	Date    models.Day
}

// FinanceInput is one income or expense line.
type FinanceInput struct {
	OwnerID     string
	Kind        models.FinanceKind
	Category    string
	Amount      decimal.Decimal
	Date        models.Day
	Description *string
}

// ActivityResult pairs a stored entry with the points it earned. Award is
// nil when awarding failed; the entry is kept regardless.
type ActivityResult[T any] struct {
	Entry   *T           `json:"entry"`
	Award   *AwardResult `json:"award,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

// ActivityService records journal and finance entries and rewards them
// through the injected Rewarder.
type ActivityService struct {
	Store    store.Gateway
	Rewards  Rewarder
	Calendar *Calendar
	Log      *zap.SugaredLogger
}

func NewActivityService(gw store.Gateway, rewards Rewarder, cal *Calendar, log *zap.SugaredLogger) *ActivityService {
	return &ActivityService{Store: gw, Rewards: rewards, Calendar: cal, Log: log}
}

func (s *ActivityService) RecordJournalEntry(ctx context.Context, in JournalInput) (*ActivityResult[models.JournalEntry], error) {
	const op = "record journal entry"
	if in.OwnerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, invalid(op, "content is required")
	}
	mood := in.Mood
	if mood == 0 {
		mood = 5
	}
	if mood < 1 || mood > 10 {
		return nil, invalid(op, "mood must be between 1 and 10, got %d", mood)
	}
	date, err := s.day(op, in.Date)
	if err != nil {
		return nil, err
	}

	e := &models.JournalEntry{
		OwnerID: in.OwnerID,
		Title:   in.Title,
		Content: in.Content,
		Mood:    mood,
		Tags:    in.Tags,
		Date:    date,
	}
	if err := s.Store.CreateJournalEntry(ctx, e); err != nil {
		return nil, fromStore(op, err)
	}

	res := &ActivityResult[models.JournalEntry]{Entry: e}
	res.Award, res.Warning = s.award(ctx, in.OwnerID, JournalPoints(in.Content), ReasonJournalEntry)
	return res, nil
}

func (s *ActivityService) RecordFinanceEntry(ctx context.Context, in FinanceInput) (*ActivityResult[models.FinanceEntry], error) {
	const op = "record finance entry"
	switch {
	case in.OwnerID == "":
		return nil, invalid(op, "owner id is required")
	case in.Kind != models.FinanceKindIncome && in.Kind != models.FinanceKindExpense:
		return nil, invalid(op, "kind must be income or expense, got %q", in.Kind)
	case strings.TrimSpace(in.Category) == "":
		return nil, invalid(op, "category is required")
	case !in.Amount.IsPositive():
		return nil, invalid(op, "amount must be positive, got %s", in.Amount)
	}
	date, err := s.day(op, in.Date)
	if err != nil {
		return nil, err
	}

	e := &models.FinanceEntry{
		OwnerID:     in.OwnerID,
		Kind:        in.Kind,
		Category:    in.Category,
		Amount:      in.Amount,
		Date:        date,
		Description: in.Description,
	}
	if err := s.Store.CreateFinanceEntry(ctx, e); err != nil {
		return nil, fromStore(op, err)
	}

	res := &ActivityResult[models.FinanceEntry]{Entry: e}
	res.Award, res.Warning = s.award(ctx, in.OwnerID, FinancePoints(in.Kind), ReasonFinanceEntry)
	return res, nil
}

func (s *ActivityService) day(op string, d models.Day) (models.Day, error) {
	if d == "" {
		return s.Calendar.Today(), nil
	}
	if !d.Valid() {
		return "", invalid(op, "malformed date %q", string(d))
	}
	return d, nil
}

func (s *ActivityService) award(ctx context.Context, ownerID string, points int64, reason string) (*AwardResult, string) {
	award, err := s.Rewards.Award(ctx, ownerID, points, reason)
	if err != nil {
		return nil, enrichmentWarning(s.Log, strings.ToLower(reason)+" points", err)
	}
	return award, ""
}
