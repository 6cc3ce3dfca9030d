package services

import (
	"context"
	"strings"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// NewSavingsGoal is the input for GoalService.Create.
type NewSavingsGoal struct {
	OwnerID       string
	Title         string
	Description   *string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      *models.Day
}

// GoalService creates and lists savings goals. Progress on a goal goes
// through ProgressionEngine.RecordSavingsProgress.
type GoalService struct {
	Store store.Gateway
	Log   *zap.SugaredLogger
}

func NewGoalService(gw store.Gateway, log *zap.SugaredLogger) *GoalService {
	return &GoalService{Store: gw, Log: log}
}

func (s *GoalService) Create(ctx context.Context, in NewSavingsGoal) (*models.SavingsGoal, error) {
	const op = "create savings goal"
	title := strings.TrimSpace(in.Title)
	switch {
	case in.OwnerID == "":
		return nil, invalid(op, "owner id is required")
	case title == "":
		return nil, invalid(op, "title is required")
	case !in.TargetAmount.IsPositive():
		return nil, invalid(op, "target amount must be positive, got %s", in.TargetAmount)
	case in.CurrentAmount.IsNegative():
		return nil, invalid(op, "current amount must not be negative, got %s", in.CurrentAmount)
	case in.Deadline != nil && !in.Deadline.Valid():
		return nil, invalid(op, "malformed deadline %q", string(*in.Deadline))
	}

	g := &models.SavingsGoal{
		OwnerID:       in.OwnerID,
		Title:         title,
		Description:   in.Description,
		TargetAmount:  in.TargetAmount,
		CurrentAmount: in.CurrentAmount,
		Deadline:      in.Deadline,
	}
	if err := s.Store.CreateSavingsGoal(ctx, g); err != nil {
		return nil, fromStore(op, err)
	}
	s.Log.Infof("🎯 Savings goal %q (%s) created for %s", g.Title, g.TargetAmount.StringFixed(2), g.OwnerID)
	return g, nil
}

func (s *GoalService) List(ctx context.Context, ownerID string) ([]models.SavingsGoal, error) {
	const op = "list savings goals"
	if ownerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	goals, err := s.Store.ListSavingsGoals(ctx, ownerID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if goals == nil {
		goals = []models.SavingsGoal{}
	}
	return goals, nil
}
