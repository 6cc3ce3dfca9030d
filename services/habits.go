package services

import (
	"context"
	"strings"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"go.uber.org/zap"
)

// NewHabit is the input for HabitService.Create.
type NewHabit struct {
	OwnerID      string
	Title        string
	Kind         models.HabitKind
	Category     *string
	Difficulty   models.HabitDifficulty
	Frequency    models.HabitFrequency
	Description  *string
	TargetStreak int
	StartDate    models.Day
}

// HabitService manages the habit lifecycle. Progress fields are left to the
// ProgressionEngine.
type HabitService struct {
	Store    store.Gateway
	Calendar *Calendar
	Log      *zap.SugaredLogger
}

func NewHabitService(gw store.Gateway, cal *Calendar, log *zap.SugaredLogger) *HabitService {
	return &HabitService{Store: gw, Calendar: cal, Log: log}
}

func (s *HabitService) Create(ctx context.Context, in NewHabit) (*models.Habit, error) {
	const op = "create habit"
	title := strings.TrimSpace(in.Title)
	if in.OwnerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	if title == "" {
		return nil, invalid(op, "title is required")
	}
	if !in.Kind.Valid() {
		return nil, invalid(op, "kind must be build or break, got %q", in.Kind)
	}

	difficulty := in.Difficulty
	switch difficulty {
	case "":
		difficulty = models.HabitDifficultyEasy
	case models.HabitDifficultyEasy, models.HabitDifficultyMedium, models.HabitDifficultyHard:
	default:
		return nil, invalid(op, "unknown difficulty %q", difficulty)
	}
	frequency := in.Frequency
	switch frequency {
	case "":
		frequency = models.HabitFrequencyDaily
	case models.HabitFrequencyDaily, models.HabitFrequencyWeekly, models.HabitFrequencyCustom:
	default:
		return nil, invalid(op, "unknown frequency %q", frequency)
	}

	target := in.TargetStreak
	if target == 0 {
		target = models.DefaultTargetStreak
	}
	if target < 0 {
		return nil, invalid(op, "target streak must be positive, got %d", target)
	}
	start := in.StartDate
	if start == "" {
		start = s.Calendar.Today()
	} else if !start.Valid() {
		return nil, invalid(op, "malformed start date %q", string(start))
	}

	h := &models.Habit{
		OwnerID:      in.OwnerID,
		Title:        title,
		Kind:         in.Kind,
		Category:     in.Category,
		Difficulty:   difficulty,
		Frequency:    frequency,
		Description:  in.Description,
		TargetStreak: target,
		StartDate:    start,
		IsActive:     true,
	}
	if err := s.Store.CreateHabit(ctx, h); err != nil {
		return nil, fromStore(op, err)
	}
	s.Log.Infof("🌱 Habit %q created for %s", h.Title, h.OwnerID)
	return h, nil
}

// List returns the owner's habits; inactive ones only when includeInactive is set.
func (s *HabitService) List(ctx context.Context, ownerID string, includeInactive bool) ([]models.Habit, error) {
	const op = "list habits"
	if ownerID == "" {
		return nil, invalid(op, "owner id is required")
	}
	habits, err := s.Store.ListHabits(ctx, ownerID, !includeInactive)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if habits == nil {
		habits = []models.Habit{}
	}
	return habits, nil
}

func (s *HabitService) Get(ctx context.Context, habitID, ownerID string) (*models.Habit, error) {
	return s.owned(ctx, "get habit", habitID, ownerID)
}

// Completions lists a habit's completion records, newest first.
func (s *HabitService) Completions(ctx context.Context, habitID, ownerID string) ([]models.HabitCompletion, error) {
	const op = "list completions"
	if _, err := s.owned(ctx, op, habitID, ownerID); err != nil {
		return nil, err
	}
	out, err := s.Store.ListCompletions(ctx, habitID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if out == nil {
		out = []models.HabitCompletion{}
	}
	return out, nil
}

// Deactivate hides a habit from the active list. History and streak stay.
func (s *HabitService) Deactivate(ctx context.Context, habitID, ownerID string) error {
	const op = "deactivate habit"
	if _, err := s.owned(ctx, op, habitID, ownerID); err != nil {
		return err
	}
	if err := s.Store.SetHabitActive(ctx, habitID, false); err != nil {
		return fromStore(op, err)
	}
	s.Log.Infof("💤 Habit %s deactivated", habitID)
	return nil
}

// Delete removes a habit and its completions. Points and badges earned from
// it remain.
func (s *HabitService) Delete(ctx context.Context, habitID, ownerID string) error {
	const op = "delete habit"
	if _, err := s.owned(ctx, op, habitID, ownerID); err != nil {
		return err
	}
	if err := s.Store.DeleteHabit(ctx, habitID); err != nil {
		return fromStore(op, err)
	}
	s.Log.Infof("🗑️ Habit %s deleted", habitID)
	return nil
}

func (s *HabitService) owned(ctx context.Context, op, habitID, ownerID string) (*models.Habit, error) {
	if habitID == "" || ownerID == "" {
		return nil, invalid(op, "habit id and owner id are required")
	}
	h, err := s.Store.GetHabit(ctx, habitID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	if h.OwnerID != ownerID {
		return nil, newError(op, ErrNotFound, nil)
	}
	return h, nil
}
