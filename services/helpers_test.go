package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const today = models.Day("2024-03-10")

func testLogger(t *testing.T) *zap.SugaredLogger {
	return zaptest.NewLogger(t).Sugar()
}

func testCalendar() *Calendar {
	return NewCalendar(clockwork.NewFakeClockAt(time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)), time.UTC)
}

func newTestEngine(t *testing.T) (*ProgressionEngine, store.Gateway) {
	t.Helper()
	gw := store.NewMemoryGateway()
	return NewProgressionEngine(gw, testCalendar(), testLogger(t)), gw
}

func seedHabit(t *testing.T, gw store.Gateway, owner, title string) *models.Habit {
	t.Helper()
	h := &models.Habit{
		OwnerID:      owner,
		Title:        title,
		Kind:         models.HabitKindBuild,
		Difficulty:   models.HabitDifficultyEasy,
		Frequency:    models.HabitFrequencyDaily,
		TargetStreak: models.DefaultTargetStreak,
		StartDate:    "2024-01-01",
		IsActive:     true,
	}
	require.NoError(t, gw.CreateHabit(context.Background(), h))
	return h
}

func complete(t *testing.T, e *ProgressionEngine, habitID, owner string, day models.Day) *HabitProgress {
	t.Helper()
	res, err := e.RecordHabitCompletion(context.Background(), CompletionInput{HabitID: habitID, OwnerID: owner, Day: day})
	require.NoError(t, err)
	return res
}

func ownerTotal(t *testing.T, gw store.Gateway, owner string) int64 {
	t.Helper()
	p, err := gw.GetOwnerTotals(context.Background(), owner)
	require.NoError(t, err)
	return p.TotalPoints
}

// faults switches individual gateway writes into failure.
type faults struct {
	mu     sync.Mutex
	ledger bool
	grants bool
}

func (f *faults) set(ledger, grants bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ledger, f.grants = ledger, grants
}

func (f *faults) get() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ledger, f.grants
}

// flakyGateway fails ledger appends or grant inserts on demand.
type flakyGateway struct {
	store.Gateway
	f *faults
}

var errFlaky = fmt.Errorf("%w: connection reset", store.ErrUnavailable)

func (g *flakyGateway) WithinTx(ctx context.Context, fn func(tx store.Gateway) error) error {
	return g.Gateway.WithinTx(ctx, func(tx store.Gateway) error {
		return fn(&flakyGateway{Gateway: tx, f: g.f})
	})
}

func (g *flakyGateway) AppendLedgerEntry(ctx context.Context, e *models.PointsLedgerEntry) error {
	if ledger, _ := g.f.get(); ledger {
		return errFlaky
	}
	return g.Gateway.AppendLedgerEntry(ctx, e)
}

func (g *flakyGateway) InsertRewardGrant(ctx context.Context, r *models.RewardGrant) error {
	if _, grants := g.f.get(); grants {
		return errFlaky
	}
	return g.Gateway.InsertRewardGrant(ctx, r)
}

// txSpy records which reads run inside a transaction and in what order.
type txSpy struct {
	store.Gateway
	mu    *sync.Mutex
	inTx  bool
	calls *[]string
}

func newTxSpy(gw store.Gateway) *txSpy {
	return &txSpy{Gateway: gw, mu: &sync.Mutex{}, calls: &[]string{}}
}

func (s *txSpy) record(name string) {
	if !s.inTx {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	*s.calls = append(*s.calls, name)
}

func (s *txSpy) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), *s.calls...)
}

func (s *txSpy) WithinTx(ctx context.Context, fn func(tx store.Gateway) error) error {
	return s.Gateway.WithinTx(ctx, func(tx store.Gateway) error {
		return fn(&txSpy{Gateway: tx, mu: s.mu, inTx: true, calls: s.calls})
	})
}

func (s *txSpy) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	s.record("GetHabit")
	return s.Gateway.GetHabit(ctx, id)
}

func (s *txSpy) GetHabitForUpdate(ctx context.Context, id string) (*models.Habit, error) {
	s.record("GetHabitForUpdate")
	return s.Gateway.GetHabitForUpdate(ctx, id)
}

func (s *txSpy) GetSavingsGoal(ctx context.Context, id string) (*models.SavingsGoal, error) {
	s.record("GetSavingsGoal")
	return s.Gateway.GetSavingsGoal(ctx, id)
}

func (s *txSpy) GetSavingsGoalForUpdate(ctx context.Context, id string) (*models.SavingsGoal, error) {
	s.record("GetSavingsGoalForUpdate")
	return s.Gateway.GetSavingsGoalForUpdate(ctx, id)
}

func (s *txSpy) GetOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	s.record("GetOwnerTotals")
	return s.Gateway.GetOwnerTotals(ctx, ownerID)
}

func (s *txSpy) LockOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	s.record("LockOwnerTotals")
	return s.Gateway.LockOwnerTotals(ctx, ownerID)
}

func (s *txSpy) SumLedger(ctx context.Context, ownerID string) (int64, error) {
	s.record("SumLedger")
	return s.Gateway.SumLedger(ctx, ownerID)
}
