package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"wellness-rewards-system/models"

	"github.com/google/uuid"
)

// MemoryGateway keeps every record in process memory. WithinTx serializes
// transactions and restores a snapshot when fn fails. Used for tests and the
// "memory" storage backend.
type MemoryGateway struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	st   memState
	now  func() time.Time
}

type grantKey struct {
	owner    string
	category models.RewardCategory
	code     string
}

type memState struct {
	habits      map[string]models.Habit
	completions map[string]map[models.Day]models.HabitCompletion
	ledger      []models.PointsLedgerEntry
	progress    map[string]models.UserProgress
	grants      []models.RewardGrant
	grantIndex  map[grantKey]struct{}
	goals       map[string]models.SavingsGoal
	journal     []models.JournalEntry
	finance     []models.FinanceEntry
}

func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{st: newMemState(), now: time.Now}
}

func newMemState() memState {
	return memState{
		habits:      map[string]models.Habit{},
		completions: map[string]map[models.Day]models.HabitCompletion{},
		progress:    map[string]models.UserProgress{},
		grantIndex:  map[grantKey]struct{}{},
		goals:       map[string]models.SavingsGoal{},
	}
}

func (s memState) clone() memState {
	c := newMemState()
	for k, v := range s.habits {
		c.habits[k] = v
	}
	for habitID, days := range s.completions {
		inner := make(map[models.Day]models.HabitCompletion, len(days))
		for d, comp := range days {
			inner[d] = comp
		}
		c.completions[habitID] = inner
	}
	c.ledger = append([]models.PointsLedgerEntry(nil), s.ledger...)
	for k, v := range s.progress {
		c.progress[k] = v
	}
	c.grants = append([]models.RewardGrant(nil), s.grants...)
	for k := range s.grantIndex {
		c.grantIndex[k] = struct{}{}
	}
	for k, v := range s.goals {
		c.goals[k] = v
	}
	c.journal = append([]models.JournalEntry(nil), s.journal...)
	c.finance = append([]models.FinanceEntry(nil), s.finance...)
	return c
}

// WithinTx holds txMu for the whole of fn. fn must use the gateway it is
// handed, which is m itself.
func (m *MemoryGateway) WithinTx(ctx context.Context, fn func(tx Gateway) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.RLock()
	snapshot := m.st.clone()
	m.mu.RUnlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// --- Habits ---

// GetHabitForUpdate is GetHabit: WithinTx holds txMu for the whole transaction.
func (m *MemoryGateway) GetHabitForUpdate(ctx context.Context, id string) (*models.Habit, error) {
	return m.GetHabit(ctx, id)
}

func (m *MemoryGateway) GetHabit(ctx context.Context, id string) (*models.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.st.habits[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &h, nil
}

func (m *MemoryGateway) CreateHabit(ctx context.Context, h *models.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	if _, exists := m.st.habits[h.ID]; exists {
		return ErrConstraintViolation
	}
	now := m.now()
	h.CreatedAt, h.UpdatedAt = now, now
	m.st.habits[h.ID] = *h
	return nil
}

func (m *MemoryGateway) ListHabits(ctx context.Context, ownerID string, activeOnly bool) ([]models.Habit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.Habit
	for _, h := range m.st.habits {
		if h.OwnerID != ownerID || (activeOnly && !h.IsActive) {
			continue
		}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryGateway) SetHabitActive(ctx context.Context, id string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.st.habits[id]
	if !ok {
		return ErrNotFound
	}
	h.IsActive = active
	h.UpdatedAt = m.now()
	m.st.habits[id] = h
	return nil
}

func (m *MemoryGateway) DeleteHabit(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.habits[id]; !ok {
		return ErrNotFound
	}
	delete(m.st.habits, id)
	delete(m.st.completions, id)
	return nil
}

func (m *MemoryGateway) UpdateHabitProgress(ctx context.Context, h *models.Habit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.st.habits[h.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Streak = h.Streak
	cur.LongestStreak = h.LongestStreak
	cur.TotalCompletions = h.TotalCompletions
	cur.LastCompleted = h.LastCompleted
	cur.UpdatedAt = m.now()
	m.st.habits[h.ID] = cur
	return nil
}

// --- Completions ---

func (m *MemoryGateway) InsertCompletion(ctx context.Context, c *models.HabitCompletion) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days, ok := m.st.completions[c.HabitID]
	if !ok {
		days = map[models.Day]models.HabitCompletion{}
		m.st.completions[c.HabitID] = days
	}
	if _, dup := days[c.CompletionDate]; dup {
		return ErrConstraintViolation
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = m.now()
	days[c.CompletionDate] = *c
	return nil
}

func (m *MemoryGateway) DeleteCompletion(ctx context.Context, habitID string, day models.Day) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	days := m.st.completions[habitID]
	if _, ok := days[day]; !ok {
		return ErrNotFound
	}
	delete(days, day)
	return nil
}

func (m *MemoryGateway) CompletionExists(ctx context.Context, habitID string, day models.Day) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.st.completions[habitID][day]
	return ok, nil
}

func (m *MemoryGateway) LatestCompletionBefore(ctx context.Context, habitID string, day models.Day) (*models.Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Day
	for d := range m.st.completions[habitID] {
		if d.Before(day) && (latest == nil || latest.Before(d)) {
			found := d
			latest = &found
		}
	}
	return latest, nil
}

func (m *MemoryGateway) ListCompletionDays(ctx context.Context, habitID string) ([]models.Day, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	days := make([]models.Day, 0, len(m.st.completions[habitID]))
	for d := range m.st.completions[habitID] {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

func (m *MemoryGateway) ListCompletions(ctx context.Context, habitID string) ([]models.HabitCompletion, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.HabitCompletion, 0, len(m.st.completions[habitID]))
	for _, c := range m.st.completions[habitID] {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompletionDate > out[j].CompletionDate })
	return out, nil
}

// --- Points ledger ---

func (m *MemoryGateway) AppendLedgerEntry(ctx context.Context, e *models.PointsLedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = m.now()
	m.st.ledger = append(m.st.ledger, *e)
	return nil
}

func (m *MemoryGateway) ListLedgerEntries(ctx context.Context, ownerID string, limit int) ([]models.PointsLedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.PointsLedgerEntry
	for i := len(m.st.ledger) - 1; i >= 0; i-- {
		if m.st.ledger[i].OwnerID != ownerID {
			continue
		}
		out = append(out, m.st.ledger[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryGateway) SumLedger(ctx context.Context, ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var sum int64
	for _, e := range m.st.ledger {
		if e.OwnerID == ownerID {
			sum += e.Delta
		}
	}
	return sum, nil
}

func (m *MemoryGateway) ListLedgerOwners(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := map[string]struct{}{}
	var owners []string
	for _, e := range m.st.ledger {
		if _, ok := seen[e.OwnerID]; ok {
			continue
		}
		seen[e.OwnerID] = struct{}{}
		owners = append(owners, e.OwnerID)
	}
	sort.Strings(owners)
	return owners, nil
}

func (m *MemoryGateway) GetOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.st.progress[ownerID]
	if !ok {
		return NewProgress(ownerID), nil
	}
	return &p, nil
}

func (m *MemoryGateway) AddToOwnerTotal(ctx context.Context, ownerID string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.progress[ownerID]
	if !ok {
		p = *NewProgress(ownerID)
		p.ID = uuid.NewString()
		p.CreatedAt = m.now()
	}
	p.TotalPoints += delta
	p.UpdatedAt = m.now()
	m.st.progress[ownerID] = p
	return p.TotalPoints, nil
}

// LockOwnerTotals only seeds the row: transactions already run one at a time.
func (m *MemoryGateway) LockOwnerTotals(ctx context.Context, ownerID string) (*models.UserProgress, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.progress[ownerID]
	if !ok {
		p = *NewProgress(ownerID)
		p.ID = uuid.NewString()
		p.CreatedAt = m.now()
		p.UpdatedAt = p.CreatedAt
		m.st.progress[ownerID] = p
	}
	return &p, nil
}

func (m *MemoryGateway) UpdateOwnerTotals(ctx context.Context, ownerID string, total int64, level int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.st.progress[ownerID]
	if !ok {
		return ErrNotFound
	}
	p.TotalPoints = total
	p.Level = level
	p.UpdatedAt = m.now()
	m.st.progress[ownerID] = p
	return nil
}

// --- Reward grants ---

func (m *MemoryGateway) InsertRewardGrant(ctx context.Context, g *models.RewardGrant) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := grantKey{owner: g.OwnerID, category: g.Category, code: g.Code}
	if _, dup := m.st.grantIndex[key]; dup {
		return ErrConstraintViolation
	}
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.GrantedAt = m.now()
	m.st.grantIndex[key] = struct{}{}
	m.st.grants = append(m.st.grants, *g)
	return nil
}

func (m *MemoryGateway) ExistingGrant(ctx context.Context, ownerID string, category models.RewardCategory, code string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.st.grantIndex[grantKey{owner: ownerID, category: category, code: code}]
	return ok, nil
}

func (m *MemoryGateway) ListRewardGrants(ctx context.Context, ownerID string, limit int) ([]models.RewardGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RewardGrant
	for i := len(m.st.grants) - 1; i >= 0; i-- {
		if m.st.grants[i].OwnerID != ownerID {
			continue
		}
		out = append(out, m.st.grants[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryGateway) ListRewardGrantsSince(ctx context.Context, ownerID string, since time.Time) ([]models.RewardGrant, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.RewardGrant
	for _, g := range m.st.grants {
		if g.OwnerID == ownerID && !g.GrantedAt.Before(since) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *MemoryGateway) CountUnviewedGrants(ctx context.Context, ownerID string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var n int64
	for _, g := range m.st.grants {
		if g.OwnerID == ownerID && !g.Viewed {
			n++
		}
	}
	return n, nil
}

func (m *MemoryGateway) MarkRewardGrantsViewed(ctx context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for i := range m.st.grants {
		if m.st.grants[i].OwnerID == ownerID && !m.st.grants[i].Viewed {
			m.st.grants[i].Viewed = true
			n++
		}
	}
	return n, nil
}

// --- Savings goals ---

func (m *MemoryGateway) CreateSavingsGoal(ctx context.Context, g *models.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	now := m.now()
	g.CreatedAt, g.UpdatedAt = now, now
	m.st.goals[g.ID] = *g
	return nil
}

func (m *MemoryGateway) GetSavingsGoalForUpdate(ctx context.Context, id string) (*models.SavingsGoal, error) {
	return m.GetSavingsGoal(ctx, id)
}

func (m *MemoryGateway) GetSavingsGoal(ctx context.Context, id string) (*models.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.st.goals[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (m *MemoryGateway) ListSavingsGoals(ctx context.Context, ownerID string) ([]models.SavingsGoal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.SavingsGoal
	for _, g := range m.st.goals {
		if g.OwnerID == ownerID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryGateway) UpdateSavingsGoal(ctx context.Context, g *models.SavingsGoal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.st.goals[g.ID]
	if !ok {
		return ErrNotFound
	}
	cur.CurrentAmount = g.CurrentAmount
	cur.IsCompleted = g.IsCompleted
	cur.CompletedAt = g.CompletedAt
	cur.UpdatedAt = m.now()
	m.st.goals[g.ID] = cur
	return nil
}

// --- Activity ---

func (m *MemoryGateway) CreateJournalEntry(ctx context.Context, e *models.JournalEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = m.now()
	m.st.journal = append(m.st.journal, *e)
	return nil
}

func (m *MemoryGateway) CreateFinanceEntry(ctx context.Context, e *models.FinanceEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedAt = m.now()
	m.st.finance = append(m.st.finance, *e)
	return nil
}
