package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"wellness-rewards-system/models"
	"wellness-rewards-system/store"

	"go.uber.org/zap"
)

// ObjectStore is where snapshots are written. utils.R2Store satisfies it.
type ObjectStore interface {
	PutObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

// ProgressSnapshot is the exported view of one owner.
type ProgressSnapshot struct {
	OwnerID     string                     `json:"owner_id"`
	ExportedAt  time.Time                  `json:"exported_at"`
	TotalPoints int64                      `json:"total_points"`
	Level       int                        `json:"level"`
	LedgerSum   int64                      `json:"ledger_sum"`
	Ledger      []models.PointsLedgerEntry `json:"ledger"`
	Grants      []models.RewardGrant       `json:"grants"`
	Habits      []models.Habit             `json:"habits"`
	Goals       []models.SavingsGoal       `json:"goals"`
}

// SnapshotExporter uploads an owner's progress as JSON to object storage.
type SnapshotExporter struct {
	Store    store.Gateway
	Objects  ObjectStore
	Calendar *Calendar
	Log      *zap.SugaredLogger
	// LedgerLimit caps the exported ledger entries, newest first.
	LedgerLimit int
}

func NewSnapshotExporter(gw store.Gateway, objects ObjectStore, cal *Calendar, log *zap.SugaredLogger) *SnapshotExporter {
	return &SnapshotExporter{Store: gw, Objects: objects, Calendar: cal, Log: log, LedgerLimit: 1000}
}

// Build collects the snapshot without uploading it.
func (x *SnapshotExporter) Build(ctx context.Context, ownerID string) (*ProgressSnapshot, error) {
	const op = "build snapshot"
	if ownerID == "" {
		return nil, invalid(op, "owner id is required")
	}

	totals, err := x.Store.GetOwnerTotals(ctx, ownerID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	sum, err := x.Store.SumLedger(ctx, ownerID)
	if err != nil {
		return nil, fromStore(op, err)
	}
	ledger, err := x.Store.ListLedgerEntries(ctx, ownerID, x.LedgerLimit)
	if err != nil {
		return nil, fromStore(op, err)
	}
	grants, err := x.Store.ListRewardGrants(ctx, ownerID, 0)
	if err != nil {
		return nil, fromStore(op, err)
	}
	habits, err := x.Store.ListHabits(ctx, ownerID, false)
	if err != nil {
		return nil, fromStore(op, err)
	}
	goals, err := x.Store.ListSavingsGoals(ctx, ownerID)
	if err != nil {
		return nil, fromStore(op, err)
	}

	return &ProgressSnapshot{
		OwnerID:     ownerID,
		ExportedAt:  x.Calendar.Now().UTC(),
		TotalPoints: totals.TotalPoints,
		Level:       totals.Level,
		LedgerSum:   sum,
		Ledger:      ledger,
		Grants:      grants,
		Habits:      habits,
		Goals:       goals,
	}, nil
}

// Export builds and uploads the snapshot, returning the object URL.
func (x *SnapshotExporter) Export(ctx context.Context, ownerID string) (string, error) {
	const op = "export snapshot"
	if x.Objects == nil {
		return "", newError(op, ErrPersistenceUnavailable, fmt.Errorf("object storage is not configured"))
	}
	snap, err := x.Build(ctx, ownerID)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return "", newError(op, ErrInvalidInput, err)
	}

	key := fmt.Sprintf("snapshots/%s/%s.json", ownerID, snap.ExportedAt.Format("20060102T150405Z"))
	url, err := x.Objects.PutObject(ctx, key, buf.Bytes(), "application/json")
	if err != nil {
		return "", newError(op, ErrPersistenceUnavailable, err)
	}
	x.Log.Infof("📦 Snapshot for %s uploaded to %s", ownerID, url)
	return url, nil
}
